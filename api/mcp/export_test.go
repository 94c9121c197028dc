package mcp

// Handler methods exposed to the external test package.
var (
	HandleTrackRead     = (*Server).handleTrackRead
	HandleGuardWrite    = (*Server).handleGuardWrite
	HandleRecordWrite   = (*Server).handleRecordWrite
	HandleSelectIntent  = (*Server).handleSelectIntent
	HandleRecordLesson  = (*Server).handleRecordLesson
	HandleRecallLessons = (*Server).handleRecallLessons
)
