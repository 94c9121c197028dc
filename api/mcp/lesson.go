package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chorus/pkg/lessons"
)

var (
	recordLessonToolName    = "record_lesson"
	recordLessonDescription = "Record a categorised lesson in the shared CLAUDE.md knowledge file. Duplicate lessons within the recent window are skipped. Categories: ARCHITECTURE, TESTING, LINTER, BUILD, USER_FEEDBACK, STYLE, PERFORMANCE, SECURITY, GENERAL."

	recallLessonsToolName    = "recall_lessons"
	recallLessonsDescription = "Recall lessons from the shared knowledge file, optionally filtered by category or scored against keywords. Use this before starting work to avoid repeating known mistakes."
)

// RecordLessonInput represents the input arguments for the MCP record_lesson
// tool.
type RecordLessonInput struct {
	Category string `json:"category" jsonschema:"lesson category from the fixed enumeration"`
	Lesson   string `json:"lesson" jsonschema:"the lesson body, free markdown"`
}

// RecordLessonOutput represents the structured output of a lesson recording.
type RecordLessonOutput struct {
	Recorded bool   `json:"recorded"`
	Category string `json:"category,omitempty"`
}

// handleRecordLesson appends a lesson unless it is a recent duplicate.
func (s *Server) handleRecordLesson(_ context.Context, _ *mcp.CallToolRequest, input RecordLessonInput) (*mcp.CallToolResult, RecordLessonOutput, error) {
	if input.Category == "" {
		return s.mistake("category is required"), RecordLessonOutput{}, nil
	}
	if strings.TrimSpace(input.Lesson) == "" {
		return s.mistake("lesson is required"), RecordLessonOutput{}, nil
	}

	category, err := lessons.ParseCategory(input.Category)
	if err != nil {
		return s.mistake(fmt.Sprintf("invalid category %q; valid categories: %s", input.Category, categoryList())), RecordLessonOutput{}, nil
	}

	recorded, err := s.config.Lessons.Record(s.config.WorkspaceRoot, category, input.Lesson)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to record lesson: %v", err)), RecordLessonOutput{}, nil
	}

	output := RecordLessonOutput{Recorded: recorded, Category: string(category)}
	if !recorded {
		return textResult("Lesson skipped (duplicate detected)"), output, nil
	}
	return textResult(fmt.Sprintf("Lesson recorded in CLAUDE.md under [%s]", category)), output, nil
}

// RecallLessonsInput represents the input arguments for the MCP
// recall_lessons tool.
type RecallLessonsInput struct {
	Category string   `json:"category,omitempty" jsonschema:"restrict to one category"`
	Keywords []string `json:"keywords,omitempty" jsonschema:"score lessons by distinct keyword matches, best first"`
}

// RecallLessonsOutput represents the structured output of a lessons recall.
type RecallLessonsOutput struct {
	Lessons []lessons.Lesson `json:"lessons"`
}

// handleRecallLessons lists, filters, or searches the lessons store.
func (s *Server) handleRecallLessons(_ context.Context, _ *mcp.CallToolRequest, input RecallLessonsInput) (*mcp.CallToolResult, RecallLessonsOutput, error) {
	var (
		got []lessons.Lesson
		err error
	)

	switch {
	case len(input.Keywords) > 0:
		got, err = s.config.Lessons.Search(s.config.WorkspaceRoot, input.Keywords)

	case input.Category != "":
		var category lessons.Category
		category, err = lessons.ParseCategory(input.Category)
		if err != nil {
			return s.mistake(fmt.Sprintf("invalid category %q; valid categories: %s", input.Category, categoryList())), RecallLessonsOutput{}, nil
		}
		got, err = s.config.Lessons.ListByCategory(s.config.WorkspaceRoot, category)

	default:
		got, err = s.config.Lessons.List(s.config.WorkspaceRoot)
	}

	if err != nil {
		return errorResult(fmt.Sprintf("Failed to recall lessons: %v", err)), RecallLessonsOutput{}, nil
	}

	if got == nil {
		got = []lessons.Lesson{}
	}
	output := RecallLessonsOutput{Lessons: got}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), RecallLessonsOutput{}, nil
	}

	return textResult(string(jsonBytes)), output, nil
}

func categoryList() string {
	all := lessons.Categories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
