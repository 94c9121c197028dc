package api

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/intentmap"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/trace"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IntentMapSection is one intent's slice of the map for JSON consumers.
type IntentMapSection struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Paths []string `json:"paths"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleTrace returns every valid ledger entry in file order.
func (s *Server) handleTrace(c *fiber.Ctx) error {
	entries, err := s.deps.Ledger.Read(s.config.WorkspaceRoot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read trace ledger"})
	}
	if entries == nil {
		entries = []trace.Entry{}
	}
	return c.JSON(entries)
}

// handleIntents returns the declared intent catalog.
func (s *Server) handleIntents(c *fiber.Ctx) error {
	intents, err := s.deps.Catalog.Load(s.config.WorkspaceRoot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read intent catalog"})
	}
	if intents == nil {
		intents = []intent.Intent{}
	}
	return c.JSON(intents)
}

// handleIntentMap returns the parsed intent → files map.
func (s *Server) handleIntentMap(c *fiber.Ctx) error {
	paths, names, err := intentmap.Read(s.config.WorkspaceRoot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read intent map"})
	}

	sections := make([]IntentMapSection, 0, len(paths))
	for _, id := range sortedIDs(paths) {
		sections = append(sections, IntentMapSection{
			ID:    id,
			Name:  names[id],
			Paths: paths[id],
		})
	}
	return c.JSON(sections)
}

// handleLessons returns lessons, optionally filtered by category or scored
// against search keywords (?q=comma,separated).
func (s *Server) handleLessons(c *fiber.Ctx) error {
	var (
		got []lessons.Lesson
		err error
	)

	switch {
	case c.Query("q") != "":
		keywords := strings.Split(c.Query("q"), ",")
		got, err = s.deps.Lessons.Search(s.config.WorkspaceRoot, keywords)

	case c.Query("category") != "":
		var category lessons.Category
		category, err = lessons.ParseCategory(c.Query("category"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		got, err = s.deps.Lessons.ListByCategory(s.config.WorkspaceRoot, category)

	default:
		got, err = s.deps.Lessons.List(s.config.WorkspaceRoot)
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read lessons"})
	}
	if got == nil {
		got = []lessons.Lesson{}
	}
	return c.JSON(got)
}

// handleSessions returns the live agent sessions.
func (s *Server) handleSessions(c *fiber.Ctx) error {
	return c.JSON(s.deps.Sessions.ListActive())
}

// handleStats returns workspace-level counters.
func (s *Server) handleStats(c *fiber.Ctx) error {
	entries, err := s.deps.Ledger.Read(s.config.WorkspaceRoot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read trace ledger"})
	}

	all, err := s.deps.Lessons.List(s.config.WorkspaceRoot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read lessons"})
	}

	var mistakes int64
	if s.config.Mistakes != nil {
		mistakes = s.config.Mistakes()
	}

	stats := map[string]any{
		"trace_entries":   len(entries),
		"lessons":         len(all),
		"sessions_active": len(s.deps.Sessions.ListActive()),
		"snapshots_live":  s.deps.Snapshots.Count(),
		"revision":        s.deps.Probe.CurrentRevision(s.config.WorkspaceRoot),
		"mistakes":        mistakes,
	}
	return c.JSON(stats)
}

func sortedIDs(m map[string][]string) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
