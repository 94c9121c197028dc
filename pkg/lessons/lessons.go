// Package lessons maintains the shared, categorised knowledge file agents
// append to as they work.
//
// The document is append-only markdown with one section per lesson. A
// recent-window duplicate check (the last five sections) keeps agents from
// re-recording the same lesson in quick succession; an older lesson may
// legally reappear once it falls out of the window.
package lessons

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

// Category classifies a lesson. The enumeration is closed; callers must
// reject anything else before calling Record.
type Category string

const (
	CategoryArchitecture Category = "ARCHITECTURE"
	CategoryTesting      Category = "TESTING"
	CategoryLinter       Category = "LINTER"
	CategoryBuild        Category = "BUILD"
	CategoryUserFeedback Category = "USER_FEEDBACK"
	CategoryStyle        Category = "STYLE"
	CategoryPerformance  Category = "PERFORMANCE"
	CategorySecurity     Category = "SECURITY"
	CategoryGeneral      Category = "GENERAL"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryArchitecture,
		CategoryTesting,
		CategoryLinter,
		CategoryBuild,
		CategoryUserFeedback,
		CategoryStyle,
		CategoryPerformance,
		CategorySecurity,
		CategoryGeneral,
	}
}

// ErrUnknownCategory indicates a category outside the enumeration.
var ErrUnknownCategory = errors.New("unknown lesson category")

// ParseCategory validates a raw category string, case-insensitively.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

// Lesson is one parsed section of the document.
type Lesson struct {
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Body      string    `json:"body"`
}

const (
	header = "# Shared Lessons\n\nOperational knowledge captured by agents working in this workspace.\n"

	// dedupWindow is how many most-recent sections the duplicate check
	// inspects.
	dedupWindow = 5

	timeLayout = "2006-01-02 15:04"
)

var headingRe = regexp.MustCompile(`^## \[([A-Z_]+)\] (\d{4}-\d{2}-\d{2} \d{2}:\d{2})$`)

// Store serialises read-modify-write cycles on the lessons document, one
// mutex per workspace root.
type Store struct {
	mu         sync.Mutex
	workspaces map[string]*sync.Mutex
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a lessons store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		workspaces: make(map[string]*sync.Mutex),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a lesson unless its body already occurs within the recent
// dedup window. Returns true when the lesson was recorded, false on a
// duplicate no-op.
func (s *Store) Record(workspaceRoot string, category Category, body string) (bool, error) {
	lock := s.workspaceLock(workspaceRoot)
	lock.Lock()
	defer lock.Unlock()

	existing, err := read(workspaceRoot)
	if err != nil {
		return false, err
	}

	trimmed := strings.TrimSpace(body)
	if isDuplicate(existing, trimmed) {
		return false, nil
	}

	if _, err := orchdir.Ensure(workspaceRoot); err != nil {
		return false, err
	}

	doc := existing
	if doc == "" {
		doc = header
	}
	doc += fmt.Sprintf("\n## [%s] %s\n%s\n---\n", category, s.now().Format(timeLayout), trimmed)

	if err := os.WriteFile(orchdir.LessonsPath(workspaceRoot), []byte(doc), 0o644); err != nil {
		return false, fmt.Errorf("writing lessons: %w", err)
	}
	return true, nil
}

// List parses every lesson in file order.
func (s *Store) List(workspaceRoot string) ([]Lesson, error) {
	doc, err := read(workspaceRoot)
	if err != nil {
		return nil, err
	}
	return parse(doc), nil
}

// ListByCategory filters List by category.
func (s *Store) ListByCategory(workspaceRoot string, category Category) ([]Lesson, error) {
	all, err := s.List(workspaceRoot)
	if err != nil {
		return nil, err
	}

	var out []Lesson
	for _, l := range all {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out, nil
}

// Search scores lessons by how many distinct keywords match their body,
// case-insensitively, and returns matches in descending score order.
func (s *Store) Search(workspaceRoot string, keywords []string) ([]Lesson, error) {
	all, err := s.List(workspaceRoot)
	if err != nil {
		return nil, err
	}

	type scored struct {
		lesson Lesson
		score  int
		index  int
	}

	var hits []scored
	for i, l := range all {
		body := strings.ToLower(l.Body)
		score := 0
		for _, kw := range keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw == "" {
				continue
			}
			if strings.Contains(body, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{lesson: l, score: score, index: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].index < hits[j].index
	})

	out := make([]Lesson, len(hits))
	for i, h := range hits {
		out[i] = h.lesson
	}
	return out, nil
}

func (s *Store) workspaceLock(workspaceRoot string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.workspaces[workspaceRoot]
	if !ok {
		lock = &sync.Mutex{}
		s.workspaces[workspaceRoot] = lock
	}
	return lock
}

// isDuplicate checks the trimmed body against the last dedupWindow sections.
func isDuplicate(doc, body string) bool {
	if body == "" || doc == "" {
		return false
	}

	sections := splitSections(doc)
	start := len(sections) - dedupWindow
	if start < 0 {
		start = 0
	}
	for _, section := range sections[start:] {
		if strings.Contains(section, body) {
			return true
		}
	}
	return false
}

// splitSections splits the document on "---" separator lines.
func splitSections(doc string) []string {
	var sections []string
	var current []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.TrimSpace(line) == "---" {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// parse extracts (category, timestamp, body) triples from the document.
func parse(doc string) []Lesson {
	var out []Lesson
	for _, section := range splitSections(doc) {
		lines := strings.Split(section, "\n")

		var lesson *Lesson
		var body []string
		for _, line := range lines {
			if m := headingRe.FindStringSubmatch(strings.TrimRight(line, " \t")); m != nil {
				ts, err := time.ParseInLocation(timeLayout, m[2], time.Local)
				if err != nil {
					continue
				}
				lesson = &Lesson{Category: Category(m[1]), Timestamp: ts}
				body = body[:0]
				continue
			}
			if lesson != nil {
				body = append(body, line)
			}
		}
		if lesson != nil {
			lesson.Body = strings.TrimSpace(strings.Join(body, "\n"))
			out = append(out, *lesson)
		}
	}
	return out
}

func read(workspaceRoot string) (string, error) {
	data, err := os.ReadFile(orchdir.LessonsPath(workspaceRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading lessons: %w", err)
	}
	return string(data), nil
}
