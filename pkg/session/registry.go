// Package session tracks agent sessions and their activity.
//
// A session is the unit of optimistic-concurrency ownership: reads and
// writes by one agent are correlated through its session id. Sessions are
// in-memory, created on first interaction and evicted after activity
// idleness exceeds the TTL.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// IDPrefix is the fixed prefix of generated session ids.
	IDPrefix = "agent-"

	// DefaultTTL is how long a session survives without activity.
	DefaultTTL = 30 * time.Minute

	// DefaultSweepInterval is the cadence of the background sweeper.
	DefaultSweepInterval = 300 * time.Second
)

// NewID returns a fresh session id: the fixed prefix plus 8 hex characters.
func NewID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Session is a snapshot of one agent session's state.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IntentID     string    `json:"intent_id,omitempty"`
	Files        []string  `json:"files,omitempty"`
}

type record struct {
	createdAt    time.Time
	lastActivity time.Time
	intentID     string
	files        map[string]struct{}
}

// Registry is the in-memory session store.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*record
	now      func() time.Time

	sweeping bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty session registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*record),
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates the session if it does not exist and binds the optional
// intent id. Re-registering an existing session refreshes activity and, when
// intentID is non-empty, rebinds the intent.
func (r *Registry) Register(id, intentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		now := r.now()
		rec = &record{
			createdAt:    now,
			lastActivity: now,
			files:        make(map[string]struct{}),
		}
		r.sessions[id] = rec
	}
	rec.lastActivity = r.now()
	if intentID != "" {
		rec.intentID = intentID
	}
}

// Unregister removes the session.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Touch refreshes the session's last-activity time. Unknown ids are ignored.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.sessions[id]; ok {
		rec.lastActivity = r.now()
	}
}

// BindIntent sets the session's active intent, creating the session if
// needed.
func (r *Registry) BindIntent(id, intentID string) {
	r.Register(id, intentID)
}

// IntentFor returns the intent bound to the session, if any.
func (r *Registry) IntentFor(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok || rec.intentID == "" {
		return "", false
	}
	return rec.intentID, true
}

// AddFile records a workspace-relative path as observed by the session and
// refreshes activity.
func (r *Registry) AddFile(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return
	}
	rec.files[path] = struct{}{}
	rec.lastActivity = r.now()
}

// RemoveFile drops a path from the session's observed set.
func (r *Registry) RemoveFile(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.sessions[id]; ok {
		delete(rec.files, path)
	}
}

// IsActive reports whether the session exists.
func (r *Registry) IsActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	return ok
}

// ListActive returns a copy of every live session, ordered by id.
func (r *Registry) ListActive() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	for id, rec := range r.sessions {
		files := make([]string, 0, len(rec.files))
		for f := range rec.files {
			files = append(files, f)
		}
		sort.Strings(files)

		out = append(out, Session{
			ID:           id,
			CreatedAt:    rec.createdAt,
			LastActivity: rec.lastActivity,
			IntentID:     rec.intentID,
			Files:        files,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep evicts sessions idle longer than maxAge and returns how many went.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.sessions {
		if rec.lastActivity.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper launches the background eviction loop. Calling it more than
// once is a no-op.
func (r *Registry) StartSweeper(interval, maxAge time.Duration) {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		return
	}
	r.sweeping = true
	r.mu.Unlock()

	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.Sweep(maxAge)
			}
		}
	}()
}

// StopSweeper stops the background loop and waits for it to exit.
// A no-op if the sweeper was never started.
func (r *Registry) StopSweeper() {
	r.mu.Lock()
	started := r.sweeping
	r.mu.Unlock()
	if !started {
		return
	}

	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}
