// Package snapshot implements optimistic concurrency baselines for file
// writes.
//
// A snapshot records the content digest a holder (an agent session) last
// observed for a file. Before a write is allowed, the stored digest is
// compared against the file's current on-disk content; a mismatch means
// another writer got there first and the write is stale.
//
// State is in-memory only and scoped to one workspace. Entries expire via
// the sweeper; nothing blocks waiting for expiry.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/papercomputeco/chorus/pkg/hashutil"
	"github.com/papercomputeco/chorus/pkg/pathmatch"
)

const (
	// DefaultTTL is how long a snapshot stays valid without being released.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is the cadence of the background sweeper.
	DefaultSweepInterval = 60 * time.Second
)

// Snapshot is one recorded baseline for a (path, holder) pair.
type Snapshot struct {
	Path       string
	Holder     string
	Digest     string
	CapturedAt time.Time
}

// Store tracks snapshots for a single workspace.
type Store struct {
	workspaceRoot string

	mu    sync.Mutex
	files map[string]map[string]Snapshot

	now func() time.Time

	sweeping bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a snapshot store rooted at the workspace.
func NewStore(workspaceRoot string, opts ...Option) *Store {
	s := &Store{
		workspaceRoot: workspaceRoot,
		files:         make(map[string]map[string]Snapshot),
		now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture records the digest of content under (path, holder), overwriting
// any existing entry for the pair and refreshing its timestamp.
func (s *Store) Capture(path, content, holder string) {
	rel := pathmatch.Normalize(s.workspaceRoot, path)

	s.mu.Lock()
	defer s.mu.Unlock()

	holders, ok := s.files[rel]
	if !ok {
		holders = make(map[string]Snapshot)
		s.files[rel] = holders
	}
	holders[holder] = Snapshot{
		Path:       rel,
		Holder:     holder,
		Digest:     hashutil.Digest(content),
		CapturedAt: s.now(),
	}
}

// CaptureFromDisk reads the file and captures its current content.
func (s *Store) CaptureFromDisk(path, holder string) error {
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		return fmt.Errorf("reading %s for snapshot: %w", path, err)
	}
	s.Capture(path, string(data), holder)
	return nil
}

// Verify re-reads the file and compares against the stored digest.
//
// No snapshot for the pair means no prior read and therefore no stale
// contract: Verify returns true. A read failure returns false together with
// the error so callers can distinguish a stale baseline from broken I/O.
// The stored digest is never refreshed on success; the baseline stays fixed
// until released or recaptured.
func (s *Store) Verify(path, holder string) (bool, error) {
	rel := pathmatch.Normalize(s.workspaceRoot, path)

	s.mu.Lock()
	snap, ok := s.lookup(rel, holder)
	s.mu.Unlock()

	if !ok {
		return true, nil
	}

	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		return false, fmt.Errorf("reading %s for verification: %w", path, err)
	}

	return hashutil.Digest(string(data)) == snap.Digest, nil
}

// Release removes the snapshot for (path, holder) if it belongs to holder.
func (s *Store) Release(path, holder string) {
	rel := pathmatch.Normalize(s.workspaceRoot, path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if holders, ok := s.files[rel]; ok {
		delete(holders, holder)
		if len(holders) == 0 {
			delete(s.files, rel)
		}
	}
}

// ReleaseAll removes every snapshot held by holder. Used on session teardown.
func (s *Store) ReleaseAll(holder string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for rel, holders := range s.files {
		delete(holders, holder)
		if len(holders) == 0 {
			delete(s.files, rel)
		}
	}
}

// Sweep removes snapshots older than maxAge and returns how many went.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for rel, holders := range s.files {
		for holder, snap := range holders {
			if snap.CapturedAt.Before(cutoff) {
				delete(holders, holder)
				removed++
			}
		}
		if len(holders) == 0 {
			delete(s.files, rel)
		}
	}
	return removed
}

// Get returns the snapshot for (path, holder) if one exists.
func (s *Store) Get(path, holder string) (Snapshot, bool) {
	rel := pathmatch.Normalize(s.workspaceRoot, path)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(rel, holder)
}

// Count returns the number of live snapshots.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, holders := range s.files {
		n += len(holders)
	}
	return n
}

// StartSweeper launches the background eviction loop. Calling it more than
// once is a no-op.
func (s *Store) StartSweeper(interval, maxAge time.Duration) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Sweep(maxAge)
			}
		}
	}()
}

// StopSweeper stops the background loop and waits for it to exit.
// A no-op if the sweeper was never started.
func (s *Store) StopSweeper() {
	s.mu.Lock()
	started := s.sweeping
	s.mu.Unlock()
	if !started {
		return
	}

	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

// lookup must be called with s.mu held.
func (s *Store) lookup(rel, holder string) (Snapshot, bool) {
	holders, ok := s.files[rel]
	if !ok {
		return Snapshot{}, false
	}
	snap, ok := holders[holder]
	return snap, ok
}

// abs resolves a path for disk access.
func (s *Store) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.workspaceRoot, filepath.FromSlash(pathmatch.Normalize(s.workspaceRoot, path)))
}
