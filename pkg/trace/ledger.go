package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

// ErrInvalidEntry indicates an entry failed schema validation and was not
// appended. Raised only to internal callers building entries.
var ErrInvalidEntry = errors.New("invalid trace entry")

var contentHashRe = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// Ledger appends and reads trace entries, one JSON object per line.
//
// Appends are serialised per workspace root and issued as a single write so
// concurrent in-process writers cannot interleave bytes within a line.
// Cross-process writers are out of scope; O_APPEND keeps accidental ones
// from corrupting existing lines on POSIX.
type Ledger struct {
	mu         sync.Mutex
	workspaces map[string]*sync.Mutex

	validate *validator.Validate
	logger   *slog.Logger
}

// NewLedger creates a ledger with schema validation wired up.
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// content_hash: the literal sha256: prefix plus 64 lowercase hex chars.
	_ = v.RegisterValidation("content_hash", func(fl validator.FieldLevel) bool {
		return contentHashRe.MatchString(fl.Field().String())
	})

	return &Ledger{
		workspaces: make(map[string]*sync.Mutex),
		validate:   v,
		logger:     logger,
	}
}

// Validate checks an entry against the schema without writing it.
func (l *Ledger) Validate(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	}
	if err := l.validate.Struct(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

// Append validates the entry and appends it to the workspace ledger as one
// JSONL line. Returns [ErrInvalidEntry] when validation rejects the entry.
func (l *Ledger) Append(workspaceRoot string, entry *Entry) error {
	if err := l.Validate(entry); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding trace entry: %w", err)
	}

	lock := l.workspaceLock(workspaceRoot)
	lock.Lock()
	defer lock.Unlock()

	if _, err := orchdir.Ensure(workspaceRoot); err != nil {
		return err
	}

	f, err := os.OpenFile(orchdir.TracePath(workspaceRoot), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening trace ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending trace entry: %w", err)
	}
	return nil
}

// Read parses the workspace ledger line by line, in file order. Lines that
// fail to parse or validate are skipped with a warning. A missing ledger
// yields an empty slice.
func (l *Ledger) Read(workspaceRoot string) ([]Entry, error) {
	f, err := os.Open(orchdir.TracePath(workspaceRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening trace ledger: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			l.logger.Warn("skipping unparseable trace line", "line", lineNo, "error", err)
			continue
		}
		if err := l.Validate(&entry); err != nil {
			l.logger.Warn("skipping invalid trace line", "line", lineNo, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading trace ledger: %w", err)
	}

	return entries, nil
}

func (l *Ledger) workspaceLock(workspaceRoot string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.workspaces[workspaceRoot]
	if !ok {
		lock = &sync.Mutex{}
		l.workspaces[workspaceRoot] = lock
	}
	return lock
}
