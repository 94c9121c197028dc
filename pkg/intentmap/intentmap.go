// Package intentmap maintains the derived markdown map of intent → files.
//
// The map is a read-modify-write document: each accepted write upserts the
// touched path under its intent's section. The trace ledger is the source of
// truth; the map is a human-readable projection that the next successful
// write repairs if it ever drifts.
package intentmap

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/papercomputeco/chorus/pkg/orchdir"
	"github.com/papercomputeco/chorus/pkg/pathmatch"
)

const (
	header = "# Intent Map"
	blurb  = "Files touched by each active intent. Maintained by chorus; do not edit by hand."

	emptyMarker = "*No files mapped yet*"
)

// Writer serialises read-modify-write cycles on the intent map, one mutex
// per workspace root.
type Writer struct {
	mu         sync.Mutex
	workspaces map[string]*sync.Mutex
}

// NewWriter creates an intent map writer.
func NewWriter() *Writer {
	return &Writer{workspaces: make(map[string]*sync.Mutex)}
}

// Upsert adds the normalised path to the intent's section, creating the
// section (and the document) as needed. A non-empty intentName refreshes the
// section heading. Re-upserting an existing path is a no-op.
func (w *Writer) Upsert(workspaceRoot, intentID, path, intentName string) error {
	lock := w.workspaceLock(workspaceRoot)
	lock.Lock()
	defer lock.Unlock()

	doc, err := load(workspaceRoot)
	if err != nil {
		return err
	}

	rel := pathmatch.Normalize(workspaceRoot, path)
	doc.add(intentID, rel, intentName)

	return save(workspaceRoot, doc)
}

// Remove drops the path from the intent's section; an emptied section is
// dropped with it. A missing map file is a no-op.
func (w *Writer) Remove(workspaceRoot, intentID, path string) error {
	lock := w.workspaceLock(workspaceRoot)
	lock.Lock()
	defer lock.Unlock()

	doc, err := load(workspaceRoot)
	if err != nil {
		return err
	}
	if doc.empty() {
		return nil
	}

	rel := pathmatch.Normalize(workspaceRoot, path)
	if !doc.remove(intentID, rel) {
		return nil
	}

	return save(workspaceRoot, doc)
}

// Read parses the workspace map into intent id → sorted paths. A missing
// file yields an empty map.
func Read(workspaceRoot string) (map[string][]string, map[string]string, error) {
	doc, err := load(workspaceRoot)
	if err != nil {
		return nil, nil, err
	}

	out := make(map[string][]string, len(doc.paths))
	for id, set := range doc.paths {
		out[id] = sortedKeys(set)
	}
	return out, doc.names, nil
}

func (w *Writer) workspaceLock(workspaceRoot string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.workspaces[workspaceRoot]
	if !ok {
		lock = &sync.Mutex{}
		w.workspaces[workspaceRoot] = lock
	}
	return lock
}

// document is the parsed form of the map file.
type document struct {
	names map[string]string
	paths map[string]map[string]struct{}
}

func newDocument() *document {
	return &document{
		names: make(map[string]string),
		paths: make(map[string]map[string]struct{}),
	}
}

func (d *document) empty() bool {
	return len(d.paths) == 0
}

func (d *document) add(intentID, path, name string) {
	set, ok := d.paths[intentID]
	if !ok {
		set = make(map[string]struct{})
		d.paths[intentID] = set
	}
	set[path] = struct{}{}
	if name != "" {
		d.names[intentID] = name
	}
}

func (d *document) remove(intentID, path string) bool {
	set, ok := d.paths[intentID]
	if !ok {
		return false
	}
	if _, ok := set[path]; !ok {
		return false
	}
	delete(set, path)
	if len(set) == 0 {
		delete(d.paths, intentID)
		delete(d.names, intentID)
	}
	return true
}

// parse reads sections headed "## <id>: <name>" (or "## <id>") followed by
// "- <path>" bullets. Extra blank lines and the empty marker are tolerated.
func parse(content string) *document {
	doc := newDocument()

	var current string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")

		switch {
		case strings.HasPrefix(line, "## "):
			heading := strings.TrimPrefix(line, "## ")
			id, name, found := strings.Cut(heading, ":")
			current = strings.TrimSpace(id)
			if current == "" {
				continue
			}
			if _, ok := doc.paths[current]; !ok {
				doc.paths[current] = make(map[string]struct{})
			}
			if found {
				if name = strings.TrimSpace(name); name != "" {
					doc.names[current] = name
				}
			}

		case strings.HasPrefix(line, "- ") && current != "":
			if path := strings.TrimSpace(strings.TrimPrefix(line, "- ")); path != "" {
				doc.paths[current][path] = struct{}{}
			}
		}
	}

	return doc
}

// render emits the canonical document: header, blurb, then sections in
// ascending id order with paths in ascending lexical order.
func (d *document) render() string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(blurb)
	b.WriteString("\n")

	for _, id := range sortedKeys(d.paths) {
		b.WriteString("\n## ")
		b.WriteString(id)
		if name := d.names[id]; name != "" {
			b.WriteString(": ")
			b.WriteString(name)
		}
		b.WriteString("\n\n")

		paths := sortedKeys(d.paths[id])
		if len(paths) == 0 {
			b.WriteString(emptyMarker)
			b.WriteString("\n")
			continue
		}
		for _, p := range paths {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func load(workspaceRoot string) (*document, error) {
	data, err := os.ReadFile(orchdir.IntentMapPath(workspaceRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, fmt.Errorf("reading intent map: %w", err)
	}
	return parse(string(data)), nil
}

func save(workspaceRoot string, doc *document) error {
	if _, err := orchdir.Ensure(workspaceRoot); err != nil {
		return err
	}
	if err := os.WriteFile(orchdir.IntentMapPath(workspaceRoot), []byte(doc.render()), 0o644); err != nil {
		return fmt.Errorf("writing intent map: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
