package tracecmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chorus/pkg/logger"
	"github.com/papercomputeco/chorus/pkg/orchdir"
	"github.com/papercomputeco/chorus/pkg/trace"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	watchMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	watchAccentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	watchClassStyle  = map[string]lipgloss.Style{
		"AST_REFACTOR":     lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		"INTENT_EVOLUTION": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"BUG_FIX":          lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		"DOCUMENTATION":    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
	}
)

const watchShortDesc string = "Watch the trace ledger live"

func newWatchCmd(parent *traceCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  "Tail the trace ledger in a live terminal view; new entries appear as agents write.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ws, err := filepath.Abs(parent.workspace)
			if err != nil {
				return fmt.Errorf("resolving workspace: %w", err)
			}
			return runWatchTUI(ws)
		},
	}
}

type ledgerReloadedMsg struct {
	entries []trace.Entry
	err     error
}

type ledgerChangedMsg struct{}

type watchKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

func defaultWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type watchModel struct {
	workspace string
	ledger    *trace.Ledger
	watcher   *fsnotify.Watcher
	entries   []trace.Entry
	err       error
	width     int
	height    int
	keys      watchKeyMap
	help      help.Model
}

func runWatchTUI(workspace string) error {
	if _, err := orchdir.Ensure(workspace); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating ledger watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(orchdir.Dir(workspace)); err != nil {
		return fmt.Errorf("watching orchestration directory: %w", err)
	}

	model := watchModel{
		workspace: workspace,
		ledger:    trace.NewLedger(logger.Nop()),
		watcher:   watcher,
		keys:      defaultWatchKeyMap(),
		help:      help.New(),
	}

	program := bubbletea.NewProgram(model, bubbletea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m watchModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.reload, m.waitForChange)
}

func (m watchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, bubbletea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload
		}

	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case ledgerReloadedMsg:
		m.entries = msg.entries
		m.err = msg.err

	case ledgerChangedMsg:
		return m, bubbletea.Batch(m.reload, m.waitForChange)
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(watchTitleStyle.Render("chorus trace"))
	b.WriteString(watchMutedStyle.Render(fmt.Sprintf("  %s", m.workspace)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(watchMutedStyle.Render(fmt.Sprintf("ledger unreadable: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.entries) == 0 {
		b.WriteString(watchMutedStyle.Render("no trace entries yet; waiting for writes..."))
		b.WriteString("\n")
	}

	rows := m.entries
	visible := m.height - 5
	if visible > 0 && len(rows) > visible {
		rows = rows[len(rows)-visible:]
	}

	for _, entry := range rows {
		b.WriteString(m.renderRow(entry))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m watchModel) renderRow(entry trace.Entry) string {
	path := "?"
	intentID := "?"
	if len(entry.Files) > 0 {
		path = entry.Files[0].RelativePath
		if len(entry.Files[0].Conversations) > 0 && len(entry.Files[0].Conversations[0].Related) > 0 {
			intentID = entry.Files[0].Conversations[0].Related[0].Value
		}
	}

	classStyle, ok := watchClassStyle[string(entry.MutationClass)]
	if !ok {
		classStyle = watchMutedStyle
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		watchMutedStyle.Render(entry.Timestamp),
		watchAccentStyle.Render(fmt.Sprintf("%-16s", intentID)),
		classStyle.Render(fmt.Sprintf("%-16s", entry.MutationClass)),
		path,
	)
}

// reload re-reads the full ledger. Entries are few enough that a full
// re-parse on each change beats incremental tailing in simplicity.
func (m watchModel) reload() bubbletea.Msg {
	entries, err := m.ledger.Read(m.workspace)
	return ledgerReloadedMsg{entries: entries, err: err}
}

// waitForChange blocks on the next ledger file event.
func (m watchModel) waitForChange() bubbletea.Msg {
	tracePath := orchdir.TracePath(m.workspace)
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return bubbletea.Quit()
			}
			if event.Name == tracePath {
				return ledgerChangedMsg{}
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return bubbletea.Quit()
			}
		}
	}
}
