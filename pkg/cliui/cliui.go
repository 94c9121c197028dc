// Package cliui provides reusable terminal UI helpers (status marks,
// key-value summaries, markdown rendering) for chorus CLI commands.
package cliui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// KV renders one "label: value" summary line.
func KV(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// Dim renders de-emphasised text.
func Dim(s string) string {
	return dimStyle.Render(s)
}

// Summary renders a block of KV lines in input order.
func Summary(pairs [][2]string) string {
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(KV(p[0], p[1]))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMarkdown renders markdown content for terminal display using
// glamour. On failure the raw content is returned so callers can still
// print something useful.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
