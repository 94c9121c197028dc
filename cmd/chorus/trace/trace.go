// Package tracecmder provides the trace ledger cobra commands.
package tracecmder

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chorus/pkg/cliui"
	"github.com/papercomputeco/chorus/pkg/logger"
	"github.com/papercomputeco/chorus/pkg/trace"
	"github.com/papercomputeco/chorus/pkg/utils"
)

type traceCommander struct {
	workspace string
	limit     int
}

const traceLongDesc string = `Show the append-only trace ledger of a workspace: every accepted write with
its intent, mutation class, line ranges, and content hashes.`

const traceShortDesc string = "Show the trace ledger"

func NewTraceCmd() *cobra.Command {
	cmder := &traceCommander{}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: traceShortDesc,
		Long:  traceLongDesc,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.PersistentFlags().StringVarP(&cmder.workspace, "workspace", "w", ".", "Workspace root containing the .orchestration/ directory")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Show at most this many of the most recent entries")

	cmd.AddCommand(newWatchCmd(cmder))

	return cmd
}

func (c *traceCommander) run() error {
	ws, err := filepath.Abs(c.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	ledger := trace.NewLedger(logger.New(logger.WithPretty(true)))
	entries, err := ledger.Read(ws)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println(cliui.Dim("no trace entries recorded yet"))
		return nil
	}

	start := 0
	if c.limit > 0 && len(entries) > c.limit {
		start = len(entries) - c.limit
	}

	for _, entry := range entries[start:] {
		fmt.Println(renderEntry(entry))
	}
	fmt.Println(cliui.Dim(fmt.Sprintf("%d of %d entries", len(entries)-start, len(entries))))
	return nil
}

// renderEntry formats one ledger row as a single display line.
func renderEntry(entry trace.Entry) string {
	path := "?"
	intentID := "?"
	if len(entry.Files) > 0 {
		path = entry.Files[0].RelativePath
		if len(entry.Files[0].Conversations) > 0 && len(entry.Files[0].Conversations[0].Related) > 0 {
			intentID = entry.Files[0].Conversations[0].Related[0].Value
		}
	}

	return fmt.Sprintf("%s  %s  %-16s  %-10s  %s",
		cliui.Dim(utils.ShortID(entry.ID, 8)),
		entry.Timestamp,
		intentID,
		entry.MutationClass,
		path,
	)
}
