// Package statuscmder provides the workspace overview cobra command.
package statuscmder

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chorus/pkg/cliui"
	"github.com/papercomputeco/chorus/pkg/gitrev"
	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/logger"
	"github.com/papercomputeco/chorus/pkg/orchdir"
	"github.com/papercomputeco/chorus/pkg/trace"
)

type statusCommander struct {
	workspace string
}

const statusShortDesc string = "Show a workspace overview"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  "Show the orchestration state of a workspace: revision, intents, ledger size, and lessons.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.workspace, "workspace", "w", ".", "Workspace root containing the .orchestration/ directory")

	return cmd
}

func (c *statusCommander) run() error {
	ws, err := filepath.Abs(c.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	log := logger.New(logger.WithPretty(true))

	revision := gitrev.NewProbe().CurrentRevision(ws)

	intents, err := intent.NewCatalog(log).Load(ws)
	if err != nil {
		return err
	}

	entries, err := trace.NewLedger(log).Read(ws)
	if err != nil {
		return err
	}

	all, err := lessons.NewStore().List(ws)
	if err != nil {
		return err
	}

	fmt.Print(cliui.Summary([][2]string{
		{"workspace", ws},
		{"orchestration dir", orchdir.Dir(ws)},
		{"revision", revision},
		{"declared intents", strconv.Itoa(len(intents))},
		{"trace entries", strconv.Itoa(len(entries))},
		{"lessons", strconv.Itoa(len(all))},
	}))
	return nil
}
