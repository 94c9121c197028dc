// Package intentscmder provides the intent catalog and map cobra command.
package intentscmder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chorus/pkg/cliui"
	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/intentmap"
	"github.com/papercomputeco/chorus/pkg/logger"
)

type intentsCommander struct {
	workspace string
}

const intentsLongDesc string = `Show the declared intents of a workspace (active_intents.yaml) together with
the files each intent has touched (intent_map.md).`

const intentsShortDesc string = "Show declared intents and the intent map"

func NewIntentsCmd() *cobra.Command {
	cmder := &intentsCommander{}

	cmd := &cobra.Command{
		Use:   "intents",
		Short: intentsShortDesc,
		Long:  intentsLongDesc,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.workspace, "workspace", "w", ".", "Workspace root containing the .orchestration/ directory")

	return cmd
}

func (c *intentsCommander) run() error {
	ws, err := filepath.Abs(c.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	catalog := intent.NewCatalog(logger.New(logger.WithPretty(true)))
	intents, err := catalog.Load(ws)
	if err != nil {
		return err
	}
	if len(intents) == 0 {
		fmt.Println(cliui.Dim("no intents declared; add them to .orchestration/active_intents.yaml"))
		return nil
	}

	paths, _, err := intentmap.Read(ws)
	if err != nil {
		return err
	}

	for _, it := range intents {
		fmt.Println(cliui.KV(it.ID, it.Name))
		fmt.Println(cliui.Dim("  scope: " + strings.Join(it.OwnedScope, ", ")))
		if touched := paths[it.ID]; len(touched) > 0 {
			for _, p := range touched {
				fmt.Printf("  - %s\n", p)
			}
		} else {
			fmt.Println(cliui.Dim("  no files mapped yet"))
		}
		fmt.Println()
	}
	return nil
}
