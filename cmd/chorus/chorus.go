// Package choruscmder
package choruscmder

import (
	"github.com/spf13/cobra"

	intentscmder "github.com/papercomputeco/chorus/cmd/chorus/intents"
	lessonscmder "github.com/papercomputeco/chorus/cmd/chorus/lessons"
	servecmder "github.com/papercomputeco/chorus/cmd/chorus/serve"
	statuscmder "github.com/papercomputeco/chorus/cmd/chorus/status"
	tracecmder "github.com/papercomputeco/chorus/cmd/chorus/trace"
	versioncmder "github.com/papercomputeco/chorus/cmd/version"
)

const chorusLongDesc string = `Chorus is orchestration middleware for parallel coding agents.

It keeps simultaneous agents from overwriting each other (optimistic
concurrency over file snapshots), binds every mutation to a declared
intent with an enforced path scope, and maintains an append-only,
content-addressed trace ledger under .orchestration/.

Run the server with:
  chorus serve         Run the MCP + API server

Inspect a workspace with:
  chorus trace         Show the trace ledger (watch for a live view)
  chorus intents       Show declared intents and the intent map
  chorus lessons       Show the shared lessons file
  chorus status        Show a workspace overview`

const chorusShortDesc string = "Chorus - Agent Orchestration Middleware"

func NewChorusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chorus",
		Short: chorusShortDesc,
		Long:  chorusLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(tracecmder.NewTraceCmd())
	cmd.AddCommand(intentscmder.NewIntentsCmd())
	cmd.AddCommand(lessonscmder.NewLessonsCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
