// Package servecmder provides the chorus server cobra command.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chorus/api"
	"github.com/papercomputeco/chorus/api/mcp"
	"github.com/papercomputeco/chorus/pkg/config"
	"github.com/papercomputeco/chorus/pkg/eventstream/nop"
	"github.com/papercomputeco/chorus/pkg/gatekeeper"
	"github.com/papercomputeco/chorus/pkg/gitrev"
	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/intentmap"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/logger"
	"github.com/papercomputeco/chorus/pkg/orchdir"
	"github.com/papercomputeco/chorus/pkg/recorder"
	"github.com/papercomputeco/chorus/pkg/session"
	"github.com/papercomputeco/chorus/pkg/snapshot"
	"github.com/papercomputeco/chorus/pkg/trace"
)

type serveCommander struct {
	listen        string
	workspace     string
	debug         bool
	snapshotTTL   uint
	snapshotSweep uint
	sessionTTL    uint
	sessionSweep  uint

	viper *viper.Viper
}

const serveLongDesc string = `Run the chorus server: the MCP tool surface agents connect to, plus the
read-only REST API for inspecting the trace ledger, intents, sessions, and
lessons of one workspace.`

const serveShortDesc string = "Run the chorus MCP + API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			ws, err := filepath.Abs(cmder.workspace)
			if err != nil {
				return fmt.Errorf("resolving workspace: %w", err)
			}
			cmder.workspace = ws

			cmder.viper, err = config.InitViper(ws)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(cmder.viper, cmd, flagSet, []string{
				config.FlagListen,
				config.FlagSnapshotTTL,
				config.FlagSnapshotSweep,
				config.FlagSessionTTL,
				config.FlagSessionSweep,
			})
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, flagSet, config.FlagListen, &cmder.listen)
	cmd.Flags().StringVarP(&cmder.workspace, "workspace", "w", ".", "Workspace root containing the .orchestration/ directory")

	config.AddUintFlag(cmd, flagSet, config.FlagSnapshotTTL, &cmder.snapshotTTL)
	config.AddUintFlag(cmd, flagSet, config.FlagSnapshotSweep, &cmder.snapshotSweep)
	config.AddUintFlag(cmd, flagSet, config.FlagSessionTTL, &cmder.sessionTTL)
	config.AddUintFlag(cmd, flagSet, config.FlagSessionSweep, &cmder.sessionSweep)

	return cmd
}

func (c *serveCommander) run() error {
	log := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	if _, err := orchdir.Ensure(c.workspace); err != nil {
		return err
	}

	cfg := config.NewDefaultConfig()
	cfg.Server.Listen = c.viper.GetString("server.listen")
	cfg.Snapshots.TTLSeconds = c.viper.GetUint("snapshots.ttl_seconds")
	cfg.Snapshots.SweepSeconds = c.viper.GetUint("snapshots.sweep_seconds")
	cfg.Sessions.TTLSeconds = c.viper.GetUint("sessions.ttl_seconds")
	cfg.Sessions.SweepSeconds = c.viper.GetUint("sessions.sweep_seconds")
	cfg.Revision.CacheTTLSeconds = c.viper.GetUint("revision.cache_ttl_seconds")

	// Core state, with lifecycle owned here.
	snapshots := snapshot.NewStore(c.workspace)
	snapshots.StartSweeper(cfg.Snapshots.SweepInterval(), cfg.Snapshots.TTL())
	defer snapshots.StopSweeper()

	sessions := session.NewRegistry()
	sessions.StartSweeper(cfg.Sessions.SweepInterval(), cfg.Sessions.TTL())
	defer sessions.StopSweeper()

	catalog := intent.NewCatalog(log)
	watcher, err := intent.Watch(c.workspace, catalog, log)
	if err != nil {
		log.Warn("intent catalog watcher unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	probe := gitrev.NewProbe(gitrev.WithTTL(cfg.Revision.CacheTTL()))
	ledger := trace.NewLedger(log)
	intentMap := intentmap.NewWriter()
	lessonsStore := lessons.NewStore()

	publisher := nop.NewPublisher()
	defer publisher.Close()

	rec := recorder.New(ledger, intentMap, snapshots, probe, log, recorder.WithPublisher(publisher))
	gate := gatekeeper.New(snapshots, catalog, log)

	mcpServer, err := mcp.NewServer(mcp.Config{
		WorkspaceRoot: c.workspace,
		Gatekeeper:    gate,
		Recorder:      rec,
		Snapshots:     snapshots,
		Sessions:      sessions,
		Catalog:       catalog,
		Lessons:       lessonsStore,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer := api.NewServer(
		api.Config{
			ListenAddr:    cfg.Server.Listen,
			WorkspaceRoot: c.workspace,
			MCPHandler:    mcpServer.Handler(),
			Mistakes:      mcpServer.Mistakes,
		},
		api.Deps{
			Ledger:    ledger,
			Catalog:   catalog,
			Lessons:   lessonsStore,
			Sessions:  sessions,
			Snapshots: snapshots,
			Probe:     probe,
		},
		log,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Run()
	}()

	log.Info("chorus serving",
		"workspace", c.workspace,
		"listen", cfg.Server.Listen,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}
