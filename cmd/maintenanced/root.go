package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/clusterops/maintenanced/internal/actionplugins/indexbuild"
	"github.com/clusterops/maintenanced/internal/actionplugins/schemaapply"
	"github.com/clusterops/maintenanced/internal/actionplugins/shardmove"
	"github.com/clusterops/maintenanced/internal/actionplugins/testaction"
	"github.com/clusterops/maintenanced/internal/config"
	"github.com/clusterops/maintenanced/internal/lifecycle"
	"github.com/clusterops/maintenanced/internal/logger"
	"github.com/clusterops/maintenanced/internal/scheduler"
)

type rootFlags struct {
	configPath string
}

// app bundles the constructed scheduler and logger every subcommand needs.
type app struct {
	scheduler *scheduler.Scheduler
	log       *logger.Logger
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "maintenanced",
		Short:         "Run and inspect the maintenance action scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "maintenanced.yaml", "Path to configuration file")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newAdmitCmd(flags))
	cmd.AddCommand(newDumpCmd(flags))

	return cmd
}

// buildApp loads configuration, constructs a Scheduler, and registers the
// sample action plugins named by cfg.Plugins. Startup always reports
// host-ready immediately: the CLI has no richer host lifecycle of its own.
func buildApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Component: "maintenanced",
		JSON:      cfg.Log.JSON,
	})
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.Config{
		MaintenanceThreadsMax: cfg.MaintenanceThreadsMax,
		SecondsActionsBlock:   cfg.SecondsActionsBlock,
		GraceWindow:           time.Duration(cfg.GraceWindowSeconds) * time.Second,
	}, scheduler.WithLogger(log))

	registerPlugins(sched, cfg.Plugins, log)

	// The CLI has no richer host lifecycle of its own: report ready
	// immediately so SetMaintenanceThreadsMax never blocks.
	sched.Observer().StateChange(lifecycle.StateInWait)

	return &app{scheduler: sched, log: log, cfg: cfg}, nil
}

func registerPlugins(sched *scheduler.Scheduler, wanted []config.PluginConfig, log *logger.Logger) {
	available := map[string]func() error{
		testaction.Name: func() error { return sched.Plugins().Register(testaction.Name, testaction.Factory()) },
		schemaapply.Name: func() error {
			return sched.Plugins().Register(schemaapply.Name, schemaapply.Factory(nil))
		},
		shardmove.Name: func() error { return sched.Plugins().Register(shardmove.Name, shardmove.Factory(nil)) },
		indexbuild.Name: func() error {
			return sched.Plugins().Register(indexbuild.Name, indexbuild.Factory(nil))
		},
	}

	names := make([]string, 0, len(wanted))
	for _, p := range wanted {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		// No explicit plugin list: register every sample plugin so the CLI
		// is useful out of the box.
		for name := range available {
			names = append(names, name)
		}
	}

	for _, name := range names {
		register, ok := available[name]
		if !ok {
			log.Warn("unknown plugin requested in config, skipping", "plugin", name)
			continue
		}
		if err := register(); err != nil {
			log.Warn("plugin registration failed", "plugin", name, "error", err)
		}
	}
}
