package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the worker pool and block until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}

			a.scheduler.SetMaintenanceThreadsMax(a.cfg.MaintenanceThreadsMax)
			a.log.Info("maintenanced started", "maintenanceThreadsMax", a.cfg.MaintenanceThreadsMax,
				"secondsActionsBlock", a.cfg.SecondsActionsBlock)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			a.log.Info("shutdown signal received")
			a.scheduler.BeginShutdown()
			return nil
		},
	}
}
