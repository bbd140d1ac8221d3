package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardiod/internal/api"
	"cardiod/internal/config"
	"cardiod/internal/httpserver"
	"cardiod/internal/supervisor"
	"cardiod/web"
)

var runConfigPath string

func init() {
	rootCmd.AddCommand(cmdRun)
	cmdRun.Flags().StringVarP(&runConfigPath, "config", "c", "cardiod.yaml", "Path to the service configuration file")
}

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Launch the configured services and supervise them",
	Long: `Starts every autostart service from the configuration file, restarts
services that exit, and serves the status dashboard until SIGINT or SIGTERM.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadSupervisorConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", runConfigPath, err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "cardiod")
		slog.SetDefault(logger)

		sup := supervisor.New(cfg, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		router, err := api.NewRouter(logger, sup, web.TemplatesFS(), web.StaticFS())
		if err != nil {
			return fmt.Errorf("build dashboard router: %w", err)
		}
		go func() {
			srvCfg := httpserver.Config{Service: "cardiod", Addr: cfg.Global.HTTPAddr}
			if err := httpserver.Run(ctx, logger, srvCfg, router); err != nil {
				logger.Error("dashboard server stopped", "error", err)
			}
		}()

		if err := sup.Start(); err != nil {
			logger.Error("not all services launched", "error", err)
		}

		// Run blocks until the context is cancelled and every child has been
		// shut down. Its error repeats any launch failure so the process
		// exits non-zero when a service never came up.
		return sup.Run(ctx)
	},
}
