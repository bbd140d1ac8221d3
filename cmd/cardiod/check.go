package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardiod/internal/config"
)

var checkConfigPath string

func init() {
	rootCmd.AddCommand(cmdCheck)
	cmdCheck.Flags().StringVarP(&checkConfigPath, "config", "c", "cardiod.yaml", "Path to the service configuration file")
}

var cmdCheck = &cobra.Command{
	Use:          "check",
	Short:        "Validate the configuration file and list the services it defines",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadSupervisorConfig(checkConfigPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", checkConfigPath, err)
		}

		fmt.Fprintf(os.Stdout, "%s: ok (%d service(s), dashboard on %s)\n",
			checkConfigPath, len(cfg.Programs), cfg.Global.HTTPAddr)
		for _, p := range cfg.Programs {
			autorestart := "autorestart=off"
			if p.AutoRestart {
				autorestart = "autorestart=on"
			}
			fmt.Fprintf(os.Stdout, "  %-12s %s %v (%s, stop=%s after %s)\n",
				p.Name, p.Command, p.Args, autorestart, p.StopSignal, p.StopTimeout.Std())
		}
		return nil
	},
}
