package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardiod [command]",
	Short: "cardiod: supervisor for the heart disease prediction stack",
	Long: `cardiod launches and supervises the prediction API and the web UI as
child processes, multiplexes their output, restarts them when they exit,
and serves a status dashboard.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
