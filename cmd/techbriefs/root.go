package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Заполняются через -ldflags при сборке релиза.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "techbriefs",
	Short: "Daily tech news digest",
	Long: `techbriefs collects technology news from RSS feeds, keeps only articles
matching the configured keywords that were not published before, and renders
one PDF digest per day. The web UI serves today's digest and the recent archive.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default $XDG_CONFIG_HOME/techbriefs/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "techbriefs %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
