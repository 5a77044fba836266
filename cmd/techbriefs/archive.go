package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/maine/techbriefs/internal/archive"
	"github.com/maine/techbriefs/internal/digest"
)

var flagArchiveLimit int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "List recent digests",
	Long:  "Print the most recent digests before today, newest first. Uses pipeline.archive_size unless overridden with --limit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := loadConfig()
		if err != nil {
			return err
		}
		defer closer.Close()

		limit := cfg.Pipeline.ArchiveSize
		if cmd.Flags().Changed("limit") {
			limit = flagArchiveLimit
		}

		store := digest.NewStore(cfg.Storage.Dir)
		dates, err := store.Dates()
		if err != nil {
			return fmt.Errorf("listing digests: %w", err)
		}
		today := time.Now().Format(digest.DateLayout)
		printArchive(cmd.OutOrStdout(), store, archive.Recent(dates, today, limit))
		return nil
	},
}

func init() {
	archiveCmd.Flags().IntVar(&flagArchiveLimit, "limit", 0, "number of digests to list")
}

func printArchive(w io.Writer, store *digest.Store, dates []string) {
	if len(dates) == 0 {
		fmt.Fprintln(w, "No previous digests.")
		return
	}
	for _, e := range archive.Entries(dates) {
		fmt.Fprintf(w, "%-20s %s\n", e.Label, store.Path(e.Date))
	}
}
