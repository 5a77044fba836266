package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maine/techbriefs/internal/app"
)

var flagForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Build today's digest if it is missing or stale",
	Long: `Run one refresh cycle and exit. Suitable for cron.

With --force (or FORCE_REFRESH=1) today's digest is rebuilt even if it is up to date.
Titles already published are never repeated, so a forced rebuild only contains
articles that appeared since the last build. If there are none, the existing
digest is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newServices(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.refresher.Refresh(ctx, flagForce || s.env.ForceRefresh)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&flagForce, "force", false, "rebuild today's digest with articles published since the last build")
}

func printResult(w io.Writer, res app.Result) {
	if !res.Rebuilt {
		fmt.Fprintf(w, "Digest for %s is up to date: %s\n", res.Date, res.Path)
		return
	}
	fmt.Fprintf(w, "Built digest for %s with %d article(s): %s\n", res.Date, res.Articles, res.Path)
	if res.FailedSources > 0 {
		fmt.Fprintf(w, "%d source(s) could not be fetched.\n", res.FailedSources)
	}
}
