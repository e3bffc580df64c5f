package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lancealx/nanocli/internal/loan"
	"github.com/lancealx/nanocli/internal/render"
	"github.com/lancealx/nanocli/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the browser session and keep a live loan card",
	Long: `Watch the session state file for navigation. When the browser lands on a
loan, aggregate its summary and keep a live card in the terminal; leaving
the loan clears it. Send SIGHUP to force a refresh of the mounted loan.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("state-file", "", "Path to the session state file (defaults to NANO_STATE_FILE)")
	watchCmd.Flags().Duration("poll", time.Second, "State file poll interval")
	watchCmd.Flags().Bool("no-lock-alert", false, "Suppress the \"Lock Needed\" status for unlocked loans inside 30 days of closing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	poll, _ := cmd.Flags().GetDuration("poll")
	noLockAlert, _ := cmd.Flags().GetBool("no-lock-alert")

	variant := loan.LockVariantEager
	if noLockAlert {
		variant = loan.LockVariantStrict
	}
	agg := loan.Aggregator{API: getNanoClient(cmd), LockVariant: variant}

	ctx := cmd.Context()

	area, err := pterm.DefaultArea.Start(render.Disconnected())
	if err != nil {
		return fmt.Errorf("start live area: %w", err)
	}
	defer func() { _ = area.Stop() }()

	var controller *watch.Controller
	controller = watch.NewController(
		func(ctx context.Context, loanID string) {
			area.Update(render.Skeleton(loanID))
			agg.Run(ctx, loanID, func(rec *loan.Record) {
				// an aggregation can outlive a navigation; drop its snapshots
				if controller.Current() != rec.LoanID {
					return
				}
				area.Update(render.Card(rec))
			})
		},
		func() {
			area.Update(render.Disconnected())
		},
	)

	urls, err := watch.Follow(ctx, getStateFile(cmd), poll)
	if err != nil {
		return fmt.Errorf("follow state file: %w", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			controller.Refresh(ctx)
		case url, ok := <-urls:
			if !ok {
				return nil
			}
			controller.HandleURL(ctx, url)
		}
	}
}
