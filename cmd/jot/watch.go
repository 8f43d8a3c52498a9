package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot/pkg/adapters/lifecycle"
	"github.com/aretw0/jot/pkg/core"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the vault by other processes",
	Long: `Watch the vault and print one line per change until interrupted.
Only the fs and memory adapters can be watched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openVault(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx, watchPattern)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}

		source := lifecycle.NewSource(events)
		if err := source.Start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
		for ev := range source.Events() {
			e, ok := ev.(core.Event)
			if !ok {
				continue
			}
			line := fmt.Sprintf("%s %s %s", dateStyle.Render(time.Unix(e.Timestamp, 0).Format("15:04:05")), e.Type, renderID(e.ID))
			if n, ok := svc.Get(e.ID); ok && e.Type != core.EventDelete {
				line += " " + titleStyle.Render(n.Title)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Only report keys matching this glob")
}
