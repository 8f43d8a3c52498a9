package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the note index against the stored records",
	Long: `Check that every indexed note has a readable record and every record is
indexed. With --fix dangling IDs are dropped and orphan records re-indexed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := jot.Init(dir,
			jot.WithAdapter(settings.Adapter),
			jot.WithCodec(settings.Codec),
			jot.WithMustExist(true),
		)
		if err != nil {
			return fmt.Errorf("opening vault %s: %w", dir, err)
		}
		defer repo.Close()

		ctx := context.Background()
		report, err := repo.Check(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if report.Clean() {
			fmt.Fprintln(out, okStyle.Render("Vault is consistent"))
			return nil
		}
		if len(report.Dangling) > 0 {
			fmt.Fprintf(out, "%s %s\n", warnStyle.Render("Dangling:"), strings.Join(report.Dangling, " "))
		}
		if len(report.Orphans) > 0 {
			fmt.Fprintf(out, "%s %s\n", warnStyle.Render("Orphans:"), strings.Join(report.Orphans, " "))
		}

		if !doctorFix {
			return fmt.Errorf("vault has %d dangling and %d orphan entries, run with --fix", len(report.Dangling), len(report.Orphans))
		}
		if err := repo.Repair(ctx, report); err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render("Repaired"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair the index")
}
