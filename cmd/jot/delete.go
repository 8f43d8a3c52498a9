package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openVault(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := context.Background()
		for _, arg := range args {
			id, err := resolveID(svc, arg)
			if err != nil {
				return err
			}
			if err := svc.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return svc.Close()
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
