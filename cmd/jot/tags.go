package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags used across notes with their note counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openVault(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		for _, tag := range svc.Tags() {
			count := len(svc.Filter([]string{tag}))
			fmt.Fprintf(out, "%s %d\n", tagStyle.Render("#"+tag), count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
