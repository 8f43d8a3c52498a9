package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot/pkg/core"
)

var (
	listJSON bool
	listTags []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, most recent first",
	Long: `List notes, most recent first. With --tag only notes carrying at least
one of the given tags are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openVault(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		svc.OnSelect(listTags)
		notes := svc.Visible()

		out := cmd.OutOrStdout()
		if listJSON {
			if notes == nil {
				notes = []core.Note{}
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}

		for _, n := range notes {
			line := fmt.Sprintf("%s %s", renderID(n.ID), titleStyle.Render(n.Title))
			if len(n.Tags) > 0 {
				line += " " + renderTags(n.Tags)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Filter notes by tag (repeatable)")
}
