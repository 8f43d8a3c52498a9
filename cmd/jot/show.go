package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openVault(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		id, err := resolveID(svc, args[0])
		if err != nil {
			return err
		}
		n, _ := svc.Get(id)

		out := cmd.OutOrStdout()
		if showJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(n)
		}

		fmt.Fprintf(out, "%s %s\n", renderID(n.ID), titleStyle.Render(n.Title))
		fmt.Fprintln(out, dateStyle.Render(n.UpdatedAt.Local().Format("2006-01-02 15:04")))
		if len(n.Tags) > 0 {
			fmt.Fprintln(out, renderTags(n.Tags))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, n.Content.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
