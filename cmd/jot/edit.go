package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot"
)

var editTitle string

var editCmd = &cobra.Command{
	Use:   "edit <id> [text...]",
	Short: "Replace the content of a note",
	Long: `Replace the content of a note, given by ID or unique ID prefix. The new
text is read like 'jot new' does. With only --title the content is kept.`,
	Args: cobra.MinimumNArgs(1),
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

		content := n.Content
		if len(args) > 1 || piped(cmd.InOrStdin()) {
			text, err := readText(args[1:], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) != "" {
				content = jot.ParseText(text)
			}
		} else if editTitle == "" {
			return fmt.Errorf("nothing to change: give new text or --title")
		}

		if _, ok := svc.Edit(id, content, editTitle); !ok {
			return fmt.Errorf("note %s disappeared", id)
		}

		if err := svc.Close(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title (default: first line of the text)")
}
