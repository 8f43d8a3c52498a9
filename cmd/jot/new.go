package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot"
)

var newTitle string

var newCmd = &cobra.Command{
	Use:   "new [text...]",
	Short: "Create a note",
	Long: `Create a note. The text is taken from the arguments, or from stdin when
the only argument is "-" or stdin is piped. Lines starting with '#' followed
by a space become headings; #words anywhere become tags.
Without any text the note starts from the default skeleton.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) > 0 || piped(cmd.InOrStdin()) {
			var err error
			if text, err = readText(args, cmd.InOrStdin()); err != nil {
				return err
			}
		}

		svc, err := openVault(false)
		if err != nil {
			return err
		}
		defer svc.Close()

		n := svc.Create()
		if strings.TrimSpace(text) != "" || newTitle != "" {
			content := n.Content
			if strings.TrimSpace(text) != "" {
				content = jot.ParseText(text)
			}
			n, _ = svc.Edit(n.ID, content, newTitle)
		}

		if err := svc.Close(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newTitle, "title", "t", "", "Note title (default: first line of the text)")
}
