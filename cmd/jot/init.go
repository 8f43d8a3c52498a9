package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot"
	"github.com/aretw0/jot/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a jot vault",
	Long: `Initialize a new vault in the vault directory: writes jot.toml with the
current settings and prepares the storage backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating vault directory: %w", err)
		}
		if err := config.Save(dir, settings); err != nil {
			return err
		}

		repo, err := jot.Init(dir,
			jot.WithAdapter(settings.Adapter),
			jot.WithCodec(settings.Codec),
		)
		if err != nil {
			return fmt.Errorf("initializing vault: %w", err)
		}
		if err := repo.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s vault in %s\n", settings.Adapter, dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
