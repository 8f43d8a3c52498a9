package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot"
	"github.com/aretw0/jot/internal/config"
	"github.com/aretw0/jot/pkg/core"
)

var (
	verbose  bool
	dir      string
	adapter  string
	codec    string
	debounce string

	// settings is the merged configuration: defaults, jot.toml, env, flags.
	settings config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jot",
	Short: "A local note vault with hashtag tags",
	Long: `jot keeps rich-text notes in a local vault (a directory of JSON/YAML files
or a SQLite file). Tags are the #hashtags found in a note's content.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		var err error
		dir, err = resolveDir(dir)
		if err != nil {
			return err
		}

		settings, err = config.Load(dir)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("adapter") {
			settings.Adapter = adapter
		}
		if flags.Changed("codec") {
			settings.Codec = codec
		}
		if flags.Changed("debounce") {
			settings.Debounce = debounce
		}
		if verbose {
			settings.LogLevel = "debug"
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		var level slog.Level
		if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "d", "", "Vault directory (default: $JOT_DIR, the enclosing vault, or the working directory)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "fs", "Storage adapter (fs, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&codec, "codec", "json", "Value encoding (json, yaml)")
	rootCmd.PersistentFlags().StringVar(&debounce, "debounce", "200ms", "Quiet period before an edit is written")
}

// resolveDir picks the vault directory: flag, JOT_DIR, enclosing vault, working directory.
func resolveDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("JOT_DIR"); env != "" {
		return env, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	if root, err := jot.FindVaultRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// openVault opens the vault with the merged settings and loads its notes.
func openVault(mustExist bool) (*core.Service, error) {
	svc, err := jot.New(dir,
		jot.WithAdapter(settings.Adapter),
		jot.WithCodec(settings.Codec),
		jot.WithDebounce(settings.DebounceDuration()),
		jot.WithMustExist(mustExist),
		jot.WithLogger(slog.Default()),
		jot.WithErrorHandler(func(err error) {
			slog.Error("background failure", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening vault %s: %w", dir, err)
	}
	return svc, nil
}

// resolveID accepts a full note ID or an unambiguous prefix of one.
func resolveID(svc *core.Service, arg string) (string, error) {
	if _, ok := svc.Get(arg); ok {
		return arg, nil
	}

	var matches []string
	for _, n := range svc.Notes() {
		if strings.HasPrefix(n.ID, arg) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("note %s: %w", arg, core.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous id %q matches %d notes", arg, len(matches))
	}
}

// readText returns the note text given as arguments, or read from in when
// the only argument is "-" or there are none.
func readText(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// piped reports whether in is redirected input rather than a terminal.
func piped(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return in != nil
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice == 0
}
