package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/core"
)

var (
	verbose  bool
	dbPath   string
	readOnly bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "A CRDT note store with an append-only update log and background compaction",
	Long: `Quill keeps every note as an ordered log of CRDT update fragments in SQLite.
Replaying the log rebuilds the note; compaction collapses it into a single fragment.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := configLevel()
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
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
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (default: from .quill.yaml, else quill.db)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the database read-only")
}

// loadConfig finds .quill.yaml from the working directory upwards.
// Without one, the defaults apply and root is the working directory.
func loadConfig() (cfg quill.Config, root string, err error) {
	wd, err := os.Getwd()
	if err != nil {
		return cfg, "", err
	}

	root, err = quill.FindRoot(wd)
	if err != nil {
		return quill.DefaultConfig(), wd, nil
	}
	cfg, err = quill.LoadConfig(filepath.Join(root, quill.ConfigFileName))
	return cfg, root, err
}

// configLevel is the log_level of the notebook config, info when there is none.
// A broken config is reported later by the command that needs it.
func configLevel() slog.Level {
	cfg, _, err := loadConfig()
	if err != nil {
		return slog.LevelInfo
	}
	level, err := cfg.Level()
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// databasePath applies --db over the config. Relative config paths are relative to the root.
func databasePath(cfg quill.Config, root string) string {
	if dbPath != "" {
		return dbPath
	}
	if filepath.IsAbs(cfg.Database) {
		return cfg.Database
	}
	return filepath.Join(root, cfg.Database)
}

// openNotebook opens the notebook of the current directory.
func openNotebook(opts ...quill.Option) (*quill.Notebook, quill.Config) {
	cfg, root, err := loadConfig()
	if err != nil {
		fatal("Error loading config", err)
	}

	base := []quill.Option{
		quill.WithLogger(slog.Default()),
		quill.WithReadOnly(readOnly || cfg.ReadOnly),
	}
	nb, err := quill.Open(databasePath(cfg, root), append(base, opts...)...)
	if err != nil {
		fatal("Error opening notebook", err)
	}
	return nb, cfg
}

func parseID(s string) core.NoteID {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		fatal("Invalid note id", fmt.Errorf("%q is not a positive integer", s))
	}
	return core.NoteID(id)
}

// explain adds a hint for the errors users hit most.
func explain(err error) error {
	switch {
	case errors.Is(err, core.ErrNoteNotFound):
		return fmt.Errorf("%w (see 'quill note list')", err)
	case errors.Is(err, core.ErrReadOnly):
		return fmt.Errorf("%w (drop --read-only or read_only in %s)", err, quill.ConfigFileName)
	}
	return err
}
