package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/platform"
)

var (
	initDaily    string
	initInterval string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a quill notebook in the current directory",
	Long:  `Writes .quill.yaml and creates the SQLite database with its schema.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		cfgPath := filepath.Join(cwd, quill.ConfigFileName)
		if _, err := os.Stat(cfgPath); err == nil {
			fatal("Failed to initialize notebook", fmt.Errorf("%s already exists", cfgPath))
		}

		cfg := quill.DefaultConfig()
		if dbPath != "" {
			cfg.Database = dbPath
		}
		if initDaily != "" {
			cfg.Compaction.Mode = platform.ModeDaily
			cfg.Compaction.DailyAt = initDaily
		}
		if initInterval != "" {
			cfg.Compaction.Mode = platform.ModeInterval
			if cfg.Compaction.Interval, err = time.ParseDuration(initInterval); err != nil {
				fatal("Invalid --interval", err)
			}
		}
		if err := cfg.Validate(); err != nil {
			fatal("Invalid configuration", err)
		}

		nb, err := quill.Open(databasePath(cfg, cwd), quill.WithLogger(slog.Default()))
		if err != nil {
			fatal("Failed to create database", err)
		}
		defer nb.Close()

		if err := platform.WriteConfig(cfgPath, cfg); err != nil {
			fatal("Failed to write config", err)
		}

		fmt.Println("Initialized empty quill notebook in", cwd)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDaily, "daily-at", "", "Run compaction daily at HH:MM local time")
	initCmd.Flags().StringVar(&initInterval, "interval", "", "Run compaction at a fixed interval (e.g. 5m)")
}
