package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var compactAll bool

var compactCmd = &cobra.Command{
	Use:   "compact [id]",
	Short: "Collapse a note's update log (or every note's, with --all) into one fragment",
	Args: func(cmd *cobra.Command, args []string) error {
		if compactAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		nb, _ := openNotebook()
		defer nb.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if !compactAll {
			id := parseID(args[0])
			res, err := nb.Compactor.CompactOne(ctx, id)
			if err != nil {
				fatal("Error compacting note", explain(err))
			}
			if !res.Compacted() {
				fmt.Printf("Note %d has %d fragment(s), nothing to compact\n", id, res.Before)
				return
			}
			fmt.Printf("Note %d: %d -> %d fragments\n", id, res.Before, res.After)
			return
		}

		report := nb.Compactor.CompactAll(ctx)
		fmt.Println(report.String())
		if err := report.Err(); err != nil {
			fatal("Compaction finished with failures", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
	compactCmd.Flags().BoolVar(&compactAll, "all", false, "Sweep every note")
}
