package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/adapters/markdown"
)

var exportMatch string

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write every note as a Markdown file with YAML frontmatter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		nb, _ := openNotebook()
		defer nb.Close()

		exp := &markdown.Exporter{Dir: args[0], Logger: slog.Default()}
		n, err := exp.Export(context.Background(), nb.Service, markdown.ExportOptions{Match: exportMatch})
		fmt.Printf("Exported %d note(s) to %s\n", n, args[0])
		if err != nil {
			fatal("Export incomplete", err)
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import [glob]",
	Short: "Create notes from Markdown files matching a glob (e.g. 'notes/**/*.md')",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		nb, _ := openNotebook()
		defer nb.Close()

		notes, err := markdown.Import(context.Background(), nb.Service, args[0])
		for _, n := range notes {
			printNote(n)
		}
		if err != nil {
			fatal("Import incomplete", explain(err))
		}
		fmt.Printf("Imported %d note(s)\n", len(notes))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportMatch, "match", "", "Only export notes whose title matches this glob")
}
