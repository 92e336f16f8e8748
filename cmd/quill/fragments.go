package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/engine/lww"
)

var (
	fragText    string
	fragFile    string
	fragReplica string
	fragJSON    bool
)

var appendCmd = &cobra.Command{
	Use:   "append [id]",
	Short: "Append one update fragment to a note",
	Long: `Appends the raw bytes of --file (or stdin) as one fragment.
With --text, an update setting the note's content is encoded by the engine instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		ctx := context.Background()
		update, err := readUpdate(ctx, nb, id, false)
		if err != nil {
			fatal("Error reading update", err)
		}
		if err := nb.Service.Append(ctx, id, update); err != nil {
			fatal("Error appending update", explain(err))
		}
		fmt.Printf("Appended %d bytes to note %d\n", len(update), id)
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace [id]",
	Short: "Replace a note's whole log with one full-state snapshot",
	Long: `Replaces the log with the raw snapshot of --file (or stdin).
With --text, the snapshot is the current document with its content set to the text.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		ctx := context.Background()
		snapshot, err := readUpdate(ctx, nb, id, true)
		if err != nil {
			fatal("Error reading snapshot", err)
		}
		if err := nb.Service.ReplaceAll(ctx, id, snapshot); err != nil {
			fatal("Error replacing log", explain(err))
		}
		fmt.Printf("Replaced log of note %d with %d bytes\n", id, len(snapshot))
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [id]",
	Short: "Print a note's fragments in replay order, base64 encoded, one per line",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		fragments, err := nb.Service.LoadAll(context.Background(), id)
		if err != nil {
			fatal("Error loading fragments", explain(err))
		}

		if fragJSON {
			// []byte encodes as base64 in JSON.
			if err := json.NewEncoder(os.Stdout).Encode(fragments); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		for _, f := range fragments {
			fmt.Println(base64.StdEncoding.EncodeToString(f))
		}
	},
}

var logCmd = &cobra.Command{
	Use:   "log [id]",
	Short: "Show a note's fragment log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		fragments, err := nb.Store.Fragments(context.Background(), id)
		if err != nil {
			fatal("Error reading log", explain(err))
		}

		if fragJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(fragments); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tBYTES\tCREATED")
		for _, f := range fragments {
			fmt.Fprintf(w, "%d\t%d\t%s\n", f.Seq, len(f.Data), f.CreatedAt.Format(time.DateTime))
		}
		w.Flush()
		fmt.Printf("%d fragment(s)\n", len(fragments))
	},
}

// readUpdate returns the update given on the command line.
// With snapshot set, --text yields the full state of the note after the edit.
func readUpdate(ctx context.Context, nb *quill.Notebook, id core.NoteID, snapshot bool) ([]byte, error) {
	if fragText == "" {
		if fragFile != "" && fragFile != "-" {
			return os.ReadFile(fragFile)
		}
		return io.ReadAll(os.Stdin)
	}

	fragments, err := nb.Service.LoadAll(ctx, id)
	if err != nil {
		return nil, err
	}
	update, err := encodeText(nb.Engine, fragments, fragReplica, fragText)
	if err != nil || !snapshot {
		return update, err
	}
	return mergeSnapshot(nb.Engine, fragments, update)
}

// encodeText builds a content update that wins over every fragment given.
func encodeText(engine core.Engine, fragments [][]byte, replica, text string) ([]byte, error) {
	if _, ok := engine.(*lww.Engine); ok {
		doc := lww.NewDoc()
		for _, f := range fragments {
			if err := doc.Apply(f); err != nil {
				return nil, err
			}
		}
		editor := lww.NewEditor(replica)
		editor.Observe(doc)
		return editor.SetText(text)
	}
	if seeder, ok := engine.(core.TextSeeder); ok {
		return seeder.Seed(text)
	}
	return nil, fmt.Errorf("engine cannot encode text")
}

// mergeSnapshot replays fragments and update into a fresh document and encodes its whole state.
func mergeSnapshot(engine core.Engine, fragments [][]byte, update []byte) ([]byte, error) {
	doc := engine.NewDoc()
	for _, f := range append(fragments[:len(fragments):len(fragments)], update) {
		if err := doc.Apply(f); err != nil {
			return nil, err
		}
	}
	return doc.EncodeState()
}

func init() {
	rootCmd.AddCommand(appendCmd, replaceCmd, loadCmd, logCmd)
	for _, c := range []*cobra.Command{appendCmd, replaceCmd} {
		c.Flags().StringVar(&fragText, "text", "", "Encode this text as a content update")
		c.Flags().StringVarP(&fragFile, "file", "f", "", "Read the raw update from a file (- for stdin)")
		c.Flags().StringVar(&fragReplica, "replica", "cli", "Replica id used with --text")
	}
	for _, c := range []*cobra.Command{loadCmd, logCmd} {
		c.Flags().BoolVar(&fragJSON, "json", false, "Output in JSON format")
	}
}
