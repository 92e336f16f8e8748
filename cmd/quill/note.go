package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/adapters/markdown"
	"github.com/aretw0/quill/pkg/core"
)

var (
	noteIcon    string
	noteContent string
	noteJSON    bool

	listLimit  int
	listOffset int
	listSort   string
	listAsc    bool
	listSearch string
	listMatch  string

	clearIcon bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a note, optionally seeded with text content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		nb, _ := openNotebook()
		defer nb.Close()

		var icon *string
		if noteIcon != "" {
			icon = &noteIcon
		}
		note, err := nb.Service.CreateNote(context.Background(), args[0], icon, noteContent)
		if err != nil {
			fatal("Error creating note", explain(err))
		}
		printNote(note)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		nb, _ := openNotebook()
		defer nb.Close()

		opts := core.ListOptions{
			Limit:      listLimit,
			Offset:     listOffset,
			SortBy:     core.SortField(listSort),
			Descending: !listAsc,
			Search:     listSearch,
		}
		notes, err := nb.Service.ListNotes(context.Background(), opts)
		if err != nil {
			fatal("Error listing notes", err)
		}

		filtered := make([]core.Note, 0, len(notes))
		for _, n := range notes {
			if markdown.MatchTitle(listMatch, n.Title) {
				filtered = append(filtered, n)
			}
		}

		if noteJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
		for _, n := range filtered {
			fmt.Fprintf(w, "%d\t%s%s\t%s\n", n.ID, iconPrefix(n), n.Title, n.UpdatedAt.Format(time.DateTime))
		}
		w.Flush()
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note's materialized content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		ctx := context.Background()
		note, err := nb.Service.GetNote(ctx, id)
		if err != nil {
			fatal("Error reading note", explain(err))
		}
		doc, err := nb.Service.Document(ctx, id)
		if err != nil {
			fatal("Error materializing note", err)
		}

		if noteJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(struct {
				core.Note
				Text      string `json:"text"`
				Fragments int    `json:"fragments"`
			}{note, doc.Text, doc.Fragments}); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		fmt.Print(doc.Text)
	},
}

var noteRenameCmd = &cobra.Command{
	Use:   "rename [id] [title]",
	Short: "Rename a note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		note, err := nb.Service.RenameNote(context.Background(), id, args[1])
		if err != nil {
			fatal("Error renaming note", explain(err))
		}
		printNote(note)
	},
}

var noteIconCmd = &cobra.Command{
	Use:   "icon [id] [icon]",
	Short: "Set or clear (--clear) a note's icon",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		var icon *string
		switch {
		case clearIcon:
		case len(args) == 2:
			icon = &args[1]
		default:
			fatal("Error setting icon", fmt.Errorf("give an icon or --clear"))
		}

		nb, _ := openNotebook()
		defer nb.Close()

		note, err := nb.Service.SetNoteIcon(context.Background(), id, icon)
		if err != nil {
			fatal("Error setting icon", explain(err))
		}
		printNote(note)
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note and its whole update log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		nb, _ := openNotebook()
		defer nb.Close()

		if err := nb.Service.DeleteNote(context.Background(), id); err != nil {
			fatal("Error deleting note", explain(err))
		}
		fmt.Printf("Note deleted: %d\n", id)
	},
}

func printNote(n core.Note) {
	if noteJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(n); err != nil {
			fatal("Error encoding JSON", err)
		}
		return
	}
	fmt.Printf("%d\t%s%s\n", n.ID, iconPrefix(n), n.Title)
}

func iconPrefix(n core.Note) string {
	if n.Icon == nil {
		return ""
	}
	return *n.Icon + " "
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteCreateCmd, noteListCmd, noteShowCmd, noteRenameCmd, noteIconCmd, noteDeleteCmd)
	noteCmd.PersistentFlags().BoolVar(&noteJSON, "json", false, "Output in JSON format")

	noteCreateCmd.Flags().StringVar(&noteIcon, "icon", "", "Icon shown next to the title")
	noteCreateCmd.Flags().StringVar(&noteContent, "content", "", "Initial text content")

	noteListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum notes to list")
	noteListCmd.Flags().IntVar(&listOffset, "offset", 0, "Notes to skip")
	noteListCmd.Flags().StringVar(&listSort, "sort", string(core.SortByUpdated), "Sort by updatedAt, createdAt or title")
	noteListCmd.Flags().BoolVar(&listAsc, "asc", false, "Ascending order")
	noteListCmd.Flags().StringVar(&listSearch, "search", "", "Case-insensitive title substring")
	noteListCmd.Flags().StringVar(&listMatch, "match", "", "Glob on titles (doublestar syntax)")

	noteIconCmd.Flags().BoolVar(&clearIcon, "clear", false, "Remove the icon")
}
