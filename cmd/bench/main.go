package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/engine/lww"
)

func main() {
	count := flag.Int("count", 200, "Number of notes to generate")
	edits := flag.Int("edits", 50, "Update fragments appended per note")
	keep := flag.Bool("keep", false, "Keep the benchmark database after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "quill_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	nb, err := quill.Open(filepath.Join(benchDir, "bench.db"),
		quill.WithLogger(logger),
		quill.WithDevSafety(false),
	)
	if err != nil {
		panic(err)
	}
	defer nb.Close()

	ctx := context.Background()

	fmt.Printf("Appending %d fragments to each of %d notes...\n", *edits, *count)
	ids := make([]core.NoteID, 0, *count)
	startGen := time.Now()
	for i := 0; i < *count; i++ {
		note, err := nb.Service.CreateNote(ctx, fmt.Sprintf("Note %d", i), nil, "")
		if err != nil {
			panic(err)
		}
		ids = append(ids, note.ID)

		phone, laptop := lww.NewEditor("phone"), lww.NewEditor("laptop")
		for j := 0; j < *edits; j++ {
			editor := phone
			if j%2 == 1 {
				editor = laptop
			}
			update, err := editor.SetText(fmt.Sprintf("# Note %d\nrevision %d", i, j))
			if err != nil {
				panic(err)
			}
			if err := nb.Service.Append(ctx, note.ID, update); err != nil {
				panic(err)
			}
		}
	}
	appendTook := time.Since(startGen)
	total := *count * *edits
	fmt.Printf("Append took: %v (%.0f fragments/s)\n", appendTook, float64(total)/appendTook.Seconds())

	// Run 1: full logs
	fmt.Println("Reconstructing (Run 1 - Uncompacted)...")
	cold := reconstructAll(ctx, nb, ids)

	fmt.Println("Compacting...")
	report := nb.Compactor.CompactAll(ctx)
	if err := report.Err(); err != nil {
		panic(err)
	}

	// Run 2: one fragment per note
	fmt.Println("Reconstructing (Run 2 - Compacted)...")
	warm := reconstructAll(ctx, nb, ids)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes x %d fragments):\n", *count, *edits)
	fmt.Printf("  Append:      %v\n", appendTook)
	fmt.Printf("  Uncompacted: %v\n", cold)
	fmt.Printf("  Compaction:  %v (%d fragments removed)\n", report.Duration, report.Removed())
	fmt.Printf("  Compacted:   %v\n", warm)
	fmt.Printf("--------------------------------------------------\n")
}

func reconstructAll(ctx context.Context, nb *quill.Notebook, ids []core.NoteID) time.Duration {
	start := time.Now()
	for _, id := range ids {
		if _, err := nb.Service.Document(ctx, id); err != nil {
			panic(err)
		}
	}
	return time.Since(start)
}
