package quill_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/engine/lww"
)

// Example_basic creates a note, appends edits from two replicas and compacts the log.
func Example_basic() {
	nb, err := quill.Open("", quill.WithInMemory(true))
	if err != nil {
		log.Fatal(err)
	}
	defer nb.Close()

	ctx := context.Background()

	// 1. Create a note
	note, err := nb.Service.CreateNote(ctx, "Groceries", nil, "")
	if err != nil {
		log.Fatal(err)
	}

	// 2. Append updates produced by two editors
	phone, laptop := lww.NewEditor("phone"), lww.NewEditor("laptop")
	first, _ := phone.SetText("milk")
	second, _ := laptop.Set("tag", "shopping")
	third, _ := phone.SetText("milk, eggs")
	for _, update := range [][]byte{first, second, third} {
		if err := nb.Service.Append(ctx, note.ID, update); err != nil {
			log.Fatal(err)
		}
	}

	// 3. Compact and read it back
	report := nb.Compactor.CompactAll(ctx)
	doc, err := nb.Service.Document(ctx, note.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("compacted %d note(s)\n", len(report.Compacted))
	fmt.Printf("%s (%d fragment)\n", doc.Text, doc.Fragments)
	// Output:
	// compacted 1 note(s)
	// milk, eggs (1 fragment)
}
