// Package lifecycle exposes compaction sweep reports as a lifecycle event source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quill/pkg/compaction"
)

type reportSource struct {
	reports <-chan compaction.Report
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits compaction reports.
// It bridges the typed report channel to the generic lifecycle Event interface.
func NewSource(reports <-chan compaction.Report) lifecycle.Source {
	return &reportSource{
		reports: reports,
		out:     make(chan lifecycle.Event),
	}
}

func (s *reportSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *reportSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-s.reports:
				if !ok {
					return nil
				}
				select {
				case s.out <- r:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
