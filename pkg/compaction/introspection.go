package compaction

import (
	"time"

	"github.com/aretw0/introspection"
)

// CompactorState exposes the outcome of the latest sweep.
type CompactorState struct {
	Sweeps        uint64    `json:"sweeps"`
	LastRunID     string    `json:"last_run_id,omitempty"`
	LastStarted   time.Time `json:"last_started,omitempty"`
	LastDuration  string    `json:"last_duration,omitempty"`
	LastCompacted int       `json:"last_compacted"`
	LastRemoved   int       `json:"last_removed"`
	LastFailures  int       `json:"last_failures"`
}

// State implements introspection.Introspectable.
func (c *Compactor) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CompactorState{Sweeps: c.sweeps}
	if c.last != nil {
		s.LastRunID = c.last.RunID
		s.LastStarted = c.last.Started
		s.LastDuration = c.last.Duration.String()
		s.LastCompacted = len(c.last.Compacted)
		s.LastRemoved = c.last.Removed()
		s.LastFailures = len(c.last.Failures)
	}
	return s
}

// ComponentType implements introspection.Component.
func (c *Compactor) ComponentType() string {
	return "compactor"
}

var _ introspection.Introspectable = (*Compactor)(nil)
var _ introspection.Component = (*Compactor)(nil)
