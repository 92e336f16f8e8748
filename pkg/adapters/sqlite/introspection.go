package sqlite

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path     string `json:"path"`
	ReadOnly bool   `json:"read_only"`
	Open     bool   `json:"open"`
	Appends  uint64 `json:"appends"`
	Replaces uint64 `json:"replaces"`
}

// State implements introspection.Introspectable.
// It never waits on the connection lock.
func (r *Repository) State() any {
	open := false
	if r.gate != nil {
		open = r.gate.open()
	}
	return RepositoryState{
		Path:     r.Path,
		ReadOnly: r.config.ReadOnly,
		Open:     open,
		Appends:  r.appends.Load(),
		Replaces: r.replaces.Load(),
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
