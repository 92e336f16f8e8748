package platform

import (
	"io"
	"log/slog"

	"github.com/aretw0/introspection"

	"github.com/aretw0/quill/pkg/compaction"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/engine/lww"
	"github.com/aretw0/quill/pkg/replay"
)

// Notebook wires a store, the request-handling service and the compactor.
type Notebook struct {
	Service   *core.Service
	Compactor *compaction.Compactor
	Store     core.Store
	Engine    core.Engine

	logger *slog.Logger
}

// nb, err := quill.Open("./notes.db", quill.WithLogger(logger))
func Open(uri string, opts ...Option) (*Notebook, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := initStore(uri, o)
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	engine := o.engine
	if engine == nil {
		engine = lww.New()
	}
	reconstructor := replay.New(engine)

	svcOpts := []core.ServiceOption{core.WithServiceLogger(logger)}
	if seeder, ok := engine.(core.TextSeeder); ok {
		svcOpts = append(svcOpts, core.WithSeeder(seeder))
	}

	compactorOpts := []compaction.Option{
		compaction.WithLogger(logger.With("component", "compactor")),
		compaction.WithMetrics(compaction.NewMetrics(o.registerer)),
	}
	if o.now != nil {
		compactorOpts = append(compactorOpts, compaction.WithNow(o.now))
	}

	return &Notebook{
		Service:   core.NewService(store, reconstructor, svcOpts...),
		Compactor: compaction.New(store, reconstructor, compactorOpts...),
		Store:     store,
		Engine:    engine,
		logger:    logger,
	}, nil
}

// NewScheduler returns a stopped scheduler sweeping this notebook on policy.
func (n *Notebook) NewScheduler(policy compaction.Policy, opts ...compaction.SchedulerOption) *compaction.Scheduler {
	opts = append([]compaction.SchedulerOption{
		compaction.WithSchedulerLogger(n.logger.With("component", "scheduler")),
	}, opts...)
	return compaction.NewScheduler(n.Compactor, policy, opts...)
}

// Close releases the store.
func (n *Notebook) Close() error {
	return n.Store.Close()
}

// NotebookState aggregates the state of every component.
type NotebookState struct {
	Store     any `json:"store,omitempty"`
	Service   any `json:"service"`
	Compactor any `json:"compactor"`
}

// State implements introspection.Introspectable.
func (n *Notebook) State() any {
	s := NotebookState{
		Service:   n.Service.State(),
		Compactor: n.Compactor.State(),
	}
	if in, ok := n.Store.(introspection.Introspectable); ok {
		s.Store = in.State()
	}
	return s
}

// ComponentType implements introspection.Component.
func (n *Notebook) ComponentType() string {
	return "notebook"
}

var _ introspection.Introspectable = (*Notebook)(nil)
var _ introspection.Component = (*Notebook)(nil)
