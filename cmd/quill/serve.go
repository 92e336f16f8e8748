package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/adapters/lifecycle"
	"github.com/aretw0/quill/pkg/compaction"
)

var (
	serveDev         bool
	serveMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the compaction scheduler until interrupted",
	Long: `Runs background compaction on the configured policy (daily at 02:00 by default).
With --dev, sweeps run every 300 seconds. Edits to .quill.yaml change the policy without a restart.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		nb, cfg := openNotebook(quill.WithMetrics(reg))
		defer nb.Close()

		policy, err := cfg.Policy()
		if err != nil {
			fatal("Invalid compaction policy", err)
		}
		if serveDev {
			policy = quill.Every(compaction.DevInterval)
		}

		var (
			currentPolicy atomic.Pointer[compaction.Policy]
			current       atomic.Pointer[compaction.Scheduler]
		)
		currentPolicy.Store(&policy)

		reports := make(chan compaction.Report, 8)
		spec := supervisor.Spec{
			Name: "compaction-scheduler",
			Type: string(worker.TypeGoroutine),
			Factory: func() (worker.Worker, error) {
				// A restarted scheduler picks up the latest policy.
				s := nb.NewScheduler(*currentPolicy.Load(), compaction.WithReports(reports))
				current.Store(s)
				return s, nil
			},
			Backoff: supervisor.Backoff{
				InitialInterval: time.Second,
				MaxInterval:     time.Minute,
				Multiplier:      2,
				ResetDuration:   10 * time.Minute,
				MaxRestarts:     5,
				MaxDuration:     time.Hour,
			},
			RestartPolicy: supervisor.RestartOnFailure,
		}
		sup := supervisor.New("quill", supervisor.StrategyOneForOne, spec)
		if err := sup.Start(ctx); err != nil {
			fatal("Error starting scheduler", err)
		}

		src := lifecycle.NewSource(reports)
		if err := src.Start(ctx); err != nil {
			fatal("Error starting report source", err)
		}
		go func() {
			for e := range src.Events() {
				slog.Info("sweep finished", "report", e.String())
			}
		}()

		if !serveDev {
			watchPolicy(ctx, &currentPolicy, &current)
		}

		var srv *http.Server
		if addr := metricsAddr(cfg); addr != "" {
			srv = serveMetrics(addr, reg)
		}

		slog.Info("scheduler running", "policy", policy.String())
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}
		if err := sup.Stop(shutdownCtx); err != nil {
			slog.Warn("scheduler shutdown", "error", err)
		}
	},
}

// watchPolicy follows the config file and moves the running scheduler to each new policy.
func watchPolicy(ctx context.Context, policy *atomic.Pointer[compaction.Policy], current *atomic.Pointer[compaction.Scheduler]) {
	_, root, err := loadConfig()
	if err != nil {
		return
	}
	path := filepath.Join(root, quill.ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		slog.Debug("no config file to watch", "path", path)
		return
	}

	err = quill.WatchConfig(ctx, path, slog.Default(), func(cfg quill.Config) {
		p, err := cfg.Policy()
		if err != nil {
			slog.Warn("ignoring compaction policy", "error", err)
			return
		}
		policy.Store(&p)
		if s := current.Load(); s != nil {
			s.SetPolicy(p)
		}
	})
	if err != nil {
		slog.Warn("config watch disabled", "error", err)
	}
}

func metricsAddr(cfg quill.Config) string {
	if serveMetricsAddr != "" {
		return serveMetricsAddr
	}
	return cfg.MetricsAddr
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Sweep every 300 seconds instead of the configured policy")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
