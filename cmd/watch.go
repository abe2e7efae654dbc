package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/manager"
)

const shutdownTimeout = 5 * time.Second

// watchCommand runs the inbox watcher until interrupted, serving /metrics
// when metrics_addr is set.
func watchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taxocard watch", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logger := newLogger(cfg)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mgr := newManager(cfg, manager.WithMetrics(manager.NewMetrics(reg)))
	watcher := manager.NewWatcher(mgr, cfg.InboxDir,
		manager.WithDebounce(time.Duration(cfg.WatchDebounceMs)*time.Millisecond),
		manager.WithWatcherLogger(logger),
	)

	if err := serveWhile(ctx, logger, cfg.MetricsAddr, reg, watcher.Run); err != nil {
		return err
	}
	stats := watcher.Stats()
	logger.Info("Watch finished", "accepted", stats.Accepted, "rejected", stats.Rejected, "errors", stats.Errors)
	return nil
}

// serveWhile runs run and, when addr is set, a /metrics server for reg. The
// server shuts down as soon as run returns, whatever the reason.
func serveWhile(ctx context.Context, logger *log.Logger, addr string, reg *prometheus.Registry, run func(context.Context) error) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return run(gctx)
	})

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving metrics", "addr", addr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
