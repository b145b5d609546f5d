// Package server wires the transport, responder, stats, and management
// API together and runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jroosing/herald/internal/api"
	"github.com/jroosing/herald/internal/config"
	"github.com/jroosing/herald/internal/mdns"
	"github.com/jroosing/herald/internal/stats"
	"github.com/jroosing/herald/internal/transport"
)

// Runner orchestrates responder startup, announcement, and shutdown.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts the responder with the given configuration and blocks
// until SIGINT or SIGTERM.
func (r *Runner) Run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return r.RunWithContext(ctx, cfg)
}

// RunWithContext starts the responder and blocks until ctx is canceled
// or a component fails.
//
// Startup order matters: the announcement must go out before the
// transport starts serving, because announcement and replies share the
// responder's single in-flight transaction.
func (r *Runner) RunWithContext(ctx context.Context, cfg *config.Config) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	id, err := cfg.Identity()
	if err != nil {
		return err
	}

	rec := stats.NewRecorder()

	var store *stats.Store
	if cfg.Stats.Path != "" {
		store, err = stats.Open(cfg.Stats.Path)
		if err != nil {
			return fmt.Errorf("open stats store: %w", err)
		}
		defer store.Close()

		snap, err := store.Load()
		if err != nil {
			return fmt.Errorf("load persisted stats: %w", err)
		}
		rec.Restore(snap)
	}

	var iface *net.Interface
	if cfg.Service.Interface != "" {
		iface, err = net.InterfaceByName(cfg.Service.Interface)
		if err != nil {
			return fmt.Errorf("multicast interface %q: %w", cfg.Service.Interface, err)
		}
	}

	udp := &transport.UDPv4{Logger: r.logger, Iface: iface}
	if err := udp.Listen(mdns.Port); err != nil {
		return err
	}
	defer udp.Close()

	responder, err := mdns.NewResponder(id, udp, r.logger, rec)
	if err != nil {
		return err
	}
	defer responder.Close()

	udp.SetObserver(responder)

	if cfg.Service.Announce {
		if err := responder.Announce(); err != nil && r.logger != nil {
			r.logger.Warn("startup announcement failed", "error", err)
		}
	}

	r.logStartup(cfg, id)

	errCh := make(chan error, 2)
	go func() { errCh <- udp.Serve(ctx) }()

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(cfg, r.logger, id, rec, store)
		go func() {
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("api server: %w", err)
			}
		}()
		if r.logger != nil {
			r.logger.Info("management api listening", "addr", apiSrv.Addr())
		}
	}

	if store != nil {
		go r.flushLoop(ctx, cfg, rec, store)
	}

	var runErr error
	select {
	case <-ctx.Done():
		// shutdown requested
	case err := <-errCh:
		if err != nil {
			cancelRun()
			runErr = err
		}
	}

	if apiSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil && r.logger != nil {
			r.logger.Warn("api shutdown", "error", err)
		}
	}

	if store != nil {
		if err := store.Flush(rec.Snapshot()); err != nil && r.logger != nil {
			r.logger.Warn("final stats flush failed", "error", err)
		}
	}

	return runErr
}

// flushLoop persists counters periodically until ctx ends. The final
// flush on shutdown happens in RunWithContext.
func (r *Runner) flushLoop(ctx context.Context, cfg *config.Config, rec *stats.Recorder, store *stats.Store) {
	every, err := cfg.FlushEvery()
	if err != nil {
		every = 30 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Flush(rec.Snapshot()); err != nil && r.logger != nil {
				r.logger.Warn("stats flush failed", "error", err)
			}
		}
	}
}

// logStartup logs the advertised identity at startup.
func (r *Runner) logStartup(cfg *config.Config, id mdns.Identity) {
	if r.logger == nil {
		return
	}
	r.logger.Info("responder listening",
		"instance", id.InstanceName(),
		"service", id.ServiceName(),
		"group", mdns.GroupIPv4.String(),
		"port", mdns.Port,
		"iface", cfg.Service.Interface,
		"announce", cfg.Service.Announce,
	)
}
