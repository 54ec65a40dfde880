package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/supportflow-dev/supportflow/internal/api"
	"github.com/supportflow-dev/supportflow/internal/engine"
	"github.com/supportflow-dev/supportflow/internal/observability"
	"github.com/supportflow-dev/supportflow/internal/ticket"
	"github.com/supportflow-dev/supportflow/pkg/config"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage HTTP server",
	Long: `Starts the SupportFlow triage service: a JSON API over HTTP backed by
a Redis or in-memory session store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	observability.InitMetrics()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(store, engine.Config{
		HandoffGrace: cfg.HandoffGrace.Std(),
		Ticket: ticket.Options{
			ProjectKey:    cfg.Ticket.ProjectKey,
			IssueType:     cfg.Ticket.IssueType,
			DefaultLabels: cfg.Ticket.DefaultLabels,
			LabelMap:      cfg.Ticket.LabelMap,
		},
	}, log)

	var limiter *rate.Limiter
	if cfg.ChatRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ChatRatePerSecond), cfg.ChatBurst)
	}

	handler := api.New(eng, store, limiter, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Redis expires keys on its own; the memory store needs a sweeper.
	if mem, ok := store.(*session.MemoryStore); ok && cfg.SweepInterval != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.SweepInterval, func() {
			if removed := mem.Sweep(); removed > 0 {
				observability.RecordSweep(removed)
				log.Debug("sessions swept", "removed", removed)
			}
		}); err != nil {
			return fmt.Errorf("invalid sweep_interval %q: %w", cfg.SweepInterval, err)
		}
		c.Start()
		g.Go(func() error {
			<-gctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Store {
	case "redis":
		store, err := session.NewRedisStore(session.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			SessionTTL: cfg.SessionTTL.Std(),
			PoolSize:   cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.SessionTTL.Std()), nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
