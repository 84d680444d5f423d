// Package app wires configuration, storage, sessions and the HTTP surface
// into one runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"clinic-booking/internal/account"
	"clinic-booking/internal/booking"
	"clinic-booking/internal/config"
	"clinic-booking/internal/grpchealth"
	"clinic-booking/internal/handler"
	"clinic-booking/internal/lib/sl"
	"clinic-booking/internal/metrics"
	"clinic-booking/internal/middleware"
	"clinic-booking/internal/session"
	"clinic-booking/internal/store"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = 10 * time.Minute
	healthInterval  = 10 * time.Second
)

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	server   *http.Server
	store    *store.Store
	redis    *redis.Client
	sessions *store.SessionStore
	health   *grpchealth.Server
}

// New builds the application. ctx bounds background workers started here
// and in Run.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	const op = "app.New"

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a := &App{cfg: cfg, log: log, store: st}

	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("schema is up to date")
	}

	var sessStore session.Store
	if cfg.Session.RedisURL != "" {
		a.redis, err = session.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sessStore = session.NewRedisStore(a.redis, "session")
		log.Info("sessions stored in redis")
	} else {
		a.sessions = st.Sessions()
		sessStore = a.sessions
		log.Info("sessions stored in postgres")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h, err := handler.New(handler.Deps{
		Log:            log,
		Bookings:       booking.New(log, st),
		Accounts:       account.New(log, st),
		DB:             st,
		Sessions:       session.NewManager(sessStore, cfg.SecretKey, cfg.Session.TTL, cfg.IsProd(), log),
		Limiter:        middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		InitDBEndpoint: cfg.InitDBEndpoint,
		TrustProxy:     cfg.TrustProxy,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	if cfg.GRPCHealthAddr != "" {
		a.health = grpchealth.New(log, st)
	}
	return a, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("http server starting", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.health != nil {
		go func() {
			if err := a.health.Serve(ctx, a.cfg.GRPCHealthAddr, healthInterval); err != nil {
				errCh <- err
			}
		}()
	}

	if a.sessions != nil {
		go a.sessions.SweepExpired(ctx, sweepInterval, func(err error) {
			a.log.Error("failed to sweep expired sessions", sl.Err(err))
		})
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.log.Info("shutting down http server gracefully")
	return a.server.Shutdown(shutdownCtx)
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("failed to close redis", sl.Err(err))
		}
	}
	a.store.Close()
}
