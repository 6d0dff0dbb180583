package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/synonyms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/synonyms-backend/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/metrics"
	"github.com/heartmarshall/synonyms-backend/internal/service/dictionary"
	"github.com/heartmarshall/synonyms-backend/internal/transport/graphql"
	"github.com/heartmarshall/synonyms-backend/internal/transport/middleware"
	"github.com/heartmarshall/synonyms-backend/internal/transport/rest"
)

// Run loads the configuration and serves the dictionary API until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.Bool("persistence", cfg.Database.Enabled()),
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return serve(ctx, cfg, logger, ln)
}

// serve wires every component and runs the HTTP server on ln. On
// cancellation the server drains within ShutdownTimeout and the dictionary
// is saved when configured to.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ln net.Listener) error {
	rec := metrics.New()

	var (
		pool *pgxpool.Pool
		svc  *dictionary.Service
	)
	if cfg.Database.Enabled() {
		var err error
		pool, err = openDatabase(ctx, cfg.Database, logger)
		if err != nil {
			ln.Close()
			return err
		}
		defer pool.Close()
		svc = dictionary.NewService(logger, snapshot.New(pool, postgres.NewTxManager(pool)), rec, cfg.Dictionary)
	} else {
		svc = dictionary.NewService(logger, nil, rec, cfg.Dictionary)
	}

	if err := bootstrap(ctx, svc, cfg.Dictionary, logger); err != nil {
		ln.Close()
		return err
	}

	health := rest.NewHealthHandler(nil, svc, BuildVersion())
	if pool != nil {
		health = rest.NewHealthHandler(pool, svc, BuildVersion())
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	srv := &http.Server{
		Handler: rest.NewRouter(rest.RouterParams{
			Dictionary: rest.NewDictionaryHandler(svc, logger),
			GraphQL:    graphql.NewHandler(svc, logger),
			Health:     health,
			Metrics:    rec.Handler(),
			Limiter:    limiter,
			Server:     cfg.Server,
			CORS:       cfg.CORS,
			Logger:     logger,
		}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if cfg.Dictionary.SaveOnShutdown && svc.Persistent() {
			if _, err := svc.Save(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrations, err := postgres.Migrations(cfg.MigrationsDir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool, migrations, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
