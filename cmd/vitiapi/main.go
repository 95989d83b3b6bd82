// Command vitiapi serves the viticulture statistics API. On startup it
// migrates the database and, when tables are empty, scrapes the source site.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/vitiapi/internal/api"
	"github.com/persistorai/vitiapi/internal/config"
	"github.com/persistorai/vitiapi/internal/db"
	"github.com/persistorai/vitiapi/internal/db/migrations"
	"github.com/persistorai/vitiapi/internal/dbpool"
	"github.com/persistorai/vitiapi/internal/ingest"
	"github.com/persistorai/vitiapi/internal/middleware"
	"github.com/persistorai/vitiapi/internal/service"
	"github.com/persistorai/vitiapi/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.WithError(err).Fatal("vitiapi exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel) //nolint:errcheck // validated by config.Load.
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"version": config.Version,
		"addr":    cfg.Addr(),
	}).Info("starting vitiapi")

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), dbpool.WithMaxConns(int32(cfg.DBMaxConns))) //nolint:gosec // bounded by config validation.
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	coord := ingest.NewCoordinator(log, nil)

	if cfg.IngestOnStartup {
		if err := ingestOnStartup(ctx, cfg, pool, coord, log); err != nil {
			return err
		}
	} else {
		log.Info("startup ingestion disabled")
	}

	stores := store.NewStores(store.Base{DB: pool, Log: log})

	auditWorker := service.NewAuditWorker(service.NewLogAuditor(log), log, 1000)
	// The cache wraps the service and the service revokes from the cache.
	var users *middleware.CachedUserLookup
	accounts := service.NewAccountService(stores.Users, auditWorker, log,
		service.WithRevoker(revokeFunc(func(keyHash string) { users.Revoke(keyHash) })))
	users = middleware.NewCachedUserLookup(ctx, accounts)

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:          log,
		DB:           pool,
		Stores:       stores,
		Accounts:     accounts,
		Users:        users,
		Ingest:       coord,
		CORSOrigins:  cfg.CORSOrigins,
		Version:      config.Version,
		ServeMetrics: cfg.MetricsAddr() == "",
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		auditWorker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return serve(gctx, log, &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		})
	})

	if addr := cfg.MetricsAddr(); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		g.Go(func() error {
			return serve(gctx, log, &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			})
		})
	}

	return g.Wait()
}

type revokeFunc func(keyHash string)

func (f revokeFunc) Revoke(keyHash string) { f(keyHash) }

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, log *logrus.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.WithField("addr", srv.Addr).Info("shutting down")

	return srv.Shutdown(shutdownCtx)
}
