package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/photolib/photolib/internal/config"
	"github.com/photolib/photolib/internal/httpserver"
	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/db"
	"github.com/photolib/photolib/pkg/delivery"
	"github.com/photolib/photolib/pkg/logger"
	"github.com/photolib/photolib/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Log, cfg.Sentry,
		logger.RequestIDExtractor,
		logger.TenantSlugExtractor,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	closePool := db.Shutdown(pool)
	defer closePool(context.Background())

	if err := db.Migrate(ctx, pool, metadata.Migrations, cfg.Database.MigrationsTable, log); err != nil {
		return err
	}

	backend, signer, err := buildBackend(cfg, log)
	if err != nil {
		return err
	}

	repo := metadata.NewRepository(pool)
	resolver := delivery.NewResolver(backend, log,
		delivery.WithWebMaxDimension(cfg.Download.WebMaxDimension),
		delivery.WithWebJPEGQuality(cfg.Download.WebJPEGQuality),
	)
	archiver := delivery.NewArchiver(resolver, metadata.NewLibrary(repo), log)

	srv := httpserver.NewServer(repo, backend, signer, resolver, archiver, db.Healthcheck(pool), log)
	httpSrv := httpserver.NewHTTPServer(cfg.HTTP, srv.Router())

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildBackend selects S3 when configured, local disk otherwise. Only the
// S3 backend can presign URLs; without it the public share routes are
// disabled.
func buildBackend(cfg config.Config, log *slog.Logger) (storage.Backend, storage.Signer, error) {
	if cfg.S3.Configured() {
		s3, err := storage.NewS3(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using s3 storage backend", slog.String("bucket", cfg.S3.Bucket))
		return s3, s3, nil
	}

	local, err := storage.NewLocal(cfg.Local)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using local storage backend", slog.String("root", cfg.Local.Root))
	return local, nil, nil
}
