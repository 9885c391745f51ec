package main // Entry point of the event catalog API

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/eventcat/internal/config"
	"github.com/iliyamo/eventcat/internal/database"
	"github.com/iliyamo/eventcat/internal/handler"
	"github.com/iliyamo/eventcat/internal/logger"
	"github.com/iliyamo/eventcat/internal/middleware"
	"github.com/iliyamo/eventcat/internal/model"
	"github.com/iliyamo/eventcat/internal/queue"
	"github.com/iliyamo/eventcat/internal/repository"
	"github.com/iliyamo/eventcat/internal/router"
	"github.com/iliyamo/eventcat/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial table
	rows, err := loadSnapshot(ctx, cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	repo := repository.NewEventRepo(log.Named("store"))
	repo.Load(rows)
	log.Info("table loaded", zap.Int("rows", repo.Len()))

	// Optional redis for cache and rate limit
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log.Named("cache"))

	notifiers := handler.Notifiers{cache}
	if cfg.Queue.URL != "" {
		pub := service.NewPublisher(cfg.Queue.URL, cfg.Queue.Queue, log.Named("publisher"))
		defer pub.Close()
		notifiers = append(notifiers, pub)

		if cfg.Queue.ConsumerEnabled {
			audit := &queue.AuditConsumer{
				URL:     cfg.Queue.URL,
				Queue:   cfg.Queue.Queue,
				LogPath: cfg.Queue.AuditLogPath,
				Log:     log.Named("audit"),
			}
			go func() {
				if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	h := handler.NewEventHandler(repo, notifiers, log.Named("handler"))
	h.DefaultStart, h.DefaultEnd, err = cfg.SearchWindow()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log.Named("http")))

	router.RegisterRoutes(e, repo)
	router.RegisterEvents(e, h,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")),
		cache.Middleware(),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// loadSnapshot reads the initial rows from a JSON file or a SQL table.  With
// neither configured the service starts with an empty table.
func loadSnapshot(ctx context.Context, sc config.SnapshotConfig) ([]model.Event, error) {
	switch {
	case sc.File != "":
		return database.LoadFile(sc.File)
	case sc.Driver != "":
		db, err := database.Open(sc.Driver, sc.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return database.LoadTable(ctx, db, sc.Table)
	}
	return nil, nil
}
