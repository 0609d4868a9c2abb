package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/database"
	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/router"
	"github.com/iliyamo/store-rating/internal/service"
	"github.com/iliyamo/store-rating/internal/utils"
)

// server serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := boot()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			return err
		}
		log.Info("schema applied")
	}

	// Redis is optional: without it the limiter keeps buckets in process
	// and the dashboard is not cached.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; using local rate limiting, cache disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	stores := repository.NewStoreRepo(db)
	ratings := repository.NewRatingRepo(db)
	stats := repository.NewStatsRepo(db)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL())

	e := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(users, issuer, cfg.BcryptCost),
		Admin:   handler.NewAdminHandler(users, stores, stats, cfg.BcryptCost),
		Stores:  handler.NewStoreHandler(stores),
		Ratings: handler.NewRatingHandler(ratings, stores, service.NewRatingEvents(cfg.Events, log), log),
		Owner:   handler.NewOwnerHandler(stores, ratings, stats),
	}, router.Options{
		Issuer:     issuer,
		Limiter:    middleware.NewRateLimiter(cfg.RateLimit, rdb, log),
		Cache:      middleware.ResponseCache(cfg.Cache, rdb, log),
		Invalidate: middleware.InvalidateCache(cfg.Cache, rdb, log),
		Log:        log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		errc <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
