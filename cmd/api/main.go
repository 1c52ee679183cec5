// Command api serves the client portal, approval links, key management and
// the billing webhook.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeworks/contractor-hub/internal/api"
	"github.com/tradeworks/contractor-hub/internal/api/handler"
	"github.com/tradeworks/contractor-hub/internal/core/service"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/db/mongo"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/db/redis"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/queue"
	"github.com/tradeworks/contractor-hub/internal/pkg/config"
	"github.com/tradeworks/contractor-hub/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "contractor-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("disconnect mongo")
		}
	}()

	store := mongo.NewStore(mongoClient, db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	billing := service.NewBillingService(store.Profiles(), redis.NewDedupChecker(rdb), logger.Component("billing"))
	dispatcher := queue.NewDispatcher(cfg.Workers, billing, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	portal := service.NewPortalService(store, cfg.PortalBaseURL, logger.Component("portal"))

	e := api.NewRouter(api.Dependencies{
		Portal:        portal,
		AccessKeys:    portal,
		Billing:       billing,
		Dispatcher:    dispatcher,
		Readiness:     handler.NewHealthDependenciesHandler(db, rdb),
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.WebhookSecret,
		Log:           log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
