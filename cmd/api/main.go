package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/auth"
	"sitecms/cmd/api/metrics"
	"sitecms/cmd/api/router"
	"sitecms/cmd/api/services"
	"sitecms/cmd/internal/bootstrap"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/feeder"
)

// @title                       sitecms API
// @version                     1.0
// @description                 Headless CMS API: posts, taxonomy, comments, pages, events, feeds, sitemaps and AI-readable exports
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.ErrorWithFields("failed to open content store", logger.Fields{"driver": cfg.Store.Driver, "error": err.Error()})
		os.Exit(1)
	}
	defer store.Close(context.Background())

	tokens, err := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		logger.ErrorWithFields("failed to configure JWT verification", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	pub, err := bootstrap.Publisher(cfg.Kafka)
	if err != nil {
		logger.ErrorWithFields("failed to create kafka publisher", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer pub.Close()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(nil)
		rec, metricsHandler = prom, prom.Handler()
	}

	posts := services.NewPostService(store.Store, cfg.Site, pub, cfg.Kafka.Topic)
	handler, err := router.New(cfg, router.Deps{
		Tokens:   tokens,
		Services: router.NewServices(cfg, store.Store, posts, feeder.NewFetcher(), rec),
		Recorder: rec,
		Metrics:  metricsHandler,
		Ping:     store.Ping,
	})
	if err != nil {
		logger.ErrorWithFields("failed to build router", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		logger.InfoWithFields("starting api server", logger.Fields{"addr": cfg.Server.Addr, "store": cfg.Store.Driver, "site": cfg.Site.BaseURL})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithFields("api server stopped", logger.Fields{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	logger.InfoWithFields("received shutdown signal, shutting down api server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("graceful shutdown failed", logger.Fields{"error": err.Error()})
	}
	logger.InfoWithFields("api server stopped", nil)
}
