package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitecms/cmd/api/services"
	"sitecms/cmd/internal/bootstrap"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/feeder"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.ErrorWithFields("failed to open content store", logger.Fields{"driver": cfg.Store.Driver, "error": err.Error()})
		os.Exit(1)
	}
	defer store.Close(context.Background())

	pub, err := bootstrap.Publisher(cfg.Kafka)
	if err != nil {
		logger.ErrorWithFields("failed to create kafka publisher", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer pub.Close()

	posts := services.NewPostService(store.Store, cfg.Site, pub, cfg.Kafka.Topic)
	svc := NewAggregateService(services.NewImportService(posts, feeder.NewFetcher()), cfg.Import.Feeds)

	// Validate 에서 이미 확인했다.
	loc, _ := time.LoadLocation(cfg.Import.Timezone)

	// 첫 실행은 즉시 1회 수행
	svc.RunFeedCollection(ctx)
	for {
		next := nextRun(time.Now(), loc)
		logger.InfoWithFields("aggregate sleeping", logger.Fields{"until": next.Format(time.RFC3339), "timezone": loc.String()})

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.InfoWithFields("aggregate stopped", nil)
			return
		case <-timer.C:
		}
		svc.RunFeedCollection(ctx)
	}
}
