package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sitecms/cmd/api/services"
	"sitecms/cmd/internal/bootstrap"
	"sitecms/cmd/internal/eventbus"
	"sitecms/cmd/internal/logger"
	"sitecms/cmd/processor/event/handler"
	"sitecms/config"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	if cfg.Kafka.BootstrapServers == "" {
		logger.ErrorWithFields("processor requires kafka.bootstrap_servers", nil)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.ErrorWithFields("failed to open content store", logger.Fields{"driver": cfg.Store.Driver, "error": err.Error()})
		os.Exit(1)
	}
	defer store.Close(context.Background())

	topic := eventbus.Topic(cfg.Kafka.Topic)
	if err := eventbus.EnsureTopics(ctx, cfg.Kafka.BootstrapServers, topic, 3); err != nil {
		logger.ErrorWithFields("failed to ensure eventbus topics", logger.Fields{"topic": topic.Base(), "error": err.Error()})
	}

	pub, err := bootstrap.Publisher(cfg.Kafka)
	if err != nil {
		logger.ErrorWithFields("failed to create kafka publisher", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer pub.Close()

	// 처리기는 이벤트를 발행하지 않으므로 PostService 에는 no-op 발행자를 준다.
	posts := services.NewPostService(store.Store, cfg.Site, eventbus.NoopPublisher{}, cfg.Kafka.Topic)
	eventHandler := handler.NewEventHandlers(posts)

	sub := &eventbus.KafkaSubscriber{
		Brokers: cfg.Kafka.BootstrapServers,
		Policy:  eventbus.RetryPolicy{MaxAttempts: cfg.Kafka.MaxAttempts, Delay: cfg.Kafka.RetryDelay},
		Pub:     pub,
	}

	logger.InfoWithFields("starting processor service with eventbus...", logger.Fields{"topic": topic.Base(), "group": cfg.Kafka.GroupID})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sub.Subscribe(ctx, cfg.Kafka.GroupID, topic, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorWithFields("eventbus subscribe error", logger.Fields{"error": err.Error()})
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	logger.InfoWithFields("received shutdown signal, shutting down processor service...", nil)

	cancel()
	wg.Wait()

	logger.InfoWithFields("processor service stopped", nil)
}
