package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"sitecms/cmd/internal/bootstrap"
	"sitecms/cmd/internal/eventbus"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	if cfg.Kafka.BootstrapServers == "" {
		logger.ErrorWithFields("retry worker requires kafka.bootstrap_servers", nil)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	sub := &eventbus.KafkaSubscriber{
		Brokers: cfg.Kafka.BootstrapServers,
		Policy:  eventbus.RetryPolicy{MaxAttempts: cfg.Kafka.MaxAttempts, Delay: cfg.Kafka.RetryDelay},
		Pub:     pub,
	}
	groupID := cfg.Kafka.GroupID + "-retry-worker"

	logger.InfoWithFields("starting retry worker service with eventbus...", logger.Fields{"topic": topic.Retry(), "delay": cfg.Kafka.RetryDelay.String()})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sub.Reinject(ctx, groupID, topic); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorWithFields("eventbus retry reinjector error", logger.Fields{"topic": topic.Retry(), "error": err.Error()})
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	logger.InfoWithFields("received shutdown signal, shutting down retry worker service...", nil)

	cancel()
	<-done

	logger.InfoWithFields("retry worker service stopped", nil)
}
