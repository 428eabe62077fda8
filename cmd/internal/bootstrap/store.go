// Package bootstrap opens the shared infrastructure of the sitecms binaries.
package bootstrap

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"sitecms/cmd/internal/eventbus"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/cmd/internal/db"
	"sitecms/repositories"
	"sitecms/repositories/memory"
)

// Store is an opened content store. Ping is nil for the memory driver.
type Store struct {
	repositories.Store
	Ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects the configured driver.
func OpenStore(ctx context.Context, cfg config.AppConfig) (*Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.WarnWithFields("using in-memory content store; data is lost on restart", nil)
		return &Store{Store: memory.NewStore()}, nil
	}

	if err := db.Init(ctx, cfg.Mongo); err != nil {
		return nil, err
	}
	tx := db.NewTransactor(db.Client(), cfg.Mongo.Transactions)
	if !tx.Enabled() {
		logger.WarnWithFields("mongo transactions disabled; taxonomy counters are eventually consistent", nil)
	}
	return &Store{
		Store: repositories.NewMongoStore(db.Database(), tx),
		Ping:  func(ctx context.Context) error { return db.Client().Ping(ctx, readpref.Primary()) },
		close: db.Disconnect,
	}, nil
}

// Publisher returns a Kafka publisher when brokers are configured, a no-op one otherwise.
func Publisher(cfg config.KafkaConfig) (eventbus.Publisher, error) {
	if cfg.BootstrapServers == "" {
		return eventbus.NoopPublisher{}, nil
	}
	p, err := eventbus.NewKafkaPublisher(cfg.BootstrapServers)
	if err != nil {
		return nil, err
	}
	return p, nil
}
