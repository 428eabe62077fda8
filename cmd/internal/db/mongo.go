package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/repositories"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init connects the global Mongo client, pings it and ensures indexes.
func Init(ctx context.Context, cfg config.MongoConfig) error {
	var initErr error
	clientOnce.Do(func() {
		cl, err := mongo.NewClient(options.Client().ApplyURI(cfg.URI))
		if err != nil {
			initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := cl.Connect(ctx); err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.DBName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		logger.InfoWithFields("MongoDB connected and indexes ensured", map[string]interface{}{
			"db":           cfg.DBName,
			"transactions": cfg.Transactions,
		})
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

type index struct {
	collection string
	model      mongo.IndexModel
}

func unique(col, name string, keys bson.D) index {
	return index{col, mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}}
}

func plain(col, name string, keys bson.D) index {
	return index{col, mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}}
}

var indexes = []index{
	unique(repositories.CollectionPosts, "uniq_slug", bson.D{{Key: "slug", Value: 1}}),
	plain(repositories.CollectionPosts, "idx_status_published_at", bson.D{
		{Key: "status", Value: 1},
		{Key: "published_at", Value: -1},
	}),
	plain(repositories.CollectionPosts, "idx_category_status_published_at", bson.D{
		{Key: "category_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "published_at", Value: -1},
	}),
	plain(repositories.CollectionPosts, "idx_tag_ids", bson.D{{Key: "tag_ids", Value: 1}}),
	unique(repositories.CollectionCategories, "uniq_slug", bson.D{{Key: "slug", Value: 1}}),
	unique(repositories.CollectionTags, "uniq_slug", bson.D{{Key: "slug", Value: 1}}),
	plain(repositories.CollectionComments, "idx_post_status_created_at", bson.D{
		{Key: "post_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "created_at", Value: 1},
	}),
	unique(repositories.CollectionPages, "uniq_slug", bson.D{{Key: "slug", Value: 1}}),
	unique(repositories.CollectionEvents, "uniq_slug", bson.D{{Key: "slug", Value: 1}}),
	plain(repositories.CollectionEvents, "idx_status_start_date", bson.D{
		{Key: "status", Value: 1},
		{Key: "start_date", Value: 1},
	}),
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	for _, ix := range indexes {
		if _, err := d.Collection(ix.collection).Indexes().CreateOne(ctx, ix.model); err != nil {
			return err
		}
	}
	return nil
}
