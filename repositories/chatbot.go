package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/apperr"
	"sitecms/models"
)

const CollectionChatbot = "chatbot_config"

type MongoChatbotRepository struct {
	col *mongo.Collection
}

func NewMongoChatbotRepository(db *mongo.Database) *MongoChatbotRepository {
	return &MongoChatbotRepository{col: db.Collection(CollectionChatbot)}
}

func (r *MongoChatbotRepository) Get(ctx context.Context) (*models.ChatbotConfig, error) {
	var cfg models.ChatbotConfig
	err := r.col.FindOne(ctx, bson.M{"_id": models.ChatbotConfigID}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		def := models.DefaultChatbotConfig()
		return &def, nil
	}
	if err != nil {
		return nil, apperr.Upstream("find chatbot config", err)
	}
	return &cfg, nil
}

func (r *MongoChatbotRepository) Save(ctx context.Context, cfg *models.ChatbotConfig) error {
	cfg.ID = models.ChatbotConfigID
	cfg.UpdatedAt = time.Now().UTC()
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg, options.Replace().SetUpsert(true))
	return mapErr("chatbot config", "save chatbot config", err)
}
