package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/models"
)

const CollectionUsers = "users"

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(CollectionUsers)}
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr("user", "find user", err)
	}
	return &u, nil
}

// Upsert stores the author profile keyed by the token subject.
func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.UpdatedAt = now
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$setOnInsert": bson.M{"created_at": now},
		"$set": bson.M{
			"updated_at": u.UpdatedAt,
			"name":       u.Name,
			"email":      u.Email,
			"bio":        u.Bio,
			"avatar_url": u.AvatarURL,
			"url":        u.URL,
		},
	}, options.Update().SetUpsert(true))
	return mapErr("user", "upsert user", err)
}
