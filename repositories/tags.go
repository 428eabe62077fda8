package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/apperr"
	"sitecms/models"
)

const CollectionTags = "blog_tags"

type MongoTagRepository struct {
	col *mongo.Collection
}

func NewMongoTagRepository(db *mongo.Database) *MongoTagRepository {
	return &MongoTagRepository{col: db.Collection(CollectionTags)}
}

func (r *MongoTagRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

func (r *MongoTagRepository) Insert(ctx context.Context, t *models.BlogTag) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, t)
	return mapErr("tag", "insert tag", err)
}

func (r *MongoTagRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogTag, error) {
	var t models.BlogTag
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr("tag", "find tag", err)
	}
	return &t, nil
}

func (r *MongoTagRepository) FindBySlug(ctx context.Context, slug string) (*models.BlogTag, error) {
	var t models.BlogTag
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&t); err != nil {
		return nil, mapErr("tag", "find tag", err)
	}
	return &t, nil
}

// FindByIDs returns the tags that exist among ids, ordered by name.
func (r *MongoTagRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.BlogTag, error) {
	if len(ids) == 0 {
		return []models.BlogTag{}, nil
	}
	tags, err := findAll[models.BlogTag](ctx, r.col, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Upstream("find tags", err)
	}
	return tags, nil
}

func (r *MongoTagRepository) List(ctx context.Context) ([]models.BlogTag, error) {
	tags, err := findAll[models.BlogTag](ctx, r.col, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "usage_count", Value: -1},
		{Key: "name", Value: 1},
	}))
	if err != nil {
		return nil, apperr.Upstream("list tags", err)
	}
	return tags, nil
}

func (r *MongoTagRepository) Replace(ctx context.Context, t *models.BlogTag) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateByID(ctx, t.ID, bson.M{
		"$set": bson.M{
			"name":        t.Name,
			"slug":        t.Slug,
			"description": t.Description,
			"updated_at":  t.UpdatedAt,
		},
	})
	return requireMatch("tag", "update tag", res, err)
}

func (r *MongoTagRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return requireDeleted("tag", "delete tag", res, err)
}

func (r *MongoTagRepository) IncrementUsage(ctx context.Context, ids []primitive.ObjectID, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$inc": bson.M{"usage_count": delta},
	})
	if err != nil {
		return apperr.Upstream("increment usage_count", err)
	}
	return nil
}
