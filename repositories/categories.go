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

const CollectionCategories = "blog_categories"

type MongoCategoryRepository struct {
	col *mongo.Collection
}

func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{col: db.Collection(CollectionCategories)}
}

func (r *MongoCategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

func (r *MongoCategoryRepository) Insert(ctx context.Context, c *models.BlogCategory) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, c)
	return mapErr("category", "insert category", err)
}

func (r *MongoCategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogCategory, error) {
	var c models.BlogCategory
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr("category", "find category", err)
	}
	return &c, nil
}

func (r *MongoCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.BlogCategory, error) {
	var c models.BlogCategory
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&c); err != nil {
		return nil, mapErr("category", "find category", err)
	}
	return &c, nil
}

func (r *MongoCategoryRepository) List(ctx context.Context) ([]models.BlogCategory, error) {
	cats, err := findAll[models.BlogCategory](ctx, r.col, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Upstream("list categories", err)
	}
	return cats, nil
}

// Replace updates the editable fields; post_count is owned by IncrementPostCount.
func (r *MongoCategoryRepository) Replace(ctx context.Context, c *models.BlogCategory) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateByID(ctx, c.ID, bson.M{
		"$set": bson.M{
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
			"color":       c.Color,
			"parent_id":   c.ParentID,
			"seo":         c.SEO,
			"updated_at":  c.UpdatedAt,
		},
	})
	return requireMatch("category", "update category", res, err)
}

func (r *MongoCategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return requireDeleted("category", "delete category", res, err)
}

func (r *MongoCategoryRepository) IncrementPostCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"post_count": delta},
	})
	return requireMatch("category", "increment post_count", res, err)
}
