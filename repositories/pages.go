package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/apperr"
	"sitecms/models"
)

const CollectionPages = "pages"

type MongoPageRepository struct {
	col *mongo.Collection
}

func NewMongoPageRepository(db *mongo.Database) *MongoPageRepository {
	return &MongoPageRepository{col: db.Collection(CollectionPages)}
}

// Upsert creates or replaces a page identified by its slug.
func (r *MongoPageRepository) Upsert(ctx context.Context, p *models.Page) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	filter := bson.M{"slug": p.Slug}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": p.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":   p.UpdatedAt,
			"slug":         p.Slug,
			"title":        p.Title,
			"description":  p.Description,
			"config":       p.Config,
			"seo":          p.SEO,
			"is_published": p.IsPublished,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(p); err != nil {
		return mapErr("page", "upsert page", err)
	}
	return nil
}

func (r *MongoPageRepository) FindBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var p models.Page
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&p); err != nil {
		return nil, mapErr("page", "find page", err)
	}
	return &p, nil
}

func (r *MongoPageRepository) List(ctx context.Context) ([]models.Page, error) {
	pages, err := findAll[models.Page](ctx, r.col, bson.M{}, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, apperr.Upstream("list pages", err)
	}
	return pages, nil
}

func (r *MongoPageRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"slug": slug})
	return requireDeleted("page", "delete page", res, err)
}
