package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/apperr"
	"sitecms/models"
)

const CollectionPosts = "blog_posts"

type MongoPostRepository struct {
	col *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{col: db.Collection(CollectionPosts)}
}

func (r *MongoPostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

// Insert stores a new post and sets its ID.
func (r *MongoPostRepository) Insert(ctx context.Context, p *models.BlogPost) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, p)
	return mapErr("post", "insert post", err)
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr("post", "find post", err)
	}
	return &p, nil
}

func (r *MongoPostRepository) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&p); err != nil {
		return nil, mapErr("post", "find post", err)
	}
	return &p, nil
}

func postFilter(f PostListFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	if len(f.TagIDs) > 0 {
		filter["tag_ids"] = bson.M{"$in": f.TagIDs}
	}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	if f.PublishedSince != nil {
		filter["published_at"] = bson.M{"$gte": *f.PublishedSince}
	}
	if f.ExcludeID != nil {
		filter["_id"] = bson.M{"$ne": *f.ExcludeID}
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": re},
			{"excerpt": re},
			{"seo.keywords": re},
		}
	}
	return filter
}

func postSort(s PostSort) bson.D {
	switch s {
	case SortOldest:
		return bson.D{{Key: "published_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortPopular:
		return bson.D{{Key: "analytics.views", Value: -1}, {Key: "_id", Value: -1}}
	case SortTitle:
		return bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// List returns posts with filters and pagination, plus the total match count.
func (r *MongoPostRepository) List(ctx context.Context, f PostListFilter) ([]models.BlogPost, int64, error) {
	f = f.Normalize()
	filter := postFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Upstream("count posts", err)
	}

	findOpts := pageOptions(f.Page, f.Limit, postSort(f.Sort))
	if f.NoLimit {
		findOpts = options.Find().SetSort(postSort(f.Sort))
	}
	results, err := findAll[models.BlogPost](ctx, r.col, filter, findOpts)
	if err != nil {
		return nil, 0, apperr.Upstream("list posts", err)
	}
	return results, total, nil
}

// Replace overwrites the stored post and bumps updated_at.
// Replace overwrites every editable field of p. Analytics are left to IncrementAnalytics.
func (r *MongoPostRepository) Replace(ctx context.Context, p *models.BlogPost) error {
	p.UpdatedAt = time.Now().UTC()
	set, err := setDoc(p, "analytics", "created_at")
	if err != nil {
		return apperr.Upstream("update post", err)
	}
	res, err := r.col.UpdateByID(ctx, p.ID, bson.M{"$set": set})
	return requireMatch("post", "update post", res, err)
}

func (r *MongoPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return requireDeleted("post", "delete post", res, err)
}

// IncrementAnalytics applies an atomic $inc to one analytics counter and returns the new counters.
func (r *MongoPostRepository) IncrementAnalytics(ctx context.Context, id primitive.ObjectID, field AnalyticsField, delta int64) (*models.Analytics, error) {
	key := "analytics." + string(field)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"analytics": 1})
	var p models.BlogPost
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{key: delta}}, opts).Decode(&p)
	if err != nil {
		return nil, mapErr("post", "increment "+key, err)
	}
	return &p.Analytics, nil
}

func (r *MongoPostRepository) SetAIOptimization(ctx context.Context, id primitive.ObjectID, opt models.AIOptimization) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"ai_optimization": opt},
	})
	return requireMatch("post", "update ai optimization", res, err)
}

// UnsetCategory detaches every post from a deleted category.
func (r *MongoPostRepository) UnsetCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"category_id": categoryID}, bson.M{
		"$unset": bson.M{"category_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, apperr.Upstream("unset category", err)
	}
	return res.ModifiedCount, nil
}

// PullTag removes a deleted tag from every post.
func (r *MongoPostRepository) PullTag(ctx context.Context, tagID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"tag_ids": tagID}, bson.M{
		"$pull": bson.M{"tag_ids": tagID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, apperr.Upstream("pull tag", err)
	}
	return res.ModifiedCount, nil
}
