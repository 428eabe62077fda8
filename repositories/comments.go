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

const CollectionComments = "blog_comments"

type MongoCommentRepository struct {
	col *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{col: db.Collection(CollectionComments)}
}

func (r *MongoCommentRepository) Insert(ctx context.Context, c *models.BlogComment) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, c)
	return mapErr("comment", "insert comment", err)
}

func (r *MongoCommentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogComment, error) {
	var c models.BlogComment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr("comment", "find comment", err)
	}
	return &c, nil
}

// List is the moderation queue: newest first.
func (r *MongoCommentRepository) List(ctx context.Context, f CommentListFilter) ([]models.BlogComment, int64, error) {
	f = f.Normalize()
	filter := bson.M{}
	if f.PostID != nil {
		filter["post_id"] = *f.PostID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Upstream("count comments", err)
	}
	comments, err := findAll[models.BlogComment](ctx, r.col, filter,
		pageOptions(f.Page, f.Limit, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, apperr.Upstream("list comments", err)
	}
	return comments, total, nil
}

func (r *MongoCommentRepository) ListApproved(ctx context.Context, postID primitive.ObjectID) ([]models.BlogComment, error) {
	comments, err := findAll[models.BlogComment](ctx, r.col,
		bson.M{"post_id": postID, "status": models.CommentStatusApproved},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Upstream("list comments", err)
	}
	return comments, nil
}

func (r *MongoCommentRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.CommentStatus) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
	})
	return requireMatch("comment", "update comment", res, err)
}

func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return requireDeleted("comment", "delete comment", res, err)
}

func (r *MongoCommentRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, apperr.Upstream("delete comments", err)
	}
	return res.DeletedCount, nil
}
