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

const CollectionEvents = "events"

type MongoEventRepository struct {
	col *mongo.Collection
}

func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{col: db.Collection(CollectionEvents)}
}

func (r *MongoEventRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

func (r *MongoEventRepository) Insert(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, e)
	return mapErr("event", "insert event", err)
}

func (r *MongoEventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, mapErr("event", "find event", err)
	}
	return &e, nil
}

func (r *MongoEventRepository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var e models.Event
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&e); err != nil {
		return nil, mapErr("event", "find event", err)
	}
	return &e, nil
}

// List returns events by start date, soonest first.
func (r *MongoEventRepository) List(ctx context.Context, f EventListFilter) ([]models.Event, int64, error) {
	f = f.Normalize()
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.EndsAfter != nil {
		// events without an end date finish when they start
		filter["$or"] = []bson.M{
			{"end_date": bson.M{"$gte": *f.EndsAfter}},
			{"end_date": bson.M{"$exists": false}, "start_date": bson.M{"$gte": *f.EndsAfter}},
		}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Upstream("count events", err)
	}
	sort := bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}
	findOpts := pageOptions(f.Page, f.Limit, sort)
	if f.NoLimit {
		findOpts = options.Find().SetSort(sort)
	}
	events, err := findAll[models.Event](ctx, r.col, filter, findOpts)
	if err != nil {
		return nil, 0, apperr.Upstream("list events", err)
	}
	return events, total, nil
}

func (r *MongoEventRepository) Replace(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	return requireMatch("event", "update event", res, err)
}

func (r *MongoEventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return requireDeleted("event", "delete event", res, err)
}
