package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitecms/apperr"
)

// mapErr translates driver errors: no documents -> NotFound, duplicate key -> Conflict,
// everything else -> UpstreamStoreError.
func mapErr(entity, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFoundf("%s not found", entity)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict(entity + " already exists").WithCause(err)
	default:
		return apperr.Upstream(op, err)
	}
}

// requireMatch turns an update that matched nothing into NotFound.
func requireMatch(entity, op string, res *mongo.UpdateResult, err error) error {
	if err != nil {
		return mapErr(entity, op, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("%s not found", entity)
	}
	return nil
}

func requireDeleted(entity, op string, res *mongo.DeleteResult, err error) error {
	if err != nil {
		return mapErr(entity, op, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFoundf("%s not found", entity)
	}
	return nil
}

// slugExists checks col for slug, ignoring the document whose hex id is excludeID.
func slugExists(ctx context.Context, col *mongo.Collection, slug, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Upstream("slug lookup", err)
	}
	return n > 0, nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	results := []T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](ctx, cur)
}

func pageOptions(page, limit int, sort bson.D) *options.FindOptions {
	skip := int64((page - 1) * limit)
	return options.Find().SetSkip(skip).SetLimit(int64(limit)).SetSort(sort)
}

// setDoc encodes v for a $set update, dropping _id and the omitted keys.
func setDoc(v any, omit ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	for _, k := range omit {
		delete(doc, k)
	}
	return doc, nil
}
