package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection stores T as a BSON document. Ids are ObjectID hex strings kept
// in _id as plain strings, so they round-trip through JSON unchanged.
type Collection[T any] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCollection[T any](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{
		coll: db.Collection(name),
		now:  time.Now,
	}
}

func (c *Collection[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	opts := options.Find()
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Sort.Field != "" {
		dir := int(q.Sort.Dir)
		opts.SetSort(bson.D{{Key: fieldName(q.Sort.Field), Value: dir}, {Key: "_id", Value: dir}})
	}

	cur, err := c.coll.Find(ctx, toFilter(q.Filter), opts)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	return c.coll.CountDocuments(ctx, toFilter(f))
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var out T

	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, repo.ErrNotFound
	}

	return out, err
}

func (c *Collection[T]) Insert(ctx context.Context, doc T) (T, error) {
	var out T

	raw, err := bson.Marshal(doc)
	if err != nil {
		return out, err
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return out, err
	}

	now := c.now().UTC().Truncate(time.Millisecond)
	m["_id"] = primitive.NewObjectID().Hex()
	m["createdAt"] = now
	m["updatedAt"] = now

	if _, err := c.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return out, fmt.Errorf("%s insert: %w", c.coll.Name(), repo.ErrDuplicate)
		}
		return out, err
	}

	raw, err = bson.Marshal(m)
	if err != nil {
		return out, err
	}

	err = bson.Unmarshal(raw, &out)
	return out, err
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, patch repo.Patch) (T, error) {
	var out T

	set := bson.M{}
	for k, v := range patch {
		name := fieldName(k)
		if name == "_id" || name == "createdAt" {
			continue
		}
		set[name] = v
	}
	set["updatedAt"] = c.now().UTC().Truncate(time.Millisecond)

	err := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return out, repo.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return out, fmt.Errorf("%s update: %w", c.coll.Name(), repo.ErrDuplicate)
	}

	return out, err
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}

	return res.DeletedCount > 0, nil
}

var ops = map[query.Op]string{
	query.Eq:  "$eq",
	query.Lte: "$lte",
	query.Gte: "$gte",
}

func toFilter(f query.Filter) bson.M {
	out := bson.M{}

	for _, cond := range f {
		name := fieldName(cond.Field)

		existing, ok := out[name].(bson.M)
		if !ok {
			existing = bson.M{}
			out[name] = existing
		}
		existing[ops[cond.Op]] = cond.Value
	}

	return out
}

func fieldName(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}
