package mongodb

import (
	"context"
	"fmt"

	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection      = "users"
	PromotionsCollection = "promotions"
)

func NewStore(client *mongo.Client, db *mongo.Database) *repo.Store {
	return repo.NewStore("mongo",
		NewCollection[user.User](db, UsersCollection),
		NewCollection[promotion.Promotion](db, PromotionsCollection),
		func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		client.Disconnect,
	)
}

// EnsureIndexes creates the lookup indexes and the unique email index. It is
// idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	_, err = db.Collection(PromotionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productName", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "submittedBy", Value: 1}}},
		{Keys: bson.D{{Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("promotions indexes: %w", err)
	}

	return nil
}
