package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the access-control layer depends on for
// correctness: email uniqueness, (userId, orgId) uniqueness, capability
// token lookups, and org scoping on every domain collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "setupToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "resetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	membershipIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "orgId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := db.Collection("memberships").Indexes().CreateMany(ctx, membershipIndexes); err != nil {
		return fmt.Errorf("failed to create membership indexes: %w", err)
	}

	for _, name := range []string{"expenses", "tasks"} {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "orgId", Value: 1}}}
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s index: %w", name, err)
		}
	}
	return nil
}
