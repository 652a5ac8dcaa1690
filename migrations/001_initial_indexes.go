// migrations/001_initial_indexes.go
package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetInitialIndexesMigration builds the indexes the feed ranking engine
// depends on: uniqueness on identity/stats documents, and the compound
// sort indexes feed assembly's candidate queries rely on.
func GetInitialIndexesMigration() Migration {
	return Migration{
		ID:          "001_initial_indexes",
		Description: "Create indexes for users, posts, and interest/creator stats",
		Up:          createInitialIndexes,
		Down:        dropInitialIndexes,
	}
}

func createInitialIndexes(ctx context.Context, db *mongo.Database) error {
	if err := createUsersIndexes(ctx, db); err != nil {
		return err
	}
	if err := createPostsIndexes(ctx, db); err != nil {
		return err
	}
	if err := createGlobalStatsIndexes(ctx, db); err != nil {
		return err
	}
	if err := createUserInterestStatsIndexes(ctx, db); err != nil {
		return err
	}
	if err := createCreatorStatsIndexes(ctx, db); err != nil {
		return err
	}
	return nil
}

func createUsersIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("users")

	if err := EnsureUniqueIndex(ctx, collection, bson.D{{"username", 1}}); err != nil {
		return err
	}
	if err := EnsureUniqueIndex(ctx, collection, bson.D{{"email", 1}}); err != nil {
		return err
	}

	return nil
}

// createPostsIndexes builds the compound indexes feed/fetch.go's candidate
// pool queries scan: per-category ranked pools, rising/evergreen pools,
// per-creator pools, and the fallback recency pool.
func createPostsIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("posts")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{
			{"category", 1}, {"sub_category", 1},
			{"bayesian_score", -1}, {"created_at", -1},
		}},
		{Keys: bson.D{
			{"category", 1}, {"sub_category", 1},
			{"is_rising", 1}, {"trending_score", -1}, {"created_at", -1},
		}},
		{Keys: bson.D{
			{"creator", 1}, {"trending_score", -1}, {"created_at", -1},
		}},
		{Keys: bson.D{
			{"is_rising", 1}, {"trending_score", -1}, {"created_at", -1},
		}},
		{Keys: bson.D{
			{"is_evergreen", 1}, {"trending_score", -1}, {"created_at", -1},
		}},
		{Keys: bson.D{
			{"created_at", -1},
		}},
	}

	return CreateIndexesSafely(ctx, collection, indexes)
}

// createGlobalStatsIndexes enforces one GlobalStats document per
// (entityType, name) pair, the key the Bayesian prior computation reads by.
func createGlobalStatsIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("global_stats")
	return EnsureUniqueIndex(ctx, collection, bson.D{{"entity_type", 1}, {"name", 1}})
}

// createUserInterestStatsIndexes enforces one persistent interest-stat
// document per (userId, entityType, name) triple.
func createUserInterestStatsIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("user_interest_stats")
	return EnsureUniqueIndex(ctx, collection, bson.D{{"user_id", 1}, {"entity_type", 1}, {"name", 1}})
}

// createCreatorStatsIndexes enforces one CreatorStats document per creator.
func createCreatorStatsIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("creator_stats")
	return EnsureUniqueIndex(ctx, collection, bson.D{{"creator_id", 1}})
}

func dropInitialIndexes(ctx context.Context, db *mongo.Database) error {
	collections := []string{
		"users",
		"posts",
		"global_stats",
		"user_interest_stats",
		"creator_stats",
	}

	for _, collName := range collections {
		collection := db.Collection(collName)
		if _, err := collection.Indexes().DropAll(ctx); err != nil {
			continue
		}
	}

	return nil
}
