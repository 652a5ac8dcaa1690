// Package profilestore is the persistent backing for user interest
// profiles and the three stats counter collections, grounded on the
// collection-per-concern / upsert idioms of the platform's Mongo services.
package profilestore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedranker/internal/models"
)

type Store struct {
	profiles          *mongo.Collection
	globalStats       *mongo.Collection
	userInterestStats *mongo.Collection
	creatorStats      *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		profiles:          db.Collection("user_profiles"),
		globalStats:       db.Collection("global_stats"),
		userInterestStats: db.Collection("user_interest_stats"),
		creatorStats:      db.Collection("creator_stats"),
	}
}

// LoadProfile fetches a user's persistent profile, or an empty one if none
// exists yet (a user only gets a profile row on their first engagement).
func (s *Store) LoadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	oid, err := models.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	err = s.profiles.FindOne(ctx, bson.M{"user_id": oid}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		profile = models.UserProfile{UserID: oid}
		profile.BeforeCreate()
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile upserts the full profile document. Validation is intentionally
// skipped here: the caller (interest/creator services) is the only writer
// and has already enforced pool invariants.
func (s *Store) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	profile.BeforeUpdate()
	opts := options.Replace().SetUpsert(true)
	_, err := s.profiles.ReplaceOne(ctx, bson.M{"user_id": profile.UserID}, profile, opts)
	return err
}

// IncrementGlobalStats atomically upserts GlobalStats{entityType,name}.
func (s *Store) IncrementGlobalStats(ctx context.Context, entityType, name string, impressions int64, engagement float64) (*models.GlobalStats, error) {
	filter := bson.M{"entity_type": entityType, "name": name}
	update := bson.M{
		"$inc": bson.M{"impression_count": impressions, "total_engagement": engagement},
		"$set": bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.GlobalStats
	if err := s.globalStats.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrementUserInterestStats atomically upserts UserInterestStats{user,entityType,name}.
func (s *Store) IncrementUserInterestStats(ctx context.Context, userID, entityType, name string, impressions int64, engagement float64) (*models.UserInterestStats, error) {
	oid, err := models.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": oid, "entity_type": entityType, "name": name}
	update := bson.M{
		"$inc": bson.M{"impression_count": impressions, "total_engagement": engagement},
		"$set": bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.UserInterestStats
	if err := s.userInterestStats.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrementCreatorStats atomically upserts CreatorStats{creatorId}.
func (s *Store) IncrementCreatorStats(ctx context.Context, creatorID string, impressions int64, engagement float64) (*models.CreatorStats, error) {
	filter := bson.M{"creator_id": creatorID}
	update := bson.M{
		"$inc": bson.M{"impression_count": impressions, "total_engagement": engagement},
		"$set": bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.CreatorStats
	if err := s.creatorStats.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetGlobalStats(ctx context.Context, entityType, name string) (*models.GlobalStats, error) {
	var out models.GlobalStats
	err := s.globalStats.FindOne(ctx, bson.M{"entity_type": entityType, "name": name}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return &models.GlobalStats{EntityType: entityType, Name: name}, nil
	}
	return &out, err
}

// AllProfiles loads every persistent profile, used by the daily rising-decay
// sweep. The user base is assumed small enough for a single full scan; a
// larger deployment would page this.
func (s *Store) AllProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	cur, err := s.profiles.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.UserProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetCreatorStats(ctx context.Context, creatorID string) (*models.CreatorStats, error) {
	var out models.CreatorStats
	err := s.creatorStats.FindOne(ctx, bson.M{"creator_id": creatorID}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return &models.CreatorStats{CreatorID: creatorID}, nil
	}
	return &out, err
}
