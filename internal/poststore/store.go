// Package poststore is the persistent Post collection: load/save for the
// metrics engine, plus the bucketed aggregation queries the feed assembler
// issues against it.
package poststore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedranker/internal/models"
)

type Store struct {
	posts *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{posts: db.Collection("posts")}
}

func (s *Store) Load(ctx context.Context, postID string) (*models.Post, error) {
	oid, err := models.ObjectIDFromHex(postID)
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) Save(ctx context.Context, post *models.Post) error {
	post.BeforeUpdate()
	_, err := s.posts.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	return err
}

// IncrementEngagement applies the commutative counter bump the engagement
// stats consumer performs: impressionCount/engagementSum are plain $inc
// operations, safe under concurrent writers.
func (s *Store) IncrementEngagement(ctx context.Context, postID string, impressions int64, engagement float64) error {
	oid, err := models.ObjectIDFromHex(postID)
	if err != nil {
		return err
	}
	_, err = s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"impression_count": impressions, "engagement_sum": engagement},
	})
	return err
}

// TopByBayesian returns up to limit posts for a category/subCategory pair,
// ordered by bayesianScore desc, createdAt desc, excluding seen ids.
func (s *Store) TopByBayesian(ctx context.Context, category, subCategory string, excludeIDs []string, limit int64) ([]*models.Post, error) {
	filter := bson.M{"category": category}
	if subCategory != "" {
		filter["sub_category"] = subCategory
	}
	if len(excludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": toObjectIDs(excludeIDs)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "bayesian_score", Value: -1}, {Key: "created_at", Value: -1}}).SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// RandomSample draws up to limit posts matching filter via $sample.
func (s *Store) RandomSample(ctx context.Context, filter bson.M, limit int64) ([]*models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sample", Value: bson.M{"size": limit}}},
	}
	cur, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) TopByTrending(ctx context.Context, filter bson.M, limit int64) ([]*models.Post, error) {
	filter = mergeFilter(filter, nil)
	opts := options.Find().SetSort(bson.D{{Key: "trending_score", Value: -1}, {Key: "created_at", Value: -1}}).SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// FindSorted runs an arbitrary filter sorted desc by sortField, createdAt
// desc as tiebreak. Used by the feed assembler's general candidate pools
// (RISING/TRENDING/RECENT/EVERGREEN), which all share this shape but differ
// in filter and sort field.
func (s *Store) FindSorted(ctx context.Context, filter bson.M, sortField string, limit int64) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}, {Key: "created_at", Value: -1}}).SetLimit(limit)
	return s.find(ctx, filter, opts)
}

func (s *Store) TopByCreated(ctx context.Context, filter bson.M, limit int64) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Post, error) {
	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeFilter(filter, extra bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	for k, v := range extra {
		filter[k] = v
	}
	return filter
}

func toObjectIDs(hexes []string) []interface{} {
	out := make([]interface{}, 0, len(hexes))
	for _, h := range hexes {
		if oid, err := models.ObjectIDFromHex(h); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

// FindEvergreenCandidates supports C11's scheduled evergreen sweep.
func (s *Store) FindEvergreenCandidates(ctx context.Context, minRawScore float64) ([]*models.Post, error) {
	return s.find(ctx, bson.M{"raw_score": bson.M{"$gte": minRawScore}}, options.Find())
}
