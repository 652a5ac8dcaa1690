package feed

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"feedranker/internal/models"
)

func msToTime(ms int64) time.Time { return time.UnixMilli(ms) }

const RecentWindowMs = int64(3600_000)

// PostStore is the slice of poststore.Store the feed assembler needs for
// its batched candidate fetches.
type PostStore interface {
	TopByBayesian(ctx context.Context, category, subCategory string, excludeIDs []string, limit int64) ([]*models.Post, error)
	RandomSample(ctx context.Context, filter bson.M, limit int64) ([]*models.Post, error)
	FindSorted(ctx context.Context, filter bson.M, sortField string, limit int64) ([]*models.Post, error)
	TopByCreated(ctx context.Context, filter bson.M, limit int64) ([]*models.Post, error)
}

type candidate struct {
	post   *models.Post
	bucket string
}

func addCandidate(out map[string]*candidate, posts []*models.Post, bucket string, skippedCreators map[string]struct{}) {
	for _, p := range posts {
		id := p.IDHex()
		if _, skipped := skippedCreators[p.Creator]; skipped {
			continue
		}
		if _, exists := out[id]; exists {
			continue
		}
		out[id] = &candidate{post: p, bucket: bucket}
	}
}

// fetchCandidates runs every batched document-store query named in step 4
// and merges the results into one id-deduplicated map, first-bucket-wins.
func fetchCandidates(
	ctx context.Context,
	posts PostStore,
	categories []categorySelection,
	creators []creatorSelection,
	skipReentryCreatorID string,
	watchedCreatorID string,
	skippedCreators map[string]struct{},
	excludeIDs []string,
	nowMs int64,
) (map[string]*candidate, error) {
	out := map[string]*candidate{}
	excludeFilter := bson.M{"_id": bson.M{"$nin": toBsonExclude(excludeIDs)}}

	for _, cs := range categories {
		top, err := posts.TopByBayesian(ctx, cs.name, "", excludeIDs, 5)
		if err != nil {
			return nil, err
		}
		addCandidate(out, top, cs.bucket, skippedCreators)

		filter := mergeBSON(bson.M{"category": cs.name}, excludeFilter)
		random, err := posts.RandomSample(ctx, filter, 3)
		if err != nil {
			return nil, err
		}
		addCandidate(out, random, cs.bucket, skippedCreators)

		for _, sub := range cs.subcategories {
			subTop, err := posts.TopByBayesian(ctx, cs.name, sub.name, excludeIDs, 5)
			if err != nil {
				return nil, err
			}
			addCandidate(out, subTop, sub.bucket, skippedCreators)

			subFilter := mergeBSON(bson.M{"category": cs.name, "sub_category": sub.name}, excludeFilter)
			subRandom, err := posts.RandomSample(ctx, subFilter, 3)
			if err != nil {
				return nil, err
			}
			addCandidate(out, subRandom, sub.bucket, skippedCreators)
		}
	}

	if len(creators) > 0 {
		ids := make([]string, 0, len(creators))
		bucketOf := map[string]string{}
		for _, c := range creators {
			ids = append(ids, c.id)
			if _, ok := bucketOf[c.id]; !ok || c.bucket == BucketFollowed {
				bucketOf[c.id] = c.bucket
			}
		}
		filter := mergeBSON(bson.M{"creator": bson.M{"$in": toInterfaceSlice(ids)}}, excludeFilter)

		top, err := posts.FindSorted(ctx, filter, "trending_score", 20)
		if err != nil {
			return nil, err
		}
		addCreatorCandidates(out, top, bucketOf, skippedCreators)

		random, err := posts.RandomSample(ctx, filter, 10)
		if err != nil {
			return nil, err
		}
		addCreatorCandidates(out, random, bucketOf, skippedCreators)
	}

	if skipReentryCreatorID != "" {
		filter := mergeBSON(bson.M{"creator": skipReentryCreatorID}, excludeFilter)
		picks, err := posts.TopByCreated(ctx, filter, 1)
		if err != nil {
			return nil, err
		}
		addCandidate(out, picks, BucketSkipReentry, nil)
	}

	if watchedCreatorID != "" {
		filter := mergeBSON(bson.M{"creator": watchedCreatorID}, excludeFilter)
		picks, err := posts.TopByCreated(ctx, filter, 1)
		if err != nil {
			return nil, err
		}
		addCandidate(out, picks, BucketWatched, nil)
	}

	risingFilter := mergeBSON(bson.M{"is_rising": true, "is_evergreen": false}, excludeFilter)
	if err := fetchGeneralPool(ctx, posts, out, risingFilter, "trending_score", BucketRising, 4, 2, skippedCreators); err != nil {
		return nil, err
	}

	trendingFilter := mergeBSON(bson.M{"is_evergreen": false}, excludeFilter)
	if err := fetchGeneralPool(ctx, posts, out, trendingFilter, "trending_score", BucketTrending, 8, 4, skippedCreators); err != nil {
		return nil, err
	}

	recentFilter := mergeBSON(bson.M{"created_at": bson.M{"$gte": msToTime(nowMs - RecentWindowMs)}}, excludeFilter)
	if err := fetchGeneralPool(ctx, posts, out, recentFilter, "bayesian_score", BucketRecent, 8, 4, skippedCreators); err != nil {
		return nil, err
	}

	evergreenFilter := mergeBSON(bson.M{"is_evergreen": true}, excludeFilter)
	if err := fetchGeneralPool(ctx, posts, out, evergreenFilter, "trending_score", BucketEvergreen, 8, 4, skippedCreators); err != nil {
		return nil, err
	}

	return out, nil
}

func fetchGeneralPool(ctx context.Context, posts PostStore, out map[string]*candidate, filter bson.M, sortField, bucket string, topN, randomN int64, skippedCreators map[string]struct{}) error {
	top, err := posts.FindSorted(ctx, filter, sortField, topN)
	if err != nil {
		return err
	}
	addCandidate(out, top, bucket, skippedCreators)

	random, err := posts.RandomSample(ctx, filter, randomN)
	if err != nil {
		return err
	}
	addCandidate(out, random, bucket, skippedCreators)
	return nil
}

func addCreatorCandidates(out map[string]*candidate, posts []*models.Post, bucketOf map[string]string, skippedCreators map[string]struct{}) {
	for _, p := range posts {
		bucket := bucketOf[p.Creator]
		if bucket == "" {
			bucket = bucketUnknown
		}
		addCandidate(out, []*models.Post{p}, bucket, skippedCreators)
	}
}

func mergeBSON(a, b bson.M) bson.M {
	out := bson.M{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func toInterfaceSlice(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func toBsonExclude(ids []string) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if oid, err := models.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
