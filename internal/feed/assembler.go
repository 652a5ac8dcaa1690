package feed

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"feedranker/internal/models"
	"feedranker/internal/profilestore"
	"feedranker/internal/sessionstore"
)

// FeedPost is one ranked entry in the assembled feed: the post plus the
// bucket it was sourced from and the composite score it was ranked by.
type FeedPost struct {
	Post         *models.Post `json:"post"`
	Bucket       string       `json:"bucket"`
	OverallScore float64      `json:"overallScore"`
}

// bucketCaps are the per-bucket caps from step 6, applied to every
// non-EXPLORE pick. Buckets absent from this map fall back to UNKNOWN's cap.
var bucketCaps = map[string]int{
	BucketSkipReentry:  1,
	BucketWatched:      1,
	BucketCatTop:       3,
	BucketCatRising:    3,
	BucketCatExtra:     3,
	BucketSubTop:       2,
	BucketSubRising:    2,
	BucketCreatorTop:   2,
	BucketCreatorRise:  2,
	BucketCreatorExtra: 2,
	BucketFollowed:     2,
	BucketTrending:     2,
	BucketRising:       1,
	BucketRecent:       1,
	BucketEvergreen:    1,
	bucketUnknown:      1,
}

func capFor(bucket string) int {
	if cap, ok := bucketCaps[bucket]; ok {
		return cap
	}
	return bucketCaps[bucketUnknown]
}

type Assembler struct {
	profiles *profilestore.Store
	sessions *sessionstore.Store
	posts    PostStore
	stats    StatsStore
}

func NewAssembler(profiles *profilestore.Store, sessions *sessionstore.Store, posts PostStore, stats StatsStore) *Assembler {
	return &Assembler{profiles: profiles, sessions: sessions, posts: posts, stats: stats}
}

// Assemble runs the full pipeline of §4.7: build pools, select candidates,
// batch-fetch, score, interleave with fair-share bucket caps, then pad with
// random unseen posts. rngSeed seeds the in-process random selection of
// pools; production callers pass time.Now().UnixNano(). The document
// store's $sample draws (random candidates and padding) are not seeded.
func (a *Assembler) Assemble(ctx context.Context, userID, sessionID string, rngSeed int64) ([]FeedPost, error) {
	nowMs := time.Now().UnixMilli()
	rng := rand.New(rand.NewSource(rngSeed))

	var session *models.SessionBlob
	if sessionID != "" {
		s, err := a.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		session = s
	}

	var profile *models.UserProfile
	if session == nil {
		p, err := a.profiles.LoadProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	pools := buildPools(session, profile)

	categories := selectCategories(pools.topCategories, pools.risingCategories, rng)
	creators := selectCreators(pools.topCreators, pools.risingCreators, pools.followedCreators, rng)
	skipReentryID, _ := selectSkipReentry(pools.skippedCreators, nowMs, rng)
	watchedID, _ := selectWatched(pools.watchedCreators, rng)

	skippedSet := make(map[string]struct{}, len(pools.skippedCreators))
	for _, s := range pools.skippedCreators {
		skippedSet[s.CreatorID] = struct{}{}
	}

	excludeIDs := make([]string, 0, len(pools.seenPosts))
	for id := range pools.seenPosts {
		excludeIDs = append(excludeIDs, id)
	}

	candidates, err := fetchCandidates(ctx, a.posts, categories, creators, skipReentryID, watchedID, skippedSet, excludeIDs, nowMs)
	if err != nil {
		return nil, err
	}

	scored := make([]FeedPost, 0, len(candidates))
	for _, c := range candidates {
		score, err := scoreCandidate(ctx, a.stats, pools, c.post, nowMs)
		if err != nil {
			return nil, err
		}
		scored = append(scored, FeedPost{Post: c.post, Bucket: c.bucket, OverallScore: score})
	}

	feed := interleave(scored)

	if len(feed) < FeedSize {
		padded, err := a.pad(ctx, feed, pools.seenPosts, FeedSize-len(feed))
		if err != nil {
			return nil, err
		}
		feed = append(feed, padded...)
	}
	return feed, nil
}

// interleave implements step 6's fair-share picking: repeatedly choose the
// highest-scored candidate among buckets at the least usage, until
// NonExploreTarget picks are made or candidates are exhausted.
func interleave(candidates []FeedPost) []FeedPost {
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].OverallScore > candidates[j].OverallScore })

	used := map[string]int{}
	seen := map[string]struct{}{}
	out := make([]FeedPost, 0, NonExploreTarget)

	for len(out) < NonExploreTarget {
		minUsage := -1
		for _, c := range candidates {
			id := c.Post.IDHex()
			if _, taken := seen[id]; taken {
				continue
			}
			if used[c.Bucket] >= capFor(c.Bucket) {
				continue
			}
			if minUsage == -1 || used[c.Bucket] < minUsage {
				minUsage = used[c.Bucket]
			}
		}
		if minUsage == -1 {
			break
		}

		var pick *FeedPost
		for i := range candidates {
			c := &candidates[i]
			id := c.Post.IDHex()
			if _, taken := seen[id]; taken {
				continue
			}
			if used[c.Bucket] >= capFor(c.Bucket) || used[c.Bucket] != minUsage {
				continue
			}
			if pick == nil || c.OverallScore > pick.OverallScore {
				pick = c
			}
		}
		if pick == nil {
			break
		}
		seen[pick.Post.IDHex()] = struct{}{}
		used[pick.Bucket]++
		out = append(out, *pick)
	}
	return out
}

// pad fills remaining feed slots with random unseen posts from the document
// store, tagged EXPLORE with a zero score per step 7.
func (a *Assembler) pad(ctx context.Context, feed []FeedPost, seenPosts map[string]struct{}, need int) ([]FeedPost, error) {
	exclude := make([]string, 0, len(seenPosts)+len(feed))
	for id := range seenPosts {
		exclude = append(exclude, id)
	}
	for _, f := range feed {
		exclude = append(exclude, f.Post.IDHex())
	}

	filter := excludeFilter(exclude)
	extra, err := a.posts.RandomSample(ctx, filter, int64(need))
	if err != nil {
		return nil, err
	}

	out := make([]FeedPost, 0, len(extra))
	for _, p := range extra {
		out = append(out, FeedPost{Post: p, Bucket: BucketExplore, OverallScore: 0})
	}
	return out, nil
}

func excludeFilter(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$nin": toBsonExclude(ids)}}
}
