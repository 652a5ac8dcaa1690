// Package feed implements the feed assembler (C10): pool build, candidate
// selection, batched document-store fetches, composite scoring, fair-share
// interleaving and random padding.
package feed

import (
	"math/rand"
	"sort"

	"feedranker/internal/models"
)

const FeedSize = 20
const NonExploreTarget = 15

// builtPools is the sorted, session-or-persistent-preferred view of a
// user's pools that every later stage reads from.
type builtPools struct {
	topCategories    []*models.CategoryNode
	risingCategories []*models.CategoryNode
	topCreators      []*models.CreatorNode
	risingCreators   []*models.CreatorNode
	followedCreators []*models.FollowedCreator
	watchedCreators  []*models.WatchedEntry
	skippedCreators  []*models.SkippedEntry
	seenPosts        map[string]struct{}
}

// buildPools prefers the session blob when present, else the persistent
// profile, and sorts every pool descending by score.
func buildPools(session *models.SessionBlob, profile *models.UserProfile) *builtPools {
	p := &builtPools{}
	if session != nil {
		p.topCategories = session.TopCategories
		p.risingCategories = session.RisingCategories
		p.topCreators = session.TopCreators
		p.risingCreators = session.RisingCreators
		p.followedCreators = session.FollowedCreators
		p.watchedCreators = session.WatchedCreators
		p.skippedCreators = session.SkippedCreators
		p.seenPosts = toSet(session.SeenPosts)
	} else {
		p.topCategories = profile.TopInterests
		p.risingCategories = profile.RisingInterests
		p.topCreators = profile.CreatorsInterests.TopCreators
		p.risingCreators = profile.CreatorsInterests.RisingCreators
		p.followedCreators = profile.Following
		p.watchedCreators = profile.CreatorsInterests.Watched
		p.skippedCreators = profile.CreatorsInterests.Skipped
		p.seenPosts = profile.SeenSet()
	}

	sort.SliceStable(p.topCategories, func(i, j int) bool { return p.topCategories[i].Score > p.topCategories[j].Score })
	sort.SliceStable(p.risingCategories, func(i, j int) bool { return p.risingCategories[i].Score > p.risingCategories[j].Score })
	sort.SliceStable(p.topCreators, func(i, j int) bool { return p.topCreators[i].Score > p.topCreators[j].Score })
	sort.SliceStable(p.risingCreators, func(i, j int) bool { return p.risingCreators[i].Score > p.risingCreators[j].Score })
	sort.SliceStable(p.followedCreators, func(i, j int) bool { return p.followedCreators[i].Score > p.followedCreators[j].Score })
	return p
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

const (
	BucketCatTop       = "CAT:TOP"
	BucketCatRising    = "CAT:RISING"
	BucketCatExtra     = "CAT:EXTRA"
	BucketSubTop       = "CAT:SUB:TOP"
	BucketSubRising    = "CAT:SUB:RISING"
	BucketCreatorTop   = "CREATOR:TOP"
	BucketCreatorRise  = "CREATOR:RISING"
	BucketCreatorExtra = "CREATOR:EXTRA"
	BucketFollowed     = "CREATOR:FOLLOWED"
	BucketSkipReentry  = "SKIP_REENTRY"
	BucketWatched      = "WATCHED"
	BucketRising       = "RISING"
	BucketTrending     = "TRENDING"
	BucketRecent       = "RECENT"
	BucketEvergreen    = "EVERGREEN"
	BucketExplore      = "EXPLORE"
	bucketUnknown      = "UNKNOWN"
)

// categorySelection is the output of step 2's category picks, tagged with
// the bucket each should be fetched under, plus the subcategories selected
// from that category's own TopSubs/RisingSubs pools.
type categorySelection struct {
	name          string
	bucket        string
	subcategories []subcategorySelection
}

// subcategorySelection is a subcategory pick within a selected category,
// tagged with the bucket it should be fetched under.
type subcategorySelection struct {
	name   string
	bucket string
}

// selectSubcategories picks the top-2 plus 1 random from extras, and
// separately the top-1 rising plus 1 random from rising subs, from a
// category's own subcategory pools.
func selectSubcategories(cat *models.CategoryNode, rng *rand.Rand) []subcategorySelection {
	if cat == nil {
		return nil
	}
	var out []subcategorySelection
	n := min(2, len(cat.TopSubs))
	for i := 0; i < n; i++ {
		out = append(out, subcategorySelection{cat.TopSubs[i].Name, BucketSubTop})
	}
	if extra, ok := pickRandomTail(cat.TopSubs, 2, rng); ok {
		out = append(out, subcategorySelection{extra.Name, BucketSubTop})
	}
	n = min(1, len(cat.RisingSubs))
	for i := 0; i < n; i++ {
		out = append(out, subcategorySelection{cat.RisingSubs[i].Name, BucketSubRising})
	}
	if extra, ok := pickRandomTail(cat.RisingSubs, 1, rng); ok {
		out = append(out, subcategorySelection{extra.Name, BucketSubRising})
	}
	return out
}

func selectCategories(top, rising []*models.CategoryNode, rng *rand.Rand) []categorySelection {
	var out []categorySelection
	n := min(3, len(top))
	for i := 0; i < n; i++ {
		out = append(out, categorySelection{top[i].Name, BucketCatTop, selectSubcategories(top[i], rng)})
	}
	n = min(2, len(rising))
	for i := 0; i < n; i++ {
		out = append(out, categorySelection{rising[i].Name, BucketCatRising, selectSubcategories(rising[i], rng)})
	}
	if extra, ok := pickRandomTail(top, 3, rng); ok {
		out = append(out, categorySelection{extra.Name, BucketCatExtra, selectSubcategories(extra, rng)})
	}
	if extra, ok := pickRandomTail(rising, 2, rng); ok {
		out = append(out, categorySelection{extra.Name, BucketCatExtra, selectSubcategories(extra, rng)})
	}
	return out
}

type creatorSelection struct {
	id     string
	bucket string
}

func selectCreators(top, rising []*models.CreatorNode, followed []*models.FollowedCreator, rng *rand.Rand) []creatorSelection {
	var out []creatorSelection
	n := min(4, len(top))
	for i := 0; i < n; i++ {
		out = append(out, creatorSelection{top[i].CreatorID, BucketCreatorTop})
	}
	n = min(2, len(rising))
	for i := 0; i < n; i++ {
		out = append(out, creatorSelection{rising[i].CreatorID, BucketCreatorRise})
	}
	if extra, ok := pickRandomTail(top, 4, rng); ok {
		out = append(out, creatorSelection{extra.CreatorID, BucketCreatorExtra})
	}
	if extra, ok := pickRandomTail(rising, 2, rng); ok {
		out = append(out, creatorSelection{extra.CreatorID, BucketCreatorExtra})
	}

	n = min(3, len(followed))
	for i := 0; i < n; i++ {
		out = append(out, creatorSelection{followed[i].CreatorID, BucketFollowed})
	}
	if len(followed) > 3 {
		tail := followed[3:]
		picked := map[int]bool{}
		for k := 0; k < min(2, len(tail)); k++ {
			idx := rng.Intn(len(tail))
			if picked[idx] {
				continue
			}
			picked[idx] = true
			out = append(out, creatorSelection{tail[idx].CreatorID, BucketFollowed})
		}
	}
	return out
}

func selectSkipReentry(skipped []*models.SkippedEntry, nowMs int64, rng *rand.Rand) (string, bool) {
	var eligible []*models.SkippedEntry
	for _, s := range skipped {
		if s.ReentryAt <= nowMs {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 || rng.Float64() >= 0.4 {
		return "", false
	}
	return eligible[rng.Intn(len(eligible))].CreatorID, true
}

func selectWatched(watched []*models.WatchedEntry, rng *rand.Rand) (string, bool) {
	if len(watched) == 0 || rng.Float64() >= 0.4 {
		return "", false
	}
	return watched[rng.Intn(len(watched))].CreatorID, true
}

// pickRandomTail picks one scored node at or beyond index `from`, or the
// zero value and false if the tail is empty. Generic over the node kinds
// used here, all of which are already pointer types.
func pickRandomTail[T any](seq []T, from int, rng *rand.Rand) (T, bool) {
	var zero T
	if len(seq) <= from {
		return zero, false
	}
	tail := seq[from:]
	idx := rng.Intn(len(tail))
	return tail[idx], true
}
