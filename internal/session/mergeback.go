package session

import (
	"context"
	"errors"
	"math"
	"time"

	"feedranker/internal/creator"
	"feedranker/internal/interest"
	"feedranker/internal/models"
	"feedranker/internal/pool"
	"feedranker/internal/scoring"
)

// ErrUserIDMismatch marks a session blob whose self-reported UserID
// disagrees with the owner recorded independently at session start.
// Merge-back refuses in this case rather than folding a potentially
// corrupted or tampered blob into the wrong (or any) persistent profile.
var ErrUserIDMismatch = errors.New("session: merge-back userId mismatch")

// MergeBack folds a session blob's pools back into the user's persistent
// profile via emaBlend, then re-pools everything. Idempotent: a failed
// attempt can be safely retried as long as the blob isn't deleted first.
func (m *Manager) MergeBack(ctx context.Context, sessionID string) error {
	blob, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if blob == nil {
		return nil
	}

	owner, err := m.sessions.GetSessionOwner(ctx, sessionID)
	if err != nil {
		return err
	}
	if owner != "" && owner != blob.UserID {
		return ErrUserIDMismatch
	}

	profile, err := m.profiles.LoadProfile(ctx, blob.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()

	mergeCategories(blob.TopCategories, blob.RisingCategories, &profile.TopInterests, &profile.RisingInterests, now)
	mergeCreators(blob, &profile.Following, &profile.CreatorsInterests, now)

	return m.profiles.SaveProfile(ctx, profile)
}

func mergeCategories(sessionTop, sessionRising []*models.CategoryNode, persistTop, persistRising *[]*models.CategoryNode, now int64) {
	for _, sessionNode := range append(append([]*models.CategoryNode{}, sessionTop...), sessionRising...) {
		node, _ := pool.FindOrInit[*models.CategoryNode](*persistTop, *persistRising, sessionNode.Key(), func() *models.CategoryNode {
			return &models.CategoryNode{Name: sessionNode.Name}
		})
		blended := scoring.EMABlend(scoring.SessionBlendAlpha, node.Score, sessionNode.Score)
		node.Score = blended
		node.LastUpdated = now
		*persistTop, *persistRising = pool.InsertIntoPools(*persistTop, *persistRising, interest.TopCatMax, interest.RisingCatMax, node)

		mergeSubs(sessionNode.TopSubs, sessionNode.RisingSubs, &node.TopSubs, &node.RisingSubs, now)
	}
}

func mergeSubs(sessionTop, sessionRising []*models.SubNode, persistTop, persistRising *[]*models.SubNode, now int64) {
	for _, sessionNode := range append(append([]*models.SubNode{}, sessionTop...), sessionRising...) {
		node, _ := pool.FindOrInit[*models.SubNode](*persistTop, *persistRising, sessionNode.Key(), func() *models.SubNode {
			return &models.SubNode{Name: sessionNode.Name}
		})
		blended := scoring.EMABlend(scoring.SessionBlendAlpha, node.Score, sessionNode.Score)
		node.Score = blended
		node.LastUpdated = now
		*persistTop, *persistRising = pool.InsertIntoPools(*persistTop, *persistRising, interest.TopSubMax, interest.RisingSubMax, node)

		mergeSpecifics(sessionNode.Specific, &node.Specific, now)
	}
}

// mergeSpecifics has no secondary tier, just a score-desc cap of 2, mirroring
// interest's own specific-level placement.
func mergeSpecifics(sessionSpecifics []*models.SpecificNode, persistSpecifics *[]*models.SpecificNode, now int64) {
	for _, sessionNode := range sessionSpecifics {
		var node *models.SpecificNode
		for _, n := range *persistSpecifics {
			if n.Name == sessionNode.Name {
				node = n
				break
			}
		}
		if node == nil {
			node = &models.SpecificNode{Name: sessionNode.Name}
		}
		node.Score = scoring.EMABlend(scoring.SessionBlendAlpha, node.Score, sessionNode.Score)
		node.LastUpdated = now

		out := make([]*models.SpecificNode, 0, len(*persistSpecifics)+1)
		for _, n := range *persistSpecifics {
			if n.Name != node.Name {
				out = append(out, n)
			}
		}
		out = append(out, node)
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if out[j].Score > out[i].Score {
					out[i], out[j] = out[j], out[i]
				}
			}
		}
		if len(out) > 2 {
			out = out[:2]
		}
		*persistSpecifics = out
	}
}

// creatorSignal is the single, highest-priority session observation for one
// creator, aggregated across the session's five pools.
type creatorSignal struct {
	priority int // higher wins: FOLLOWED=3, POSITIVE=2, WATCHED=1, SKIPPED=0
	score    float64
	skips    int
}

const (
	prioritySkipped  = 0
	priorityWatched  = 1
	priorityPositive = 2
	priorityFollowed = 3
)

func mergeCreators(blob *models.SessionBlob, following *[]*models.FollowedCreator, ci *models.CreatorsInterests, now int64) {
	signals := map[string]creatorSignal{}
	observe := func(id string, priority int, score float64, skips int) {
		if existing, ok := signals[id]; !ok || priority > existing.priority {
			signals[id] = creatorSignal{priority: priority, score: score, skips: skips}
		}
	}
	for _, n := range blob.SkippedCreators {
		observe(n.CreatorID, prioritySkipped, 0, n.Skips)
	}
	for _, n := range blob.WatchedCreators {
		observe(n.CreatorID, priorityWatched, 0, n.Skips)
	}
	for _, n := range blob.TopCreators {
		observe(n.CreatorID, priorityPositive, n.Score, n.Skips)
	}
	for _, n := range blob.RisingCreators {
		observe(n.CreatorID, priorityPositive, n.Score, n.Skips)
	}
	for _, n := range blob.FollowedCreators {
		observe(n.CreatorID, priorityFollowed, n.Score, n.Skips)
	}

	for creatorID, sig := range signals {
		mergeCreator(creatorID, sig, following, ci, now)
	}
}

func mergeCreator(creatorID string, sig creatorSignal, following *[]*models.FollowedCreator, ci *models.CreatorsInterests, now int64) {
	if followedNode, ok := pool.FindByKey[*models.FollowedCreator](*following, nil, creatorID); ok {
		followedNode.Score = scoring.EMABlend(scoring.SessionBlendAlpha, followedNode.Score, sig.score)
		followedNode.Skips = int(math.Round(scoring.EMABlend(scoring.SessionBlendAlpha, float64(followedNode.Skips), float64(sig.skips))))
		followedNode.LastUpdated = now
		if followedNode.Skips >= creator.HarSkipThreshold {
			followedNode.Score = 0
			followedNode.ReentryAt = now + creator.ReentryDelayMs
		}
		return
	}

	oldScore, oldSkips := existingCreatorState(creatorID, ci)
	newScore := scoring.EMABlend(scoring.SessionBlendAlpha, oldScore, sig.score)
	newSkips := int(math.Round(scoring.EMABlend(scoring.SessionBlendAlpha, float64(oldSkips), float64(sig.skips))))

	ci.Skipped = pool.RemoveByKey(ci.Skipped, creatorID)
	ci.Watched = pool.RemoveByKey(ci.Watched, creatorID)
	ci.TopCreators = pool.RemoveByKey(ci.TopCreators, creatorID)
	ci.RisingCreators = pool.RemoveByKey(ci.RisingCreators, creatorID)

	switch {
	case newSkips >= creator.HarSkipThreshold:
		ci.Skipped = append(ci.Skipped, &models.SkippedEntry{
			CreatorID: creatorID, Skips: newSkips, LastSkipUpdate: now, ReentryAt: now + creator.ReentryDelayMs,
		})
	case newScore <= 0 && newSkips >= 1:
		ci.Watched = append(ci.Watched, &models.WatchedEntry{
			CreatorID: creatorID, Skips: newSkips, LastSkipUpdate: now,
		})
	default:
		node := &models.CreatorNode{CreatorID: creatorID, Score: newScore, LastUpdated: now, Skips: newSkips}
		ci.TopCreators, ci.RisingCreators = pool.InsertIntoPools(ci.TopCreators, ci.RisingCreators, creator.TopCreatorMax, creator.RisingCreatorMax, node)
	}
}

func existingCreatorState(creatorID string, ci *models.CreatorsInterests) (score float64, skips int) {
	if n, ok := pool.FindByKey[*models.CreatorNode](ci.TopCreators, ci.RisingCreators, creatorID); ok {
		return n.Score, n.Skips
	}
	if n, ok := pool.FindByKey[*models.WatchedEntry](ci.Watched, nil, creatorID); ok {
		return 0, n.Skips
	}
	if n, ok := pool.FindByKey[*models.SkippedEntry](ci.Skipped, nil, creatorID); ok {
		return 0, n.Skips
	}
	return 0, 0
}
