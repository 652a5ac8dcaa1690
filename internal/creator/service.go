// Package creator implements the five-state creator machine (C6):
// FOLLOWED, POSITIVE (top/rising), WATCHED, SKIPPED, ABSENT, with score and
// skip transitions mirroring interest's dual-path (session/persistent)
// design.
package creator

import (
	"context"

	"feedranker/internal/models"
	"feedranker/internal/pool"
)

const (
	HarSkipThreshold = 10
	ReentryDelayMs   = int64(7 * 24 * 3600 * 1000)
	SkipWeight       = -1.5
	TopCreatorMax    = 50
	RisingCreatorMax = 25
)

// Accessor abstracts where the creator pools live (session blob or
// persistent profile).
type Accessor interface {
	CreatorPools(ctx context.Context) (following []*models.FollowedCreator, top, rising []*models.CreatorNode, watched []*models.WatchedEntry, skipped []*models.SkippedEntry, err error)
	SaveCreatorPools(ctx context.Context, following []*models.FollowedCreator, top, rising []*models.CreatorNode, watched []*models.WatchedEntry, skipped []*models.SkippedEntry) error
}

type Service struct{}

func NewService() *Service { return &Service{} }

type state struct {
	following []*models.FollowedCreator
	top       []*models.CreatorNode
	rising    []*models.CreatorNode
	watched   []*models.WatchedEntry
	skipped   []*models.SkippedEntry
}

// Score applies a positive-engagement transition for creatorID.
func (s *Service) Score(ctx context.Context, accessor Accessor, creatorID string, engagementScore float64, nowMs int64) error {
	st, err := loadState(ctx, accessor)
	if err != nil {
		return err
	}

	if followed, ok := pool.FindByKey(st.following, nil, creatorID); ok {
		scoreFollowed(followed, engagementScore, nowMs)
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	if skippedEntry, ok := pool.FindByKey(st.skipped, nil, creatorID); ok {
		skippedEntry.Skips--
		if skippedEntry.Skips < HarSkipThreshold && nowMs >= skippedEntry.ReentryAt {
			st.skipped = pool.RemoveByKey(st.skipped, creatorID)
			st.watched = append(st.watched, &models.WatchedEntry{
				CreatorID:      creatorID,
				Skips:          skippedEntry.Skips,
				LastSkipUpdate: nowMs,
			})
		} else if skippedEntry.Skips >= HarSkipThreshold {
			skippedEntry.ReentryAt = nowMs + ReentryDelayMs
		}
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	if watchedEntry, ok := pool.FindByKey(st.watched, nil, creatorID); ok {
		watchedEntry.Skips--
		if watchedEntry.Skips <= 0 {
			st.watched = pool.RemoveByKey(st.watched, creatorID)
			promoteToPositive(&st, creatorID, engagementScore, nowMs)
		}
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	// POSITIVE or ABSENT.
	promoteToPositive(&st, creatorID, engagementScore, nowMs)
	return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
}

func scoreFollowed(node *models.FollowedCreator, engagementScore float64, nowMs int64) {
	if node.Skips > 0 {
		node.Skips--
	}
	pool.UpdateNodeScore(node, engagementScore, nowMs)
	if node.Skips >= HarSkipThreshold {
		node.Score = 0
		node.ReentryAt = nowMs + ReentryDelayMs
	}
}

func promoteToPositive(st *state, creatorID string, engagementScore float64, nowMs int64) {
	node, _ := pool.FindOrInit[*models.CreatorNode](st.top, st.rising, creatorID, func() *models.CreatorNode {
		return &models.CreatorNode{CreatorID: creatorID, Skips: 0}
	})
	pool.UpdateNodeScore(node, engagementScore, nowMs)
	st.top, st.rising = pool.InsertIntoPools(st.top, st.rising, TopCreatorMax, RisingCreatorMax, node)
}

// Skip applies a negative-engagement transition for creatorID.
func (s *Service) Skip(ctx context.Context, accessor Accessor, creatorID string, nowMs int64) error {
	st, err := loadState(ctx, accessor)
	if err != nil {
		return err
	}

	if followed, ok := pool.FindByKey(st.following, nil, creatorID); ok {
		if followed.Skips < HarSkipThreshold {
			followed.Skips++
		}
		pool.UpdateNodeScore(followed, SkipWeight, nowMs)
		if followed.Skips >= HarSkipThreshold {
			followed.Score = 0
			followed.ReentryAt = nowMs + ReentryDelayMs
		}
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	if skippedEntry, ok := pool.FindByKey(st.skipped, nil, creatorID); ok {
		if skippedEntry.Skips < HarSkipThreshold {
			skippedEntry.Skips++
		}
		skippedEntry.ReentryAt = nowMs + ReentryDelayMs
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	if watchedEntry, ok := pool.FindByKey(st.watched, nil, creatorID); ok {
		watchedEntry.Skips++
		if watchedEntry.Skips >= HarSkipThreshold {
			st.watched = pool.RemoveByKey(st.watched, creatorID)
			st.skipped = append(st.skipped, &models.SkippedEntry{
				CreatorID:      creatorID,
				Skips:          watchedEntry.Skips,
				LastSkipUpdate: nowMs,
				ReentryAt:      nowMs + ReentryDelayMs,
			})
		}
		return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
	}

	if node, ok := pool.FindByKey(st.top, st.rising, creatorID); ok {
		node.Skips++
		pool.UpdateNodeScore(node, SkipWeight, nowMs)
		switch {
		case node.Skips >= HarSkipThreshold:
			st.top = pool.RemoveByKey(st.top, creatorID)
			st.rising = pool.RemoveByKey(st.rising, creatorID)
			st.skipped = append(st.skipped, &models.SkippedEntry{
				CreatorID:      creatorID,
				Skips:          node.Skips,
				LastSkipUpdate: nowMs,
				ReentryAt:      nowMs + ReentryDelayMs,
			})
		case node.Score <= 0 && node.Skips >= 1:
			st.top = pool.RemoveByKey(st.top, creatorID)
			st.rising = pool.RemoveByKey(st.rising, creatorID)
			st.watched = append(st.watched, &models.WatchedEntry{
				CreatorID:      creatorID,
				Skips:          node.Skips,
				LastSkipUpdate: nowMs,
				ReentryAt:      nowMs,
			})
		default:
			st.top, st.rising = pool.InsertIntoPools(st.top, st.rising, TopCreatorMax, RisingCreatorMax, node)
		}
	}

	// ABSENT: nothing to skip.
	return accessor.SaveCreatorPools(ctx, st.following, st.top, st.rising, st.watched, st.skipped)
}

func loadState(ctx context.Context, accessor Accessor) (state, error) {
	following, top, rising, watched, skipped, err := accessor.CreatorPools(ctx)
	if err != nil {
		return state{}, err
	}
	return state{following: following, top: top, rising: rising, watched: watched, skipped: skipped}, nil
}
