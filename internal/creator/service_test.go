package creator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedranker/internal/models"
)

type memAccessor struct {
	following []*models.FollowedCreator
	top       []*models.CreatorNode
	rising    []*models.CreatorNode
	watched   []*models.WatchedEntry
	skipped   []*models.SkippedEntry
}

func (a *memAccessor) CreatorPools(ctx context.Context) ([]*models.FollowedCreator, []*models.CreatorNode, []*models.CreatorNode, []*models.WatchedEntry, []*models.SkippedEntry, error) {
	return a.following, a.top, a.rising, a.watched, a.skipped, nil
}

func (a *memAccessor) SaveCreatorPools(ctx context.Context, following []*models.FollowedCreator, top, rising []*models.CreatorNode, watched []*models.WatchedEntry, skipped []*models.SkippedEntry) error {
	a.following, a.top, a.rising, a.watched, a.skipped = following, top, rising, watched, skipped
	return nil
}

func TestScoreNewCreatorGoesPositive(t *testing.T) {
	svc := NewService()
	acc := &memAccessor{}

	require.NoError(t, svc.Score(context.Background(), acc, "creatorA", 2.0, 1000))

	require.Len(t, acc.top, 1)
	assert.Equal(t, "creatorA", acc.top[0].CreatorID)
	assert.Equal(t, 0, acc.top[0].Skips)
}

func TestTenSkipsOnCreatorReachesHardSkip(t *testing.T) {
	svc := NewService()
	acc := &memAccessor{}
	require.NoError(t, svc.Score(context.Background(), acc, "creatorA", 1.0, 0))

	now := int64(0)
	for i := 0; i < HarSkipThreshold; i++ {
		now += 1000
		require.NoError(t, svc.Skip(context.Background(), acc, "creatorA", now))
	}

	assert.Empty(t, acc.top)
	assert.Empty(t, acc.rising)
	require.Len(t, acc.skipped, 1)
	assert.Equal(t, HarSkipThreshold, acc.skipped[0].Skips)
	assert.Greater(t, acc.skipped[0].ReentryAt, now)
}

func TestFollowedTenSkipsStaysFollowed(t *testing.T) {
	svc := NewService()
	acc := &memAccessor{following: []*models.FollowedCreator{{CreatorID: "creatorA"}}}

	now := int64(0)
	for i := 0; i < HarSkipThreshold; i++ {
		now += 1000
		require.NoError(t, svc.Skip(context.Background(), acc, "creatorA", now))
	}

	require.Len(t, acc.following, 1)
	assert.Equal(t, HarSkipThreshold, acc.following[0].Skips)
	assert.Equal(t, 0.0, acc.following[0].Score)
	assert.Greater(t, acc.following[0].ReentryAt, int64(0))
}
