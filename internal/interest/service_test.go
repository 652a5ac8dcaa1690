package interest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedranker/internal/models"
)

type fakeStats struct {
	global map[string]*models.GlobalStats
	user   map[string]*models.UserInterestStats
}

func newFakeStats() *fakeStats {
	return &fakeStats{global: map[string]*models.GlobalStats{}, user: map[string]*models.UserInterestStats{}}
}

func (f *fakeStats) IncrementGlobalStats(_ context.Context, entityType, name string, impressions int64, engagement float64) (*models.GlobalStats, error) {
	key := entityType + ":" + name
	g, ok := f.global[key]
	if !ok {
		g = &models.GlobalStats{EntityType: entityType, Name: name}
		f.global[key] = g
	}
	g.ImpressionCount += impressions
	g.TotalEngagement += engagement
	return g, nil
}

func (f *fakeStats) IncrementUserInterestStats(_ context.Context, userID, entityType, name string, impressions int64, engagement float64) (*models.UserInterestStats, error) {
	key := userID + ":" + entityType + ":" + name
	u, ok := f.user[key]
	if !ok {
		u = &models.UserInterestStats{EntityType: entityType, Name: name}
		f.user[key] = u
	}
	u.ImpressionCount += impressions
	u.TotalEngagement += engagement
	return u, nil
}

type memAccessor struct {
	top, rising []*models.CategoryNode
}

func (a *memAccessor) CategoryPools(ctx context.Context) ([]*models.CategoryNode, []*models.CategoryNode, error) {
	return a.top, a.rising, nil
}

func (a *memAccessor) SaveCategoryPools(ctx context.Context, top, rising []*models.CategoryNode) error {
	a.top, a.rising = top, rising
	return nil
}

func TestScoreInterestPlacesCategoryNode(t *testing.T) {
	svc := &Service{profiles: newFakeStats()}
	acc := &memAccessor{}

	err := svc.ScoreInterest(context.Background(), acc, "user1", "Tech", "AI", "", 1.5, 1000)
	require.NoError(t, err)

	require.Len(t, acc.top, 1)
	assert.Equal(t, "Tech", acc.top[0].Name)
	assert.Greater(t, acc.top[0].Score, 0.0)
	require.Len(t, acc.top[0].TopSubs, 1)
	assert.Equal(t, "AI", acc.top[0].TopSubs[0].Name)
}

func TestSkipInterestNoopWhenCategoryAbsent(t *testing.T) {
	svc := &Service{profiles: newFakeStats()}
	acc := &memAccessor{}

	err := svc.SkipInterest(context.Background(), acc, "Tech", "", "", 1000)
	require.NoError(t, err)
	assert.Empty(t, acc.top)
	assert.Empty(t, acc.rising)
}

func TestSkipInterestRemovesNonPositiveNode(t *testing.T) {
	svc := &Service{profiles: newFakeStats()}
	acc := &memAccessor{top: []*models.CategoryNode{{Name: "Tech", Score: 0.5, LastUpdated: 0}}}

	err := svc.SkipInterest(context.Background(), acc, "Tech", "", "", 1000)
	require.NoError(t, err)
	for _, n := range acc.top {
		assert.NotEqual(t, "Tech", n.Name)
	}
}
