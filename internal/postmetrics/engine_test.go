package postmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedranker/internal/models"
)

type fakePosts struct {
	posts map[string]*models.Post
}

func (f *fakePosts) Load(_ context.Context, postID string) (*models.Post, error) {
	return f.posts[postID], nil
}

func (f *fakePosts) Save(_ context.Context, post *models.Post) error {
	f.posts[post.ID.Hex()] = post
	return nil
}

type fakeStats struct{}

func (fakeStats) GetGlobalStats(context.Context, string, string) (*models.GlobalStats, error) {
	return &models.GlobalStats{}, nil
}

func (fakeStats) GetCreatorStats(context.Context, string) (*models.CreatorStats, error) {
	return &models.CreatorStats{}, nil
}

func freshPost() *models.Post {
	p := &models.Post{Category: "Tech", Creator: "creatorA"}
	p.BeforeCreate()
	return p
}

func TestRepeatedEngagementsWithinHourRaisesShortEMA(t *testing.T) {
	p := freshPost()
	store := &fakePosts{posts: map[string]*models.Post{p.ID.Hex(): p}}
	engine := New(store, fakeStats{})

	now := p.CreatedAt.UnixMilli()
	for i := 0; i < 3; i++ {
		now += int64(10 * time.Minute / time.Millisecond)
		_, err := engine.Update(context.Background(), p.ID.Hex(), []string{"like"}, nil, now)
		require.NoError(t, err)
	}

	got := store.posts[p.ID.Hex()]
	assert.Greater(t, got.ShortTermVelocityEMA, got.HistoricalVelocityEMA)
	assert.True(t, got.IsRising)
	assert.Greater(t, got.TrendingScore, 0.0)
	assert.Len(t, got.WindowEvents, 3)
}
