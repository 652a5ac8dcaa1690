package events

import (
	"context"

	"feedranker/internal/postmetrics"
	"feedranker/internal/poststore"
	"feedranker/internal/profilestore"
)

// Counters adapts the post, global, user-interest and creator stores into
// the single CounterStore surface the engagement-stats consumer needs.
type Counters struct {
	Posts    *poststore.Store
	Profiles *profilestore.Store
}

func (c *Counters) IncrementPost(ctx context.Context, postID string, impressions int64, engagement float64) error {
	return c.Posts.IncrementEngagement(ctx, postID, impressions, engagement)
}

func (c *Counters) IncrementGlobal(ctx context.Context, entityType, name string, impressions int64, engagement float64) error {
	_, err := c.Profiles.IncrementGlobalStats(ctx, entityType, name, impressions, engagement)
	return err
}

func (c *Counters) IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressions int64, engagement float64) error {
	_, err := c.Profiles.IncrementUserInterestStats(ctx, userID, entityType, name, impressions, engagement)
	return err
}

func (c *Counters) IncrementCreator(ctx context.Context, creatorID string, impressions int64, engagement float64) error {
	_, err := c.Profiles.IncrementCreatorStats(ctx, creatorID, impressions, engagement)
	return err
}

// Metrics adapts the post store and metrics engine into the Flusher and
// PostLastUpdate surfaces the hourly aggregator needs.
type Metrics struct {
	Posts  *poststore.Store
	Engine *postmetrics.Engine
}

func (m *Metrics) LastTrendingUpdate(ctx context.Context, postID string) (int64, error) {
	post, err := m.Posts.Load(ctx, postID)
	if err != nil {
		return 0, err
	}
	return post.LastTrendingUpdate, nil
}

func (m *Metrics) Flush(ctx context.Context, postID string, delta float64, nowMs int64) error {
	_, err := m.Engine.Update(ctx, postID, nil, &delta, nowMs)
	return err
}
