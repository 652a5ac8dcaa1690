package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CounterStore is the slice of counter-increment operations the
// engagement-stats consumer needs across the post, global, user-interest
// and creator collections. All of these are commutative $inc operations;
// ordering among them is immaterial.
type CounterStore interface {
	IncrementPost(ctx context.Context, postID string, impressions int64, engagement float64) error
	IncrementGlobal(ctx context.Context, entityType, name string, impressions int64, engagement float64) error
	IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressions int64, engagement float64) error
	IncrementCreator(ctx context.Context, creatorID string, impressions int64, engagement float64) error
}

// EngagementStatsConsumer is the `engagement-stats` consumer group: on each
// message it bumps impression/engagement counters everywhere they're
// tracked.
type EngagementStatsConsumer struct {
	counters CounterStore
	log      zerolog.Logger
}

func NewEngagementStatsConsumer(counters CounterStore, log zerolog.Logger) *EngagementStatsConsumer {
	return &EngagementStatsConsumer{counters: counters, log: log.With().Str("consumer", ConsumerGroupEngagementStats).Logger()}
}

func (c *EngagementStatsConsumer) HandleMessage(ctx context.Context, payload []byte) error {
	e, err := UnmarshalEngagementEvent(payload)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping invalid engagement event")
		return err
	}

	if err := c.counters.IncrementPost(ctx, e.PostID, 1, e.EngagementScore); err != nil {
		return err
	}
	if err := c.counters.IncrementGlobal(ctx, "category", e.Category, 1, e.EngagementScore); err != nil {
		return err
	}
	if err := c.counters.IncrementUserInterest(ctx, e.UserID, "category", e.Category, 1, e.EngagementScore); err != nil {
		return err
	}
	if err := c.counters.IncrementCreator(ctx, e.CreatorID, 1, e.EngagementScore); err != nil {
		return err
	}
	if e.SubCategory != "" {
		if err := c.counters.IncrementGlobal(ctx, "subcategory", e.SubCategory, 1, e.EngagementScore); err != nil {
			return err
		}
		if err := c.counters.IncrementUserInterest(ctx, e.UserID, "subcategory", e.SubCategory, 1, e.EngagementScore); err != nil {
			return err
		}
	}
	return nil
}

// Flusher applies a buffered score delta to a post's metrics, used by the
// hourly aggregator's cron flush.
type Flusher interface {
	Flush(ctx context.Context, postID string, delta float64, nowMs int64) error
}

// BufferMirror is the fast-store hash mirror of the in-process buffer.
type BufferMirror interface {
	BufferScoreDelta(ctx context.Context, postID string, delta float64) error
	ClearBufferedPost(ctx context.Context, postID string) error
	LoadBuffer(ctx context.Context) (map[string]float64, error)
}

// PostLastUpdate reports how long ago a post's metrics were last touched,
// so the flush only applies to posts that are actually due.
type PostLastUpdate interface {
	LastTrendingUpdate(ctx context.Context, postID string) (int64, error)
}

// HourlyAggregator is the `hourly-aggregator` consumer group: it buffers
// score deltas in-process (mirrored to the fast store for crash recovery)
// and flushes them into the post metrics engine once an hour.
type HourlyAggregator struct {
	buffer  *ScoreBuffer
	mirror  BufferMirror
	flusher Flusher
	lastUpd PostLastUpdate
	log     zerolog.Logger
}

func NewHourlyAggregator(mirror BufferMirror, flusher Flusher, lastUpd PostLastUpdate, log zerolog.Logger) *HourlyAggregator {
	return &HourlyAggregator{
		buffer:  NewScoreBuffer(),
		mirror:  mirror,
		flusher: flusher,
		lastUpd: lastUpd,
		log:     log.With().Str("consumer", ConsumerGroupHourlyAggregator).Logger(),
	}
}

// Hydrate recovers the in-process buffer from the fast-store mirror on
// startup.
func (a *HourlyAggregator) Hydrate(ctx context.Context) error {
	values, err := a.mirror.LoadBuffer(ctx)
	if err != nil {
		return err
	}
	a.buffer.Hydrate(values)
	a.log.Info().Int("posts", len(values)).Msg("hydrated score buffer")
	return nil
}

func (a *HourlyAggregator) HandleMessage(ctx context.Context, payload []byte) error {
	e, err := UnmarshalPostScoreEvent(payload)
	if err != nil {
		a.log.Warn().Err(err).Msg("dropping invalid post-score event")
		return err
	}
	a.buffer.Add(e.PostID, e.ScoreDelta)
	return a.mirror.BufferScoreDelta(ctx, e.PostID, e.ScoreDelta)
}

// Flush applies every buffered post whose metrics are at least an hour
// stale, then drops it from both the in-process map and the fast-store
// mirror. Called by the hourly ticker in cmd/server and cmd/worker;
// shutdown draining uses FlushAll instead.
func (a *HourlyAggregator) Flush(ctx context.Context) {
	const hourMs = int64(time.Hour / time.Millisecond)
	now := time.Now().UnixMilli()

	snapshot := a.buffer.Snapshot()
	flushed, skipped, failed := 0, 0, 0
	for postID, delta := range snapshot {
		last, err := a.lastUpd.LastTrendingUpdate(ctx, postID)
		if err != nil {
			failed++
			a.log.Warn().Err(err).Str("post_id", postID).Msg("flush: load post failed")
			continue
		}
		if now-last < hourMs {
			skipped++
			continue
		}
		if err := a.flusher.Flush(ctx, postID, delta, now); err != nil {
			failed++
			a.log.Warn().Err(err).Str("post_id", postID).Msg("flush: metrics update failed")
			continue
		}
		a.buffer.Remove(postID)
		if err := a.mirror.ClearBufferedPost(ctx, postID); err != nil {
			a.log.Warn().Err(err).Str("post_id", postID).Msg("flush: mirror clear failed")
		}
		flushed++
	}
	a.log.Info().Int("flushed", flushed).Int("skipped", skipped).Int("failed", failed).Msg("hourly flush complete")
}

// FlushAll forces every buffered post through, ignoring the hourly-staleness
// gate. Used to drain the buffer on graceful shutdown.
func (a *HourlyAggregator) FlushAll(ctx context.Context) {
	now := time.Now().UnixMilli()
	snapshot := a.buffer.Snapshot()
	for postID, delta := range snapshot {
		if err := a.flusher.Flush(ctx, postID, delta, now); err != nil {
			a.log.Warn().Err(err).Str("post_id", postID).Msg("shutdown flush failed")
			continue
		}
		a.buffer.Remove(postID)
		_ = a.mirror.ClearBufferedPost(ctx, postID)
	}
}
