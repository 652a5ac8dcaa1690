package feed

import (
	"context"
	"math"

	"feedranker/internal/models"
	"feedranker/internal/pool"
	"feedranker/internal/scoring"
)

const (
	PersonalWeight = 0.5
	InterestWeight = 0.7
	CreatorWeight  = 0.3
	RawWeight      = 0.25
	TrendWeight    = 0.25
	BayesianWeight = 0.15
)

// StatsStore is the slice of profilestore.Store the scorer needs as a
// fallback when a post's category/creator has no personal node yet.
type StatsStore interface {
	GetGlobalStats(ctx context.Context, entityType, name string) (*models.GlobalStats, error)
	GetCreatorStats(ctx context.Context, creatorID string) (*models.CreatorStats, error)
}

func scoreCandidate(ctx context.Context, stats StatsStore, pools *builtPools, post *models.Post, nowMs int64) (float64, error) {
	interestScore, err := interestScoreFor(ctx, stats, pools, post.Category)
	if err != nil {
		return 0, err
	}
	creatorScore, err := creatorScoreFor(ctx, stats, pools, post.Creator)
	if err != nil {
		return 0, err
	}

	ageDays := float64(nowMs-post.CreatedAt.UnixMilli()) / scoring.MsPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	timeDecay := math.Exp(-math.Ln2 / scoring.HalfLifeDays * ageDays)

	overall := PersonalWeight*timeDecay*(InterestWeight*interestScore+CreatorWeight*creatorScore) +
		RawWeight*post.RawScore +
		TrendWeight*post.TrendingScore +
		BayesianWeight*post.BayesianScore
	return overall, nil
}

func interestScoreFor(ctx context.Context, stats StatsStore, pools *builtPools, category string) (float64, error) {
	if node, ok := pool.FindByKey[*models.CategoryNode](pools.topCategories, pools.risingCategories, category); ok {
		return node.Score, nil
	}
	global, err := stats.GetGlobalStats(ctx, "category", category)
	if err != nil {
		return 0, err
	}
	return 0.1 * global.Average(), nil
}

func creatorScoreFor(ctx context.Context, stats StatsStore, pools *builtPools, creatorID string) (float64, error) {
	if node, ok := pool.FindByKey[*models.CreatorNode](pools.topCreators, pools.risingCreators, creatorID); ok {
		return node.Score, nil
	}
	for _, f := range pools.followedCreators {
		if f.CreatorID == creatorID {
			return f.Score, nil
		}
	}
	creatorStats, err := stats.GetCreatorStats(ctx, creatorID)
	if err != nil {
		return 0, err
	}
	return 0.1 * creatorStats.Average(), nil
}
