// Package postmetrics implements the per-post metrics engine (C7): short
// and long velocity EMAs, trending score, isRising/isEvergreen, and a
// Bayesian-smoothed score against creator/category priors with
// time-decayed prior strength.
package postmetrics

import (
	"context"
	"math"

	"feedranker/internal/models"
	"feedranker/internal/scoring"
)

const (
	RisingWindowMs        = int64(3600_000)
	WindowEventsHardCap   = 200
	TrendingWeight        = 1.0
	TrendingExponent      = 1.5
	TrendingActivityNorm  = 10.0
	TrendingBurstFactor   = 0.5
	MinInitialRisingWeight = 10.0
	RisingRateMultiplier  = 2.0
	PriorCreatorWeight    = 0.4
	PriorMinCount         = 1.0
	PriorHalfLifeHours    = 2.0
	epsilon               = 1e-9
)

// EventWeights maps a named engagement type to its scoring weight.
var EventWeights = map[string]float64{
	"view":       0.5,
	"like":       1.0,
	"comment":    2.5,
	"share":      5.0,
	"completion": 4.0,
}

// StatsStore is the slice of the global/creator stats counters this engine
// reads when computing the Bayesian prior.
type StatsStore interface {
	GetGlobalStats(ctx context.Context, entityType, name string) (*models.GlobalStats, error)
	GetCreatorStats(ctx context.Context, creatorID string) (*models.CreatorStats, error)
}

// PostStore is the slice of the Post collection this engine needs.
type PostStore interface {
	Load(ctx context.Context, postID string) (*models.Post, error)
	Save(ctx context.Context, post *models.Post) error
}

type Engine struct {
	posts PostStore
	stats StatsStore
}

func New(posts PostStore, stats StatsStore) *Engine {
	return &Engine{posts: posts, stats: stats}
}

// Update applies one round of engagement to a post: either a set of named
// event types (weights summed from EventWeights) or an explicit scoreDelta.
func (e *Engine) Update(ctx context.Context, postID string, eventTypes []string, scoreDelta *float64, nowMs int64) (*models.Post, error) {
	post, err := e.posts.Load(ctx, postID)
	if err != nil {
		return nil, err
	}

	weight := 0.0
	if scoreDelta != nil {
		weight = *scoreDelta
	} else {
		for _, et := range eventTypes {
			weight += EventWeights[et]
		}
	}

	e.appendWindowEvent(post, weight, nowMs)
	firstPass := post.LastTrendingUpdate == 0 || post.LastTrendingUpdate == post.CreatedAt.UnixMilli()
	lastUpdate := post.LastTrendingUpdate
	if lastUpdate == 0 {
		lastUpdate = post.CreatedAt.UnixMilli()
	}
	delta := float64(nowMs - lastUpdate)
	if delta < 0 {
		delta = 0
	}

	lambdaS := math.Ln2 / scoring.ShortHalfLifeMs
	lambdaL := math.Ln2 / scoring.LongHalfLifeMs
	alphaS := 1 - math.Exp(-lambdaS*delta)
	alphaL := 1 - math.Exp(-lambdaL*delta)

	post.ShortTermVelocityEMA = post.ShortTermVelocityEMA*(1-alphaS) + weight*alphaS
	post.HistoricalVelocityEMA = post.HistoricalVelocityEMA*(1-alphaL) + weight*alphaL

	ratio := post.ShortTermVelocityEMA / (post.HistoricalVelocityEMA + epsilon)
	ratioScore := TrendingWeight * math.Pow(math.Max(ratio, 0), TrendingExponent)
	normAct := math.Min(1, post.ShortTermVelocityEMA/TrendingActivityNorm)
	burstScore := TrendingWeight * TrendingBurstFactor * normAct
	post.TrendingScore = ratioScore + burstScore

	if firstPass {
		post.IsRising = weight >= MinInitialRisingWeight
	} else {
		post.IsRising = ratio >= RisingRateMultiplier
	}

	bayesian, err := e.bayesianScore(ctx, post, nowMs)
	if err != nil {
		return nil, err
	}
	post.BayesianScore = bayesian
	post.RawScore += weight
	post.CumulativeScore += weight
	post.LastTrendingUpdate = nowMs

	if err := e.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (e *Engine) appendWindowEvent(post *models.Post, weight float64, nowMs int64) {
	cutoff := nowMs - RisingWindowMs
	kept := post.WindowEvents[:0]
	for _, ev := range post.WindowEvents {
		if ev.TS >= cutoff {
			kept = append(kept, ev)
		}
	}
	kept = append(kept, models.EngagementEvent{TS: nowMs, Weight: weight})
	if len(kept) > WindowEventsHardCap {
		kept = kept[len(kept)-WindowEventsHardCap:]
	}
	post.WindowEvents = kept
}

func (e *Engine) bayesianScore(ctx context.Context, post *models.Post, nowMs int64) (float64, error) {
	global, err := e.stats.GetGlobalStats(ctx, "category", post.Category)
	if err != nil {
		return 0, err
	}
	creatorStats, err := e.stats.GetCreatorStats(ctx, post.Creator)
	if err != nil {
		return 0, err
	}

	catAvg := global.Average()
	creatorAvg := creatorStats.Average()
	if creatorStats.ImpressionCount == 0 {
		creatorAvg = catAvg
	}
	priorMean := PriorCreatorWeight*creatorAvg + (1-PriorCreatorWeight)*catAvg

	initPrior := scoring.ChoosePriorCount(post.ImpressionCount)
	ageMs := float64(nowMs - post.CreatedAt.UnixMilli())
	if ageMs < 0 {
		ageMs = 0
	}
	priorDecayLambda := math.Ln2 / (PriorHalfLifeHours * 3.6e6)
	decayedPrior := math.Max(PriorMinCount, initPrior*math.Exp(-priorDecayLambda*ageMs))

	smoothedAvg := (priorMean*decayedPrior + post.EngagementSum) / (decayedPrior + float64(post.ImpressionCount))

	ageDays := ageMs / scoring.MsPerDay
	timeDecay := math.Exp(-math.Ln2 / scoring.HalfLifeDays * ageDays)

	return smoothedAvg * timeDecay, nil
}
