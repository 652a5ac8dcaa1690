// Package interest implements scoreInterest/skipInterest (C5): the dual
// update of global/user stats counters plus Bayesian-smoothed pool
// placement across category, subcategory and specific levels. The service
// is written once against the Accessor interface so it behaves identically
// whether the caller is working against a live session or the persistent
// profile.
package interest

import (
	"context"

	"feedranker/internal/models"
	"feedranker/internal/pool"
	"feedranker/internal/profilestore"
	"feedranker/internal/scoring"
)

const SkipWeight = -1.5

// Caps from spec §3.1.
const (
	TopCatMax    = 20
	RisingCatMax = 12
	TopSubMax    = 6
	RisingSubMax = 4
)

// Accessor abstracts where the category pools live: a session blob or the
// persistent profile document. Both implementations share this service's
// logic for scoring, skipping and pool placement.
type Accessor interface {
	CategoryPools(ctx context.Context) (top, rising []*models.CategoryNode, err error)
	SaveCategoryPools(ctx context.Context, top, rising []*models.CategoryNode) error
}

// StatsStore is the slice of profilestore.Store this service needs; kept as
// an interface so the Bayesian-smoothing logic can be tested without Mongo.
type StatsStore interface {
	IncrementGlobalStats(ctx context.Context, entityType, name string, impressions int64, engagement float64) (*models.GlobalStats, error)
	IncrementUserInterestStats(ctx context.Context, userID, entityType, name string, impressions int64, engagement float64) (*models.UserInterestStats, error)
}

type Service struct {
	profiles StatsStore
}

func NewService(profiles *profilestore.Store) *Service {
	return &Service{profiles: profiles}
}

// ScoreInterest performs the dual update at category, subcategory and
// specific levels for a positive engagement.
func (s *Service) ScoreInterest(ctx context.Context, accessor Accessor, userID, category, subName, specificName string, engagementScore float64, nowMs int64) error {
	top, rising, err := accessor.CategoryPools(ctx)
	if err != nil {
		return err
	}

	catNode, err := s.smoothedPlace(ctx, userID, "category", category, engagementScore, nowMs, &top, &rising, TopCatMax, RisingCatMax)
	if err != nil {
		return err
	}

	if subName != "" {
		subTop, subRising := catNode.TopSubs, catNode.RisingSubs
		subNode, err := s.smoothedPlaceSub(ctx, userID, "subcategory", subName, engagementScore, nowMs, &subTop, &subRising)
		if err != nil {
			return err
		}
		catNode.TopSubs, catNode.RisingSubs = subTop, subRising

		if specificName != "" {
			specific := findOrInitSpecific(subNode.Specific, specificName)
			pool.UpdateNodeScore(specific, engagementScore, nowMs)
			subNode.Specific = insertSpecific(subNode.Specific, specific, 2)
		}
	}

	return accessor.SaveCategoryPools(ctx, top, rising)
}

// smoothedPlace applies the dual-update + Bayesian smoothing + pool
// placement for a category-level node.
func (s *Service) smoothedPlace(ctx context.Context, userID, entityType, name string, engagementScore float64, nowMs int64, top, rising *[]*models.CategoryNode, capTop, capRising int) (*models.CategoryNode, error) {
	smoothed, err := s.smoothedScore(ctx, userID, entityType, name, engagementScore)
	if err != nil {
		return nil, err
	}

	node, _ := pool.FindOrInit[*models.CategoryNode](*top, *rising, name, func() *models.CategoryNode {
		return &models.CategoryNode{Name: name}
	})
	pool.UpdateNodeScore(node, smoothed, nowMs)
	*top, *rising = pool.InsertIntoPools(*top, *rising, capTop, capRising, node)

	// re-find the (possibly copied-by-value-free, same pointer) node so callers
	// keep operating on the instance actually living in the returned sequences.
	for _, n := range append(append([]*models.CategoryNode{}, (*top)...), (*rising)...) {
		if n.Key() == name {
			return n, nil
		}
	}
	return node, nil
}

func (s *Service) smoothedPlaceSub(ctx context.Context, userID, entityType, name string, engagementScore float64, nowMs int64, top, rising *[]*models.SubNode) (*models.SubNode, error) {
	smoothed, err := s.smoothedScore(ctx, userID, entityType, name, engagementScore)
	if err != nil {
		return nil, err
	}

	node, _ := pool.FindOrInit[*models.SubNode](*top, *rising, name, func() *models.SubNode {
		return &models.SubNode{Name: name}
	})
	pool.UpdateNodeScore(node, smoothed, nowMs)
	*top, *rising = pool.InsertIntoPools(*top, *rising, TopSubMax, RisingSubMax, node)

	for _, n := range append(append([]*models.SubNode{}, (*top)...), (*rising)...) {
		if n.Key() == name {
			return n, nil
		}
	}
	return node, nil
}

// smoothedScore increments the global and user-interest counters, then
// returns the per-user average smoothed toward the global prior.
func (s *Service) smoothedScore(ctx context.Context, userID, entityType, name string, engagementScore float64) (float64, error) {
	global, err := s.profiles.IncrementGlobalStats(ctx, entityType, name, 1, engagementScore)
	if err != nil {
		return 0, err
	}
	userStats, err := s.profiles.IncrementUserInterestStats(ctx, userID, entityType, name, 1, engagementScore)
	if err != nil {
		return 0, err
	}

	globalAvg := global.Average()
	priorCount := scoring.ChoosePriorCount(global.ImpressionCount)
	return (globalAvg*priorCount + userStats.TotalEngagement) / (priorCount + float64(userStats.ImpressionCount)), nil
}

func findOrInitSpecific(nodes []*models.SpecificNode, name string) *models.SpecificNode {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return &models.SpecificNode{Name: name}
}

func insertSpecific(nodes []*models.SpecificNode, candidate *models.SpecificNode, cap int) []*models.SpecificNode {
	out := make([]*models.SpecificNode, 0, len(nodes)+1)
	for _, n := range nodes {
		if n.Name != candidate.Name {
			out = append(out, n)
		}
	}
	out = append(out, candidate)
	// simple score-desc cap, mirroring the pool manager's overflow rule
	// without a secondary tier (specifics have none).
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Score > out[i].Score {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > cap {
		out = out[:cap]
	}
	return out
}
