package interest

import (
	"context"

	"feedranker/internal/models"
	"feedranker/internal/pool"
)

// SkipInterest applies SkipWeight at each provided level. If the named
// category isn't present in either pool, this is a no-op.
func (s *Service) SkipInterest(ctx context.Context, accessor Accessor, category, subName, specificName string, nowMs int64) error {
	top, rising, err := accessor.CategoryPools(ctx)
	if err != nil {
		return err
	}

	catNode, found := findNode[*models.CategoryNode](top, rising, category)
	if !found {
		return nil
	}

	pool.UpdateNodeScore(catNode, SkipWeight, nowMs)
	if catNode.Score <= 0 {
		top = removeKey(top, category)
		rising = removeKey(rising, category)
	} else {
		top, rising = pool.InsertIntoPools(top, rising, TopCatMax, RisingCatMax, catNode)
	}

	if subName != "" {
		// catNode may have been removed from the returned sequences but the
		// pointer (and its own TopSubs/RisingSubs) is still live.
		subNode, found := findNode[*models.SubNode](catNode.TopSubs, catNode.RisingSubs, subName)
		if found {
			pool.UpdateNodeScore(subNode, SkipWeight, nowMs)
			if subNode.Score <= 0 {
				catNode.TopSubs = removeKey(catNode.TopSubs, subName)
				catNode.RisingSubs = removeKey(catNode.RisingSubs, subName)
			} else {
				catNode.TopSubs, catNode.RisingSubs = pool.InsertIntoPools(catNode.TopSubs, catNode.RisingSubs, TopSubMax, RisingSubMax, subNode)
			}

			if specificName != "" {
				for _, n := range subNode.Specific {
					if n.Name == specificName {
						pool.UpdateNodeScore(n, SkipWeight, nowMs)
						if n.Score <= 0 {
							subNode.Specific = removeKey(subNode.Specific, specificName)
						}
						break
					}
				}
			}
		}
	}

	return accessor.SaveCategoryPools(ctx, top, rising)
}

func findNode[T pool.ScoredNode](primary, secondary []T, key string) (T, bool) {
	var zero T
	for _, n := range primary {
		if n.Key() == key {
			return n, true
		}
	}
	for _, n := range secondary {
		if n.Key() == key {
			return n, true
		}
	}
	return zero, false
}

func removeKey[T pool.ScoredNode](seq []T, key string) []T {
	out := make([]T, 0, len(seq))
	for _, n := range seq {
		if n.Key() != key {
			out = append(out, n)
		}
	}
	return out
}
