// Package pool implements the bounded, score-ordered sequences ("pools")
// that back category, sub-category and creator interest tracking. Every
// operation returns a new sequence rather than mutating in place, so
// callers reassign upward instead of re-finding a stale reference.
package pool

import (
	"sort"

	"feedranker/internal/scoring"
)

// ScoredNode is the shape every pool element must satisfy: an identity key,
// a mutable score, and the timestamp that score was last touched.
type ScoredNode interface {
	Key() string
	GetScore() float64
	SetScore(float64)
	GetLastUpdated() int64
	SetLastUpdated(int64)
}

// Keyed is the minimal shape a sequence element must satisfy to be found or
// removed by identity, for pools (watched/skipped) that carry no score.
type Keyed interface {
	Key() string
}

// FindByKey scans both sequences for an element keyed by id.
func FindByKey[T Keyed](primary, secondary []T, id string) (T, bool) {
	for _, n := range primary {
		if n.Key() == id {
			return n, true
		}
	}
	for _, n := range secondary {
		if n.Key() == id {
			return n, true
		}
	}
	var zero T
	return zero, false
}

// RemoveByKey returns a copy of seq with the element keyed by id removed.
func RemoveByKey[T Keyed](seq []T, id string) []T {
	out := make([]T, 0, len(seq))
	for _, n := range seq {
		if n.Key() != id {
			out = append(out, n)
		}
	}
	return out
}

// FindOrInit scans both sequences for a node keyed by id. If none exists it
// builds one via newNode (the caller is responsible for inserting it).
func FindOrInit[T ScoredNode](primary, secondary []T, id string, newNode func() T) (node T, existed bool) {
	for _, n := range primary {
		if n.Key() == id {
			return n, true
		}
	}
	for _, n := range secondary {
		if n.Key() == id {
			return n, true
		}
	}
	return newNode(), false
}

// UpdateNodeScore applies a session-mode EMA update to node in place and
// stamps its lastUpdated. Nodes are shared by pointer, so this is visible to
// every sequence holding the same reference.
func UpdateNodeScore(node ScoredNode, newScore float64, now int64) {
	node.SetScore(scoring.EMAUpdate(node.GetScore(), node.GetLastUpdated(), newScore, scoring.ModeSession, now))
	node.SetLastUpdated(now)
}

func removeByKey[T ScoredNode](seq []T, key string) []T {
	out := make([]T, 0, len(seq))
	for _, n := range seq {
		if n.Key() != key {
			out = append(out, n)
		}
	}
	return out
}

func sortDesc[T ScoredNode](seq []T) {
	sort.SliceStable(seq, func(i, j int) bool { return seq[i].GetScore() > seq[j].GetScore() })
}

// pushOrReplace inserts candidate into seq (capped at cap) following the
// push-if-room-else-replace-worse-tail rule. It reports the node bumped out
// (zero value + false if nothing was displaced, or if the pool was full and
// candidate wasn't better).
func pushOrReplace[T ScoredNode](seq []T, cap int, candidate T) (result []T, displaced T, hasDisplaced, inserted bool) {
	if len(seq) < cap {
		seq = append(seq, candidate)
		sortDesc(seq)
		return seq, displaced, false, true
	}
	tail := seq[len(seq)-1]
	if candidate.GetScore() > tail.GetScore() {
		seq = seq[:len(seq)-1]
		seq = append(seq, candidate)
		sortDesc(seq)
		return seq, tail, true, true
	}
	return seq, displaced, false, false
}

// InsertIntoPools performs the idempotent re-insertion algorithm: remove any
// existing occurrence of candidate's key from both sequences, drop negative
// scores, try the primary pool, then cascade an overflow into secondary.
func InsertIntoPools[T ScoredNode](primary, secondary []T, capP, capS int, candidate T) (newPrimary, newSecondary []T) {
	primary = removeByKey(primary, candidate.Key())
	secondary = removeByKey(secondary, candidate.Key())

	if candidate.GetScore() < 0 {
		return primary, secondary
	}

	p, displaced, hasDisplaced, inserted := pushOrReplace(primary, capP, candidate)
	if inserted {
		primary = p
		if hasDisplaced {
			s, _, _, _ := pushOrReplace(secondary, capS, displaced)
			secondary = s
		}
		return primary, secondary
	}

	s, _, _, _ := pushOrReplace(secondary, capS, candidate)
	secondary = s
	return primary, secondary
}
