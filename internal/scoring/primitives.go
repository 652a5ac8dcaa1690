package scoring

import "math"

// DecayedScore applies exponential time-decay to oldScore, with half-life
// HalfLifeDays. lastUpdated and now are unix milliseconds.
func DecayedScore(oldScore float64, lastUpdated, now int64) float64 {
	if oldScore == 0 {
		return 0
	}
	deltaDays := float64(now-lastUpdated) / MsPerDay
	if deltaDays < 0 {
		deltaDays = 0
	}
	lambda := lambdaFor(HalfLifeDays)
	return oldScore * math.Exp(-lambda*deltaDays)
}

// EMAUpdate blends newScore into oldScore, bypassing the decayed term when
// oldScore is zero so an uninitialized node's stale timestamp never leaks in.
func EMAUpdate(oldScore float64, lastUpdated int64, newScore float64, mode Mode, now int64) float64 {
	alpha := alphaFor(mode)
	decayed := 0.0
	if oldScore != 0 {
		decayed = DecayedScore(oldScore, lastUpdated, now)
	}
	return alpha*newScore + (1-alpha)*decayed
}

// ChoosePriorCount picks a Bayesian prior sample size from observed global
// impressions, clamped to [20, 500].
func ChoosePriorCount(globalImpressions int64) float64 {
	if globalImpressions <= 0 {
		return 20
	}
	n := math.Floor(20 * math.Log10(float64(globalImpressions)+1))
	if n < 20 {
		return 20
	}
	if n > 500 {
		return 500
	}
	return n
}

// EMABlend combines an old score with a session score, used exclusively by
// merge-back. alpha is the weight given to the session value.
func EMABlend(alpha, old, session float64) float64 {
	return (1-alpha)*old + alpha*session
}
