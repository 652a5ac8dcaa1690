package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMAUpdateZeroOldScoreBypassesDecay(t *testing.T) {
	got := EMAUpdate(0, 0, 4.0, ModeSession, 1_000_000)
	assert.InEpsilon(t, EMAAlphaSession*4.0, got, 1e-9)
}

func TestChoosePriorCountMonotonicAndClamped(t *testing.T) {
	prev := ChoosePriorCount(0)
	assert.Equal(t, 20.0, prev)
	for _, n := range []int64{1, 10, 100, 1000, 1_000_000, 1_000_000_000} {
		got := ChoosePriorCount(n)
		assert.GreaterOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 20.0)
		assert.LessOrEqual(t, got, 500.0)
		prev = got
	}
}

func TestEMABlendEqualScoresUnchanged(t *testing.T) {
	for _, alpha := range []float64{0, 0.25, 0.5, 1} {
		got := EMABlend(alpha, 3.5, 3.5)
		assert.InEpsilon(t, 3.5, got, 1e-9)
	}
}

func TestDecayedScoreHalvesAtHalfLife(t *testing.T) {
	now := int64(HalfLifeDays * MsPerDay)
	got := DecayedScore(10, 0, now)
	assert.True(t, math.Abs(got-5) < 1e-6)
}
