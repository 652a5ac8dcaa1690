package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"feedranker/internal/models"
)

func node(name string, score float64) *models.CategoryNode {
	return &models.CategoryNode{Name: name, Score: score, LastUpdated: 0}
}

func TestInsertIntoPoolsCapRespected(t *testing.T) {
	var primary, secondary []*models.CategoryNode
	for i := 0; i < 5; i++ {
		primary, secondary = InsertIntoPools(primary, secondary, 3, 2, node(string(rune('a'+i)), float64(i)))
	}
	assert.LessOrEqual(t, len(primary), 3)
	assert.LessOrEqual(t, len(secondary), 2)
}

func TestInsertIntoPoolsIdempotent(t *testing.T) {
	var primary, secondary []*models.CategoryNode
	primary, secondary = InsertIntoPools(primary, secondary, 3, 2, node("tech", 5))
	p2, s2 := InsertIntoPools(primary, secondary, 3, 2, node("tech", 5))
	assert.Equal(t, len(primary), len(p2))
	assert.Equal(t, len(secondary), len(s2))
	assert.Equal(t, primary[0].Score, p2[0].Score)
}

func TestInsertIntoPoolsNegativeScoreDropped(t *testing.T) {
	var primary, secondary []*models.CategoryNode
	primary, secondary = InsertIntoPools(primary, secondary, 3, 2, node("bad", -1))
	assert.Empty(t, primary)
	assert.Empty(t, secondary)
}

func TestInsertIntoPoolsDisjointTopAndRising(t *testing.T) {
	var top, rising []*models.CategoryNode
	top, rising = InsertIntoPools(top, rising, 1, 1, node("a", 10))
	top, rising = InsertIntoPools(top, rising, 1, 1, node("b", 20))
	seen := map[string]bool{}
	for _, n := range top {
		seen[n.Key()] = true
	}
	for _, n := range rising {
		assert.False(t, seen[n.Key()], "node present in both pools")
	}
}
