package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func finished(gameType string, scores ...int) *GameRecap {
	ended := time.Now()
	g := &GameRecap{GameType: gameType, EndedAt: &ended}
	names := []string{"Alice", "Bob", "Carol", "Dave"}
	for i, s := range scores {
		g.Players = append(g.Players, PlayerResult{UID: i + 1, Name: names[i], Score: s})
	}
	return g
}

func TestEvaluate_GuessWordLowestRoundWins(t *testing.T) {
	g := finished("guess_word", 3, 2, -1, 0)
	Evaluate(g)
	assert.Equal(t, []string{"Bob"}, g.Winners)
	assert.False(t, g.Cleared)
}

func TestEvaluate_GuessWordTie(t *testing.T) {
	g := finished("guess_word", 2, 2, 4)
	Evaluate(g)
	assert.Equal(t, []string{"Alice", "Bob"}, g.Winners)
}

func TestEvaluate_GuessWordNobodyFound(t *testing.T) {
	g := finished("guess_word", -1, -1)
	Evaluate(g)
	assert.Empty(t, g.Winners)
}

func TestEvaluate_ArrangeNumberCleared(t *testing.T) {
	g := finished("arrange_number", 0, 0, 0)
	Evaluate(g)
	assert.True(t, g.Cleared)
	assert.Empty(t, g.Winners)
}

func TestEvaluate_ArrangeNumberBust(t *testing.T) {
	g := finished("arrange_number", 0, 2, 1)
	Evaluate(g)
	assert.False(t, g.Cleared)
}

func TestEvaluate_ForcedOrUnfinished(t *testing.T) {
	forced := finished("guess_word", 1, 2)
	forced.Forced = true
	Evaluate(forced)
	assert.Empty(t, forced.Winners)

	running := finished("arrange_number", 0, 0)
	running.EndedAt = nil
	Evaluate(running)
	assert.False(t, running.Cleared)
}

func TestEvaluate_ResetsPreviousOutcome(t *testing.T) {
	g := finished("guess_word", 1, 2)
	g.Winners = []string{"stale"}
	g.Cleared = true
	Evaluate(g)
	assert.Equal(t, []string{"Alice"}, g.Winners)
	assert.False(t, g.Cleared)
}
