package garbage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/blockfall/game"
)

func TestCalculateAttack(t *testing.T) {
	tests := []struct {
		name string
		r    game.ClearResult
		want int
	}{
		{"nothing", game.ClearResult{Lines: 0, Combo: -1}, 0},
		{"spin without lines", game.ClearResult{Lines: 0, Spin: game.SpinFull}, 0},
		{"single", game.ClearResult{Lines: 1}, 0},
		{"double", game.ClearResult{Lines: 2}, 1},
		{"triple", game.ClearResult{Lines: 3}, 2},
		{"tetris", game.ClearResult{Lines: 4}, 4},
		{"b2b tetris", game.ClearResult{Lines: 4, BackToBack: true}, 5},
		{"tspin single", game.ClearResult{Lines: 1, Spin: game.SpinFull}, 2},
		{"tspin double", game.ClearResult{Lines: 2, Spin: game.SpinFull}, 4},
		{"tspin triple", game.ClearResult{Lines: 3, Spin: game.SpinFull}, 6},
		{"mini single", game.ClearResult{Lines: 1, Spin: game.SpinMini}, 0},
		{"mini double", game.ClearResult{Lines: 2, Spin: game.SpinMini}, 1},
		{"all clear", game.ClearResult{Lines: 1, AllClear: true, Combo: 9}, 10},
		{"combo 1", game.ClearResult{Lines: 1, Combo: 1}, 0},
		{"combo 3", game.ClearResult{Lines: 1, Combo: 3}, 1},
		{"combo 5", game.ClearResult{Lines: 2, Combo: 5}, 3},
		{"combo 7", game.ClearResult{Lines: 1, Combo: 7}, 3},
		{"combo 10", game.ClearResult{Lines: 1, Combo: 10}, 4},
		{"combo 11", game.ClearResult{Lines: 1, Combo: 11}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateAttack(tt.r))
			assert.Equal(t, tt.want, CalculateAttack(tt.r), "pure function")
		})
	}
}

func TestCancelOldestFirst(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 2, Hole: 1})
	q.Push(Event{Lines: 3, Hole: 4})
	q.Push(Event{Lines: 1, Hole: 7})

	left := q.Cancel(4)

	assert.Equal(t, 0, left)
	require.Equal(t, []Event{{Lines: 1, Hole: 4}, {Lines: 1, Hole: 7}}, q.Events())
	assert.Equal(t, 2, q.TotalPending())
}

func TestCancelExceedingPending(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 2, Hole: 0})
	q.Push(Event{Lines: 1, Hole: 5})

	assert.Equal(t, 3, q.Cancel(6))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.TotalPending())
}

func TestCancelExactFit(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 2, Hole: 0})
	q.Push(Event{Lines: 2, Hole: 3})

	assert.Equal(t, 0, q.Cancel(2))
	assert.Equal(t, []Event{{Lines: 2, Hole: 3}}, q.Events())
}

func TestCancelZero(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 2, Hole: 0})
	assert.Equal(t, 0, q.Cancel(0))
	assert.Equal(t, 2, q.TotalPending())
}

func TestCancelConservesRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 9))
	for range 500 {
		q := NewQueue()
		for range rng.IntN(6) {
			q.Push(Event{Lines: 1 + rng.IntN(4), Hole: rng.IntN(10)})
		}
		before := q.TotalPending()
		attack := rng.IntN(15)

		left := q.Cancel(attack)

		for _, e := range q.Events() {
			assert.Positive(t, e.Lines)
		}
		absorbed := before - q.TotalPending()
		assert.Equal(t, attack, absorbed+left)
		if attack > before {
			assert.Equal(t, attack-before, left)
			assert.Equal(t, 0, q.Len())
		} else {
			assert.Equal(t, 0, left)
		}
	}
}

func TestPushDropsEmpty(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 0, Hole: 2})
	assert.Equal(t, 0, q.Len())
}

func TestDrainAll(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Lines: 2, Hole: 1})
	q.Push(Event{Lines: 1, Hole: 8})

	events := q.DrainAll()
	assert.Equal(t, []Event{{Lines: 2, Hole: 1}, {Lines: 1, Hole: 8}}, events)
	assert.Equal(t, 0, q.TotalPending())
	assert.Nil(t, q.DrainAll())
}
