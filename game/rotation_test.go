package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKickIndexBijection(t *testing.T) {
	seen := make(map[int]bool)
	for from := range Rotation(4) {
		for _, to := range []Rotation{from.CW(), from.CCW()} {
			idx := KickIndex(from, to)
			assert.False(t, seen[idx], "index %d reused for %d->%d", idx, from, to)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 8)

	assert.Equal(t, 0, KickIndex(RotationSpawn, RotationFlip))
	assert.Equal(t, 0, KickIndex(RotationLeft, RotationLeft))
	assert.Equal(t, 0, KickIndex(Rotation(9), Rotation(2)))
}

func TestResolveRotationWallKick(t *testing.T) {
	var b Board
	p := Piece{Kind: KindT, Rotation: RotationRight, Row: 30, Col: 0}
	assert.True(t, b.Fits(p))

	got, ok := ResolveRotation(&b, p, RotationFlip, true)
	assert.True(t, ok)
	assert.Equal(t, RotationFlip, got.Rotation)
	assert.Equal(t, 1, got.Col)
	assert.Equal(t, 30, got.Row)

	_, ok = ResolveRotation(&b, p, RotationFlip, false)
	assert.False(t, ok, "in-place rotation collides with the wall")
}

func TestResolveRotationSquareNeverTurns(t *testing.T) {
	var b Board
	p := NewPiece(KindO)
	got, ok := ResolveRotation(&b, p, RotationRight, true)
	assert.False(t, ok)
	assert.Equal(t, p, got)
}

func TestResolveRotationFirstFitWins(t *testing.T) {
	var b Board
	p := Piece{Kind: KindI, Row: 30, Col: 4}
	got, ok := ResolveRotation(&b, p, RotationRight, true)
	assert.True(t, ok)
	assert.Equal(t, 4, got.Col, "zero offset fits so no kick applies")
	assert.Equal(t, 30, got.Row)
}

func TestDetectSpin(t *testing.T) {
	down := Piece{Kind: KindT, Rotation: RotationFlip, Row: 38, Col: 4}

	t.Run("full", func(t *testing.T) {
		var b Board
		b[39][3] = GarbageCell
		b[39][5] = GarbageCell
		b[37][3] = GarbageCell
		assert.Equal(t, SpinFull, DetectSpin(&b, down, true))
	})

	t.Run("requires rotation", func(t *testing.T) {
		var b Board
		b[39][3] = GarbageCell
		b[39][5] = GarbageCell
		b[37][3] = GarbageCell
		assert.Equal(t, SpinNone, DetectSpin(&b, down, false))
	})

	t.Run("mini", func(t *testing.T) {
		var b Board
		b[39][3] = GarbageCell
		b[37][3] = GarbageCell
		b[37][5] = GarbageCell
		assert.Equal(t, SpinMini, DetectSpin(&b, down, true))
	})

	t.Run("two corners", func(t *testing.T) {
		var b Board
		b[39][3] = GarbageCell
		b[39][5] = GarbageCell
		assert.Equal(t, SpinNone, DetectSpin(&b, down, true))
	})

	t.Run("floor counts as filled", func(t *testing.T) {
		var b Board
		up := Piece{Kind: KindT, Rotation: RotationSpawn, Row: 39, Col: 4}
		b[38][3] = GarbageCell
		assert.Equal(t, SpinMini, DetectSpin(&b, up, true))
	})

	t.Run("only T pieces", func(t *testing.T) {
		var b Board
		for c := range BoardWidth {
			b[39][c] = GarbageCell
			b[37][c] = GarbageCell
		}
		s := Piece{Kind: KindS, Row: 38, Col: 4}
		assert.Equal(t, SpinNone, DetectSpin(&b, s, true))
	})
}
