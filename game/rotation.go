package game

// kick is a (col, row) displacement tried during rotation; positive row is down
type kick struct {
	Col, Row int
}

// KickIndex maps a rotation transition to its row in the kick tables.
// Only the eight single-step transitions are meaningful; anything else
// resolves to the 0->R row
func KickIndex(from, to Rotation) int {
	switch {
	case from == RotationSpawn && to == RotationRight:
		return 0
	case from == RotationRight && to == RotationSpawn:
		return 1
	case from == RotationRight && to == RotationFlip:
		return 2
	case from == RotationFlip && to == RotationRight:
		return 3
	case from == RotationFlip && to == RotationLeft:
		return 4
	case from == RotationLeft && to == RotationFlip:
		return 5
	case from == RotationLeft && to == RotationSpawn:
		return 6
	case from == RotationSpawn && to == RotationLeft:
		return 7
	default:
		return 0
	}
}

var kicksJLSTZ = [8][5]kick{
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
}

var kicksI = [8][5]kick{
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
}

// ResolveRotation tries to turn p into rotation to on board b. With kicks
// enabled the offsets are tried in table order and the first fitting
// placement wins; without kicks only the in-place rotation is tried.
// The square piece never rotates
func ResolveRotation(b *Board, p Piece, to Rotation, kicks bool) (Piece, bool) {
	if p.Kind == KindO {
		return p, false
	}

	if !kicks {
		test := p
		test.Rotation = to
		if b.Fits(test) {
			return test, true
		}
		return p, false
	}

	table := &kicksJLSTZ
	if p.Kind == KindI {
		table = &kicksI
	}
	for _, k := range table[KickIndex(p.Rotation, to)] {
		test := p
		test.Rotation = to
		test.Col += k.Col
		test.Row += k.Row
		if b.Fits(test) {
			return test, true
		}
	}
	return p, false
}

// SpinKind classifies a T-piece lock
type SpinKind uint8

const (
	SpinNone SpinKind = iota
	SpinMini
	SpinFull
)

func (s SpinKind) String() string {
	switch s {
	case SpinMini:
		return "mini"
	case SpinFull:
		return "full"
	default:
		return "none"
	}
}

// Front and back diagonal corners of the T pivot per rotation, as (row, col)
var (
	tFrontCorners = [4][2]Offset{
		{{-1, -1}, {-1, 1}},
		{{-1, 1}, {1, 1}},
		{{1, -1}, {1, 1}},
		{{-1, -1}, {1, -1}},
	}
	tBackCorners = [4][2]Offset{
		{{1, -1}, {1, 1}},
		{{-1, -1}, {1, -1}},
		{{-1, -1}, {-1, 1}},
		{{-1, 1}, {1, 1}},
	}
)

// DetectSpin applies the three-corner rule to a T piece whose last
// successful action was a rotation. Corners outside the board count as filled
func DetectSpin(b *Board, p Piece, lastWasRotation bool) SpinKind {
	if p.Kind != KindT || !lastWasRotation {
		return SpinNone
	}

	rot := p.Rotation % 4
	front, back := 0, 0
	for _, o := range tFrontCorners[rot] {
		if b.Occupied(p.Row+o.Row, p.Col+o.Col) {
			front++
		}
	}
	for _, o := range tBackCorners[rot] {
		if b.Occupied(p.Row+o.Row, p.Col+o.Col) {
			back++
		}
	}

	if front+back < 3 {
		return SpinNone
	}
	if front == 2 {
		return SpinFull
	}
	return SpinMini
}
