package game

// Kind identifies one of the seven tetromino shapes
type Kind uint8

const (
	KindI Kind = iota
	KindO
	KindT
	KindS
	KindZ
	KindL
	KindJ
)

// KindCount is the number of distinct piece kinds
const KindCount = 7

var kindNames = [KindCount]string{"I", "O", "T", "S", "Z", "L", "J"}

func (k Kind) String() string {
	if int(k) < KindCount {
		return kindNames[k]
	}
	return "?"
}

// Cell returns the board cell id a locked piece of this kind leaves behind
func (k Kind) Cell() Cell {
	return Cell(k) + 1
}

// Rotation is one of four orientation states: 0 (spawn), R, 2, L
type Rotation uint8

const (
	RotationSpawn Rotation = iota
	RotationRight
	RotationFlip
	RotationLeft
)

// CW returns the clockwise neighbor state
func (r Rotation) CW() Rotation {
	return (r + 1) % 4
}

// CCW returns the counter-clockwise neighbor state
func (r Rotation) CCW() Rotation {
	return (r + 3) % 4
}

// Offset is a (row, col) displacement; rows grow downward
type Offset struct {
	Row, Col int
}

// Point is an absolute board coordinate
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// shapeTable holds the four cell offsets per kind and rotation, relative to the pivot
var shapeTable = [KindCount][4][4]Offset{
	// I
	{
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}},
		{{-1, 1}, {0, 1}, {1, 1}, {2, 1}},
		{{1, -1}, {1, 0}, {1, 1}, {1, 2}},
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	},
	// O
	{
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	},
	// T
	{
		{{-1, 0}, {0, -1}, {0, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {0, 1}, {1, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 0}},
		{{-1, 0}, {0, -1}, {0, 0}, {1, 0}},
	},
	// S
	{
		{{-1, 0}, {-1, 1}, {0, -1}, {0, 0}},
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {0, 1}, {1, -1}, {1, 0}},
		{{-1, -1}, {0, -1}, {0, 0}, {1, 0}},
	},
	// Z
	{
		{{-1, -1}, {-1, 0}, {0, 0}, {0, 1}},
		{{-1, 1}, {0, 0}, {0, 1}, {1, 0}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
		{{-1, 0}, {0, -1}, {0, 0}, {1, -1}},
	},
	// L
	{
		{{-1, 1}, {0, -1}, {0, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, -1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	},
	// J
	{
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
		{{-1, 0}, {-1, 1}, {0, 0}, {1, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{-1, 0}, {0, 0}, {1, -1}, {1, 0}},
	},
}

// Piece is an active tetromino: kind, orientation and pivot position
type Piece struct {
	Kind     Kind
	Rotation Rotation
	Row      int
	Col      int
}

// NewPiece places a piece at its spawn position: horizontally centered on
// the first hidden row above the visible field, with O one row higher
func NewPiece(kind Kind) Piece {
	row := BufferHeight
	if kind == KindO {
		row = BufferHeight - 1
	}
	return Piece{
		Kind: kind,
		Row:  row,
		Col:  BoardWidth/2 - 1,
	}
}

// Blocks returns the relative cell offsets for the current kind and rotation
func (p Piece) Blocks() [4]Offset {
	return shapeTable[p.Kind][p.Rotation%4]
}

// Cells enumerates the four absolute board coordinates the piece covers
func (p Piece) Cells() [4]Point {
	var out [4]Point
	for i, b := range p.Blocks() {
		out[i] = Point{Row: p.Row + b.Row, Col: p.Col + b.Col}
	}
	return out
}

// Shifted returns a copy displaced by dr rows and dc columns
func (p Piece) Shifted(dr, dc int) Piece {
	p.Row += dr
	p.Col += dc
	return p
}
