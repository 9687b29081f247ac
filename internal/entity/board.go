package entity

const (
	DefaultRows    = 6
	DefaultColumns = 7
)

type Cell int

const (
	CellEmpty Cell = iota
	CellPlayerA
	CellPlayerB
)

func (that Cell) IsValid() bool {
	return that >= CellEmpty && that <= CellPlayerB
}

// Board is a rows × columns grid, row 0 on top.
type Board [][]Cell

func NewBoard(rows, columns int) Board {
	board := make(Board, rows)
	for i := range board {
		board[i] = make([]Cell, columns)
	}

	return board
}

func (that Board) Rows() int {
	return len(that)
}

func (that Board) Columns() int {
	if len(that) == 0 {
		return 0
	}
	return len(that[0])
}

// IsRectangular reports whether the board has at least one cell and every row has the same width.
func (that Board) IsRectangular() bool {
	if that.Rows() == 0 || that.Columns() == 0 {
		return false
	}

	for _, row := range that {
		if len(row) != that.Columns() {
			return false
		}
	}

	return true
}

func (that Board) SameShape(other Board) bool {
	return that.Rows() == other.Rows() && that.Columns() == other.Columns()
}

func (that Board) Clone() Board {
	if that == nil {
		return nil
	}

	clone := make(Board, len(that))
	for i, row := range that {
		clone[i] = append([]Cell(nil), row...)
	}

	return clone
}
