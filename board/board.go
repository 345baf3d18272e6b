// Package board implements the connect-four grid and its rules: legal
// moves, gravity drops, and win/draw detection. It contains no search
// logic.
package board

import (
	"errors"
	"fmt"
)

const (
	Rows = 6
	Cols = 7
	// ConnectN is the length of a winning run.
	ConnectN = 4
	// CenterCol is the 0-indexed center column.
	CenterCol = Cols / 2
)

var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrInvalidPlayer = errors.New("invalid player")
)

// A Cell is the content of a single square of the grid. It doubles as
// the player identifier.
type Cell uint8

const (
	Empty Cell = iota
	P1
	P2
)

// Other returns the opponent of c. It is total: anything that is not P2
// maps to P2.
func (c Cell) Other() Cell {
	if c == P2 {
		return P1
	}
	return P2
}

// Valid reports whether c names a player.
func (c Cell) Valid() bool {
	return c == P1 || c == P2
}

func (c Cell) String() string {
	switch c {
	case P1:
		return "P1"
	case P2:
		return "P2"
	}
	return "none"
}

// direction is a (row, col) step used to walk runs on the grid.
type direction struct {
	dr, dc int
}

// directions holds the four run directions: horizontal, vertical,
// diagonal down-right and diagonal up-right.
var directions = [4]direction{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// Board is the 6x7 grid. Row 0 is the top row; pieces fall towards row
// Rows-1. Board is a value type: every mutation returns a new Board and
// never touches the receiver.
type Board struct {
	grid [Rows][Cols]Cell
}

// NewBoard returns an empty board.
func NewBoard() Board {
	return Board{}
}

// FromGrid builds a board from a raw grid, rejecting grids that break
// the gravity invariant.
func FromGrid(grid [Rows][Cols]Cell) (Board, error) {
	b := Board{grid: grid}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if grid[r][c] > P2 {
				return Board{}, fmt.Errorf("%w: cell (%d,%d) has value %d",
					ErrBadBoardString, r, c, grid[r][c])
			}
		}
	}
	if err := b.checkGravity(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// At returns the cell at the given row and column.
func (b Board) At(row, col int) Cell {
	return b.grid[row][col]
}

// Grid returns a copy of the underlying grid.
func (b Board) Grid() [Rows][Cols]Cell {
	return b.grid
}

// LegalMoves returns the playable columns in ascending order. It is
// empty when the board is full.
func (b Board) LegalMoves() []int {
	moves := make([]int, 0, Cols)
	for c := 0; c < Cols; c++ {
		if b.grid[0][c] == Empty {
			moves = append(moves, c)
		}
	}
	return moves
}

// IsLegal reports whether col can be played.
func (b Board) IsLegal(col int) bool {
	return col >= 0 && col < Cols && b.grid[0][col] == Empty
}

// Play drops a piece for player p in column col and returns the
// resulting board. The receiver is left untouched.
func (b Board) Play(col int, p Cell) (Board, error) {
	if !p.Valid() {
		return b, fmt.Errorf("%w: %d", ErrInvalidPlayer, p)
	}
	if col < 0 || col >= Cols {
		return b, fmt.Errorf("%w: column %d out of range", ErrInvalidMove, col)
	}
	if b.grid[0][col] != Empty {
		return b, fmt.Errorf("%w: column %d is full", ErrInvalidMove, col)
	}
	nb := b
	for r := Rows - 1; r >= 0; r-- {
		if nb.grid[r][col] == Empty {
			nb.grid[r][col] = p
			return nb, nil
		}
	}
	// unreachable as long as the gravity invariant holds
	return b, fmt.Errorf("%w: column %d is full", ErrInvalidMove, col)
}

// Winner returns the player owning a run of ConnectN, or Empty if there
// is none. All four directions are checked independently.
func (b Board) Winner() Cell {
	for _, d := range directions {
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				if !inBounds(r+(ConnectN-1)*d.dr, c+(ConnectN-1)*d.dc) {
					continue
				}
				x := b.grid[r][c]
				if x == Empty {
					continue
				}
				run := 1
				for i := 1; i < ConnectN && b.grid[r+i*d.dr][c+i*d.dc] == x; i++ {
					run++
				}
				if run == ConnectN {
					return x
				}
			}
		}
	}
	return Empty
}

// IsFull reports whether every column's top cell is occupied.
func (b Board) IsFull() bool {
	for c := 0; c < Cols; c++ {
		if b.grid[0][c] == Empty {
			return false
		}
	}
	return true
}

// Terminal reports whether the game is over and who won. The winner is
// Empty on a draw.
func (b Board) Terminal() (bool, Cell) {
	if w := b.Winner(); w != Empty {
		return true, w
	}
	if b.IsFull() {
		return true, Empty
	}
	return false, Empty
}

// Count returns the number of pieces on the board.
func (b Board) Count() int {
	return b.CountFor(P1) + b.CountFor(P2)
}

// CountFor returns the number of pieces owned by p.
func (b Board) CountFor(p Cell) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.grid[r][c] == p {
				n++
			}
		}
	}
	return n
}

// SideToMove derives whose turn it is from the piece counts, assuming
// P1 moved first.
func (b Board) SideToMove() Cell {
	if b.CountFor(P1) > b.CountFor(P2) {
		return P2
	}
	return P1
}

func (b Board) checkGravity() error {
	for c := 0; c < Cols; c++ {
		seenEmpty := false
		for r := Rows - 1; r >= 0; r-- {
			if b.grid[r][c] == Empty {
				seenEmpty = true
			} else if seenEmpty {
				return fmt.Errorf("%w: column %d, row %d", ErrFloatingPiece, c, r)
			}
		}
	}
	return nil
}

func inBounds(r, c int) bool {
	return r >= 0 && r < Rows && c >= 0 && c < Cols
}
