package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadBoardString = errors.New("bad board string")
	ErrFloatingPiece  = errors.New("piece is not supported by the column below it")
)

// ParseBoard reads the compact board format: Rows lines of Cols digits
// in {0,1,2}, top row first, separated by ';' or newlines. Empty lines
// are ignored, so a trailing separator is fine.
func ParseBoard(s string) (Board, error) {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", ";")
	var rows []string
	for _, r := range strings.Split(s, ";") {
		r = strings.TrimSpace(r)
		if r != "" {
			rows = append(rows, r)
		}
	}
	if len(rows) != Rows {
		return Board{}, fmt.Errorf("%w: expected %d rows, got %d",
			ErrBadBoardString, Rows, len(rows))
	}
	var grid [Rows][Cols]Cell
	for r, line := range rows {
		if len(line) != Cols {
			return Board{}, fmt.Errorf("%w: row %d: expected %d columns, got %d",
				ErrBadBoardString, r, Cols, len(line))
		}
		for c, ch := range line {
			if ch < '0' || ch > '2' {
				return Board{}, fmt.Errorf("%w: row %d: invalid character %q (use only 0, 1, 2)",
					ErrBadBoardString, r, ch)
			}
			grid[r][c] = Cell(ch - '0')
		}
	}
	return FromGrid(grid)
}

// String returns the board in the compact format read by ParseBoard.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte(';')
		}
		for c := 0; c < Cols; c++ {
			sb.WriteByte(byte('0' + b.grid[r][c]))
		}
	}
	return sb.String()
}

func (c Cell) displayString() string {
	switch c {
	case P1:
		return "X"
	case P2:
		return "O"
	}
	return "."
}

// ToDisplayText renders the board for a terminal, with column numbers
// along the top and bottom.
func (b Board) ToDisplayText() string {
	var str string
	header := "  "
	for c := 0; c < Cols; c++ {
		header += fmt.Sprintf("%d ", c)
	}
	str += header + "\n"
	str += " +" + strings.Repeat("-", Cols*2) + "+\n"
	for r := 0; r < Rows; r++ {
		row := " |"
		for c := 0; c < Cols; c++ {
			row += b.grid[r][c].displayString() + " "
		}
		str += row + "|\n"
	}
	str += " +" + strings.Repeat("-", Cols*2) + "+\n"
	str += header + "\n"
	return "\n" + str
}
