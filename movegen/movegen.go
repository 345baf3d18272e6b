// Package movegen generates and orders candidate moves for the search.
package movegen

import (
	"github.com/samber/lo"

	"github.com/domino14/connectfour/board"
)

type SortingParameter int

const (
	// SortByNone keeps the natural ascending column order.
	SortByNone SortingParameter = iota
	// SortByCenter searches the center column first, then works outwards.
	SortByCenter
)

func (p SortingParameter) String() string {
	switch p {
	case SortByNone:
		return "none"
	case SortByCenter:
		return "center"
	}
	return "unknown"
}

// CenterOrder is every column, center first, then alternating left and
// right of it: 3, 2, 4, 1, 5, 0, 6.
var CenterOrder = centerOut()

func centerOut() []int {
	order := []int{board.CenterCol}
	for d := 1; d <= board.CenterCol; d++ {
		order = append(order, board.CenterCol-d, board.CenterCol+d)
	}
	return order
}

// OrderMoves returns moves rearranged center-outward. The ordering does
// not depend on the position or the player.
func OrderMoves(_ board.Board, moves []int, _ board.Cell) []int {
	return lo.Filter(CenterOrder, func(c int, _ int) bool {
		return lo.Contains(moves, c)
	})
}

// Generate returns the legal moves for b sorted according to param.
func Generate(b board.Board, player board.Cell, param SortingParameter) []int {
	moves := b.LegalMoves()
	if param == SortByCenter {
		return OrderMoves(b, moves, player)
	}
	return moves
}
