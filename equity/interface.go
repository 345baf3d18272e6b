package equity

import "github.com/domino14/connectfour/board"

// Evaluator is a static evaluator of connect-four positions.
type Evaluator interface {
	// Evaluate returns the heuristic value of a non-terminal board from
	// player's point of view; higher is better for player. Terminal
	// positions are scored by the search, never by an Evaluator.
	Evaluate(b board.Board, player board.Cell) float64
}
