// Package equity holds the static position evaluators used at the search
// frontier.
package equity

import "github.com/domino14/connectfour/board"

const (
	CenterColumnWeight   = 3.0
	AdjacentCenterWeight = 2.0
	TwoRunWeight         = 1.0
	ThreeRunWeight       = 10.0
)

// StaticEvaluator scores a position by piece placement in the three
// center columns plus the runs of two and three pieces in every
// direction.
type StaticEvaluator struct {
	columnWeights [board.Cols]float64
	runWeights    [board.ConnectN]float64
}

// NewStaticEvaluator returns the default evaluator.
func NewStaticEvaluator() *StaticEvaluator {
	e := &StaticEvaluator{}
	e.columnWeights[board.CenterCol] = CenterColumnWeight
	e.columnWeights[board.CenterCol-1] = AdjacentCenterWeight
	e.columnWeights[board.CenterCol+1] = AdjacentCenterWeight
	e.runWeights[2] = TwoRunWeight
	e.runWeights[3] = ThreeRunWeight
	return e
}

func (e *StaticEvaluator) Evaluate(b board.Board, player board.Cell) float64 {
	return e.Positional(b, player) + e.Runs(b, player)
}

// Positional is the center-column component of the evaluation.
func (e *StaticEvaluator) Positional(b board.Board, player board.Cell) float64 {
	opp := player.Other()
	score := 0.0
	for c := 0; c < board.Cols; c++ {
		w := e.columnWeights[c]
		if w == 0 {
			continue
		}
		for r := 0; r < board.Rows; r++ {
			switch b.At(r, c) {
			case player:
				score += w
			case opp:
				score -= w
			}
		}
	}
	return score
}

// Runs is the run-counting component of the evaluation. Each maximal run
// of exactly two or exactly three same-colored pieces along a direction
// is counted once; runs of four or more are left to terminal detection.
func (e *StaticEvaluator) Runs(b board.Board, player board.Cell) float64 {
	score := 0.0
	for _, run := range Runs(b) {
		if run.Length >= board.ConnectN {
			continue
		}
		w := e.runWeights[run.Length]
		if run.Owner == player {
			score += w
		} else {
			score -= w
		}
	}
	return score
}

// A Run is a maximal line of same-colored pieces.
type Run struct {
	Owner  board.Cell
	Row    int
	Col    int
	DRow   int
	DCol   int
	Length int
}

var runDirections = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal down-right
	{-1, 1}, // diagonal up-right
}

// Runs lists every maximal run of length two or more on the board.
func Runs(b board.Board) []Run {
	var runs []Run
	for _, d := range runDirections {
		for r := 0; r < board.Rows; r++ {
			for c := 0; c < board.Cols; c++ {
				owner := b.At(r, c)
				if owner == board.Empty {
					continue
				}
				// only start counting at the first cell of a run
				pr, pc := r-d[0], c-d[1]
				if inBounds(pr, pc) && b.At(pr, pc) == owner {
					continue
				}
				n := 1
				for inBounds(r+n*d[0], c+n*d[1]) && b.At(r+n*d[0], c+n*d[1]) == owner {
					n++
				}
				if n >= 2 {
					runs = append(runs, Run{Owner: owner, Row: r, Col: c,
						DRow: d[0], DCol: d[1], Length: n})
				}
			}
		}
	}
	return runs
}

func inBounds(r, c int) bool {
	return r >= 0 && r < board.Rows && c >= 0 && c < board.Cols
}
