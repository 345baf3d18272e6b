package search

import (
	"context"

	"github.com/domino14/connectfour/board"
)

// AlphaBeta searches to depth plies with alpha-beta pruning. It returns
// the same move and value as Minimax with the same child ordering.
func (s *Solver) AlphaBeta(b board.Board, stm board.Cell, depth int) (*Result, error) {
	if err := checkRoot(b, stm, depth); err != nil {
		return nil, err
	}
	st := s.newState(stm, depth, s.sortParam)
	moves := st.children(b, true)
	move, value, _ := st.searchRoot(context.Background(), b, moves, true, false)
	st.stats.DepthReached = depth
	return &Result{Move: move, Value: value, Stats: st.stats, Strategy: StrategyAlphaBeta}, nil
}

// alphabeta is fail-soft: the returned value may lie outside (α, β), in
// which case it is a bound on the true value rather than the value.
func (st *searchState) alphabeta(b board.Board, depth int, α, β float64, maximizing bool) float64 {
	st.stats.NodesVisited++
	if v, done := st.frontier(b, depth, maximizing); done {
		return v
	}
	moves := st.children(b, maximizing)
	if len(moves) == 0 {
		return 0
	}
	p := st.mover(maximizing)
	if maximizing {
		value := Loss
		for _, m := range moves {
			value = max(value, st.alphabeta(mustPlay(b, m, p), depth+1, α, β, false))
			α = max(α, value)
			if β <= α {
				st.stats.PrunedBranches++
				break // β cut-off
			}
		}
		return value
	}
	value := Win
	for _, m := range moves {
		value = min(value, st.alphabeta(mustPlay(b, m, p), depth+1, α, β, true))
		β = min(β, value)
		if β <= α {
			st.stats.PrunedBranches++
			break // α cut-off
		}
	}
	return value
}
