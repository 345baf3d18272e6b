package search

import (
	"context"

	"github.com/domino14/connectfour/board"
)

// Minimax searches every node up to depth plies without pruning.
func (s *Solver) Minimax(b board.Board, stm board.Cell, depth int) (*Result, error) {
	if err := checkRoot(b, stm, depth); err != nil {
		return nil, err
	}
	st := s.newState(stm, depth, s.sortParam)
	moves := st.children(b, true)
	move, value, _ := st.searchRoot(context.Background(), b, moves, false, false)
	st.stats.DepthReached = depth
	return &Result{Move: move, Value: value, Stats: st.stats, Strategy: StrategyMinimax}, nil
}

func (st *searchState) minimax(b board.Board, depth int, maximizing bool) float64 {
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
			value = max(value, st.minimax(mustPlay(b, m, p), depth+1, false))
		}
		return value
	}
	value := Win
	for _, m := range moves {
		value = min(value, st.minimax(mustPlay(b, m, p), depth+1, true))
	}
	return value
}

// searchRoot plays each root move for the side to move and scores the
// resulting position as a minimizing ply. The strictly greatest value
// wins; ties keep the move seen first. With checkTime set, ctx is polled
// before every root child and the search reports itself incomplete once
// ctx is done.
func (st *searchState) searchRoot(ctx context.Context, b board.Board, moves []int,
	pruning, checkTime bool) (int, float64, bool) {

	best, bestV := NoMove, Loss
	alpha := Loss
	for _, m := range moves {
		if checkTime && ctx.Err() != nil {
			return best, bestV, false
		}
		nb := mustPlay(b, m, st.rootPlayer)
		var v float64
		if pruning {
			v = st.alphabeta(nb, 1, alpha, Win, false)
		} else {
			v = st.minimax(nb, 1, false)
		}
		if best == NoMove || v > bestV {
			best, bestV = m, v
		}
		alpha = max(alpha, bestV)
	}
	return best, bestV, true
}
