package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/movegen"
)

// IterativeDeepening runs alpha-beta at depth 1, 2, ... cfg.MaxDepth,
// searching center-first at every depth. When cfg.MaxTimeMS is positive
// it becomes a deadline on ctx. The deadline (or any cancellation of ctx)
// is checked before each depth and before each root child; a depth that
// runs out of time is abandoned and the previous depth's move is kept.
// Depth 1 is never abandoned, so there is always a move to return.
//
// The node and prune counters of an abandoned depth are still added to
// the totals; only its move and value are discarded.
func (s *Solver) IterativeDeepening(ctx context.Context, b board.Board, stm board.Cell,
	cfg Config) (*Result, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkRoot(b, stm, cfg.MaxDepth); err != nil {
		return nil, err
	}
	if cfg.MaxTimeMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.MaxTimeMS)*time.Millisecond)
		defer cancel()
	}

	res := &Result{Move: NoMove, Value: Loss, Strategy: StrategyIterativeDeepening}
	for d := 1; d <= cfg.MaxDepth; d++ {
		// No time checks at all at depth 1, so it always runs to completion.
		enforced := d > 1
		if enforced && ctx.Err() != nil {
			log.Debug().Int("depth", d).Msg("id-time-exhausted-before-depth")
			break
		}
		st := s.newState(stm, d, movegen.SortByCenter)
		moves := movegen.OrderMoves(b, b.LegalMoves(), stm)
		move, value, complete := st.searchRoot(ctx, b, moves, true, enforced)
		res.Stats.add(st.stats)

		if !complete {
			log.Debug().
				Int("depth", d).
				Uint64("nodes", st.stats.NodesVisited).
				Uint64("pruned", st.stats.PrunedBranches).
				Msg("id-depth-abandoned")
			break
		}
		res.Move, res.Value = move, value
		res.Stats.DepthReached = d
		log.Debug().
			Int("depth", d).
			Int("move", move).
			Str("value", formatValue(value)).
			Uint64("nodes", st.stats.NodesVisited).
			Uint64("pruned", st.stats.PrunedBranches).
			Msg("id-depth-completed")
	}
	return res, nil
}

func formatValue(v float64) string {
	switch v {
	case Win:
		return "win"
	case Loss:
		return "loss"
	}
	return fmt.Sprintf("%.2f", v)
}
