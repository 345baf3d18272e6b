// Package search implements the move-decision search: plain minimax,
// minimax with alpha-beta pruning, and time-bounded iterative deepening
// on top of alpha-beta.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
	"github.com/domino14/connectfour/movegen"
)

// thanks Wikipedia:
/*
function alphabeta(node, depth, α, β, maximizingPlayer) is
    if depth = 0 or node is a terminal node then
        return the heuristic value of node
    if maximizingPlayer then
        value := −∞
        for each child of node do
            value := max(value, alphabeta(child, depth − 1, α, β, FALSE))
            α := max(α, value)
            if α ≥ β then
                break (* β cut-off *)
        return value
    else
        value := +∞
        for each child of node do
            value := min(value, alphabeta(child, depth − 1, α, β, TRUE))
            β := min(β, value)
            if α ≥ β then
                break (* α cut-off *)
        return value
*/

// NoMove is returned in place of a column when there is nothing to play.
const NoMove = -1

var (
	ErrInvalidConfig = errors.New("invalid search config")
	ErrNoLegalMove   = errors.New("no legal move")
)

var (
	// Win and Loss are the values of proven terminal positions. They
	// dominate every heuristic value.
	Win  = math.Inf(1)
	Loss = math.Inf(-1)
)

type Strategy int

const (
	StrategyMinimax Strategy = iota
	StrategyAlphaBeta
	StrategyIterativeDeepening
)

func (s Strategy) String() string {
	switch s {
	case StrategyMinimax:
		return "minimax"
	case StrategyAlphaBeta:
		return "alphabeta"
	case StrategyIterativeDeepening:
		return "iterative-deepening"
	}
	return "unknown"
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "minimax":
		return StrategyMinimax, nil
	case "alphabeta", "alpha-beta":
		return StrategyAlphaBeta, nil
	case "iterative-deepening", "id":
		return StrategyIterativeDeepening, nil
	}
	return 0, fmt.Errorf("unknown search strategy %q", s)
}

// Config bounds one move decision. MaxTimeMS of 0 means no time limit;
// only iterative deepening looks at it.
type Config struct {
	MaxDepth  int `json:"max_depth" yaml:"max_depth"`
	MaxTimeMS int `json:"max_time_ms" yaml:"max_time_ms"`
}

func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max_depth must be at least 1, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.MaxTimeMS < 0 {
		return fmt.Errorf("%w: max_time_ms must not be negative, got %d", ErrInvalidConfig, c.MaxTimeMS)
	}
	return nil
}

// Stats are the counters of a single move decision.
type Stats struct {
	NodesVisited   uint64
	PrunedBranches uint64
	DepthReached   int
}

func (s *Stats) add(o Stats) {
	s.NodesVisited += o.NodesVisited
	s.PrunedBranches += o.PrunedBranches
}

// Result is the outcome of a move decision.
type Result struct {
	Move     int
	Value    float64
	Stats    Stats
	Strategy Strategy
}

// Solver runs the searches. It holds no per-decision state, so one
// Solver can serve any number of concurrent decisions once configured.
type Solver struct {
	evaluator equity.Evaluator
	// sortParam orders children for minimax and single-shot alpha-beta.
	// It defaults to center-first, the order iterative deepening always
	// uses, so equal-valued root moves resolve towards the center.
	sortParam movegen.SortingParameter
}

// NewSolver creates a solver that scores the frontier with e.
func NewSolver(e equity.Evaluator) *Solver {
	return &Solver{evaluator: e, sortParam: movegen.SortByCenter}
}

// SetSortingParameter changes the child order used by Minimax and
// AlphaBeta. It must not be called while a search is running.
func (s *Solver) SetSortingParameter(p movegen.SortingParameter) {
	s.sortParam = p
}

// Solve validates cfg and dispatches to the given strategy.
func (s *Solver) Solve(ctx context.Context, b board.Board, stm board.Cell,
	strategy Strategy, cfg Config) (*Result, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tstart := time.Now()
	var res *Result
	var err error
	switch strategy {
	case StrategyMinimax:
		res, err = s.Minimax(b, stm, cfg.MaxDepth)
	case StrategyAlphaBeta:
		res, err = s.AlphaBeta(b, stm, cfg.MaxDepth)
	case StrategyIterativeDeepening:
		res, err = s.IterativeDeepening(ctx, b, stm, cfg)
	default:
		return nil, fmt.Errorf("unknown search strategy %d", strategy)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("strategy", strategy.String()).
		Int("move", res.Move).
		Float64("value", res.Value).
		Uint64("nodes", res.Stats.NodesVisited).
		Uint64("pruned", res.Stats.PrunedBranches).
		Int("depth-reached", res.Stats.DepthReached).
		Int64("time-elapsed-ms", time.Since(tstart).Milliseconds()).
		Msg("solve-returning")
	return res, nil
}

// searchState is the mutable part of one search. It lives for a single
// call and is never shared between goroutines.
type searchState struct {
	evaluator  equity.Evaluator
	rootPlayer board.Cell
	maxDepth   int
	sortParam  movegen.SortingParameter
	stats      Stats
}

func (s *Solver) newState(rootPlayer board.Cell, maxDepth int,
	sortParam movegen.SortingParameter) *searchState {

	return &searchState{
		evaluator:  s.evaluator,
		rootPlayer: rootPlayer,
		maxDepth:   maxDepth,
		sortParam:  sortParam,
	}
}

// mover returns whose piece is dropped at a ply.
func (st *searchState) mover(maximizing bool) board.Cell {
	if maximizing {
		return st.rootPlayer
	}
	return st.rootPlayer.Other()
}

// frontier applies the rules shared by every strategy before children
// are generated: terminal positions, the depth cutoff and a full board.
func (st *searchState) frontier(b board.Board, depth int, maximizing bool) (float64, bool) {
	if over, winner := b.Terminal(); over {
		switch winner {
		case st.rootPlayer:
			return Win, true
		case board.Empty:
			return 0, true
		default:
			return Loss, true
		}
	}
	if depth >= st.maxDepth {
		if maximizing {
			return st.evaluator.Evaluate(b, st.rootPlayer), true
		}
		return -st.evaluator.Evaluate(b, st.rootPlayer.Other()), true
	}
	return 0, false
}

func (st *searchState) children(b board.Board, maximizing bool) []int {
	return movegen.Generate(b, st.mover(maximizing), st.sortParam)
}

func mustPlay(b board.Board, col int, p board.Cell) board.Board {
	nb, err := b.Play(col, p)
	if err != nil {
		// The search only ever plays generated moves.
		panic(fmt.Sprintf("search generated an illegal move: %v", err))
	}
	return nb
}

func checkRoot(b board.Board, stm board.Cell, depth int) error {
	if !stm.Valid() {
		return fmt.Errorf("%w: %d", board.ErrInvalidPlayer, stm)
	}
	if depth < 1 {
		return fmt.Errorf("%w: max_depth must be at least 1, got %d", ErrInvalidConfig, depth)
	}
	if len(b.LegalMoves()) == 0 {
		return ErrNoLegalMove
	}
	return nil
}
