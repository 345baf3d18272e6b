// Package bot is the move-selection facade. It picks a strategy, runs the
// search and hands back the chosen column together with the diagnostics
// of that one decision.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
	"github.com/domino14/connectfour/search"
)

// NoMove is the column reported when the board has no legal move.
const NoMove = search.NoMove

var (
	ErrNoLegalMove   = search.ErrNoLegalMove
	ErrInvalidConfig = search.ErrInvalidConfig
)

type Strategy int

const (
	Minimax Strategy = iota
	AlphaBeta
	IterativeDeepening
	// Random plays a uniformly random legal column without searching.
	Random
)

// AllStrategies lists every strategy in the order the move service
// advertises them.
var AllStrategies = []Strategy{Minimax, AlphaBeta, IterativeDeepening, Random}

func (s Strategy) String() string {
	switch s {
	case Minimax:
		return search.StrategyMinimax.String()
	case AlphaBeta:
		return search.StrategyAlphaBeta.String()
	case IterativeDeepening:
		return search.StrategyIterativeDeepening.String()
	case Random:
		return "random"
	}
	return "unknown"
}

// DisplayName is the player name the move service publishes.
func (s Strategy) DisplayName() string {
	switch s {
	case Minimax:
		return "AI_Minimax"
	case AlphaBeta:
		return "AI_AlphaBeta"
	case IterativeDeepening:
		return "AI_IterativeDeepening"
	case Random:
		return "AI_Random"
	}
	return "AI_Unknown"
}

// ParseStrategy accepts a strategy name, one of its aliases, or a display
// name. Matching is case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range AllStrategies {
		if n == strings.ToLower(s.DisplayName()) {
			return s, nil
		}
	}
	if n == "random" {
		return Random, nil
	}
	ss, err := search.ParseStrategy(n)
	if err != nil {
		return 0, err
	}
	return fromSearch(ss), nil
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Strategy) searchStrategy() (search.Strategy, bool) {
	switch s {
	case Minimax:
		return search.StrategyMinimax, true
	case AlphaBeta:
		return search.StrategyAlphaBeta, true
	case IterativeDeepening:
		return search.StrategyIterativeDeepening, true
	}
	return 0, false
}

func fromSearch(s search.Strategy) Strategy {
	switch s {
	case search.StrategyMinimax:
		return Minimax
	case search.StrategyAlphaBeta:
		return AlphaBeta
	}
	return IterativeDeepening
}

// Player is a strategy together with the limits of its search.
type Player struct {
	Strategy  Strategy `json:"strategy" yaml:"strategy"`
	MaxDepth  int      `json:"max_depth" yaml:"max_depth"`
	MaxTimeMS int      `json:"max_time_ms" yaml:"max_time_ms"`
}

func (p Player) SearchConfig() search.Config {
	return search.Config{MaxDepth: p.MaxDepth, MaxTimeMS: p.MaxTimeMS}
}

func (p Player) String() string {
	switch p.Strategy {
	case Random:
		return "random"
	case IterativeDeepening:
		return fmt.Sprintf("%s(d=%d t=%dms)", p.Strategy, p.MaxDepth, p.MaxTimeMS)
	}
	return fmt.Sprintf("%s(d=%d)", p.Strategy, p.MaxDepth)
}

// Decision is the outcome of one SelectMove call.
type Decision struct {
	Move           int      `json:"col"`
	Value          float64  `json:"-"`
	NodesVisited   uint64   `json:"nodes_visited"`
	PrunedBranches uint64   `json:"pruned_branches"`
	DepthReached   int      `json:"depth_reached"`
	Strategy       Strategy `json:"strategy"`
}

// Selector chooses moves. It keeps no state between calls and is safe
// for concurrent use.
type Selector struct {
	solver *search.Solver
}

// NewSelector creates a selector that scores positions with e.
func NewSelector(e equity.Evaluator) *Selector {
	return &Selector{solver: search.NewSolver(e)}
}

var defaultSelector = NewSelector(equity.NewStaticEvaluator())

// SelectMove chooses a column for stm using the default evaluator.
func SelectMove(ctx context.Context, b board.Board, stm board.Cell, p Player) (*Decision, error) {
	return defaultSelector.SelectMove(ctx, b, stm, p)
}

// SelectMove validates p, then picks a column for stm. A board without
// legal moves yields ErrNoLegalMove; the selector never invents a column.
func (s *Selector) SelectMove(ctx context.Context, b board.Board, stm board.Cell,
	p Player) (*Decision, error) {

	if err := p.SearchConfig().Validate(); err != nil {
		return nil, err
	}
	if !stm.Valid() {
		return nil, fmt.Errorf("%w: %d", board.ErrInvalidPlayer, stm)
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return nil, ErrNoLegalMove
	}

	if p.Strategy == Random {
		col := moves[frand.Intn(len(moves))]
		log.Debug().Int("move", col).Msg("random-move")
		return &Decision{Move: col, Strategy: Random}, nil
	}
	ss, ok := p.Strategy.searchStrategy()
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, p.Strategy)
	}
	res, err := s.solver.Solve(ctx, b, stm, ss, p.SearchConfig())
	if err != nil {
		return nil, err
	}
	return &Decision{
		Move:           res.Move,
		Value:          res.Value,
		NodesVisited:   res.Stats.NodesVisited,
		PrunedBranches: res.Stats.PrunedBranches,
		DepthReached:   res.Stats.DepthReached,
		Strategy:       p.Strategy,
	}, nil
}
