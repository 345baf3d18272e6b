package search

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
	"github.com/domino14/connectfour/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const (
	emptyBoard = "0000000;0000000;0000000;0000000;0000000;0000000"
	midgame    = "0000000;0000000;0000000;0012000;0122100;1221210"
	// P1 has three in column 0 and is to move.
	p1WinsInOne = "0000000;0000000;0000000;1000000;1200000;1220000"
	// P2 threatens column 6; P1 is to move.
	mustBlock = "0000000;0000000;0000000;0000002;0000002;1010102"
	// Only column 6 is open; P2 is to move.
	oneMoveLeft = "1122110;2211221;1122112;2211221;1122112;2211221"
)

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.ParseBoard(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newSolver() *Solver {
	return NewSolver(equity.NewStaticEvaluator())
}

func TestMinimaxAndAlphaBetaAgree(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	for _, pos := range []string{emptyBoard, midgame, p1WinsInOne, mustBlock} {
		b := mustParse(t, pos)
		stm := b.SideToMove()
		for depth := 1; depth <= 5; depth++ {
			mm, err := s.Minimax(b, stm, depth)
			is.NoErr(err)
			ab, err := s.AlphaBeta(b, stm, depth)
			is.NoErr(err)
			is.Equal(mm.Move, ab.Move)   // same move
			is.Equal(mm.Value, ab.Value) // same value
			is.True(ab.Stats.NodesVisited <= mm.Stats.NodesVisited)
			is.Equal(mm.Stats.PrunedBranches, uint64(0))
			if depth >= 3 && pos == emptyBoard {
				is.True(ab.Stats.NodesVisited < mm.Stats.NodesVisited)
				is.True(ab.Stats.PrunedBranches > 0)
			}
		}
	}
}

func TestMinimaxAndAlphaBetaAgreeAscending(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	s.SetSortingParameter(movegen.SortByNone)
	b := mustParse(t, midgame)
	for depth := 1; depth <= 5; depth++ {
		mm, err := s.Minimax(b, board.P1, depth)
		is.NoErr(err)
		ab, err := s.AlphaBeta(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(mm.Move, ab.Move)
		is.Equal(mm.Value, ab.Value)
	}
}

func TestMinimaxNodeCount(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, emptyBoard)
	res, err := s.Minimax(b, board.P1, 3)
	is.NoErr(err)
	// one count per recursive call below the root
	is.Equal(res.Stats.NodesVisited, uint64(7+49+343))
	is.Equal(res.Stats.DepthReached, 3)
}

func TestAlphaBetaPrefersCenterOnEmptyBoard(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	res, err := s.AlphaBeta(mustParse(t, emptyBoard), board.P1, 4)
	is.NoErr(err)
	is.Equal(res.Move, 3)
	is.Equal(res.Strategy, StrategyAlphaBeta)
}

func TestCenterBreaksOpeningTies(t *testing.T) {
	is := is.New(t)
	b := mustParse(t, emptyBoard)
	// Columns 2, 3 and 4 score the same at these depths, so the order
	// decides. Ascending order keeps column 2.
	for depth := 3; depth <= 4; depth++ {
		s := newSolver()
		mm, err := s.Minimax(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(mm.Move, 3)
		ab, err := s.AlphaBeta(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(ab.Move, 3)
		is.Equal(ab.Value, mm.Value)

		s.SetSortingParameter(movegen.SortByNone)
		asc, err := s.AlphaBeta(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(asc.Move, 2)
		is.Equal(asc.Value, ab.Value)
	}
}

func TestTakesImmediateWin(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, p1WinsInOne)
	for depth := 1; depth <= 3; depth++ {
		res, err := s.AlphaBeta(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(res.Move, 0)
		is.Equal(res.Value, Win)
	}
	res, err := s.IterativeDeepening(context.Background(), b, board.P1, Config{MaxDepth: 1})
	is.NoErr(err)
	is.Equal(res.Move, 0)
	is.Equal(res.Value, Win)
}

func TestBlocksThreat(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, mustBlock)
	for depth := 2; depth <= 4; depth++ {
		res, err := s.AlphaBeta(b, board.P1, depth)
		is.NoErr(err)
		is.Equal(res.Move, 6)
	}
}

func TestSingleLegalMove(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, oneMoveLeft)
	is.Equal(b.LegalMoves(), []int{6})
	for _, strat := range []Strategy{StrategyMinimax, StrategyAlphaBeta, StrategyIterativeDeepening} {
		res, err := s.Solve(context.Background(), b, board.P2, strat, Config{MaxDepth: 1, MaxTimeMS: 0})
		is.NoErr(err)
		is.Equal(res.Move, 6)
	}
}

func TestForcedLossStillReturnsAMove(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	// P2 threatens columns 0 and 6; whatever P1 does, P2 wins.
	b := mustParse(t, "0000000;0000000;0000000;2000002;2000002;2101012")
	res, err := s.AlphaBeta(b, board.P1, 2)
	is.NoErr(err)
	is.True(b.IsLegal(res.Move))
	is.Equal(res.Value, Loss)
	// every move loses, so the first one in order is kept
	is.Equal(res.Move, 3)
}

func TestNoLegalMove(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	full := mustParse(t, "1122112;2211221;1122112;2211221;1122112;2211221")
	for _, strat := range []Strategy{StrategyMinimax, StrategyAlphaBeta, StrategyIterativeDeepening} {
		res, err := s.Solve(context.Background(), full, board.P1, strat, Config{MaxDepth: 3})
		is.True(errors.Is(err, ErrNoLegalMove))
		is.True(res == nil)
	}
}

func TestInvalidConfig(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, emptyBoard)
	for _, cfg := range []Config{{MaxDepth: 0}, {MaxDepth: -2}, {MaxDepth: 3, MaxTimeMS: -1}} {
		res, err := s.Solve(context.Background(), b, board.P1, StrategyIterativeDeepening, cfg)
		is.True(errors.Is(err, ErrInvalidConfig))
		is.True(res == nil)
	}
	_, err := s.Minimax(b, board.P1, 0)
	is.True(errors.Is(err, ErrInvalidConfig))
	_, err = s.AlphaBeta(b, board.Empty, 2)
	is.True(errors.Is(err, board.ErrInvalidPlayer))
}

func TestIterativeDeepeningMatchesAlphaBeta(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	ab := newSolver()
	for _, pos := range []string{emptyBoard, midgame, mustBlock} {
		b := mustParse(t, pos)
		stm := b.SideToMove()
		for depth := 1; depth <= 5; depth++ {
			id, err := s.IterativeDeepening(context.Background(), b, stm, Config{MaxDepth: depth})
			is.NoErr(err)
			want, err := ab.AlphaBeta(b, stm, depth)
			is.NoErr(err)
			is.Equal(id.Move, want.Move)
			is.Equal(id.Value, want.Value)
			is.Equal(id.Stats.DepthReached, depth)
			// counters accumulate over every completed depth
			is.True(id.Stats.NodesVisited >= want.Stats.NodesVisited)
		}
	}
}

func TestIterativeDeepeningAlwaysCompletesDepthOne(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.IterativeDeepening(ctx, mustParse(t, emptyBoard), board.P1, Config{MaxDepth: 8})
	is.NoErr(err)
	is.Equal(res.Stats.DepthReached, 1)
	is.Equal(res.Move, 3)
	is.Equal(res.Stats.NodesVisited, uint64(7))
}

func TestIterativeDeepeningTimeBudget(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, emptyBoard)
	res, err := s.IterativeDeepening(context.Background(), b, board.P1, Config{MaxDepth: 42, MaxTimeMS: 20})
	is.NoErr(err)
	is.True(b.IsLegal(res.Move))
	is.True(res.Stats.DepthReached >= 1)
	is.True(res.Stats.DepthReached < 42)
}

// cancellingEvaluator cancels a context once it has been called more
// than after times.
type cancellingEvaluator struct {
	equity.Evaluator
	calls  int
	after  int
	cancel context.CancelFunc
}

func (e *cancellingEvaluator) Evaluate(b board.Board, p board.Cell) float64 {
	e.calls++
	if e.calls > e.after {
		e.cancel()
	}
	return e.Evaluator.Evaluate(b, p)
}

// cornerEvaluator only cares about who holds the bottom cell of
// column 0.
type cornerEvaluator struct{}

func (cornerEvaluator) Evaluate(b board.Board, p board.Cell) float64 {
	switch b.At(board.Rows-1, 0) {
	case p:
		return 1
	case p.Other():
		return -1
	}
	return 0
}

func TestIterativeDeepeningKeepsCountersOfAbandonedDepth(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Depth 1 evaluates 7 leaves and prefers column 0, worth 1. The first
	// leaf of depth 2 cancels; the first root child (column 3, worth -1
	// after P2 takes the corner) still finishes, then depth 2 is
	// abandoned before the second root child.
	ev := &cancellingEvaluator{Evaluator: cornerEvaluator{}, after: 7, cancel: cancel}
	s := NewSolver(ev)
	res, err := s.IterativeDeepening(ctx, mustParse(t, emptyBoard), board.P1, Config{MaxDepth: 5})
	is.NoErr(err)
	is.Equal(res.Stats.DepthReached, 1)
	is.Equal(res.Move, 0)    // depth 1's move, not the partial depth's column 3
	is.Equal(res.Value, 1.0) // depth 1's value, not -1
	// 7 nodes for depth 1, plus the abandoned depth's root child and its
	// 7 replies.
	is.Equal(res.Stats.NodesVisited, uint64(7+1+7))
}

func TestConcurrentDecisionsAreIndependent(t *testing.T) {
	is := is.New(t)
	s := newSolver()
	b := mustParse(t, midgame)
	want, err := s.AlphaBeta(b, board.P1, 4)
	is.NoErr(err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.AlphaBeta(b, board.P1, 4)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		is.Equal(*r, *want)
	}
}

func TestParseStrategy(t *testing.T) {
	is := is.New(t)
	for _, strat := range []Strategy{StrategyMinimax, StrategyAlphaBeta, StrategyIterativeDeepening} {
		got, err := ParseStrategy(strat.String())
		is.NoErr(err)
		is.Equal(got, strat)
	}
	_, err := ParseStrategy("mcts")
	is.True(err != nil)
}
