package bot

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/domino14/connectfour/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.ParseBoard(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSelectMoveReportsDiagnostics(t *testing.T) {
	is := is.New(t)
	b := board.NewBoard()
	for _, strat := range []Strategy{Minimax, AlphaBeta, IterativeDeepening} {
		d, err := SelectMove(context.Background(), b, board.P1,
			Player{Strategy: strat, MaxDepth: 4})
		is.NoErr(err)
		is.Equal(d.Move, 3)
		is.Equal(d.Strategy, strat)
		is.Equal(d.DepthReached, 4)
		is.True(d.NodesVisited > 0)
	}
}

func TestSelectMovePruningCountsOnlyForAlphaBeta(t *testing.T) {
	is := is.New(t)
	b := board.NewBoard()
	mm, err := SelectMove(context.Background(), b, board.P1, Player{Strategy: Minimax, MaxDepth: 3})
	is.NoErr(err)
	ab, err := SelectMove(context.Background(), b, board.P1, Player{Strategy: AlphaBeta, MaxDepth: 3})
	is.NoErr(err)
	is.Equal(mm.PrunedBranches, uint64(0))
	is.True(ab.PrunedBranches > 0)
	is.True(ab.NodesVisited < mm.NodesVisited)
}

func TestSelectMoveRandom(t *testing.T) {
	is := is.New(t)
	b := mustParse(t, "2100000;1200000;2100000;1200000;2100000;1200000")
	for i := 0; i < 50; i++ {
		d, err := SelectMove(context.Background(), b, board.P1, Player{Strategy: Random, MaxDepth: 1})
		is.NoErr(err)
		is.True(b.IsLegal(d.Move))
		is.Equal(d.NodesVisited, uint64(0))
	}
}

func TestSelectMoveNoLegalMove(t *testing.T) {
	is := is.New(t)
	full := mustParse(t, "1122112;2211221;1122112;2211221;1122112;2211221")
	for _, strat := range AllStrategies {
		d, err := SelectMove(context.Background(), full, board.P1, Player{Strategy: strat, MaxDepth: 2})
		is.True(errors.Is(err, ErrNoLegalMove))
		is.True(d == nil)
	}
}

func TestSelectMoveInvalidConfig(t *testing.T) {
	is := is.New(t)
	b := board.NewBoard()
	for _, p := range []Player{
		{Strategy: AlphaBeta, MaxDepth: 0},
		{Strategy: IterativeDeepening, MaxDepth: 3, MaxTimeMS: -5},
		{Strategy: Random, MaxDepth: 0},
		{Strategy: Strategy(42), MaxDepth: 2},
	} {
		_, err := SelectMove(context.Background(), b, board.P1, p)
		is.True(errors.Is(err, ErrInvalidConfig))
	}
	_, err := SelectMove(context.Background(), b, board.Cell(3), Player{Strategy: Minimax, MaxDepth: 1})
	is.True(errors.Is(err, board.ErrInvalidPlayer))
}

func TestParseStrategy(t *testing.T) {
	is := is.New(t)
	type tc struct {
		name string
		want Strategy
	}
	for _, c := range []tc{
		{"minimax", Minimax},
		{"AI_Minimax", Minimax},
		{"alphabeta", AlphaBeta},
		{"alpha-beta", AlphaBeta},
		{"ai_alphabeta", AlphaBeta},
		{"id", IterativeDeepening},
		{"iterative-deepening", IterativeDeepening},
		{"AI_IterativeDeepening", IterativeDeepening},
		{"Random", Random},
		{"AI_Random", Random},
	} {
		got, err := ParseStrategy(c.name)
		is.NoErr(err)
		is.Equal(got, c.want)
	}
	_, err := ParseStrategy("negamax")
	is.True(err != nil)
}

func TestPlayerFromYAML(t *testing.T) {
	is := is.New(t)
	var p Player
	err := yaml.Unmarshal([]byte("strategy: AI_IterativeDeepening\nmax_depth: 10\nmax_time_ms: 1000\n"), &p)
	is.NoErr(err)
	is.Equal(p, Player{Strategy: IterativeDeepening, MaxDepth: 10, MaxTimeMS: 1000})
	is.Equal(p.String(), "iterative-deepening(d=10 t=1000ms)")
}
