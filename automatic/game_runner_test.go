package automatic

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/equity"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var (
	abPlayer     = bot.Player{Strategy: bot.AlphaBeta, MaxDepth: 2}
	randomPlayer = bot.Player{Strategy: bot.Random, MaxDepth: 1}
)

func newSelector() *bot.Selector {
	return bot.NewSelector(equity.NewStaticEvaluator())
}

func TestPlayGame(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(newSelector(), abPlayer, randomPlayer)
	g, err := r.PlayGame(context.Background())
	is.NoErr(err)
	is.True(!g.Forfeit)

	over, winner := g.Board.Terminal()
	is.True(over)
	is.Equal(winner, g.Winner)
	is.Equal(g.Board.Count(), len(g.Moves))

	// replay the moves from the empty board
	b := board.NewBoard()
	for i, m := range g.Moves {
		is.Equal(m.Ply, i)
		if i%2 == 0 {
			is.Equal(m.Player, board.P1)
			is.True(m.Nodes > 0) // alpha-beta searched
		} else {
			is.Equal(m.Player, board.P2)
			is.Equal(m.Nodes, uint64(0)) // random did not
		}
		b, err = b.Play(m.Col, m.Player)
		is.NoErr(err)
	}
	is.Equal(b, g.Board)
}

func TestPlayGameLogsMoves(t *testing.T) {
	is := is.New(t)
	logchan := make(chan string, MaxMoves)
	r := NewGameRunner(newSelector(), randomPlayer, randomPlayer)
	r.SetLogChannel(logchan, "game-1")
	g, err := r.PlayGame(context.Background())
	is.NoErr(err)
	close(logchan)

	n := 0
	for line := range logchan {
		is.True(strings.HasPrefix(line, "game-1,"))
		is.Equal(len(strings.Split(strings.TrimSpace(line), ",")), 9)
		n++
	}
	is.Equal(n, len(g.Moves))
}

func TestPlayGameStopsWhenCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewGameRunner(newSelector(), abPlayer, randomPlayer)
	_, err := r.PlayGame(ctx)
	is.True(errors.Is(err, context.Canceled))
}

func TestPlayGameRejectsBadPlayer(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(newSelector(), bot.Player{Strategy: bot.Minimax}, randomPlayer)
	_, err := r.PlayGame(context.Background())
	is.True(errors.Is(err, bot.ErrInvalidConfig))
}

// seatTwoChooser lets the real selector move for P1 and answers for P2
// with a fixed column or error.
type seatTwoChooser struct {
	*bot.Selector
	col int
	err error
}

func (c *seatTwoChooser) SelectMove(ctx context.Context, b board.Board, stm board.Cell,
	p bot.Player) (*bot.Decision, error) {

	if stm == board.P1 {
		return c.Selector.SelectMove(ctx, b, stm, p)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &bot.Decision{Move: c.col, Strategy: p.Strategy}, nil
}

func TestPlayGameIllegalColumnForfeits(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(&seatTwoChooser{Selector: newSelector(), col: board.Cols}, abPlayer, abPlayer)
	g, err := r.PlayGame(context.Background())
	is.NoErr(err)
	is.True(g.Forfeit)
	is.Equal(g.Winner, board.P1)
	// only P1's opening move was played
	is.Equal(len(g.Moves), 1)
	is.Equal(g.Board.Count(), 1)
}

func TestPlayGameEngineErrorFallsBack(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(&seatTwoChooser{Selector: newSelector(), err: errors.New("engine crashed")},
		randomPlayer, abPlayer)
	g, err := r.PlayGame(context.Background())
	is.NoErr(err)
	is.True(!g.Forfeit)
	over, _ := g.Board.Terminal()
	is.True(over)

	b := board.NewBoard()
	for _, m := range g.Moves {
		if m.Player == board.P2 {
			is.True(m.Fallback)
			is.Equal(m.Col, b.LegalMoves()[0]) // first legal column
			is.Equal(m.Nodes, uint64(0))
		} else {
			is.True(!m.Fallback)
		}
		b, err = b.Play(m.Col, m.Player)
		is.NoErr(err)
	}
	is.Equal(b, g.Board)
}
