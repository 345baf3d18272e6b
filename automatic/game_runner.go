// Package automatic plays computer-vs-computer games and collects the
// numbers needed to compare search strategies against each other.
package automatic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
)

const (
	// MaxMoves is the number of cells on the board.
	MaxMoves = board.Rows * board.Cols
	// SlowMoveWarning is how long a single decision may take before the
	// runner logs a warning.
	SlowMoveWarning = 15 * time.Second
)

// MoveRecord is one decision made during a game.
type MoveRecord struct {
	Ply       int
	Player    board.Cell
	Col       int
	ElapsedMS float64
	Nodes     uint64
	Pruned    uint64
	Depth     int
	// Fallback is set when the engine failed and the first legal column
	// was played instead.
	Fallback bool
}

// Game is a finished game, seen from the seats: players[0] of the
// runner moved as P1.
type Game struct {
	Board  board.Board
	Winner board.Cell
	// Forfeit is set when the loser tried to play an illegal column.
	Forfeit bool
	Moves   []MoveRecord
}

// MoveChooser picks a column for stm. *bot.Selector is the one used
// outside of tests.
type MoveChooser interface {
	SelectMove(ctx context.Context, b board.Board, stm board.Cell, p bot.Player) (*bot.Decision, error)
}

// GameRunner plays full games between two players.
type GameRunner struct {
	selector MoveChooser
	players  [2]bot.Player
	logchan  chan string
	gameID   string
}

// NewGameRunner creates a runner where first moves as P1.
func NewGameRunner(selector MoveChooser, first, second bot.Player) *GameRunner {
	return &GameRunner{selector: selector, players: [2]bot.Player{first, second}}
}

// SetLogChannel makes the runner send a CSV line per move to logchan,
// tagged with gameID.
func (r *GameRunner) SetLogChannel(logchan chan string, gameID string) {
	r.logchan = logchan
	r.gameID = gameID
}

func seat(p board.Cell) int {
	if p == board.P2 {
		return 1
	}
	return 0
}

// PlayGame plays from the empty board until someone connects four or the
// board fills up. It returns early only if ctx is done or a player is
// misconfigured.
func (r *GameRunner) PlayGame(ctx context.Context) (*Game, error) {
	g := &Game{Board: board.NewBoard(), Winner: board.Empty}
	turn := board.P1
	for ply := 0; ply < MaxMoves; ply++ {
		if over, winner := g.Board.Terminal(); over {
			g.Winner = winner
			return g, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.decide(ctx, g.Board, turn, ply)
		if err != nil {
			return nil, err
		}
		nb, err := g.Board.Play(rec.Col, turn)
		if err != nil {
			log.Debug().Err(err).Int("col", rec.Col).Str("player", turn.String()).Msg("illegal-move-forfeit")
			g.Winner = turn.Other()
			g.Forfeit = true
			return g, nil
		}
		g.Board = nb
		g.Moves = append(g.Moves, rec)
		r.logMove(rec)
		turn = turn.Other()
	}
	_, g.Winner = g.Board.Terminal()
	return g, nil
}

func (r *GameRunner) decide(ctx context.Context, b board.Board, turn board.Cell, ply int) (MoveRecord, error) {
	p := r.players[seat(turn)]
	rec := MoveRecord{Ply: ply, Player: turn}
	tstart := time.Now()
	d, err := r.selector.SelectMove(ctx, b, turn, p)
	elapsed := time.Since(tstart)
	rec.ElapsedMS = float64(elapsed.Microseconds()) / 1000
	if elapsed > SlowMoveWarning {
		log.Warn().Str("player", p.String()).Dur("elapsed", elapsed).Msg("slow-move")
	}

	switch {
	case errors.Is(err, bot.ErrInvalidConfig):
		return rec, fmt.Errorf("player %s: %w", p, err)
	case err != nil:
		legal := b.LegalMoves()
		if len(legal) == 0 {
			return rec, err
		}
		log.Warn().Err(err).Str("player", p.String()).Msg("engine-error-using-fallback")
		rec.Col = legal[0]
		rec.Fallback = true
		return rec, nil
	}
	rec.Col = d.Move
	rec.Nodes = d.NodesVisited
	rec.Pruned = d.PrunedBranches
	rec.Depth = d.DepthReached
	return rec, nil
}

func (r *GameRunner) logMove(rec MoveRecord) {
	if r.logchan == nil {
		return
	}
	r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%.3f,%v,%v,%v\n",
		r.gameID,
		rec.Ply,
		rec.Player,
		r.players[seat(rec.Player)],
		rec.Col,
		rec.ElapsedMS,
		rec.Nodes,
		rec.Pruned,
		rec.Depth)
}
