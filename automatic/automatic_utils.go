package automatic

// Data collection for automatic games: computer vs computer matches run
// in parallel, one game per worker at a time.

import (
	"context"
	"errors"
	"expvar"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/equity"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// MoveLogHeader is the first line written to an experiment's move log.
const MoveLogHeader = "gameID,ply,player,strategy,col,elapsedms,nodes,pruned,depth\n"

// RunOptions control how an experiment is played.
type RunOptions struct {
	// Threads is the number of games played at once; less than 1 means 1.
	Threads int
	// Store, if set, receives every finished game.
	Store *Store
	// MoveLog, if set, receives a CSV line per move.
	MoveLog io.Writer
	// Selector defaults to one using the static evaluator.
	Selector *bot.Selector
}

// RunExperiment plays every game of exp and returns the summary. Games
// run in parallel; the first error (including ctx ending) stops the
// experiment.
func RunExperiment(ctx context.Context, exp Experiment, opts RunOptions) (*Summary, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	threads := max(opts.Threads, 1)
	selector := opts.Selector
	if selector == nil {
		selector = bot.NewSelector(equity.NewStaticEvaluator())
	}
	log.Info().Str("experiment", exp.Name).Int("games", exp.Games).Int("threads", threads).
		Str("player1", exp.Player1.String()).Str("player2", exp.Player2.String()).
		Msg("starting-experiment")

	var logChan chan string
	var logDone chan struct{}
	if opts.MoveLog != nil {
		logChan = make(chan string, 100)
		logDone = make(chan struct{})
		go func() {
			defer close(logDone)
			io.WriteString(opts.MoveLog, MoveLogHeader)
			for msg := range logChan {
				io.WriteString(opts.MoveLog, msg)
			}
		}()
	}

	var mu sync.Mutex
	records := make([]*GameRecord, exp.Games)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := 0; i < exp.Games; i++ {
		i := i
		g.Go(func() error {
			firstMover := i % 2
			first, second := exp.Player1, exp.Player2
			if firstMover == 1 {
				first, second = second, first
			}
			id := uuid.New()
			r := NewGameRunner(selector, first, second)
			if logChan != nil {
				r.SetLogChannel(logChan, id.String())
			}
			game, err := r.PlayGame(gctx)
			if err != nil {
				return err
			}
			full := newGameRecord(id, exp, firstMover, game)
			if opts.Store != nil {
				if err := opts.Store.SaveGame(gctx, full); err != nil {
					return err
				}
			}
			mu.Lock()
			records[i] = full
			mu.Unlock()
			CVCCounter.Add(1)
			log.Debug().Str("experiment", exp.Name).Int("game", i).Int("winner", full.Winner).
				Int("moves", len(full.Moves)).Msg("game-finished")
			return nil
		})
	}
	err := g.Wait()
	if logChan != nil {
		close(logChan)
		<-logDone
	}
	if err != nil {
		return nil, err
	}

	summary := Summarize(exp.Name, [2]bot.Player{exp.Player1, exp.Player2}, records)
	log.Info().Str("experiment", exp.Name).
		Int("player1-wins", summary.Sides[0].Wins).
		Int("player2-wins", summary.Sides[1].Wins).
		Int("draws", summary.Draws).
		Msg("experiment-finished")
	return &summary, nil
}
