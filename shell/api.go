package shell

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/connectfour/automatic"
	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/search"
)

//go:embed helptext
var helptext embed.FS

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = cmd.args[0]
	}
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return nil, fmt.Errorf("there is no help text for the topic %v", topic)
	}
	return msg(string(dat)), nil
}

func (sc *ShellController) gameText() string {
	b := *sc.game
	var sb strings.Builder
	sb.WriteString(b.ToDisplayText())
	over, winner := b.Terminal()
	switch {
	case over && winner == board.Empty:
		sb.WriteString("Game over: draw.")
	case over:
		fmt.Fprintf(&sb, "Game over: %v wins.", winner)
	default:
		fmt.Fprintf(&sb, "%v to move. Engine: %v", b.SideToMove(), sc.player)
		if sc.autoreply {
			fmt.Fprintf(&sb, ", replying to %v", sc.humanSide)
		}
	}
	return sb.String()
}

func (sc *ShellController) setBoard(b board.Board) {
	sc.game = &b
	sc.history = nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.humanSide = board.P1
	if len(cmd.args) > 0 {
		side, err := strconv.Atoi(cmd.args[0])
		if err != nil || !board.Cell(side).Valid() {
			return nil, errors.New("usage: new [1|2]")
		}
		sc.humanSide = board.Cell(side)
	}
	sc.setBoard(board.NewBoard())
	if sc.autoreply && sc.humanSide == board.P2 {
		return sc.engineMove()
	}
	return msg(sc.gameText()), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: load <board>")
	}
	b, err := board.ParseBoard(strings.Join(cmd.args, ";"))
	if err != nil {
		return nil, err
	}
	sc.setBoard(b)
	return msg(sc.gameText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) > 0 && cmd.args[0] == "compact" {
		return msg(sc.game.String()), nil
	}
	return msg(sc.gameText()), nil
}

// commit plays col for the side to move and remembers the previous
// position for undo.
func (sc *ShellController) commit(col int) error {
	if over, _ := sc.game.Terminal(); over {
		return errGameOver
	}
	nb, err := sc.game.Play(col, sc.game.SideToMove())
	if err != nil {
		return err
	}
	sc.history = append(sc.history, *sc.game)
	sc.game = &nb
	return nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <column>")
	}
	col, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, fmt.Errorf("column must be a number from 0 to %d", board.Cols-1)
	}
	if err := sc.commit(col); err != nil {
		return nil, err
	}
	if over, _ := sc.game.Terminal(); !over && sc.autoreply && sc.game.SideToMove() != sc.humanSide {
		return sc.engineMove()
	}
	return msg(sc.gameText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	n := 1
	if sc.autoreply && len(sc.history) >= 2 {
		// take back the engine's reply as well
		n = 2
	}
	if len(sc.history) < n {
		return nil, errors.New("nothing to undo")
	}
	prev := sc.history[len(sc.history)-n]
	sc.history = sc.history[:len(sc.history)-n]
	sc.game = &prev
	return msg(sc.gameText()), nil
}

func (sc *ShellController) decide(player bot.Player) (*bot.Decision, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return sc.selector.SelectMove(ctx, *sc.game, sc.game.SideToMove(), player)
}

func decisionText(d *bot.Decision) string {
	return fmt.Sprintf("%v chose column %d (value %v, nodes %d, pruned %d, depth %d)",
		d.Strategy, d.Move, formatValue(d.Value), d.NodesVisited, d.PrunedBranches, d.DepthReached)
}

func formatValue(v float64) string {
	switch v {
	case search.Win:
		return "win"
	case search.Loss:
		return "loss"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (sc *ShellController) engineMove() (*Response, error) {
	if over, _ := sc.game.Terminal(); over {
		return nil, errGameOver
	}
	d, err := sc.decide(sc.player)
	if err != nil {
		return nil, err
	}
	if err := sc.commit(d.Move); err != nil {
		return nil, err
	}
	return msg(decisionText(d) + "\n" + sc.gameText()), nil
}

func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return sc.engineMove()
}

// solve shows what the engine would play without playing it. Options
// override the current settings for this one decision.
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	p := sc.player
	var err error
	if s, ok := cmd.options["strategy"]; ok {
		if p.Strategy, err = bot.ParseStrategy(s); err != nil {
			return nil, err
		}
	}
	if p.MaxDepth, err = cmd.intOption("depth", p.MaxDepth); err != nil {
		return nil, err
	}
	if p.MaxTimeMS, err = cmd.intOption("time", p.MaxTimeMS); err != nil {
		return nil, err
	}
	d, err := sc.decide(p)
	if err != nil {
		return nil, err
	}
	return msg(decisionText(d)), nil
}

func (sc *ShellController) settingsText() string {
	var sb strings.Builder
	sb.WriteString("Settings:\n")
	fmt.Fprintf(&sb, "  strategy: %v\n", sc.player.Strategy)
	fmt.Fprintf(&sb, "  depth: %d\n", sc.player.MaxDepth)
	fmt.Fprintf(&sb, "  time: %d\n", sc.player.MaxTimeMS)
	fmt.Fprintf(&sb, "  autoreply: %v\n", sc.autoreply)
	return sb.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.settingsText()), nil
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: set <strategy|depth|time> <value>")
	}
	opt, val := cmd.args[0], cmd.args[1]
	p := sc.player
	var err error
	switch opt {
	case "strategy":
		p.Strategy, err = bot.ParseStrategy(val)
	case "depth":
		p.MaxDepth, err = strconv.Atoi(val)
	case "time":
		p.MaxTimeMS, err = strconv.Atoi(val)
	default:
		return nil, fmt.Errorf("no such option: %v", opt)
	}
	if err != nil {
		return nil, err
	}
	if err := p.SearchConfig().Validate(); err != nil {
		return nil, err
	}
	sc.player = p
	return msg("set " + opt + " to " + val), nil
}

func (sc *ShellController) setAutoreply(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 || (cmd.args[0] != "on" && cmd.args[0] != "off") {
		return nil, errors.New("usage: autoreply <on|off>")
	}
	sc.autoreply = cmd.args[0] == "on"
	if sc.game != nil {
		sc.humanSide = sc.game.SideToMove()
	}
	return msg("autoreply " + cmd.args[0]), nil
}

func (sc *ShellController) openStore() (*automatic.Store, error) {
	path := sc.config.GetString(config.ConfigResultsDB)
	if path == "" {
		return nil, nil
	}
	return automatic.OpenStore(path)
}

// autoplay runs one experiment to completion and shows its summary.
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	exps, err := automatic.LoadExperimentsOrDefault(sc.config.GetString(config.ConfigExperimentsFile))
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		names := lo.Map(exps, func(e automatic.Experiment, _ int) string { return e.Name })
		return nil, fmt.Errorf("usage: autoplay <experiment> [-games n] [-threads n]; experiments: %s",
			strings.Join(names, ", "))
	}
	exp, err := automatic.FindExperiment(exps, cmd.args[0])
	if err != nil {
		return nil, err
	}
	if exp.Games, err = cmd.intOption("games", exp.Games); err != nil {
		return nil, err
	}
	threads, err := cmd.intOption("threads", sc.config.GetInt(config.ConfigAutoplayThreads))
	if err != nil {
		return nil, err
	}
	store, err := sc.openStore()
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := automatic.RunExperiment(ctx, exp, automatic.RunOptions{
		Threads:  threads,
		Store:    store,
		Selector: sc.selector,
	})
	if err != nil {
		return nil, err
	}
	return msg(summary.ToDisplayText()), nil
}

// results reports on the experiments stored in the results database.
func (sc *ShellController) results(cmd *shellcmd) (*Response, error) {
	store, err := sc.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("no results database configured")
	}
	defer store.Close()

	ctx := context.Background()
	summaries, err := store.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	if len(cmd.args) > 0 {
		summaries = lo.Filter(summaries, func(s automatic.Summary, _ int) bool {
			return lo.Contains(cmd.args, s.Experiment)
		})
	}
	if len(summaries) == 0 {
		return msg("No results."), nil
	}
	log.Debug().Int("experiments", len(summaries)).Msg("reporting-results")
	return msg(automatic.Report(summaries)), nil
}
