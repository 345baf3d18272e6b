// Command autoplay plays engine-vs-engine experiments and reports on the
// stored results.
//
//	autoplay [run] [experiment ...]   play the named experiments, or all of them
//	autoplay list                     list the known experiments
//	autoplay report [experiment ...]  summarize stored results and flag oddities
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/connectfour/automatic"
	"github.com/domino14/connectfour/config"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	cfg.AdjustRelativePaths(filepath.Dir(ex))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := cfg.Args()
	mode := "run"
	if len(args) > 0 && lo.Contains([]string{"run", "list", "report"}, args[0]) {
		mode, args = args[0], args[1:]
	}
	switch mode {
	case "list":
		err = list(cfg)
	case "report":
		err = report(ctx, cfg, args)
	default:
		err = run(ctx, cfg, args)
	}
	if err != nil {
		log.Fatal().Err(err).Msg(mode)
	}
}

func selectExperiments(cfg *config.Config, names []string) ([]automatic.Experiment, error) {
	exps, err := automatic.LoadExperimentsOrDefault(cfg.GetString(config.ConfigExperimentsFile))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return exps, nil
	}
	selected := make([]automatic.Experiment, 0, len(names))
	for _, n := range names {
		e, err := automatic.FindExperiment(exps, n)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}
	return selected, nil
}

func list(cfg *config.Config) error {
	exps, err := selectExperiments(cfg, nil)
	if err != nil {
		return err
	}
	for _, e := range exps {
		fmt.Printf("%-32s %3d games  %v vs %v\n", e.Name, e.Games, e.Player1, e.Player2)
	}
	return nil
}

// run plays each experiment in turn. Moves are logged as CSV next to the
// results database, one file per experiment.
func run(ctx context.Context, cfg *config.Config, names []string) error {
	exps, err := selectExperiments(cfg, names)
	if err != nil {
		return err
	}
	dbPath := cfg.GetString(config.ConfigResultsDB)
	store, err := automatic.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var summaries []automatic.Summary
	for _, exp := range exps {
		s, err := runOne(ctx, cfg, store, filepath.Dir(dbPath), exp)
		if errors.Is(err, context.Canceled) {
			log.Info().Str("experiment", exp.Name).Msg("interrupted")
			break
		}
		if err != nil {
			return err
		}
		summaries = append(summaries, *s)
	}
	fmt.Print(automatic.Report(summaries))
	return nil
}

func runOne(ctx context.Context, cfg *config.Config, store *automatic.Store, dir string,
	exp automatic.Experiment) (*automatic.Summary, error) {

	f, err := os.Create(filepath.Join(dir, exp.Name+"-moves.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	return automatic.RunExperiment(ctx, exp, automatic.RunOptions{
		Threads: cfg.GetInt(config.ConfigAutoplayThreads),
		Store:   store,
		MoveLog: w,
	})
}

func report(ctx context.Context, cfg *config.Config, names []string) error {
	store, err := automatic.OpenStore(cfg.GetString(config.ConfigResultsDB))
	if err != nil {
		return err
	}
	defer store.Close()
	summaries, err := store.Summaries(ctx)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		summaries = lo.Filter(summaries, func(s automatic.Summary, _ int) bool {
			return lo.Contains(names, s.Experiment)
		})
	}
	if len(summaries) == 0 {
		fmt.Println("No results.")
		return nil
	}
	fmt.Print(automatic.Report(summaries))
	return nil
}
