package automatic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/connectfour/bot"
)

// DefaultMaxDepth is used for a player whose depth is left out of an
// experiments file.
const DefaultMaxDepth = 5

var ErrBadExperiment = errors.New("bad experiment")

// Experiment is a match of Games games between two players. The first
// mover alternates: Player1 moves first in games 0, 2, 4 and so on.
type Experiment struct {
	Name    string     `yaml:"name"`
	Player1 bot.Player `yaml:"player1"`
	Player2 bot.Player `yaml:"player2"`
	Games   int        `yaml:"games"`
}

func (e Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: missing name", ErrBadExperiment)
	}
	if e.Games < 1 {
		return fmt.Errorf("%w: %s: games must be at least 1", ErrBadExperiment, e.Name)
	}
	for i, p := range []bot.Player{e.Player1, e.Player2} {
		if err := p.SearchConfig().Validate(); err != nil {
			return fmt.Errorf("%w: %s: player%d: %w", ErrBadExperiment, e.Name, i+1, err)
		}
	}
	return nil
}

type experimentsFile struct {
	Experiments []Experiment `yaml:"experiments"`
}

// LoadExperiments reads a YAML list of experiments:
//
//	experiments:
//	  - name: ab-vs-minimax-d4
//	    games: 8
//	    player1: {strategy: alphabeta, max_depth: 4}
//	    player2: {strategy: minimax, max_depth: 4}
func LoadExperiments(path string) ([]Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseExperiments(data)
}

// LoadExperimentsOrDefault is LoadExperiments, except that a missing file
// yields DefaultExperiments.
func LoadExperimentsOrDefault(path string) ([]Experiment, error) {
	exps, err := LoadExperiments(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("no-experiments-file-using-defaults")
		return DefaultExperiments(), nil
	}
	return exps, err
}

func ParseExperiments(data []byte) ([]Experiment, error) {
	var f experimentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadExperiment, err)
	}
	seen := map[string]bool{}
	for i := range f.Experiments {
		e := &f.Experiments[i]
		for _, p := range []*bot.Player{&e.Player1, &e.Player2} {
			if p.MaxDepth == 0 {
				p.MaxDepth = DefaultMaxDepth
			}
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrBadExperiment, e.Name)
		}
		seen[e.Name] = true
	}
	return f.Experiments, nil
}

// DefaultExperiments is the standard comparison suite: minimax against a
// random player, alpha-beta against minimax at equal depth, and
// iterative deepening against fixed-depth alpha-beta under a time limit.
func DefaultExperiments() []Experiment {
	var exps []Experiment
	random := bot.Player{Strategy: bot.Random, MaxDepth: 1}

	mmGames := map[int]int{2: 20, 3: 15, 4: 10, 5: 8}
	for depth := 2; depth <= 5; depth++ {
		exps = append(exps, Experiment{
			Name:    fmt.Sprintf("minimax-d%d-vs-random", depth),
			Player1: bot.Player{Strategy: bot.Minimax, MaxDepth: depth, MaxTimeMS: 3000},
			Player2: random,
			Games:   mmGames[depth],
		})
	}

	abGames := map[int]int{2: 15, 3: 10, 4: 8, 5: 6}
	for depth := 2; depth <= 5; depth++ {
		exps = append(exps, Experiment{
			Name:    fmt.Sprintf("alphabeta-vs-minimax-d%d", depth),
			Player1: bot.Player{Strategy: bot.AlphaBeta, MaxDepth: depth, MaxTimeMS: 3000},
			Player2: bot.Player{Strategy: bot.Minimax, MaxDepth: depth, MaxTimeMS: 3000},
			Games:   abGames[depth],
		})
	}

	for _, ms := range []int{1000, 2000} {
		exps = append(exps, Experiment{
			Name:    fmt.Sprintf("id-%dms-vs-alphabeta-d4", ms),
			Player1: bot.Player{Strategy: bot.IterativeDeepening, MaxDepth: 10, MaxTimeMS: ms},
			Player2: bot.Player{Strategy: bot.AlphaBeta, MaxDepth: 4, MaxTimeMS: ms},
			Games:   8,
		})
	}
	return exps
}

// FindExperiment returns the experiment called name.
func FindExperiment(exps []Experiment, name string) (Experiment, error) {
	for _, e := range exps {
		if e.Name == name {
			return e, nil
		}
	}
	return Experiment{}, fmt.Errorf("%w: no experiment named %q", ErrBadExperiment, name)
}
