package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/search"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetBool(ConfigDebug), false)
	is.Equal(cfg.GetString(ConfigListenAddr), ":5001")
	is.Equal(cfg.SearchConfig(), search.Config{MaxDepth: 5, MaxTimeMS: 2000})

	p, err := cfg.Player()
	is.NoErr(err)
	is.Equal(p, bot.Player{Strategy: bot.IterativeDeepening, MaxDepth: 5, MaxTimeMS: 2000})
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("CONNECTFOUR_MAX_DEPTH", "7")
	t.Setenv("CONNECTFOUR_STRATEGY", "minimax")

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--strategy", "alphabeta", "--debug"}))
	is.Equal(cfg.GetInt(ConfigMaxDepth), 7) // from the environment
	is.Equal(cfg.GetString(ConfigStrategy), "alphabeta")
	is.True(cfg.GetBool(ConfigDebug))
}

func TestBadStrategy(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--strategy=mcts"}))
	_, err := cfg.Player()
	is.True(err != nil)
}

func TestInvalidSearchLimits(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--max-depth=0"}))
	_, err := cfg.Player()
	is.True(errors.Is(err, search.ErrInvalidConfig))
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.Set(ConfigExperimentsFile, "/etc/experiments.yaml")
	cfg.AdjustRelativePaths("/opt/connectfour")
	is.Equal(cfg.GetString(ConfigResultsDB), filepath.Join("/opt/connectfour", "data/results.db"))
	is.Equal(cfg.GetString(ConfigExperimentsFile), "/etc/experiments.yaml")
}

func TestPositionalArgs(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"run", "--max-depth", "3", "exp-a", "exp-b"}))
	is.Equal(cfg.Args(), []string{"run", "exp-a", "exp-b"})
	is.Equal(cfg.GetInt(ConfigMaxDepth), 3)
}
