package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/search"
)

const (
	ConfigDebug               = "debug"
	ConfigStrategy            = "strategy"
	ConfigMaxDepth            = "max-depth"
	ConfigMaxTimeMS           = "max-time-ms"
	ConfigListenAddr          = "listen-addr"
	ConfigHardTimeoutMarginMS = "hard-timeout-margin-ms"
	ConfigAutoplayThreads     = "autoplay-threads"
	ConfigResultsDB           = "results-db"
	ConfigExperimentsFile     = "experiments-file"
)

// Config is a viper instance with the connectfour defaults registered.
// Values come from, in order of precedence: command-line flags,
// CONNECTFOUR_* environment variables, and the defaults below.
type Config struct {
	*viper.Viper
	args []string
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigStrategy, bot.IterativeDeepening.String())
	c.SetDefault(ConfigMaxDepth, 5)
	c.SetDefault(ConfigMaxTimeMS, 2000)
	c.SetDefault(ConfigListenAddr, ":5001")
	c.SetDefault(ConfigHardTimeoutMarginMS, 200)
	c.SetDefault(ConfigAutoplayThreads, runtime.NumCPU())
	c.SetDefault(ConfigResultsDB, "./data/results.db")
	c.SetDefault(ConfigExperimentsFile, "./data/experiments.yaml")
}

// Load reads args (in --key value or --key=value form) and the
// environment on top of the defaults.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("connectfour", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigStrategy, bot.IterativeDeepening.String(), "search strategy (minimax, alphabeta, iterative-deepening, random)")
	fs.Int(ConfigMaxDepth, 5, "maximum search depth in plies")
	fs.Int(ConfigMaxTimeMS, 2000, "time budget per move for iterative deepening, 0 for none")
	fs.String(ConfigListenAddr, ":5001", "address for the move service")
	fs.Int(ConfigHardTimeoutMarginMS, 200, "extra time the move service allows before falling back")
	fs.Int(ConfigAutoplayThreads, runtime.NumCPU(), "number of games played in parallel")
	fs.String(ConfigResultsDB, "./data/results.db", "sqlite file for experiment results")
	fs.String(ConfigExperimentsFile, "./data/experiments.yaml", "experiment definitions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	// Only explicitly set flags override the environment.
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err == nil {
			err = c.BindPFlag(f.Name, f)
		}
	})
	if err != nil {
		return err
	}

	c.SetEnvPrefix("connectfour")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	return nil
}

// Args returns the positional arguments left over after the flags.
func (c *Config) Args() []string {
	return c.args
}

// AdjustRelativePaths makes the file settings absolute, relative to
// basePath.
func (c *Config) AdjustRelativePaths(basePath string) {
	for _, key := range []string{ConfigResultsDB, ConfigExperimentsFile} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basePath, p))
	}
}

// SanitizedSettings returns every setting, suitable for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// SearchConfig returns the search limits from the configuration.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		MaxDepth:  c.GetInt(ConfigMaxDepth),
		MaxTimeMS: c.GetInt(ConfigMaxTimeMS),
	}
}

// Player returns the configured strategy with its search limits.
func (c *Config) Player() (bot.Player, error) {
	strat, err := bot.ParseStrategy(c.GetString(ConfigStrategy))
	if err != nil {
		return bot.Player{}, fmt.Errorf("%s: %w", ConfigStrategy, err)
	}
	sc := c.SearchConfig()
	p := bot.Player{Strategy: strat, MaxDepth: sc.MaxDepth, MaxTimeMS: sc.MaxTimeMS}
	if err := sc.Validate(); err != nil {
		return bot.Player{}, err
	}
	return p, nil
}
