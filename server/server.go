// Package server exposes move selection over HTTP. It owns the hard
// timeout around each decision and the fallback column used when the
// engine does not answer in time.
package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/equity"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 5 * time.Second

	// DefaultMinHardTimeout is the least time a decision is given before
	// the fallback column is used.
	DefaultMinHardTimeout = time.Second
	// unboundedTimeBudgetMS stands in for max_time_ms=0 when the hard
	// timeout is computed.
	unboundedTimeBudgetMS = 2000
)

// Options configure a Server.
type Options struct {
	// DefaultPlayer supplies the strategy and limits a request leaves out.
	DefaultPlayer bot.Player
	// HardTimeoutMargin is added to max_time_ms to get the hard timeout.
	HardTimeoutMargin time.Duration
	// MinHardTimeout defaults to DefaultMinHardTimeout.
	MinHardTimeout time.Duration
	// Evaluator defaults to the static evaluator.
	Evaluator equity.Evaluator
}

// OptionsFromConfig reads the server options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	p, err := cfg.Player()
	if err != nil {
		return Options{}, err
	}
	return Options{
		DefaultPlayer:     p,
		HardTimeoutMargin: time.Duration(cfg.GetInt(config.ConfigHardTimeoutMarginMS)) * time.Millisecond,
	}, nil
}

type Server struct {
	selector *bot.Selector
	opts     Options
}

func New(opts Options) *Server {
	if opts.Evaluator == nil {
		opts.Evaluator = equity.NewStaticEvaluator()
	}
	if opts.MinHardTimeout <= 0 {
		opts.MinHardTimeout = DefaultMinHardTimeout
	}
	return &Server{selector: bot.NewSelector(opts.Evaluator), opts: opts}
}

// hardTimeout is max(MinHardTimeout, budget + margin), where a budget of
// zero counts as two seconds.
func (s *Server) hardTimeout(maxTimeMS int) time.Duration {
	budget := maxTimeMS
	if budget == 0 {
		budget = unboundedTimeBudgetMS
	}
	return max(s.opts.MinHardTimeout, time.Duration(budget)*time.Millisecond+s.opts.HardTimeoutMargin)
}

// App builds the fiber app with every route installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           defaultReadTimeout,
		WriteTimeout:          defaultWriteTimeout,
		IdleTimeout:           defaultIdleTimeout,
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Use(logging())

	app.Get("/ping", s.Ping)
	app.Get("/ai_players", s.AIPlayers)
	app.Get("/ai_move", s.AIMove)
	return app
}

// logging writes one line per request through the zerolog logger.
func logging() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${status} | ${latency} | ${method} | ${path}?${queryParams}",
		TimeFormat: time.RFC3339,
		Output:     log.Logger,
		CustomTags: map[string]logger.LogFunc{
			"latency": func(output logger.Buffer, _ *fiber.Ctx, data *logger.Data, _ string) (int, error) {
				latency := float64(data.Stop.Sub(data.Start).Nanoseconds()) / float64(time.Millisecond)
				return fmt.Fprintf(output, "%6.1fms", latency)
			},
		},
	})
}
