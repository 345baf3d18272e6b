package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
)

const (
	MethodAI       = "AI"
	MethodFallback = "fallback"
	MethodNone     = "none"
)

type PingResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

type PlayersResponse struct {
	Result  string   `json:"result"`
	Players []string `json:"players"`
}

type ErrorResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// MoveInfo describes how a column was chosen. The search counters are
// only present when the engine answered.
type MoveInfo struct {
	Method         string `json:"method"`
	Timeout        bool   `json:"timeout,omitempty"`
	Error          string `json:"error,omitempty"`
	ElapsedMS      int64  `json:"elapsed_ms"`
	MaxTimeMS      int    `json:"max_time_ms"`
	MaxDepth       int    `json:"max_depth"`
	Strategy       string `json:"strategy,omitempty"`
	NodesVisited   uint64 `json:"nodes_visited,omitempty"`
	PrunedBranches uint64 `json:"pruned_branches,omitempty"`
	DepthReached   int    `json:"depth_reached,omitempty"`
}

type MoveResponse struct {
	Result string   `json:"result"`
	Col    int      `json:"col"`
	Info   MoveInfo `json:"info"`
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Result: "error", Message: msg})
}

func (s *Server) Ping(c *fiber.Ctx) error {
	return c.JSON(PingResponse{Result: "success", Message: "pong"})
}

func (s *Server) AIPlayers(c *fiber.Ctx) error {
	names := lo.Map(bot.AllStrategies, func(st bot.Strategy, _ int) string { return st.DisplayName() })
	return c.JSON(PlayersResponse{Result: "success", Players: names})
}

func intQuery(c *fiber.Ctx, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

// parseMoveRequest reads the board, the side to move and the player
// from the query string.
func (s *Server) parseMoveRequest(c *fiber.Ctx) (board.Board, board.Cell, bot.Player, error) {
	var b board.Board
	var p bot.Player

	boardStr := c.Query("board")
	if boardStr == "" {
		return b, 0, p, errors.New("missing parameter: board")
	}
	b, err := board.ParseBoard(boardStr)
	if err != nil {
		return b, 0, p, err
	}

	stm := b.SideToMove()
	if c.Query("turn") != "" {
		turn, err := intQuery(c, "turn", 0)
		if err != nil {
			return b, 0, p, err
		}
		stm = board.Cell(turn)
		if !stm.Valid() {
			return b, 0, p, errors.New("turn must be 1 or 2")
		}
	}

	p = s.opts.DefaultPlayer
	if name := c.Query("player"); name != "" {
		p.Strategy, err = bot.ParseStrategy(name)
		if err != nil {
			return b, 0, p, errors.New("unknown player " + strconv.Quote(name))
		}
	}
	if p.MaxDepth, err = intQuery(c, "max_depth", p.MaxDepth); err != nil {
		return b, 0, p, err
	}
	if p.MaxTimeMS, err = intQuery(c, "max_time_ms", p.MaxTimeMS); err != nil {
		return b, 0, p, err
	}
	if err := p.SearchConfig().Validate(); err != nil {
		return b, 0, p, err
	}
	return b, stm, p, nil
}

type decision struct {
	d   *bot.Decision
	err error
}

// AIMove chooses a column. The engine runs in its own goroutine; if it
// has not answered by the hard timeout, or fails, the first legal column
// is returned instead.
func (s *Server) AIMove(c *fiber.Ctx) error {
	b, stm, p, err := s.parseMoveRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	info := MoveInfo{MaxTimeMS: p.MaxTimeMS, MaxDepth: p.MaxDepth}

	legal := b.LegalMoves()
	if len(legal) == 0 {
		info.Method = MethodNone
		return c.JSON(MoveResponse{Result: "success", Col: bot.NoMove, Info: info})
	}

	timeout := s.hardTimeout(p.MaxTimeMS)
	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()

	tstart := time.Now()
	ch := make(chan decision, 1)
	go func() {
		d, err := s.selector.SelectMove(ctx, b, stm, p)
		ch <- decision{d, err}
	}()

	var col int
	select {
	case res := <-ch:
		if res.err != nil {
			col = legal[0]
			info.Method = MethodFallback
			info.Error = res.err.Error()
			break
		}
		col = res.d.Move
		info.Method = MethodAI
		info.Strategy = res.d.Strategy.String()
		info.NodesVisited = res.d.NodesVisited
		info.PrunedBranches = res.d.PrunedBranches
		info.DepthReached = res.d.DepthReached
	case <-ctx.Done():
		// The search goroutine cannot be stopped below the root; it is
		// left to finish on its own.
		col = legal[0]
		info.Method = MethodFallback
		info.Timeout = true
	}
	info.ElapsedMS = time.Since(tstart).Milliseconds()

	log.Info().Str("player", p.String()).Str("side", stm.String()).Int("col", col).
		Str("method", info.Method).Int64("elapsed-ms", info.ElapsedMS).Msg("ai-move")
	return c.JSON(MoveResponse{Result: "success", Col: col, Info: info})
}
