package automatic

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/stats"
)

// Draw is the GameRecord winner of a drawn game.
const Draw = -1

// WinRateConfidence is the confidence level, in percent, of the win-rate
// intervals in a Summary.
const WinRateConfidence = 95.0

// GameRecord is a game seen from the experiment: side 0 is the
// experiment's Player1, whoever moved first.
type GameRecord struct {
	ID         uuid.UUID
	Experiment string
	Players    [2]bot.Player
	// FirstMover is the side that played P1.
	FirstMover int
	// Winner is a side, or Draw.
	Winner  int
	Forfeit bool
	Moves   []SideMove
}

// SideMove is a MoveRecord attributed to an experiment side.
type SideMove struct {
	MoveRecord
	Side int
}

func newGameRecord(id uuid.UUID, exp Experiment, firstMover int, g *Game) *GameRecord {
	sideOf := func(p board.Cell) int {
		if p == board.P1 {
			return firstMover
		}
		return 1 - firstMover
	}
	rec := &GameRecord{
		ID:         id,
		Experiment: exp.Name,
		Players:    [2]bot.Player{exp.Player1, exp.Player2},
		FirstMover: firstMover,
		Winner:     Draw,
		Forfeit:    g.Forfeit,
	}
	if g.Winner.Valid() {
		rec.Winner = sideOf(g.Winner)
	}
	rec.Moves = lo.Map(g.Moves, func(m MoveRecord, _ int) SideMove {
		return SideMove{MoveRecord: m, Side: sideOf(m.Player)}
	})
	return rec
}

// SideSummary aggregates one side of an experiment. Times and node
// counts are per move, pooled over every game.
type SideSummary struct {
	Player      bot.Player
	Wins        int
	WentFirst   int
	AvgTimeMS   float64
	StdevTimeMS float64
	AvgNodes    float64
	AvgPruned   float64
	AvgDepth    float64
	Fallbacks   int
	WinRateLow  float64
	WinRateHigh float64
}

type Summary struct {
	Experiment string
	Games      int
	Draws      int
	Forfeits   int
	// FirstMoverWins counts games won by whoever played P1.
	FirstMoverWins int
	Sides          [2]SideSummary
}

// Summarize aggregates the games of one experiment.
func Summarize(name string, players [2]bot.Player, games []*GameRecord) Summary {
	s := Summary{Experiment: name, Games: len(games)}
	var times, nodes, pruned, depth [2]stats.Statistic
	for i := range s.Sides {
		s.Sides[i].Player = players[i]
	}
	for _, g := range games {
		s.Sides[g.FirstMover].WentFirst++
		switch {
		case g.Winner == Draw:
			s.Draws++
		default:
			s.Sides[g.Winner].Wins++
			if g.Winner == g.FirstMover {
				s.FirstMoverWins++
			}
		}
		if g.Forfeit {
			s.Forfeits++
		}
		for _, m := range g.Moves {
			times[m.Side].Push(m.ElapsedMS)
			nodes[m.Side].Push(float64(m.Nodes))
			pruned[m.Side].Push(float64(m.Pruned))
			depth[m.Side].Push(float64(m.Depth))
			if m.Fallback {
				s.Sides[m.Side].Fallbacks++
			}
		}
	}
	for i := range s.Sides {
		side := &s.Sides[i]
		side.AvgTimeMS = times[i].Mean()
		side.StdevTimeMS = times[i].Stdev()
		side.AvgNodes = nodes[i].Mean()
		side.AvgPruned = pruned[i].Mean()
		side.AvgDepth = depth[i].Mean()
		side.WinRateLow, side.WinRateHigh = stats.WinRateInterval(side.Wins, s.Draws, s.Games, WinRateConfidence)
	}
	return s
}

// SummarizeAll groups records by experiment, keeping the order in which
// each experiment first appears.
func SummarizeAll(games []*GameRecord) []Summary {
	names := lo.Uniq(lo.Map(games, func(g *GameRecord, _ int) string { return g.Experiment }))
	byName := lo.GroupBy(games, func(g *GameRecord) string { return g.Experiment })
	return lo.Map(names, func(name string, _ int) Summary {
		group := byName[name]
		return Summarize(name, group[0].Players, group)
	})
}

// ToDisplayText renders the summary the way the experiment harness
// prints it.
func (s Summary) ToDisplayText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Experiment: %s\n", s.Experiment)
	fmt.Fprintf(&sb, "Games played: %d\n", s.Games)
	for i, side := range s.Sides {
		fmt.Fprintf(&sb, "Player %d %v wins: %d (%.1f%%, %.0f%% CI %.3f-%.3f)\n",
			i+1, side.Player, side.Wins, pct(side.Wins, s.Games), WinRateConfidence,
			side.WinRateLow, side.WinRateHigh)
	}
	fmt.Fprintf(&sb, "Draws: %d (%.1f%%)\n", s.Draws, pct(s.Draws, s.Games))
	fmt.Fprintf(&sb, "Player who went first wins: %d (%.1f%%)\n", s.FirstMoverWins, pct(s.FirstMoverWins, s.Games))
	for i, side := range s.Sides {
		fmt.Fprintf(&sb, "Player %d mean time: %.2f ms  Stdev: %.2f  mean nodes: %.1f  mean pruned: %.1f  mean depth: %.2f\n",
			i+1, side.AvgTimeMS, side.StdevTimeMS, side.AvgNodes, side.AvgPruned, side.AvgDepth)
	}
	if s.Forfeits > 0 {
		fmt.Fprintf(&sb, "Forfeits: %d\n", s.Forfeits)
	}
	return sb.String()
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
