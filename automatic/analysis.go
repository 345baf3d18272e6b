package automatic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/connectfour/bot"
)

// MinReliableGames is the smallest experiment whose results are taken
// at face value.
const MinReliableGames = 5

// Problem is a result that does not make sense for the strategies
// involved and probably points at a bug.
type Problem struct {
	Experiment string
	Message    string
}

func (p Problem) String() string {
	return p.Experiment + ": " + p.Message
}

func searches(p bot.Player) bool {
	return p.Strategy != bot.Random
}

// Analyze checks experiment summaries for results that contradict how
// the strategies are supposed to behave.
func Analyze(summaries []Summary) []Problem {
	var problems []Problem
	add := func(s Summary, format string, args ...any) {
		problems = append(problems, Problem{Experiment: s.Experiment, Message: fmt.Sprintf(format, args...)})
	}

	for _, s := range summaries {
		if s.Games < MinReliableGames {
			add(s, "only %d games; results may not be reliable", s.Games)
		}
		for i, side := range s.Sides {
			other := s.Sides[1-i]
			if side.Player.MaxTimeMS > 0 && side.AvgTimeMS > 2*float64(side.Player.MaxTimeMS) {
				add(s, "player %d (%v) averaged %.2f ms per move, more than twice its %d ms limit",
					i+1, side.Player, side.AvgTimeMS, side.Player.MaxTimeMS)
			}
			if side.Fallbacks > 0 {
				add(s, "player %d (%v) needed the fallback column %d times", i+1, side.Player, side.Fallbacks)
			}
			if !searches(side.Player) || searches(other.Player) {
				continue
			}
			if side.Wins == 0 && side.Player.MaxDepth > 2 && s.Games > 0 {
				add(s, "player %d (%v) never beat the random player", i+1, side.Player)
			}
			if side.AvgNodes < other.AvgNodes {
				add(s, "player %d (%v) visited fewer nodes than the random player", i+1, side.Player)
			}
		}
		ab, mm := s.Sides[0], s.Sides[1]
		if ab.Player.Strategy != bot.AlphaBeta {
			ab, mm = mm, ab
		}
		if ab.Player.Strategy == bot.AlphaBeta && mm.Player.Strategy == bot.Minimax &&
			ab.Player.MaxDepth == mm.Player.MaxDepth && ab.AvgNodes > mm.AvgNodes {
			add(s, "alpha-beta visited more nodes than minimax at depth %d (%.1f vs %.1f)",
				ab.Player.MaxDepth, ab.AvgNodes, mm.AvgNodes)
		}
	}
	return append(problems, checkNodeGrowth(summaries)...)
}

type depthNodes struct {
	experiment string
	depth      int
	nodes      float64
}

// checkNodeGrowth looks at every fixed-depth player facing the random
// player: its node count has to grow with depth.
func checkNodeGrowth(summaries []Summary) []Problem {
	var points []depthNodes
	strategies := map[string]bot.Strategy{}
	for _, s := range summaries {
		for i, side := range s.Sides {
			other := s.Sides[1-i]
			if side.Player.Strategy == bot.IterativeDeepening || !searches(side.Player) || searches(other.Player) {
				continue
			}
			points = append(points, depthNodes{s.Experiment, side.Player.MaxDepth, side.AvgNodes})
			strategies[s.Experiment] = side.Player.Strategy
		}
	}
	var problems []Problem
	byStrategy := lo.GroupBy(points, func(p depthNodes) bot.Strategy { return strategies[p.experiment] })
	for _, strat := range lo.Keys(byStrategy) {
		pts := byStrategy[strat]
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].depth < pts[j].depth })
		for i := 1; i < len(pts); i++ {
			if pts[i].depth > pts[i-1].depth && pts[i].nodes <= pts[i-1].nodes {
				msg := fmt.Sprintf("%v nodes did not grow with depth (%.1f at depth %d, %.1f at depth %d)",
					strat, pts[i-1].nodes, pts[i-1].depth, pts[i].nodes, pts[i].depth)
				problems = append(problems, Problem{Experiment: pts[i].experiment, Message: msg})
			}
		}
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Experiment < problems[j].Experiment })
	return problems
}

// Report renders the summaries followed by the problems found in them.
func Report(summaries []Summary) string {
	var sb strings.Builder
	for _, s := range summaries {
		sb.WriteString(s.ToDisplayText())
		sb.WriteString("\n")
	}
	problems := Analyze(summaries)
	if len(problems) == 0 {
		sb.WriteString("No problems found.\n")
		return sb.String()
	}
	sb.WriteString("Problems:\n")
	for i, p := range problems {
		fmt.Fprintf(&sb, "%d. %v\n", i+1, p)
	}
	return sb.String()
}
