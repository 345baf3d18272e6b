package automatic

import (
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/connectfour/bot"
)

func side(p bot.Player, wins int, avgTime, avgNodes float64) SideSummary {
	return SideSummary{Player: p, Wins: wins, AvgTimeMS: avgTime, AvgNodes: avgNodes}
}

func mmPlayer(depth int) bot.Player {
	return bot.Player{Strategy: bot.Minimax, MaxDepth: depth}
}

func TestAnalyzeCleanResults(t *testing.T) {
	is := is.New(t)
	sums := []Summary{
		{Experiment: "mm3", Games: 10, Sides: [2]SideSummary{side(mmPlayer(3), 10, 2, 300), side(randomPlayer, 0, 0, 0)}},
		{Experiment: "mm4", Games: 10, Sides: [2]SideSummary{side(mmPlayer(4), 10, 9, 2000), side(randomPlayer, 0, 0, 0)}},
		{Experiment: "ab-mm4", Games: 8, Draws: 8, Sides: [2]SideSummary{
			side(bot.Player{Strategy: bot.AlphaBeta, MaxDepth: 4}, 0, 1, 400),
			side(mmPlayer(4), 0, 9, 2000),
		}},
	}
	is.Equal(len(Analyze(sums)), 0)
	is.True(strings.Contains(Report(sums), "No problems found."))
}

func TestAnalyzeFindsProblems(t *testing.T) {
	is := is.New(t)
	id := bot.Player{Strategy: bot.IterativeDeepening, MaxDepth: 10, MaxTimeMS: 1000}
	ab4 := bot.Player{Strategy: bot.AlphaBeta, MaxDepth: 4, MaxTimeMS: 1000}
	sums := []Summary{
		// never beats random, and nodes do not grow from depth 3 to 4
		{Experiment: "mm3", Games: 10, Sides: [2]SideSummary{side(mmPlayer(3), 10, 2, 300), side(randomPlayer, 0, 0, 0)}},
		{Experiment: "mm4", Games: 10, Sides: [2]SideSummary{side(mmPlayer(4), 0, 2, 250), side(randomPlayer, 10, 0, 0)}},
		// pruning that does not prune, in too few games
		{Experiment: "ab-mm3", Games: 3, Draws: 3, Sides: [2]SideSummary{
			side(mmPlayer(3), 0, 2, 300),
			side(bot.Player{Strategy: bot.AlphaBeta, MaxDepth: 3}, 0, 2, 500),
		}},
		// over the time limit
		{Experiment: "id-ab", Games: 8, Sides: [2]SideSummary{side(id, 8, 2500, 9000), side(ab4, 0, 40, 400)}},
	}
	problems := Analyze(sums)
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.String()
	}
	all := strings.Join(msgs, "\n")
	is.True(strings.Contains(all, "mm4: player 1 (minimax(d=4)) never beat the random player"))
	is.True(strings.Contains(all, "mm4: minimax nodes did not grow with depth"))
	is.True(strings.Contains(all, "ab-mm3: only 3 games"))
	is.True(strings.Contains(all, "ab-mm3: alpha-beta visited more nodes than minimax at depth 3"))
	is.True(strings.Contains(all, "id-ab: player 1 (iterative-deepening(d=10 t=1000ms)) averaged 2500.00 ms per move"))
	is.Equal(len(problems), 5)

	report := Report(sums)
	is.True(strings.Contains(report, "Problems:\n1. "))
}

func TestSummaryToDisplayText(t *testing.T) {
	is := is.New(t)
	s := Summarize("x", [2]bot.Player{abPlayer, randomPlayer}, []*GameRecord{
		sampleRecord("x", 0, 0),
		sampleRecord("x", 1, 1),
	})
	is.Equal(s.FirstMoverWins, 2)
	text := s.ToDisplayText()
	is.True(strings.Contains(text, "Games played: 2\n"))
	is.True(strings.Contains(text, "Player 1 alphabeta(d=2) wins: 1 (50.0%"))
	is.True(strings.Contains(text, "Player who went first wins: 2 (100.0%)"))
}
