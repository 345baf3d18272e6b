package automatic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	experiment     TEXT NOT NULL,
	p1_strategy    TEXT NOT NULL,
	p1_max_depth   INTEGER NOT NULL,
	p1_max_time_ms INTEGER NOT NULL,
	p2_strategy    TEXT NOT NULL,
	p2_max_depth   INTEGER NOT NULL,
	p2_max_time_ms INTEGER NOT NULL,
	first_mover    INTEGER NOT NULL,
	winner         INTEGER NOT NULL,
	forfeit        BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS games_experiment ON games (experiment);

CREATE TABLE IF NOT EXISTS moves (
	game_id    TEXT NOT NULL REFERENCES games (id),
	ply        INTEGER NOT NULL,
	side       INTEGER NOT NULL,
	player     INTEGER NOT NULL,
	col        INTEGER NOT NULL,
	elapsed_ms REAL NOT NULL,
	nodes      INTEGER NOT NULL,
	pruned     INTEGER NOT NULL,
	depth      INTEGER NOT NULL,
	fallback   BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, ply)
);`

type gameRow struct {
	ID          string `db:"id"`
	Experiment  string `db:"experiment"`
	P1Strategy  string `db:"p1_strategy"`
	P1MaxDepth  int    `db:"p1_max_depth"`
	P1MaxTimeMS int    `db:"p1_max_time_ms"`
	P2Strategy  string `db:"p2_strategy"`
	P2MaxDepth  int    `db:"p2_max_depth"`
	P2MaxTimeMS int    `db:"p2_max_time_ms"`
	FirstMover  int    `db:"first_mover"`
	Winner      int    `db:"winner"`
	Forfeit     bool   `db:"forfeit"`
}

type moveRow struct {
	GameID    string  `db:"game_id"`
	Ply       int     `db:"ply"`
	Side      int     `db:"side"`
	Player    int     `db:"player"`
	Col       int     `db:"col"`
	ElapsedMS float64 `db:"elapsed_ms"`
	Nodes     int64   `db:"nodes"`
	Pruned    int64   `db:"pruned"`
	Depth     int     `db:"depth"`
	Fallback  bool    `db:"fallback"`
}

// Store keeps finished games in a SQLite database.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (creating if needed) the results database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("error opening results db: %w", err)
	}
	// One writer at a time; the games are small.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating results schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("opened-results-store")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGame writes a game and its moves in one transaction.
func (s *Store) SaveGame(ctx context.Context, g *GameRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := gameRow{
		ID:          g.ID.String(),
		Experiment:  g.Experiment,
		P1Strategy:  g.Players[0].Strategy.String(),
		P1MaxDepth:  g.Players[0].MaxDepth,
		P1MaxTimeMS: g.Players[0].MaxTimeMS,
		P2Strategy:  g.Players[1].Strategy.String(),
		P2MaxDepth:  g.Players[1].MaxDepth,
		P2MaxTimeMS: g.Players[1].MaxTimeMS,
		FirstMover:  g.FirstMover,
		Winner:      g.Winner,
		Forfeit:     g.Forfeit,
	}
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO games (id, experiment, p1_strategy, p1_max_depth, p1_max_time_ms,
			p2_strategy, p2_max_depth, p2_max_time_ms, first_mover, winner, forfeit)
		VALUES (:id, :experiment, :p1_strategy, :p1_max_depth, :p1_max_time_ms,
			:p2_strategy, :p2_max_depth, :p2_max_time_ms, :first_mover, :winner, :forfeit)`, row)
	if err != nil {
		return fmt.Errorf("error saving game %s: %w", row.ID, err)
	}

	if len(g.Moves) > 0 {
		moves := make([]moveRow, len(g.Moves))
		for i, m := range g.Moves {
			moves[i] = moveRow{
				GameID:    row.ID,
				Ply:       m.Ply,
				Side:      m.Side,
				Player:    int(m.Player),
				Col:       m.Col,
				ElapsedMS: m.ElapsedMS,
				Nodes:     int64(m.Nodes),
				Pruned:    int64(m.Pruned),
				Depth:     m.Depth,
				Fallback:  m.Fallback,
			}
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO moves (game_id, ply, side, player, col, elapsed_ms, nodes, pruned, depth, fallback)
			VALUES (:game_id, :ply, :side, :player, :col, :elapsed_ms, :nodes, :pruned, :depth, :fallback)`, moves)
		if err != nil {
			return fmt.Errorf("error saving moves of game %s: %w", row.ID, err)
		}
	}
	return tx.Commit()
}

// Games loads every stored game of experiment, or of all experiments
// when experiment is empty, in the order they were saved.
func (s *Store) Games(ctx context.Context, experiment string) ([]*GameRecord, error) {
	var rows []gameRow
	q := `SELECT id, experiment, p1_strategy, p1_max_depth, p1_max_time_ms,
		p2_strategy, p2_max_depth, p2_max_time_ms, first_mover, winner, forfeit
		FROM games WHERE ? = '' OR experiment = ? ORDER BY seq`
	if err := s.db.SelectContext(ctx, &rows, q, experiment, experiment); err != nil {
		return nil, fmt.Errorf("error loading games: %w", err)
	}

	var mrows []moveRow
	mq := `SELECT m.game_id, m.ply, m.side, m.player, m.col, m.elapsed_ms, m.nodes, m.pruned, m.depth, m.fallback
		FROM moves m JOIN games g ON g.id = m.game_id
		WHERE ? = '' OR g.experiment = ? ORDER BY m.game_id, m.ply`
	if err := s.db.SelectContext(ctx, &mrows, mq, experiment, experiment); err != nil {
		return nil, fmt.Errorf("error loading moves: %w", err)
	}
	movesByGame := map[string][]SideMove{}
	for _, m := range mrows {
		movesByGame[m.GameID] = append(movesByGame[m.GameID], SideMove{
			Side: m.Side,
			MoveRecord: MoveRecord{
				Ply:       m.Ply,
				Player:    board.Cell(m.Player),
				Col:       m.Col,
				ElapsedMS: m.ElapsedMS,
				Nodes:     uint64(m.Nodes),
				Pruned:    uint64(m.Pruned),
				Depth:     m.Depth,
				Fallback:  m.Fallback,
			},
		})
	}

	games := make([]*GameRecord, 0, len(rows))
	for _, r := range rows {
		g, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		g.Moves = movesByGame[r.ID]
		games = append(games, g)
	}
	return games, nil
}

// Summaries re-aggregates every stored game by experiment.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	games, err := s.Games(ctx, "")
	if err != nil {
		return nil, err
	}
	return SummarizeAll(games), nil
}

func (r gameRow) toRecord() (*GameRecord, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("bad game id %q: %w", r.ID, err)
	}
	s1, err := bot.ParseStrategy(r.P1Strategy)
	if err != nil {
		return nil, err
	}
	s2, err := bot.ParseStrategy(r.P2Strategy)
	if err != nil {
		return nil, err
	}
	return &GameRecord{
		ID:         id,
		Experiment: r.Experiment,
		Players: [2]bot.Player{
			{Strategy: s1, MaxDepth: r.P1MaxDepth, MaxTimeMS: r.P1MaxTimeMS},
			{Strategy: s2, MaxDepth: r.P2MaxDepth, MaxTimeMS: r.P2MaxTimeMS},
		},
		FirstMover: r.FirstMover,
		Winner:     r.Winner,
		Forfeit:    r.Forfeit,
	}, nil
}
