// Package store handles SQLite persistence of the session history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for played-session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			played_at TEXT NOT NULL,
			task TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			trials INTEGER NOT NULL,
			scorable INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			mean_rt_ms REAL NOT NULL,
			cost_ms REAL NOT NULL,
			efficiency REAL NOT NULL,
			score INTEGER NOT NULL,
			reward INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			submitted INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_played_at ON sessions(played_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores one completed session.
func (s *Store) InsertSession(ctx context.Context, playedAt time.Time, res model.SessionResult, submitted bool) (int64, error) {
	correct := 0
	for kind, n := range res.Counts {
		if kind.Favorable() {
			correct += n
		}
	}
	flag := 0
	if submitted {
		flag = 1
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (played_at, task, difficulty, trials, scorable, correct, accuracy, mean_rt_ms, cost_ms, efficiency, score, reward, duration_ms, submitted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playedAt.Format(time.RFC3339Nano),
		res.Task,
		res.Difficulty,
		res.Trials,
		res.Scorable,
		correct,
		res.Accuracy,
		res.MeanReactionMs,
		res.CostMs,
		res.Efficiency,
		res.Score,
		res.Reward,
		res.Elapsed.Milliseconds(),
		flag,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListSessions returns stored sessions filtered by the stats config, oldest
// first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Task != "" {
		clauses = append(clauses, "task = ?")
		args = append(args, cfg.Task)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "played_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, played_at, task, difficulty, trials, scorable, correct, accuracy, mean_rt_ms, cost_ms, efficiency, score, reward, duration_ms, submitted
		FROM sessions
		WHERE %s
		ORDER BY played_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRow
	for rows.Next() {
		var row model.SessionRow
		var playedAt string
		var submitted int
		if err := rows.Scan(&row.ID, &playedAt, &row.Task, &row.Difficulty, &row.Trials, &row.Scorable, &row.Correct,
			&row.Accuracy, &row.MeanRTMs, &row.CostMs, &row.Efficiency, &row.Score, &row.Reward, &row.DurationMs, &submitted); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, playedAt)
		if err != nil {
			return nil, err
		}
		row.PlayedAt = parsed
		row.Submitted = submitted != 0
		sessions = append(sessions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// BestScore returns the highest stored score for a task, or zero when the
// task has never been played.
func (s *Store) BestScore(ctx context.Context, taskName string) (model.SessionRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, played_at, task, difficulty, trials, scorable, correct, accuracy, mean_rt_ms, cost_ms, efficiency, score, reward, duration_ms, submitted
		 FROM sessions WHERE task = ? ORDER BY score DESC, played_at ASC LIMIT 1`, taskName)
	var best model.SessionRow
	var playedAt string
	var submitted int
	err := row.Scan(&best.ID, &playedAt, &best.Task, &best.Difficulty, &best.Trials, &best.Scorable, &best.Correct,
		&best.Accuracy, &best.MeanRTMs, &best.CostMs, &best.Efficiency, &best.Score, &best.Reward, &best.DurationMs, &submitted)
	if err == sql.ErrNoRows {
		return model.SessionRow{}, nil
	}
	if err != nil {
		return model.SessionRow{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, playedAt)
	if err != nil {
		return model.SessionRow{}, err
	}
	best.PlayedAt = parsed
	best.Submitted = submitted != 0
	return best, nil
}
