package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			domain TEXT NOT NULL,
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			solved INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS puzzle_solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			puzzle_id TEXT NOT NULL,
			points INTEGER NOT NULL,
			time_left INTEGER NOT NULL,
			solved_ts TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartGameSession(ctx context.Context, rec GameSession) (int64, error) {
	start := rec.StartTS
	if start.IsZero() {
		start = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions(session_id, domain, start_ts) VALUES(?,?,?)`,
		rec.SessionID,
		strings.TrimSpace(rec.Domain),
		start.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) FinishGameSession(ctx context.Context, id int64, outcome Outcome, score, solved int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET end_ts = ?, outcome = ?, score = ?, solved = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout),
		string(outcome),
		maxInt(0, score),
		maxInt(0, solved),
		id,
	)
	return err
}

func (s *SQLiteStore) RecordSolve(ctx context.Context, solve Solve) error {
	if strings.TrimSpace(solve.PuzzleID) == "" {
		return nil
	}
	ts := solve.SolvedTS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO puzzle_solves(session_id, puzzle_id, points, time_left, solved_ts) VALUES(?,?,?,?,?)`,
		solve.SessionID,
		solve.PuzzleID,
		solve.Points,
		solve.TimeLeft,
		ts.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as sessions,
			COALESCE(SUM(CASE WHEN outcome = 'victory' THEN 1 ELSE 0 END),0) as victories,
			COALESCE(SUM(solved),0) as solves,
			COALESCE(MAX(score),0) as best_score
		FROM game_sessions
	`)
	if err := row.Scan(&out.Sessions, &out.Victories, &out.Solves, &out.BestScore); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLastSession(ctx context.Context) (*LastSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain, start_ts, outcome, score, solved
		FROM game_sessions
		ORDER BY id DESC
		LIMIT 1
	`)
	var (
		domain     string
		startTSRaw string
		outcome    string
		score      int
		solved     int
	)
	if err := row.Scan(&domain, &startTSRaw, &outcome, &score, &solved); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	startTS, err := time.Parse(timeLayout, startTSRaw)
	if err != nil {
		startTS = time.Time{}
	}
	return &LastSession{
		Domain:  domain,
		StartTS: startTS,
		Outcome: Outcome(outcome),
		Score:   score,
		Solved:  solved,
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
