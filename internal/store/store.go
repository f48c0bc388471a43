// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/typerally/typerally/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for contest data.
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
		`CREATE TABLE IF NOT EXISTS contests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			time_limit_sec INTEGER NOT NULL,
			allow_backspace INTEGER NOT NULL,
			language TEXT NOT NULL,
			max_attempts INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prompts (
			id TEXT PRIMARY KEY,
			contest_id TEXT NOT NULL,
			display_text TEXT NOT NULL,
			typing_target TEXT NOT NULL,
			language TEXT NOT NULL,
			order_index INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			contest_id TEXT NOT NULL,
			user TEXT NOT NULL,
			started_at TEXT NOT NULL,
			order_index INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT PRIMARY KEY,
			contest_id TEXT NOT NULL,
			user TEXT NOT NULL,
			cpm INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			score INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			keylog TEXT NOT NULL,
			defocus INTEGER NOT NULL,
			paste_blocked INTEGER NOT NULL,
			anomaly_score REAL NOT NULL,
			completed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_contest ON prompts(contest_id, order_index);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_contest_user ON sessions(contest_id, user);`,
		`CREATE INDEX IF NOT EXISTS idx_results_contest ON results(contest_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateContest stores a new contest.
func (s *Store) CreateContest(ctx context.Context, c model.Contest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contests (id, title, time_limit_sec, allow_backspace, language, max_attempts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.TimeLimitSec, boolToInt(c.AllowBackspace), c.Language, c.MaxAttempts,
		c.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetContest loads a contest by id.
func (s *Store) GetContest(ctx context.Context, id string) (model.Contest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, time_limit_sec, allow_backspace, language, max_attempts, created_at
		 FROM contests WHERE id = ?`, id)
	return scanContest(row)
}

// ListContests returns all contests, newest first.
func (s *Store) ListContests(ctx context.Context) ([]model.Contest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, time_limit_sec, allow_backspace, language, max_attempts, created_at
		 FROM contests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var contests []model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContest(row rowScanner) (model.Contest, error) {
	var c model.Contest
	var allowBackspace int
	var createdAt string
	if err := row.Scan(&c.ID, &c.Title, &c.TimeLimitSec, &allowBackspace, &c.Language, &c.MaxAttempts, &createdAt); err != nil {
		return model.Contest{}, err
	}
	c.AllowBackspace = allowBackspace != 0
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Contest{}, err
	}
	c.CreatedAt = parsed
	return c, nil
}

// AddPrompt attaches a prompt to a contest.
func (s *Store) AddPrompt(ctx context.Context, contestID string, p model.Prompt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (id, contest_id, display_text, typing_target, language, order_index)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, contestID, p.DisplayText, p.TypingTarget, p.Language, p.OrderIndex,
	)
	return err
}

// ListPrompts returns a contest's prompts in rotation order.
func (s *Store) ListPrompts(ctx context.Context, contestID string) ([]model.Prompt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_text, typing_target, language, order_index
		 FROM prompts WHERE contest_id = ? ORDER BY order_index ASC`, contestID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var prompts []model.Prompt
	for rows.Next() {
		var p model.Prompt
		if err := rows.Scan(&p.ID, &p.DisplayText, &p.TypingTarget, &p.Language, &p.OrderIndex); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prompts, nil
}

// InsertSession records a started session.
func (s *Store) InsertSession(ctx context.Context, sess model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, contest_id, user, started_at, order_index)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.ContestID, sess.User, sess.StartedAt.Format(time.RFC3339Nano), sess.OrderIndex,
	)
	return err
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, contest_id, user, started_at, order_index FROM sessions WHERE id = ?`, id)
	var sess model.Session
	var startedAt string
	if err := row.Scan(&sess.ID, &sess.ContestID, &sess.User, &startedAt, &sess.OrderIndex); err != nil {
		return model.Session{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return model.Session{}, err
	}
	sess.StartedAt = parsed
	return sess, nil
}

// UpdateSessionOrder persists the session's position in the prompt
// rotation.
func (s *Store) UpdateSessionOrder(ctx context.Context, id string, orderIndex int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET order_index = ? WHERE id = ?`, orderIndex, id)
	return err
}

// CountSessions returns how many sessions a user has started in a
// contest.
func (s *Store) CountSessions(ctx context.Context, contestID, user string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE contest_id = ? AND user = ?`, contestID, user)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// InsertResult stores a finished session's result snapshot.
func (s *Store) InsertResult(ctx context.Context, res model.SessionResult) error {
	keylog, err := json.Marshal(res.Keylog)
	if err != nil {
		return fmt.Errorf("failed to encode keylog: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (session_id, contest_id, user, cpm, wpm, accuracy, score, errors, keylog, defocus, paste_blocked, anomaly_score, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.ContestID, res.User, res.CPM, res.WPM, res.Accuracy, res.Score, res.Errors,
		string(keylog), res.Flags.Defocus, boolToInt(res.Flags.PasteBlocked), res.Flags.AnomalyScore,
		res.CompletedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListResults returns a contest's results, newest first. An empty user
// returns results for every participant.
func (s *Store) ListResults(ctx context.Context, contestID, user string) ([]model.SessionResult, error) {
	query := `SELECT session_id, contest_id, user, cpm, wpm, accuracy, score, errors, keylog, defocus, paste_blocked, anomaly_score, completed_at
		FROM results WHERE contest_id = ? AND (? = '' OR user = ?)
		ORDER BY completed_at DESC`
	rows, err := s.db.QueryContext(ctx, query, contestID, user, user)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.SessionResult
	for rows.Next() {
		var res model.SessionResult
		var keylog, completedAt string
		var pasteBlocked int
		if err := rows.Scan(&res.SessionID, &res.ContestID, &res.User, &res.CPM, &res.WPM, &res.Accuracy,
			&res.Score, &res.Errors, &keylog, &res.Flags.Defocus, &pasteBlocked, &res.Flags.AnomalyScore,
			&completedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(keylog), &res.Keylog); err != nil {
			return nil, fmt.Errorf("failed to decode keylog: %w", err)
		}
		res.Flags.PasteBlocked = pasteBlocked != 0
		parsed, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, err
		}
		res.CompletedAt = parsed
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// BestScore returns a user's best score in a contest and whether any
// result exists.
func (s *Store) BestScore(ctx context.Context, contestID, user string) (int, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT MAX(score) FROM results WHERE contest_id = ? AND user = ?`, contestID, user)
	var best sql.NullInt64
	if err := row.Scan(&best); err != nil {
		return 0, false, err
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
