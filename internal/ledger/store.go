// Package ledger persists per-user activity logs and running CO2 totals
// in a sqlite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/model"
)

// Defaults applied when a caller passes a non-positive limit
const (
	DefaultHistoryLimit     = 50
	DefaultLeaderboardLimit = 20
)

// ErrUserNotFound is returned for operations on an unknown user id
var ErrUserNotFound = errors.New("user not found")

// timeLayout is fixed-width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a sqlite-backed ledger
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserID returns a fresh anonymous user id
func NewUserID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the ledger database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT,
  created_at TEXT NOT NULL,
  total_co2 REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS carbon_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id),
  prompt TEXT NOT NULL,
  activity TEXT NOT NULL,
  category TEXT,
  quantity REAL,
  unit TEXT,
  co2 REAL NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_carbon_logs_user ON carbon_logs(user_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	return nil
}

// EnsureUser returns the user with id, creating it on first sight
func (s *Store) EnsureUser(ctx context.Context, id string) (model.User, error) {
	if strings.TrimSpace(id) == "" {
		return model.User{}, fmt.Errorf("ensure user: empty id")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at, total_co2) VALUES (?, NULL, ?, 0) ON CONFLICT(id) DO NOTHING`,
		id, s.now().Format(timeLayout))
	if err != nil {
		return model.User{}, fmt.Errorf("ensure user: %w", err)
	}
	return s.User(ctx, id)
}

// User loads a user by id
func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(name, ''), created_at, total_co2 FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Rename sets a user's display name. An empty name restores the anonymous label.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	var value any
	if name = strings.TrimSpace(name); name != "" {
		value = name
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("rename user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return nil
}

// Record appends one log row per activity and adds their CO2 to the user's
// total in a single transaction. It returns the new total.
func (s *Store) Record(ctx context.Context, userID, prompt string, acts []model.ParsedActivity) (float64, error) {
	if _, err := s.EnsureUser(ctx, userID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.now().Format(timeLayout)
	var delta float64
	for _, a := range acts {
		_, err := tx.ExecContext(ctx, `
INSERT INTO carbon_logs (user_id, prompt, activity, category, quantity, unit, co2, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, prompt, a.Activity, string(a.Category), a.Quantity, a.Unit, a.CO2, created)
		if err != nil {
			return 0, fmt.Errorf("insert log: %w", err)
		}
		delta += a.CO2
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET total_co2 = total_co2 + ? WHERE id = ?`, delta, userID); err != nil {
		return 0, fmt.Errorf("update total: %w", err)
	}

	var total float64
	if err := tx.QueryRowContext(ctx, `SELECT total_co2 FROM users WHERE id = ?`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("read total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}

	total = emission.Round(total)
	log.Debug().
		Str("user", userID).
		Int("activities", len(acts)).
		Float64("co2", delta).
		Float64("total", total).
		Msg("recorded activities")

	return total, nil
}

// History returns a user's most recent log entries, newest first
func (s *Store) History(ctx context.Context, userID string, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, prompt, activity, COALESCE(category, ''), COALESCE(quantity, 0), COALESCE(unit, ''), co2, created_at
FROM carbon_logs WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e        model.LogEntry
			category string
			created  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Prompt, &e.Activity, &category, &e.Quantity, &e.Unit, &e.CO2, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Category = model.Category(category)
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Stats summarizes one user's ledger
func (s *Store) Stats(ctx context.Context, userID string) (model.Stats, error) {
	u, err := s.User(ctx, userID)
	if err != nil {
		return model.Stats{}, err
	}

	st := model.Stats{User: u}
	err = s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN co2 < 0 THEN co2 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN co2 > 0 THEN co2 ELSE 0 END), 0)
FROM carbon_logs WHERE user_id = ?`, userID).Scan(&st.Entries, &st.EmittedCO2, &st.SavedCO2)
	if err != nil {
		return model.Stats{}, fmt.Errorf("query stats: %w", err)
	}

	st.EmittedCO2 = emission.Round(st.EmittedCO2)
	st.SavedCO2 = emission.Round(st.SavedCO2)
	return st, nil
}

// Leaderboard ranks users by total CO2, highest (most saved) first
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, COALESCE(name, ''), created_at, total_co2
FROM users ORDER BY total_co2 DESC, created_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var board []model.LeaderboardRow
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		board = append(board, model.LeaderboardRow{
			Rank:     len(board) + 1,
			UserID:   u.ID,
			Name:     u.DisplayName(),
			TotalCO2: u.TotalCO2,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return board, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	var (
		u       model.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Name, &created, &u.TotalCO2); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = parseTime(created)
	u.TotalCO2 = emission.Round(u.TotalCO2)
	return u, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
