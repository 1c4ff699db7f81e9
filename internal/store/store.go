// Package store handles SQLite persistence of profiles and trial results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/theme"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a duplicate username.
	ErrUserExists = errors.New("user already exists")
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Store wraps SQLite access for profile data.
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
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS calibration (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			color_left TEXT NOT NULL,
			color_right TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			session_id TEXT NOT NULL,
			exercise TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			created_at TEXT NOT NULL,
			trial INTEGER NOT NULL,
			primary_param INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			time TEXT NOT NULL,
			delta_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_results_user_time ON results(user_id, time);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a user and returns it with its ID.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return model.User{}, fmt.Errorf("username is empty")
	}
	if _, err := s.UserByUsername(ctx, u.Username); err == nil {
		return model.User{}, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return model.User{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.FirstName, u.LastName, formatTime(time.Now()))
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = id
	return u, nil
}

// UserByUsername looks a user up by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, first_name, last_name FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveCalibration stores the eye colors of a user, replacing earlier values.
func (s *Store) SaveCalibration(ctx context.Context, userID int64, cal model.Calibration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calibration (user_id, color_left, color_right, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET color_left = excluded.color_left,
			color_right = excluded.color_right, updated_at = excluded.updated_at`,
		userID, theme.Hex(cal.Left), theme.Hex(cal.Right), formatTime(time.Now()))
	return err
}

// Calibration returns the stored calibration of a user. ok is false when none was saved.
func (s *Store) Calibration(ctx context.Context, userID int64) (model.Calibration, bool, error) {
	var left, right string
	err := s.db.QueryRowContext(ctx,
		`SELECT color_left, color_right FROM calibration WHERE user_id = ?`, userID,
	).Scan(&left, &right)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Calibration{}, false, nil
	}
	if err != nil {
		return model.Calibration{}, false, err
	}
	var cal model.Calibration
	if cal.Left, err = theme.ParseColor(left); err != nil {
		return model.Calibration{}, false, fmt.Errorf("stored left color: %w", err)
	}
	if cal.Right, err = theme.ParseColor(right); err != nil {
		return model.Calibration{}, false, fmt.Errorf("stored right color: %w", err)
	}
	return cal, true, nil
}

const activeUserKey = "active_user"

// SetActiveUser remembers the username used when none is given.
func (s *Store) SetActiveUser(ctx context.Context, username string) error {
	if _, err := s.UserByUsername(ctx, username); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, activeUserKey, username)
	return err
}

// ActiveUser returns the remembered username, or "" when none is set.
func (s *Store) ActiveUser(ctx context.Context) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, activeUserKey).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return username, err
}

// RecordResults stores one row per trial of a finished session.
func (s *Store) RecordResults(ctx context.Context, userID int64, sessionID, exercise, difficulty string, results []model.Result) (err error) {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (user_id, session_id, exercise, difficulty, created_at, trial, primary_param, correct, time, delta_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	created := formatTime(time.Now())
	for _, r := range results {
		correct := 0
		if r.Correct {
			correct = 1
		}
		if _, err = stmt.ExecContext(ctx, userID, sessionID, exercise, difficulty, created,
			r.Trial, r.PrimaryParam, correct, formatTime(r.Time), r.Delta.Milliseconds()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSessions returns per-session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.UserID != 0 {
		clauses = append(clauses, "user_id = ?")
		args = append(args, cfg.UserID)
	}
	if cfg.Exercise != "" {
		clauses = append(clauses, "exercise = ?")
		args = append(args, cfg.Exercise)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "time >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT session_id, user_id, exercise, difficulty, MIN(time), MAX(time),
			COUNT(*), SUM(correct), MAX(primary_param), SUM(delta_ms), SUM(CASE WHEN trial > 1 THEN 1 ELSE 0 END)
		FROM results
		WHERE %s
		GROUP BY session_id
		ORDER BY MAX(time) ASC`, strings.Join(clauses, " AND "))
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

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt, endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.UserID, &agg.Exercise, &agg.Difficulty, &startedAt, &endedAt,
			&agg.Trials, &agg.Correct, &agg.MaxParam, &agg.DeltaSumMs, &agg.DeltaCount); err != nil {
			return nil, err
		}
		if agg.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if agg.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		agg.Incorrect = agg.Trials - agg.Correct
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListResults returns the trials of one session in order.
func (s *Store) ListResults(ctx context.Context, sessionID string) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trial, primary_param, correct, time, delta_ms FROM results WHERE session_id = ? ORDER BY trial`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.Result
	for rows.Next() {
		var r model.Result
		var correct int
		var at string
		var deltaMs int64
		if err := rows.Scan(&r.Trial, &r.PrimaryParam, &correct, &at, &deltaMs); err != nil {
			return nil, err
		}
		if r.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		r.Correct = correct == 1
		r.Delta = time.Duration(deltaMs) * time.Millisecond
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
