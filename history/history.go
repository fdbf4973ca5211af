// Package history keeps a persistent log of performed actions.
//
// Storage is backed by a SQLite database at ~/.config/vpn-tray/history.db.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one performed action.
type Entry struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64
	// ActionID is the descriptor id.
	ActionID string
	Title    string
	OK       bool
	ExitCode int
	// Outcome is the process outcome label, e.g. "completed" or "stalled".
	Outcome     string
	Description string
	Output      string
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// FromEvent converts a performed event into an entry.
func FromEvent(ev events.ActionPerformed) Entry {
	return Entry{
		ActionID:    ev.ID,
		Title:       ev.Title,
		OK:          ev.OK,
		ExitCode:    ev.ExitCode,
		Outcome:     ev.Outcome,
		Description: ev.Description,
		Output:      ev.Text,
		Elapsed:     ev.Elapsed,
		CreatedAt:   ev.At,
	}
}

// Repository defines the persistence interface for history entries.
type Repository interface {
	// Append inserts e and assigns its ID.
	Append(ctx context.Context, e *Entry) error
	// ListRecent returns the newest n entries, newest first.
	ListRecent(ctx context.Context, n int) ([]Entry, error)
	// ListForAction returns the newest n entries of one action.
	ListForAction(ctx context.Context, actionID string, n int) ([]Entry, error)
	// DeleteOlderThan removes entries older than d and returns how many.
	DeleteOlderThan(ctx context.Context, d time.Duration) (int64, error)
	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("history: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("history: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS invocations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			action_id   TEXT    NOT NULL,
			title       TEXT    NOT NULL DEFAULT '',
			ok          INTEGER NOT NULL DEFAULT 0,
			exit_code   INTEGER NOT NULL DEFAULT 0,
			outcome     TEXT    NOT NULL DEFAULT '',
			description TEXT    NOT NULL DEFAULT '',
			output      TEXT    NOT NULL DEFAULT '',
			elapsed_ms  INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_invocations_action ON invocations(action_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migration failed: %w", err)
	}
	return nil
}

// Append inserts e. A zero CreatedAt is set to now.
func (r *SQLiteRepository) Append(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO invocations (action_id, title, ok, exit_code, outcome, description, output, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ActionID, e.Title, e.OK, e.ExitCode, e.Outcome, e.Description, e.Output,
		e.Elapsed.Milliseconds(), e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: insert failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: failed to get last insert ID: %w", err)
	}
	e.ID = id
	return nil
}

const selectColumns = `
	SELECT id, action_id, title, ok, exit_code, outcome, description, output, elapsed_ms, created_at
	FROM invocations`

// ListRecent returns the newest n entries.
func (r *SQLiteRepository) ListRecent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListForAction returns the newest n entries of actionID.
func (r *SQLiteRepository) ListForAction(ctx context.Context, actionID string, n int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE action_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, actionID, n)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Get returns a single entry.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()

	entries, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, sql.ErrNoRows
	}
	return &entries[0], nil
}

// DeleteOlderThan removes entries created more than d ago.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(timeLayout)
	result, err := r.db.ExecContext(ctx, `DELETE FROM invocations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			elapsedMS  int64
			createdStr string
		)
		err := rows.Scan(&e.ID, &e.ActionID, &e.Title, &e.OK, &e.ExitCode, &e.Outcome,
			&e.Description, &e.Output, &elapsedMS, &createdStr)
		if err != nil {
			return nil, fmt.Errorf("history: scan failed: %w", err)
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Recorder returns a listener appending every performed action to repo.
func Recorder(repo Repository, log common.Logger) func(events.ActionPerformed) {
	if log == nil {
		log = common.NopLogger{}
	}
	return func(ev events.ActionPerformed) {
		e := FromEvent(ev)
		if err := repo.Append(context.Background(), &e); err != nil {
			log.Warn("failed to record %s: %v", ev.ID, err)
		}
	}
}

// IsNotFound reports whether err means a missing entry.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
