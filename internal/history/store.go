// Package history keeps a local log of submissions: what was sent, where,
// and how it ended. Result rows are never stored.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Entry states. Stale marks a completion that arrived after a newer
// submission and was discarded.
const (
	StateSuccess = "success"
	StateFailure = "failure"
	StateStale   = "stale"
)

// Entry is one recorded submission.
type Entry struct {
	ID          string        `json:"id" yaml:"id"`
	Mode        string        `json:"mode" yaml:"mode"`
	Method      string        `json:"method" yaml:"method"`
	Target      string        `json:"target" yaml:"target"`
	Graph       string        `json:"graph,omitempty" yaml:"graph,omitempty"`
	Payload     string        `json:"payload" yaml:"payload"`
	SubmittedAt time.Time     `json:"submitted_at" yaml:"submitted_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	State       string        `json:"state" yaml:"state"`
	Reason      string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Rows        int           `json:"rows" yaml:"rows"`
}

// Store persists entries in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and
// migrates it. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already migrated connection.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts e. A missing ID is generated.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions
			(id, mode, method, target, graph, payload, submitted_at, duration_ms, state, reason, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Mode, e.Method, e.Target, e.Graph, e.Payload,
		e.SubmittedAt.UnixMilli(), e.Duration.Milliseconds(), e.State, e.Reason, e.Rows,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record submission: %w", err)
	}
	return e, nil
}

// Filter narrows a listing.
type Filter struct {
	Mode  string
	State string
	Limit int
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, f.Mode)
	}
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, f.State)
	}
	return s.list(ctx, where, args, f.Limit)
}

// Get returns one entry by id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := s.list(ctx, []string{"id LIKE ? ESCAPE '\\'"}, []any{escapeLike(id) + "%"}, 2)
	if err != nil {
		return Entry{}, err
	}
	switch len(entries) {
	case 0:
		return Entry{}, fmt.Errorf("no submission with id %q", id)
	case 1:
		return entries[0], nil
	default:
		return Entry{}, fmt.Errorf("id prefix %q is ambiguous", id)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

func (s *Store) list(ctx context.Context, where []string, args []any, limit int) ([]Entry, error) {
	query := `SELECT id, mode, method, target, graph, payload, submitted_at, duration_ms, state, reason, row_count
		FROM submissions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			submittedMs int64
			durationMs  int64
		)
		if err := rows.Scan(&e.ID, &e.Mode, &e.Method, &e.Target, &e.Graph, &e.Payload,
			&submittedMs, &durationMs, &e.State, &e.Reason, &e.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		e.SubmittedAt = time.UnixMilli(submittedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}
