// Package store provides durable audit sinks for execguard. The in-memory
// audit ring inside an executor is bounded and process-local; a store keeps
// the full trail across restarts.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/execguard/execguard"
)

// SQLiteStore persists audit records in a SQLite database. It implements
// execguard.AuditSink and is safe for concurrent use.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the audit database at path, creating parent
// directories as needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %q: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seq INTEGER,
		created_at TEXT,
		command TEXT,
		status TEXT,
		return_code INTEGER,
		risk TEXT,
		reasons TEXT,
		approved INTEGER,
		sandboxed INTEGER,
		blocked INTEGER,
		timed_out INTEGER,
		duration_ms INTEGER
	);`)
	if err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Record inserts one audit record. It implements execguard.AuditSink.
func (s *SQLiteStore) Record(rec execguard.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec := rec.Outcome.Security
	_, err := s.db.Exec(`INSERT INTO audit
		(seq, created_at, command, status, return_code, risk, reasons, approved, sandboxed, blocked, timed_out, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Seq,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.Command,
		rec.Outcome.Status.String(),
		rec.Outcome.ReturnCode,
		sec.Risk.String(),
		strings.Join(sec.Reasons, "\n"),
		boolToInt(sec.Approved),
		boolToInt(sec.Sandboxed),
		boolToInt(sec.Blocked),
		boolToInt(sec.TimedOut),
		rec.Outcome.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("store: inserting audit record: %w", err)
	}
	return nil
}

// Entry is one persisted audit record as read back from the database.
type Entry struct {
	Seq        uint64    `json:"seq"`
	CreatedAt  time.Time `json:"created_at"`
	Command    string    `json:"command"`
	Status     string    `json:"status"`
	ReturnCode int       `json:"return_code"`
	Risk       string    `json:"risk"`
	Reasons    []string  `json:"reasons,omitempty"`
	Approved   bool      `json:"approved"`
	Sandboxed  bool      `json:"sandboxed"`
	Blocked    bool      `json:"blocked"`
	TimedOut   bool      `json:"timed_out"`
	DurationMS int64     `json:"duration_ms"`
}

// Entries returns persisted records, most recent first. limit <= 0 returns
// everything.
func (s *SQLiteStore) Entries(limit int) ([]Entry, error) {
	q := `SELECT seq, created_at, command, status, return_code, risk, reasons,
		approved, sandboxed, blocked, timed_out, duration_ms
		FROM audit ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying audit records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts, reasons string
		var approved, sandboxed, blocked, timedOut int
		if err := rows.Scan(&e.Seq, &ts, &e.Command, &e.Status, &e.ReturnCode,
			&e.Risk, &reasons, &approved, &sandboxed, &blocked, &timedOut,
			&e.DurationMS); err != nil {
			return nil, fmt.Errorf("store: scanning audit record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.CreatedAt = t
		}
		if reasons != "" {
			e.Reasons = strings.Split(reasons, "\n")
		}
		e.Approved = approved == 1
		e.Sandboxed = sandboxed == 1
		e.Blocked = blocked == 1
		e.TimedOut = timedOut == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all persisted records.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM audit")
	if err != nil {
		return fmt.Errorf("store: clearing audit records: %w", err)
	}
	return nil
}

// ExportJSON writes the audit table to dest as one JSON object per line,
// most recent first.
func (s *SQLiteStore) ExportJSON(dest string) error {
	entries, err := s.Entries(0)
	if err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("store: creating export file: %w", err)
	}
	defer f.Close()
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("store: encoding audit record: %w", err)
		}
		if _, err := f.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("store: writing export file: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ execguard.AuditSink = (*SQLiteStore)(nil)
