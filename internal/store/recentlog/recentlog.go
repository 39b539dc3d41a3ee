// Package recentlog keeps a bounded ring of recent log lines in its own
// SQLite file so the HTTP surface can serve them without touching the
// process log files.
package recentlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const defaultKeep = 1000

// Entry is one retained log line.
type Entry struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Ring stores the last N log lines. Write satisfies the logger sink
// contract and must never log itself, or it would recurse.
type Ring struct {
	mu     sync.Mutex
	db     *sql.DB
	keep   int
	writes int
	nowFn  func() time.Time
}

func Open(path string, keep int) (*Ring, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("log database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS recent_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		ts INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	if keep <= 0 {
		keep = defaultKeep
	}
	return &Ring{db: db, keep: keep, nowFn: time.Now}, nil
}

func (r *Ring) Close() error { return r.db.Close() }

// Write appends one line and trims the ring periodically rather than on
// every insert.
func (r *Ring) Write(level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO recent_logs (level, message, ts) VALUES (?, ?, ?)`,
		level, message, r.nowFn().UnixMilli())
	if err != nil {
		return
	}
	r.writes++
	if r.writes%100 == 0 {
		r.trimLocked()
	}
}

func (r *Ring) trimLocked() {
	_, _ = r.db.Exec(`DELETE FROM recent_logs WHERE id <= (
		SELECT id FROM recent_logs ORDER BY id DESC LIMIT 1 OFFSET ?
	)`, r.keep)
}

// List returns up to limit retained lines, newest first.
func (r *Ring) List(limit int) ([]Entry, error) {
	if limit <= 0 || limit > r.keep {
		limit = r.keep
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := r.db.Query(`SELECT id, level, message, ts FROM recent_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
