package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS security_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event TEXT NOT NULL,
    username TEXT,
    client_ip TEXT,
    detail TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_security_events_event ON security_events(event);
CREATE INDEX IF NOT EXISTS idx_security_events_created_at ON security_events(created_at);
`

// Event is one row of the security audit trail
type Event struct {
	ID        int64     `json:"id"`
	Event     string    `json:"event"`
	Username  string    `json:"username,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Trail persists security events append-only to SQLite. It implements the
// security.Recorder interface.
type Trail struct {
	db *sql.DB
}

// Open opens the audit database, applies the schema, and returns a Trail
func Open(dbPath string) (*Trail, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Single connection: the trail has one writer, and each pooled connection
	// to a :memory: database would otherwise see its own empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	// WAL mode keeps writers from blocking the read path used by the
	// events endpoint
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &Trail{db: db}, nil
}

// Record appends one event. Failures are logged and swallowed: the audit
// trail must never fail a login attempt.
func (t *Trail) Record(event, username, clientIP, detail string) {
	_, err := t.db.Exec(
		`INSERT INTO security_events (event, username, client_ip, detail) VALUES (?, ?, ?, ?)`,
		event, username, clientIP, detail,
	)
	if err != nil {
		slog.Error("failed to record security event",
			"event", event,
			"error", err,
		)
	}
}

// RecentEvents returns the newest events, most recent first, capped at limit
func (t *Trail) RecentEvents(limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := t.db.Query(
		`SELECT id, event, COALESCE(username, ''), COALESCE(client_ip, ''), COALESCE(detail, ''), created_at
		 FROM security_events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Event, &e.Username, &e.ClientIP, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read security events: %w", err)
	}

	return events, nil
}

// Close closes the underlying database
func (t *Trail) Close() error {
	return t.db.Close()
}
