package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

// Entry is one row of the AP lifecycle journal.
type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"` // "state_changed", "client_connected", "client_disconnected", "client_blocked", "shutdown_notice"
	State     string    `json:"state,omitempty"`
	PrevState string    `json:"prev_state,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Interface string    `json:"interface,omitempty"`
	ClientMAC string    `json:"client_mac,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func Initialize(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		event TEXT NOT NULL,
		state TEXT,
		prev_state TEXT,
		reason TEXT,
		interface TEXT,
		client_mac TEXT,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal(timestamp);
	CREATE INDEX IF NOT EXISTS idx_journal_event ON journal(event);
	CREATE INDEX IF NOT EXISTS idx_journal_client_mac ON journal(client_mac);
	`

	_, err := db.Exec(schema)
	return err
}

func (db *DB) LogEvent(entry *Entry) error {
	query := `
		INSERT INTO journal (event, state, prev_state, reason, interface, client_mac, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, entry.Event, entry.State, entry.PrevState, entry.Reason,
		entry.Interface, entry.ClientMAC, entry.Message)
	return err
}

func (db *DB) GetEntries(limit int, offset int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, event,
		       COALESCE(state, ''), COALESCE(prev_state, ''), COALESCE(reason, ''),
		       COALESCE(interface, ''), COALESCE(client_mac, ''), COALESCE(message, '')
		FROM journal
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (db *DB) GetEntriesByClient(mac string, limit int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, event,
		       COALESCE(state, ''), COALESCE(prev_state, ''), COALESCE(reason, ''),
		       COALESCE(interface, ''), COALESCE(client_mac, ''), COALESCE(message, '')
		FROM journal
		WHERE client_mac = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.Query(query, mac, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (db *DB) GetRecentActivity(hours int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, event,
		       COALESCE(state, ''), COALESCE(prev_state, ''), COALESCE(reason, ''),
		       COALESCE(interface, ''), COALESCE(client_mac, ''), COALESCE(message, '')
		FROM journal
		WHERE timestamp > datetime('now', '-' || ? || ' hours')
		ORDER BY timestamp DESC
	`

	rows, err := db.Query(query, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Event, &entry.State,
			&entry.PrevState, &entry.Reason, &entry.Interface, &entry.ClientMAC, &entry.Message)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteOldEntries deletes journal rows older than the specified number of days
func (db *DB) DeleteOldEntries(daysToKeep int) (int64, error) {
	query := `DELETE FROM journal WHERE timestamp < datetime('now', '-' || ? || ' days')`
	result, err := db.Exec(query, daysToKeep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
