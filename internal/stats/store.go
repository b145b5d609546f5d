package stats

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// Store persists counter totals in a SQLite database so they survive
// restarts. One goroutine owns it: the runner loads totals at startup
// and flushes snapshots periodically and on shutdown.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the counters database at the given path.
func Open(path string) (*Store, error) {
	// WAL keeps the rare flush from blocking readers of the file.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	conn.SetMaxOpenConns(2)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize stats schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Health checks database connectivity.
func (s *Store) Health() error {
	return s.conn.Ping()
}

// counterItem pairs a snapshot field with its row name; the one place
// that ordering and naming live.
type counterItem struct {
	name  string
	value uint64
}

func items(snap Snapshot) []counterItem {
	return []counterItem{
		{"datagrams_received", snap.Received},
		{"dropped_bad_source_port", snap.BadSourcePort},
		{"dropped_busy", snap.Busy},
		{"dropped_malformed", snap.Malformed},
		{"dropped_not_a_query", snap.NotAQuery},
		{"dropped_not_for_us", snap.NotForUs},
		{"dropped_oversize", snap.Oversize},
		{"send_failures", snap.SendFailures},
		{"replies_sent", snap.Replies},
		{"answer_records", snap.AnswerRecords},
		{"additional_records", snap.AdditionalRecords},
	}
}

// Flush upserts the snapshot's totals in one transaction.
func (s *Store) Flush(snap Snapshot) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin stats flush: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO counters (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	for _, it := range items(snap) {
		if _, err := tx.Exec(query, it.name, int64(it.value)); err != nil {
			return fmt.Errorf("failed to flush counter %s: %w", it.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats flush: %w", err)
	}
	return nil
}

// Load reads persisted totals. A fresh database yields a zero snapshot.
func (s *Store) Load() (Snapshot, error) {
	rows, err := s.conn.Query("SELECT name, value FROM counters")
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load counters: %w", err)
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan counter row: %w", err)
		}
		v := uint64(value)
		switch name {
		case "datagrams_received":
			snap.Received = v
		case "dropped_bad_source_port":
			snap.BadSourcePort = v
		case "dropped_busy":
			snap.Busy = v
		case "dropped_malformed":
			snap.Malformed = v
		case "dropped_not_a_query":
			snap.NotAQuery = v
		case "dropped_not_for_us":
			snap.NotForUs = v
		case "dropped_oversize":
			snap.Oversize = v
		case "send_failures":
			snap.SendFailures = v
		case "replies_sent":
			snap.Replies = v
		case "answer_records":
			snap.AnswerRecords = v
		case "additional_records":
			snap.AdditionalRecords = v
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to iterate counter rows: %w", err)
	}
	return snap, nil
}
