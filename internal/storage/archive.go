// ABOUTME: SQLite archive of log entries that pruning would discard.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/sentinel/internal/logstore"
	_ "modernc.org/sqlite"
)

// Archive wraps the SQLite database holding retired log entries.
type Archive struct {
	db     *sql.DB
	dbPath string
}

// Record is one archived log field.
type Record struct {
	ID         uuid.UUID
	LogName    string // convention: health_logs or general_logs
	Host       string
	RecordedAt time.Time
	Field      string
	ValueNum   *float64
	ValueText  *string
}

// Open opens or creates the archive database at the given path.
func Open(dbPath string) (*Archive, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &Archive{db: db, dbPath: dbPath}

	if err := a.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return a, nil
}

// DefaultPath returns the archive path under the given data dir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "archive.db")
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// configurePragmas sets up SQLite for optimal performance.
func (a *Archive) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := a.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// initSchema creates or updates the database schema.
func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		log_name TEXT NOT NULL,
		host TEXT NOT NULL,
		recorded_at DATETIME NOT NULL,
		field TEXT NOT NULL,
		value_num REAL,
		value_text TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_log ON entries(log_name, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_host ON entries(host, recorded_at DESC);
	`

	_, err := a.db.Exec(schema)
	return err
}

// ArchiveEntries stores pruned log entries, one row per report field.
// Numeric values land in value_num, everything else is JSON-encoded
// into value_text.
func (a *Archive) ArchiveEntries(logName, host string, entries []logstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO entries (id, log_name, host, recorded_at, field, value_num, value_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range entries {
		for field, value := range e.Fields {
			var num *float64
			var text *string
			if f, ok := value.(float64); ok {
				num = &f
			} else {
				data, err := json.Marshal(value)
				if err != nil {
					return fmt.Errorf("encode field %s: %w", field, err)
				}
				s := string(data)
				text = &s
			}
			_, err := tx.Exec(query,
				uuid.New().String(),
				logName,
				host,
				e.At.Format(time.RFC3339),
				field,
				num,
				text,
			)
			if err != nil {
				return fmt.Errorf("archive entry: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRecords retrieves archived records, newest first, optionally
// filtered by log name. limit <= 0 means no limit.
func (a *Archive) ListRecords(logName string, limit int) ([]*Record, error) {
	query := `
		SELECT id, log_name, host, recorded_at, field, value_num, value_text
		FROM entries
	`
	var args []interface{}
	if logName != "" {
		query += " WHERE log_name = ?"
		args = append(args, logName)
	}
	query += " ORDER BY recorded_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListAlerts retrieves archived records whose field is one of the
// given alarm words, newest first. limit <= 0 means no limit.
func (a *Archive) ListAlerts(alarmWords []string, limit int) ([]*Record, error) {
	if len(alarmWords) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(alarmWords)), ",")
	query := fmt.Sprintf(`
		SELECT id, log_name, host, recorded_at, field, value_num, value_text
		FROM entries
		WHERE field IN (%s)
		ORDER BY recorded_at DESC`, placeholders)

	args := make([]interface{}, 0, len(alarmWords)+1)
	for _, w := range alarmWords {
		args = append(args, w)
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var r Record
	var id, recordedAt string
	if err := rows.Scan(&id, &r.LogName, &r.Host, &recordedAt, &r.Field, &r.ValueNum, &r.ValueText); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	r.ID = parsed

	t, err := time.Parse(time.RFC3339, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}
	r.RecordedAt = t

	return &r, nil
}
