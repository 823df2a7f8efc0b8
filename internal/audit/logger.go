package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"labelpress/internal/constants"
)

// Logger provides thread-safe, append-only audit logging backed by the
// service database, with periodic size-capped purging of the oldest
// entries.
type Logger struct {
	db              *sql.DB
	maxLogSizeBytes int64
	purgePercentage int
	stopPurge       chan struct{}
}

// NewLogger creates an audit logger and starts its purge goroutine.
func NewLogger(db *sql.DB, maxLogSizeBytes int64, purgePercentage int) *Logger {
	l := &Logger{
		db:              db,
		maxLogSizeBytes: maxLogSizeBytes,
		purgePercentage: purgePercentage,
		stopPurge:       make(chan struct{}),
	}
	go l.purgeLoop()
	return l
}

// Stop stops the purge goroutine (call during graceful shutdown).
func (l *Logger) Stop() {
	close(l.stopPurge)
}

// Log records an audit entry. Details are marshalled to JSON; a nil details
// value records NULL.
func (l *Logger) Log(action, ipAddress, principal string, details interface{}) error {
	if !IsValidAction(action) {
		return fmt.Errorf("invalid audit action: %s", action)
	}

	var detailsJSON sql.NullString
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_log (timestamp, action, ip_address, principal, details_json)
		VALUES (?, ?, ?, ?, ?)
	`, time.Now().Unix(), action, ipAddress, principal, detailsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent entries, newest first. Details are
// returned as raw JSON strings.
func (l *Logger) Recent(limit int) ([]Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, timestamp, action, ip_address, principal, details_json
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.IPAddress, &e.Principal, &details); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = json.RawMessage(details.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// purgeLoop periodically enforces the log size limit.
func (l *Logger) purgeLoop() {
	ticker := time.NewTicker(constants.AuditPurgeCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.enforceSizeLimit()
		case <-l.stopPurge:
			return
		}
	}
}

// enforceSizeLimit purges the oldest entries when the database grows past
// the configured cap.
func (l *Logger) enforceSizeLimit() {
	var pageCount, pageSize int64
	if err := l.db.QueryRow("SELECT page_count FROM pragma_page_count()").Scan(&pageCount); err != nil {
		return
	}
	if err := l.db.QueryRow("SELECT page_size FROM pragma_page_size()").Scan(&pageSize); err != nil {
		return
	}
	if pageCount*pageSize < l.maxLogSizeBytes {
		return
	}

	var total int64
	if err := l.db.QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&total); err != nil {
		return
	}
	purge := total * int64(l.purgePercentage) / 100
	if purge <= 0 {
		return
	}

	l.db.Exec(`
		DELETE FROM audit_log
		WHERE id IN (SELECT id FROM audit_log ORDER BY id ASC LIMIT ?)
	`, purge)
}
