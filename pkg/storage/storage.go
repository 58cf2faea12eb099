// Package storage persists ingested conversation records in SQLite.
// The database is a sink written by the import tool and read whole by
// the dashboard; there is no partial update path.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

const schema = `
-- One row per ingested conversation. Duplicate profile names are kept
-- on purpose: distinct export units may legitimately describe distinct
-- conversations with the same person.
CREATE TABLE IF NOT EXISTS conversations (
	profile_name TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	thread_path TEXT,
	first_contact_ms INTEGER NOT NULL,
	last_contact_ms INTEGER NOT NULL,
	conversation TEXT NOT NULL,
	message_count INTEGER NOT NULL,
	duration_days INTEGER NOT NULL,
	participant_count INTEGER NOT NULL,
	source TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_first_contact
	ON conversations (first_contact_ms DESC);
`

// Storage handles all database operations for conversation records.
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and ensures the
// schema exists.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// ReplaceAll atomically replaces the stored corpus with records. An
// ingestion run always writes the full set, so the previous contents
// are dropped inside the same transaction.
func (s *Storage) ReplaceAll(ctx context.Context, records []convo.ConversationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversations (
			profile_name, profile_id, thread_path,
			first_contact_ms, last_contact_ms, conversation,
			message_count, duration_days, participant_count, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ProfileName, r.ProfileID, nullIfEmpty(r.ThreadPath),
			r.FirstContact.UnixMilli(), r.LastContact.UnixMilli(), r.ConversationText,
			r.MessageCount, r.DurationDays, r.ParticipantCount, string(r.Source),
		); err != nil {
			return fmt.Errorf("failed to insert conversation %q: %w", r.ProfileName, err)
		}
	}

	return tx.Commit()
}

// LoadAll reads every stored conversation record in insertion order.
func (s *Storage) LoadAll(ctx context.Context) ([]convo.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_name, profile_id, thread_path,
			   first_contact_ms, last_contact_ms, conversation,
			   message_count, duration_days, participant_count, source
		FROM conversations
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var records []convo.ConversationRecord
	for rows.Next() {
		var r convo.ConversationRecord
		var threadPath sql.NullString
		var firstMs, lastMs int64
		var source string
		if err := rows.Scan(&r.ProfileName, &r.ProfileID, &threadPath,
			&firstMs, &lastMs, &r.ConversationText,
			&r.MessageCount, &r.DurationDays, &r.ParticipantCount, &source); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		r.ThreadPath = threadPath.String
		r.FirstContact = time.UnixMilli(firstMs).UTC()
		r.LastContact = time.UnixMilli(lastMs).UTC()
		r.Source = convo.Source(source)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored conversation records.
func (s *Storage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
