package tripflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteAuditLog persists outcome and error records to a SQLite database.
type SQLiteAuditLog struct {
	db *sql.DB
}

// NewSQLiteAuditLog opens (or creates) the audit database at dbPath.
func NewSQLiteAuditLog(dbPath string) (*SQLiteAuditLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS agent_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			data TEXT,
			timestamp DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS error_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_thread ON agent_outcomes(thread_id);`,
		`CREATE INDEX IF NOT EXISTS idx_errors_thread ON error_records(thread_id);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
		}
	}
	return &SQLiteAuditLog{db: db}, nil
}

// Close releases the underlying database handle.
func (l *SQLiteAuditLog) Close() error {
	return l.db.Close()
}

func (l *SQLiteAuditLog) RecordOutcome(ctx context.Context, threadID string, outcome *AgentOutcome) error {
	data, err := json.Marshal(outcome.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome data: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO agent_outcomes (thread_id, stage, status, data, timestamp) VALUES (?, ?, ?, ?, ?)`,
		threadID, string(outcome.Stage), string(outcome.Status), string(data), outcome.Timestamp)
	return err
}

func (l *SQLiteAuditLog) RecordError(ctx context.Context, record *ErrorRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO error_records (thread_id, stage, message, timestamp) VALUES (?, ?, ?, ?)`,
		record.ThreadID, string(record.Stage), record.Message, record.Timestamp)
	return err
}

func (l *SQLiteAuditLog) OutcomeHistory(ctx context.Context, threadID string) ([]*AgentOutcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, status, data, timestamp FROM agent_outcomes WHERE thread_id = ? ORDER BY id`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*AgentOutcome
	for rows.Next() {
		var stage, status, data string
		var timestamp time.Time
		if err := rows.Scan(&stage, &status, &data, &timestamp); err != nil {
			return nil, err
		}
		outcome := &AgentOutcome{
			Stage:     Stage(stage),
			Status:    OutcomeStatus(status),
			Timestamp: timestamp,
		}
		if data != "" {
			if err := json.Unmarshal([]byte(data), &outcome.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal outcome data: %w", err)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

func (l *SQLiteAuditLog) ErrorHistory(ctx context.Context, threadID string) ([]*ErrorRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, message, timestamp FROM error_records WHERE thread_id = ? ORDER BY id`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ErrorRecord
	for rows.Next() {
		record := &ErrorRecord{ThreadID: threadID}
		var stage string
		if err := rows.Scan(&stage, &record.Message, &record.Timestamp); err != nil {
			return nil, err
		}
		record.Stage = Stage(stage)
		records = append(records, record)
	}
	return records, rows.Err()
}
