// Package postgres provides a CheckpointStore backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/tripweaver-ai/tripflow"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	checkpoint_id TEXT NOT NULL,
	state JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (thread_id, seq)
)`

// Store persists checkpoints to a PostgreSQL database. Rows are keyed by
// (thread_id, seq), so concurrent runs with distinct thread IDs never touch
// each other's entries.
type Store struct {
	db *sql.DB
}

// New opens a connection with the given DSN and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, checkpoint *tripflow.Checkpoint) error {
	state, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (thread_id, seq, checkpoint_id, state, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (thread_id, seq) DO UPDATE
		 SET checkpoint_id = EXCLUDED.checkpoint_id,
		     state = EXCLUDED.state,
		     saved_at = EXCLUDED.saved_at`,
		checkpoint.ThreadID, checkpoint.Seq, checkpoint.ID, state, checkpoint.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context, threadID string) (*tripflow.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, checkpoint_id, state, saved_at FROM checkpoints
		 WHERE thread_id = $1 ORDER BY seq DESC LIMIT 1`,
		threadID)
	checkpoint, err := scanCheckpoint(row.Scan, threadID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return checkpoint, err
}

func (s *Store) History(ctx context.Context, threadID string) ([]*tripflow.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, checkpoint_id, state, saved_at FROM checkpoints
		 WHERE thread_id = $1 ORDER BY seq`,
		threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint history: %w", err)
	}
	defer rows.Close()

	var checkpoints []*tripflow.Checkpoint
	for rows.Next() {
		checkpoint, err := scanCheckpoint(rows.Scan, threadID)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, rows.Err()
}

func scanCheckpoint(scan func(...any) error, threadID string) (*tripflow.Checkpoint, error) {
	checkpoint := &tripflow.Checkpoint{ThreadID: threadID}
	var state []byte
	if err := scan(&checkpoint.Seq, &checkpoint.ID, &state, &checkpoint.SavedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(state, &checkpoint.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
	}
	return checkpoint, nil
}
