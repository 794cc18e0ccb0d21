package tripflow

import (
	"context"
)

// CheckpointStore persists planning state snapshots keyed by thread ID.
// Implementations must keep distinct keys isolated: concurrent writes and
// reads to different thread IDs never corrupt each other's entries. The only
// consistency guarantee required is single-key read-after-write.
type CheckpointStore interface {

	// Save writes a checkpoint.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Latest returns the most recent checkpoint for a thread, or nil if
	// the thread has never been checkpointed.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// History returns all checkpoints for a thread ordered by sequence.
	History(ctx context.Context, threadID string) ([]*Checkpoint, error)
}

// NullCheckpointStore is a no-op implementation.
type NullCheckpointStore struct{}

func NewNullCheckpointStore() *NullCheckpointStore {
	return &NullCheckpointStore{}
}

func (s *NullCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	return nil
}

func (s *NullCheckpointStore) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	return nil, nil
}

func (s *NullCheckpointStore) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	return nil, nil
}
