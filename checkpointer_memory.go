package tripflow

import (
	"context"
	"sync"
)

// MemoryCheckpointStore keeps checkpoints in process memory. It is the
// default store and is safe for concurrent runs with distinct thread IDs.
type MemoryCheckpointStore struct {
	mutex       sync.RWMutex
	checkpoints map[string][]*Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-memory store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: map[string][]*Checkpoint{},
	}
}

func (s *MemoryCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.checkpoints[checkpoint.ThreadID] = append(s.checkpoints[checkpoint.ThreadID], checkpoint)
	return nil
}

func (s *MemoryCheckpointStore) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history := s.checkpoints[threadID]
	if len(history) == 0 {
		return nil, nil
	}
	return history[len(history)-1], nil
}

func (s *MemoryCheckpointStore) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history := s.checkpoints[threadID]
	out := make([]*Checkpoint, len(history))
	copy(out, history)
	return out, nil
}
