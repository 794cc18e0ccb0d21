package tripflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileCheckpointStore persists checkpoints to disk, one directory per thread
// with one JSON file per checkpoint plus a "latest.json" copy.
type FileCheckpointStore struct {
	dataDir string
}

// NewFileCheckpointStore creates a file-based checkpoint store rooted at
// dataDir. An empty dataDir defaults to ~/.tripflow/runs.
func NewFileCheckpointStore(dataDir string) (*FileCheckpointStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".tripflow", "runs")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &FileCheckpointStore{dataDir: dataDir}, nil
}

func (s *FileCheckpointStore) threadDir(threadID string) string {
	return filepath.Join(s.dataDir, threadID)
}

func (s *FileCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	threadDir := s.threadDir(checkpoint.ThreadID)
	if err := os.MkdirAll(threadDir, 0755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	checkpointPath := filepath.Join(threadDir, fmt.Sprintf("checkpoint-%06d.json", checkpoint.Seq))
	if err := os.WriteFile(checkpointPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}

	// A plain copy is used for the latest pointer rather than a symlink so
	// the layout works on any filesystem.
	latestPath := filepath.Join(threadDir, "latest.json")
	if err := os.WriteFile(latestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write latest checkpoint: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	latestPath := filepath.Join(s.threadDir(threadID), "latest.json")
	if _, err := os.Stat(latestPath); os.IsNotExist(err) {
		return nil, nil
	}
	return s.readCheckpoint(latestPath)
}

func (s *FileCheckpointStore) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	entries, err := os.ReadDir(s.threadDir(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read thread directory: %w", err)
	}

	var checkpoints []*Checkpoint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "latest.json" {
			continue
		}
		checkpoint, err := s.readCheckpoint(filepath.Join(s.threadDir(threadID), name))
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Seq < checkpoints[j].Seq
	})
	return checkpoints, nil
}

// ListRuns returns a summary for every thread with at least one checkpoint,
// newest first.
func (s *FileCheckpointStore) ListRuns(ctx context.Context) ([]*RunSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var summaries []*RunSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		checkpoint, err := s.Latest(ctx, entry.Name())
		if err != nil || checkpoint == nil {
			continue // skip threads we can't read
		}
		summaries = append(summaries, &RunSummary{
			ThreadID:    checkpoint.ThreadID,
			Destination: checkpoint.State.Request.Destination,
			CurrentStep: checkpoint.State.CurrentStep,
			Completed:   len(checkpoint.State.CompletedStages),
			Errors:      len(checkpoint.State.Errors),
			SavedAt:     checkpoint.SavedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SavedAt.After(summaries[j].SavedAt)
	})
	return summaries, nil
}

func (s *FileCheckpointStore) readCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}
