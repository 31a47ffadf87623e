package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sig-0/krwrates/storage/types"
)

// Storage keeps the latest snapshot in process memory
type Storage struct {
	latest *types.Snapshot

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{}
}

func (s *Storage) SaveSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	s.mu.Lock()
	s.latest = snapshot // snapshots are immutable once assembled
	s.mu.Unlock()

	return nil
}

func (s *Storage) LatestSnapshot(_ context.Context) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, nil
}
