package storage

import (
	"context"

	"github.com/sig-0/krwrates/storage/types"
)

// Storage is an abstraction over rate snapshot data
type Storage interface {
	// SaveSnapshot saves the given snapshot as the latest one
	SaveSnapshot(context.Context, *types.Snapshot) error

	// LatestSnapshot fetches the most recently saved snapshot.
	// It returns nil when no snapshot has been saved yet
	LatestSnapshot(context.Context) (*types.Snapshot, error)
}
