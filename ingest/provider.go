package ingest

import (
	"context"
	"time"

	"github.com/sig-0/krwrates/storage/types"
)

// Provider is a single rate snapshot provider
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Interval returns the interval at which the provider should be called
	Interval() time.Duration

	// Fetch is the provider's main fetch job, yielding a full rate snapshot.
	// A provider never yields a partial snapshot: a fetch either produces
	// the complete table or an error
	Fetch(context.Context) (*types.Snapshot, error)
}
