package ingest

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/krwrates/storage/types"
)

// scheduledFetch is a single scheduled Provider fetch job
type scheduledFetch struct {
	at         time.Time
	provider   Provider
	providerID xid.ID
}

// Less is utilized to sort scheduled fetches by their due-time (latest == first)
func (a scheduledFetch) Less(b scheduledFetch) bool {
	return a.at.Before(b.at)
}

// workerInfo is the work context for the provider routine
type workerInfo struct {
	provider   Provider
	resCh      chan<- *workerResponse
	providerID xid.ID
}

// workerResponse is the provider routine response
type workerResponse struct {
	error      error           // encountered error, if any
	snapshot   *types.Snapshot // the fetched snapshot
	providerID xid.ID          // the provider ID
}

// handleJob fetches using the provider
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	snapshot, err := info.provider.Fetch(ctx)

	response := &workerResponse{
		error:      err,
		snapshot:   snapshot,
		providerID: info.providerID,
	}

	select {
	case <-ctx.Done():
	case info.resCh <- response:
	}
}
