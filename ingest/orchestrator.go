package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/krwrates/storage"
)

var (
	errInvalidProvider = errors.New("invalid provider")
	errInvalidInterval = errors.New("invalid interval")
)

// Orchestrator is the main job scheduler for registered providers
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger

	registeredProviders sync.Map

	q             iq.Queue[scheduledFetch]
	queryInterval time.Duration
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		q:             iq.NewQueue[scheduledFetch](),
		queryInterval: time.Second, // every second
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new provider with the orchestrator.
// The provider is immediately queued up for execution
func (o *Orchestrator) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return errInvalidProvider
	}

	if p.Interval() <= 0 {
		return errInvalidInterval
	}

	// Register the provider
	id := xid.New()
	o.registeredProviders.Store(id, p)

	o.logger.Info(
		"registered new provider",
		"name", p.Name(),
	)

	// Schedule the job
	o.scheduleFetch(
		time.Now().UTC(),
		id,
		p,
	)

	return nil
}

// Start starts the provider orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleFetches initializes all jobs that are executable (due)
	handleFetches := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				nextSF := o.nextFetch()
				if nextSF == nil {
					return // nothing to schedule anymore
				}

				o.logger.Info(
					"scheduling snapshot fetch",
					"name", nextSF.provider.Name(),
				)

				// Spawn worker
				info := &workerInfo{
					provider:   nextSF.provider,
					providerID: nextSF.providerID,
					resCh:      collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due jobs (on boot)
	handleFetches()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")
			close(collectorCh)

			return nil
		case <-ticker.C:
			handleFetches()
		case response := <-collectorCh:
			now := time.Now().UTC()

			rpRaw, ok := o.registeredProviders.Load(response.providerID)

			if !ok {
				o.logger.Error(
					"unable to load registered provider",
					"id", response.providerID.String(),
				)

				continue
			}

			rp, _ := rpRaw.(Provider)

			// Save the fetched snapshot.
			// Every fetch attempt is fail-fast: there is no partial
			// snapshot to salvage, only a retry soon after
			if response.error != nil {
				o.logger.Error(
					"error encountered during snapshot fetch",
					"id", response.providerID.String(),
					"err", response.error.Error(),
				)

				// Retry the fetch job soon
				o.scheduleFetch(
					now.Add(time.Second*10),
					response.providerID,
					rp,
				)

				continue
			}

			saveCtx, cancelFn := context.WithTimeout(ctx, time.Second*10)

			if err := o.storage.SaveSnapshot(saveCtx, response.snapshot); err != nil {
				o.logger.Error(
					"unable to save snapshot",
					"provider", rp.Name(),
					"err", err,
				)
			} else {
				o.logger.Info(
					"saved snapshot",
					"provider", rp.Name(),
					"fetched_at", response.snapshot.FetchedAt.String(),
					"source_time", response.snapshot.SourceTime,
				)
			}

			cancelFn()

			// Schedule a new fetch for this provider
			o.scheduleFetch(
				now.Add(rp.Interval()),
				response.providerID,
				rp,
			)
		}
	}
}

// scheduleFetch schedules a new provider fetch
func (o *Orchestrator) scheduleFetch(
	at time.Time,
	providerID xid.ID,
	provider Provider,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	futureSF := scheduledFetch{
		at:         at,
		providerID: providerID,
		provider:   provider,
	}

	o.q.Push(futureSF)
}

// nextFetch fetches the next due fetch job, as of the moment of calling
func (o *Orchestrator) nextFetch() *scheduledFetch {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, latest job is in the future
	}

	// Grab the next job
	nextSF := o.q.PopFront()

	return nextSF
}
