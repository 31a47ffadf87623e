package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sig-0/krwrates/storage/types"
)

// Storage persists the latest snapshot as the rates.json artifact.
// The artifact file is the sole contract between the periodic fetch
// job and a static frontend with no server-side fetch capability
type Storage struct {
	path       string
	source     string
	buildID    string
	currencies []types.Descriptor
}

// NewStorage creates a file-backed snapshot store writing to path
func NewStorage(
	path string,
	source string,
	buildID string,
	currencies []types.Descriptor,
) *Storage {
	return &Storage{
		path:       path,
		source:     source,
		buildID:    buildID,
		currencies: currencies,
	}
}

func (s *Storage) SaveSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	artifact := types.NewArtifact(snapshot, s.source, s.buildID, s.currencies)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal artifact: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create artifact dir: %w", err)
	}

	// Write-then-rename, so a concurrent reader never sees a torn artifact
	tmp, err := os.CreateTemp(dir, ".rates-*.json")
	if err != nil {
		return fmt.Errorf("unable to create temp artifact: %w", err)
	}

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("unable to write artifact: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("unable to close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("unable to move artifact into place: %w", err)
	}

	return nil
}

func (s *Storage) LatestSnapshot(_ context.Context) (*types.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // no snapshot written yet
		}

		return nil, fmt.Errorf("unable to read artifact: %w", err)
	}

	var artifact types.Artifact

	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("unable to unmarshal artifact: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, artifact.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("unable to parse artifact timestamp: %w", err)
	}

	snapshot := &types.Snapshot{
		RatesByType: artifact.RatesByType,
		FetchedAt:   fetchedAt,
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}
