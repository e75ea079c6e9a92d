// Package store persists the most recently loaded dataset so a restart
// (or a fresh CLI invocation) can resume visualizing without re-parsing
// the source file.
package store

import (
	"context"
	"time"

	"github.com/sells-group/insight-cli/internal/model"
)

// SavedDataset is the cached form of a loaded dataset: the normalized
// records plus the inference output needed to rebuild every view.
type SavedDataset struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Format   string                `json:"format"`
	LoadedAt time.Time             `json:"loadedAt"`
	Profiles []model.ColumnProfile `json:"profiles"`
	Mapping  model.FieldMapping    `json:"mapping"`
	Records  []model.Record        `json:"records"`
}

// Store defines the dataset cache interface.
type Store interface {
	// SaveDataset persists a dataset snapshot. A zero ID gets a fresh
	// UUID; a zero LoadedAt gets the current time.
	SaveDataset(ctx context.Context, ds *SavedDataset) error

	// LastDataset returns the most recently saved dataset, or nil when
	// the cache is empty.
	LastDataset(ctx context.Context) (*SavedDataset, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// datasetPayload is the JSON blob column: everything except the columns
// the store queries on.
type datasetPayload struct {
	Profiles []model.ColumnProfile `json:"profiles"`
	Mapping  model.FieldMapping    `json:"mapping"`
	Records  []model.Record        `json:"records"`
}
