// Package dashboard coordinates the load/filter/visualize/highlight
// cycle over one active dataset. All views derive from a single
// immutable bundle that is swapped atomically on load, so concurrent
// readers never observe a half-replaced dataset.
package dashboard

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/aggregate"
	"github.com/sells-group/insight-cli/internal/filter"
	"github.com/sells-group/insight-cli/internal/highlight"
	"github.com/sells-group/insight-cli/internal/ingest"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/normalize"
	"github.com/sells-group/insight-cli/internal/schema"
	"github.com/sells-group/insight-cli/internal/store"
	"github.com/sells-group/insight-cli/pkg/geocode"
)

var (
	// ErrNoDataset is returned by operations that need a loaded dataset.
	ErrNoDataset = eris.New("dashboard: no dataset loaded")

	// ErrSuperseded is returned to a load whose result was discarded
	// because a newer load finished first.
	ErrSuperseded = eris.New("dashboard: load superseded")
)

// Bundle is one loaded dataset: records plus the inference that shaped
// them. Bundles are immutable; a new load builds a new bundle.
type Bundle struct {
	ID       string
	Name     string
	Format   string
	LoadedAt time.Time
	Profiles []model.ColumnProfile
	Mapping  model.FieldMapping
	Records  []model.Record
}

// Options configures a Dashboard. Store and Geocoder are optional;
// without them loads are not cached and coordinates are never
// backfilled.
type Options struct {
	Schema    schema.Options
	Aggregate aggregate.Options
	// Sheet selects the XLSX sheet to load; "" means first non-empty.
	Sheet    string
	Store    store.Store
	Geocoder geocode.Client
}

// Dashboard owns the active dataset and the view state derived from it.
type Dashboard struct {
	opts Options

	loadSeq atomic.Uint64 // tickets issued to loads, in call order

	mu         sync.RWMutex
	appliedSeq uint64 // ticket of the load currently applied
	bundle     *Bundle
	filters    filter.Set
	lastSpec   model.ChartSpec
	lastResult *model.AggregationResult
	selection  highlight.Selection
}

// New creates a Dashboard with no dataset loaded.
func New(opts Options) *Dashboard {
	return &Dashboard{
		opts:    opts,
		filters: filter.Set{},
	}
}

// Load parses, infers, and normalizes a new dataset, then swaps it in
// as the active bundle. Concurrent loads race safely: the load called
// last wins regardless of completion order, and superseded loads return
// ErrSuperseded without touching state. A failed parse also leaves the
// previous bundle in place.
func (d *Dashboard) Load(ctx context.Context, r io.Reader, opts ingest.Options) (*Bundle, error) {
	seq := d.loadSeq.Add(1)

	// Parsing happens outside the lock so a slow load never blocks views
	// of the current dataset.
	ds, err := ingest.Ingest(r, opts)
	if err != nil {
		return nil, err
	}
	sheet, err := ds.ActiveSheet(d.opts.Sheet)
	if err != nil {
		return nil, err
	}

	inf := schema.Infer(sheet.Header, sheet.Rows, d.opts.Schema)
	records := normalize.Normalize(sheet.Rows, inf.Mapping)

	bundle := &Bundle{
		ID:       uuid.New().String(),
		Name:     ds.Name,
		Format:   string(ds.Format),
		LoadedAt: time.Now().UTC(),
		Profiles: inf.Profiles,
		Mapping:  inf.Mapping,
		Records:  records,
	}

	if !d.apply(seq, bundle) {
		return nil, ErrSuperseded
	}

	if d.opts.Store != nil {
		if err := d.opts.Store.SaveDataset(ctx, toSaved(bundle)); err != nil {
			// The dataset is live either way; the cache just won't
			// survive a restart.
			zap.L().Warn("dashboard: save dataset to cache failed",
				zap.String("dataset", bundle.Name),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("dashboard: dataset loaded",
		zap.String("dataset", bundle.Name),
		zap.String("format", bundle.Format),
		zap.Int("records", len(bundle.Records)),
		zap.Int("mapped_fields", len(bundle.Mapping)),
	)
	return bundle, nil
}

// RestoreLast reloads the most recently cached dataset from the store.
// Returns ErrNoDataset when the cache is empty.
func (d *Dashboard) RestoreLast(ctx context.Context) (*Bundle, error) {
	if d.opts.Store == nil {
		return nil, eris.New("dashboard: no store configured")
	}
	seq := d.loadSeq.Add(1)

	saved, err := d.opts.Store.LastDataset(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrNoDataset
	}

	bundle := &Bundle{
		ID:       saved.ID,
		Name:     saved.Name,
		Format:   saved.Format,
		LoadedAt: saved.LoadedAt,
		Profiles: saved.Profiles,
		Mapping:  saved.Mapping,
		Records:  saved.Records,
	}
	if !d.apply(seq, bundle) {
		return nil, ErrSuperseded
	}
	return bundle, nil
}

// apply installs a bundle if its ticket is still the newest, resetting
// all view state. Reports whether the bundle was applied.
func (d *Dashboard) apply(seq uint64, bundle *Bundle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq <= d.appliedSeq {
		return false
	}

	d.appliedSeq = seq
	d.bundle = bundle
	d.filters = filter.Set{}
	d.lastSpec = model.ChartSpec{}
	d.lastResult = nil
	d.selection = nil
	return true
}

// Bundle returns the active bundle, or nil before the first load.
func (d *Dashboard) Bundle() *Bundle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bundle
}

// SetFilter installs a predicate. A second predicate on the same field
// replaces the first.
func (d *Dashboard) SetFilter(p filter.Predicate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = d.filters.With(p)
}

// RemoveFilter drops the predicate for a field, if any.
func (d *Dashboard) RemoveFilter(field model.Field) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = d.filters.Without(field)
}

// ClearFilters drops every predicate.
func (d *Dashboard) ClearFilters() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = filter.Set{}
}

// Filters returns the active predicate set.
func (d *Dashboard) Filters() filter.Set {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filters
}

// FilteredRecords returns the active records under the current filters.
func (d *Dashboard) FilteredRecords() []model.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filteredLocked()
}

func (d *Dashboard) filteredLocked() []model.Record {
	if d.bundle == nil {
		return nil
	}
	return filter.Apply(d.bundle.Records, d.filters)
}

// Visualize selects a chart (ChartAuto picks by mapped roles) and
// aggregates the filtered records for it. On failure the previous spec
// and result stay current, so a renderer keeps showing the last good
// view next to the error.
func (d *Dashboard) Visualize(requested model.ChartType) (*model.AggregationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bundle == nil {
		return nil, ErrNoDataset
	}

	spec, err := aggregate.Select(d.bundle.Mapping, requested, d.opts.Aggregate)
	if err != nil {
		return nil, err
	}

	result, err := aggregate.Aggregate(d.filteredLocked(), spec, d.bundle.Mapping, d.opts.Aggregate)
	if err != nil {
		return nil, err
	}

	d.lastSpec = spec
	d.lastResult = result
	return result, nil
}

// LastView returns the most recent successful spec and result. The
// result is nil before the first successful Visualize.
func (d *Dashboard) LastView() (model.ChartSpec, *model.AggregationResult) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSpec, d.lastResult
}

// Highlight records a selection and resolves it against the filtered
// records. Passing nil clears the highlight.
func (d *Dashboard) Highlight(sel highlight.Selection) highlight.Set {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = sel
	return highlight.RecordsFor(d.filteredLocked(), sel)
}

// Highlighted re-resolves the stored selection against the current
// filtered records, so a filter change narrows the highlight instead of
// leaving stale record IDs lit.
func (d *Dashboard) Highlighted() highlight.Set {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return highlight.RecordsFor(d.filteredLocked(), d.selection)
}

// MapView returns markers and padded bounds for the filtered records.
func (d *Dashboard) MapView() aggregate.MapView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return aggregate.MapMarkers(d.filteredLocked())
}

// KPIs returns headline totals for the filtered records.
func (d *Dashboard) KPIs() aggregate.KPIs {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return aggregate.ComputeKPIs(d.filteredLocked())
}

func toSaved(b *Bundle) *store.SavedDataset {
	return &store.SavedDataset{
		ID:       b.ID,
		Name:     b.Name,
		Format:   b.Format,
		LoadedAt: b.LoadedAt,
		Profiles: b.Profiles,
		Mapping:  b.Mapping,
		Records:  b.Records,
	}
}
