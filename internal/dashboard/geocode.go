package dashboard

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/pkg/geocode"
)

// geocodeConcurrency bounds parallel geocoder calls during backfill.
const geocodeConcurrency = 8

// GeocodeBackfill resolves coordinates for records that carry a city
// but no latitude/longitude, then swaps the updated records into the
// bundle. Individual misses are skipped, not errors. Returns the number
// of records that gained coordinates.
//
// Backfill works on a copy and only commits if no new dataset was
// loaded meanwhile, preserving the whole-bundle swap invariant.
func (d *Dashboard) GeocodeBackfill(ctx context.Context) (int, error) {
	if d.opts.Geocoder == nil {
		return 0, eris.New("dashboard: no geocoder configured")
	}

	d.mu.RLock()
	bundle := d.bundle
	seq := d.appliedSeq
	d.mu.RUnlock()
	if bundle == nil {
		return 0, ErrNoDataset
	}

	records := make([]model.Record, len(bundle.Records))
	copy(records, bundle.Records)

	var candidates []int
	for i, rec := range records {
		if rec.Coordinates == nil && rec.Categorical[model.FieldCity] != "" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	results := make([]*geocode.Result, len(candidates))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(geocodeConcurrency)
	for ci, ri := range candidates {
		rec := records[ri]
		eg.Go(func() error {
			r, err := d.opts.Geocoder.Geocode(gCtx, geocode.Place{
				City:   rec.Categorical[model.FieldCity],
				Region: rec.Categorical[model.FieldRegion],
			})
			if err != nil {
				return err
			}
			results[ci] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, eris.Wrap(err, "dashboard: geocode backfill")
	}

	var filled int
	for ci, ri := range candidates {
		r := results[ci]
		if r == nil || !r.Matched {
			continue
		}
		rec := records[ri]
		rec.Coordinates = &model.Coordinates{Lat: r.Latitude, Lon: r.Longitude}
		records[ri] = rec
		filled++
	}
	if filled == 0 {
		return 0, nil
	}

	updated := *bundle
	updated.Records = records

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.appliedSeq != seq {
		// A newer dataset replaced the one we backfilled.
		return 0, ErrSuperseded
	}
	d.bundle = &updated

	zap.L().Info("dashboard: geocode backfill complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("filled", filled),
	)
	return filled, nil
}
