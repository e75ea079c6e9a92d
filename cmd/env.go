package main

import (
	"context"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/aggregate"
	"github.com/sells-group/insight-cli/internal/dashboard"
	"github.com/sells-group/insight-cli/internal/fetcher"
	"github.com/sells-group/insight-cli/internal/ingest"
	"github.com/sells-group/insight-cli/internal/schema"
	"github.com/sells-group/insight-cli/internal/store"
	"github.com/sells-group/insight-cli/pkg/geocode"
)

// dashEnv bundles the dashboard with the resources behind it so
// commands can tear everything down with one Close.
type dashEnv struct {
	Dashboard *dashboard.Dashboard
	Store     store.Store
	Opener    *fetcher.Opener
}

func (e *dashEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initDashboard builds a dashboard wired to the configured store and
// geocoder, running migrations on the way up.
func initDashboard(ctx context.Context) (*dashEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	d := dashboard.New(dashboard.Options{
		Schema:    schemaOptions(),
		Aggregate: aggregateOptions(),
		Sheet:     cfg.Ingest.Sheet,
		Store:     st,
		Geocoder:  newGeocoder(),
	})

	return &dashEnv{
		Dashboard: d,
		Store:     st,
		Opener:    fetcher.NewOpener(),
	}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newGeocoder() geocode.Client {
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RequestsPerSec),
		geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second,
		}),
	)
}

func schemaOptions() schema.Options {
	opts := schema.Options{
		SampleSize:        cfg.Schema.SampleSize,
		NumericThreshold:  cfg.Schema.NumericThreshold,
		TemporalThreshold: cfg.Schema.TemporalThreshold,
	}
	if cfg.Schema.SynonymsPath != "" {
		table := schema.DefaultSynonyms()
		f, err := os.Open(cfg.Schema.SynonymsPath)
		if err != nil {
			zap.L().Warn("synonyms file not readable, using built-ins",
				zap.String("path", cfg.Schema.SynonymsPath),
				zap.Error(err),
			)
			return opts
		}
		defer f.Close()
		if err := table.MergeYAML(f); err != nil {
			zap.L().Warn("synonyms file invalid, using built-ins",
				zap.String("path", cfg.Schema.SynonymsPath),
				zap.Error(err),
			)
			return opts
		}
		opts.Synonyms = table
	}
	return opts
}

func aggregateOptions() aggregate.Options {
	return aggregate.Options{
		TopN:          cfg.Aggregate.TopN,
		ScatterCap:    cfg.Aggregate.ScatterCap,
		HistogramBins: cfg.Aggregate.HistogramBins,
		RadiusMin:     cfg.Aggregate.RadiusMin,
		RadiusMax:     cfg.Aggregate.RadiusMax,
	}
}

// ingestOptions derives parse options for a source: the configured
// format override plus the source's base name for sniffing.
func ingestOptions(source string) ingest.Options {
	opts := ingest.Options{
		Format:   ingest.Format(cfg.Ingest.Format),
		Name:     sourceFileName(source),
		Encoding: cfg.Ingest.Encoding,
	}
	if d := cfg.Ingest.Delimiter; d != "" {
		opts.Delimiter = []rune(d)[0]
	}
	return opts
}

func sourceFileName(source string) string {
	base := source
	if i := strings.Index(base, "://"); i >= 0 {
		base = base[i+3:]
	}
	return path.Base(strings.ReplaceAll(base, "\\", "/"))
}
