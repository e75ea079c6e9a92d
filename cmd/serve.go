package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insight-cli/internal/aggregate"
	"github.com/sells-group/insight-cli/internal/dashboard"
	"github.com/sells-group/insight-cli/internal/export"
	"github.com/sells-group/insight-cli/internal/filter"
	"github.com/sells-group/insight-cli/internal/highlight"
	"github.com/sells-group/insight-cli/internal/ingest"
	"github.com/sells-group/insight-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	Long:  "Serves dataset upload, schema profiles, filters, chart aggregations, highlights, map markers, KPIs, and XLSX export over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initDashboard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Serve whatever was loaded last, if anything.
		if _, err := env.Dashboard.RestoreLast(ctx); err != nil && !errors.Is(err, dashboard.ErrNoDataset) {
			zap.L().Warn("restore last dataset failed", zap.Error(err))
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(env.Dashboard, cfg.Server.AllowedOrigins),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// buildRouter wires the dashboard behind the HTTP API.
func buildRouter(d *dashboard.Dashboard, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/datasets", func(w http.ResponseWriter, req *http.Request) {
		name := req.URL.Query().Get("name")
		if name == "" {
			name = "upload"
		}
		opts := ingestOptions(name)
		if f := req.URL.Query().Get("format"); f != "" {
			opts.Format = ingest.Format(f)
		}

		bundle, err := d.Load(req.Context(), req.Body, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":       bundle.ID,
			"name":     bundle.Name,
			"format":   bundle.Format,
			"records":  len(bundle.Records),
			"mapping":  bundle.Mapping,
			"profiles": bundle.Profiles,
		})
	})

	r.Get("/profiles", func(w http.ResponseWriter, _ *http.Request) {
		bundle := d.Bundle()
		if bundle == nil {
			writeError(w, dashboard.ErrNoDataset)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"profiles": bundle.Profiles,
			"mapping":  bundle.Mapping,
		})
	})

	r.Put("/filters/{field}", func(w http.ResponseWriter, req *http.Request) {
		field := chi.URLParam(req, "field")

		var p filter.Predicate
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		switch p.Kind {
		case filter.KindTextContains:
			p = filter.TextContains(p.Term)
		case filter.KindEquals, filter.KindRange:
			if field == "text" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "the text filter takes a text predicate"})
				return
			}
			p.Field = model.Field(field)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown predicate kind %q", p.Kind)})
			return
		}

		d.SetFilter(p)
		writeJSON(w, http.StatusOK, map[string]any{
			"filters": d.Filters(),
			"records": len(d.FilteredRecords()),
		})
	})

	r.Delete("/filters/{field}", func(w http.ResponseWriter, req *http.Request) {
		field := model.Field(chi.URLParam(req, "field"))
		if field == "text" {
			field = filter.TextField()
		}
		d.RemoveFilter(field)
		writeJSON(w, http.StatusOK, map[string]any{
			"filters": d.Filters(),
			"records": len(d.FilteredRecords()),
		})
	})

	r.Get("/visualize", func(w http.ResponseWriter, req *http.Request) {
		chart := req.URL.Query().Get("chart")
		if chart == "" {
			chart = string(model.ChartAuto)
		}
		result, err := d.Visualize(model.ChartType(chart))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/highlight", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Type     string      `json:"type"`
			Field    model.Field `json:"field,omitempty"`
			Label    string      `json:"label,omitempty"`
			Month    string      `json:"month,omitempty"`
			RecordID int         `json:"recordId,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		sel, err := selectionFrom(body.Type, body.Field, body.Label, body.Month, body.RecordID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		set := d.Highlight(sel)
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		writeJSON(w, http.StatusOK, map[string]any{"recordIds": ids})
	})

	r.Get("/map", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.MapView())
	})

	r.Get("/kpis", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.KPIs())
	})

	r.Get("/export/xlsx", func(w http.ResponseWriter, _ *http.Request) {
		bundle := d.Bundle()
		if bundle == nil {
			writeError(w, dashboard.ErrNoDataset)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(bundle.Name, "xlsx")))
		if err := export.WriteXLSX(w, bundle.Name, d.FilteredRecords(), bundle.Mapping); err != nil {
			zap.L().Error("xlsx export failed", zap.Error(err))
		}
	})

	return r
}

// selectionFrom builds a highlight selection from the request body.
// "clear" yields nil, which clears the active highlight.
func selectionFrom(kind string, field model.Field, label, month string, recordID int) (highlight.Selection, error) {
	switch kind {
	case "category":
		if field == "" {
			return nil, eris.New("category highlight needs a field")
		}
		return highlight.CategorySelection{Field: field, Label: label}, nil
	case "month":
		if month == "" {
			return nil, eris.New("month highlight needs a month")
		}
		return highlight.MonthSelection{Month: month}, nil
	case "marker":
		return highlight.MarkerSelection{RecordID: recordID}, nil
	case "clear":
		return nil, nil
	default:
		return nil, eris.Errorf("unknown highlight type %q", kind)
	}
}

// exportName swaps a dataset name's extension for the export format's.
func exportName(dataset, ext string) string {
	return strings.TrimSuffix(dataset, filepath.Ext(dataset)) + "." + ext
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var ingestErr *ingest.IngestError
	var aggErr *aggregate.AggregationError
	switch {
	case errors.Is(err, dashboard.ErrNoDataset):
		status = http.StatusConflict
	case errors.Is(err, dashboard.ErrSuperseded):
		status = http.StatusConflict
	case errors.As(err, &ingestErr):
		status = http.StatusBadRequest
	case errors.As(err, &aggErr):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
