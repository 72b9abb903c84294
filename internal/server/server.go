// Package server serves the exporter's HTTP surface: the Prometheus scrape
// endpoint plus a small HTML/JSON view of the last published cycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/and161185/terraria-exporter/internal/config"
	"github.com/and161185/terraria-exporter/internal/server/middleware"
	"github.com/and161185/terraria-exporter/model"
	"github.com/and161185/terraria-exporter/storage/inmemory"
)

const shutdownTimeout = 5 * time.Second

//go:generate mockgen -source=server.go -destination=mocks/mock_storage.go -package=mocks

// Storage is the read side of the last published metric set.
type Storage interface {
	Get(ctx context.Context, id string) (model.Sample, error)
	GetAll(ctx context.Context) (model.MetricSet, error)
	Ping(ctx context.Context) error
}

type Server struct {
	Storage  Storage
	Gatherer prometheus.Gatherer
	Config   *config.ExporterConfig
}

func NewServer(storage Storage, gatherer prometheus.Gatherer, config *config.ExporterConfig) *Server {
	return &Server{
		Storage:  storage,
		Gatherer: gatherer,
		Config:   config,
	}
}

// Router builds the route table.
func (srv *Server) Router() (http.Handler, error) {
	trusted, err := middleware.TrustedCIDR(srv.Config.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.Config.Logger))

	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(srv.Gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	router.Get("/healthz", srv.HealthHandler)

	router.Group(func(r chi.Router) {
		r.Use(middleware.CompressMiddleware)
		r.Get("/", srv.ListMetricsHandler)
		r.Get("/value/{name}", srv.GetMetricHandler)
		r.With(trusted, middleware.DecompressMiddleware).Post("/value", srv.GetMetricHandlerJSON)
	})
	return router, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	router, err := srv.Router()
	if err != nil {
		return err
	}
	hs := &http.Server{
		Addr:              srv.Config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (srv *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.Storage.Ping(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// GetMetricHandler answers the value of an unlabelled series as text.
func (srv *Server) GetMetricHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stored, err := srv.Storage.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, inmemory.ErrMetricNotFound) {
			http.NotFound(w, r)
			return
		}
		srv.Config.Logger.Errorf("failed to get metric from storage [name=%s]: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(strconv.FormatFloat(stored.Value, 'g', -1, 64))); err != nil {
		srv.Config.Logger.Debugf("failed to write response body for metric [name=%s]: %v", name, err)
	}
}

type valueRequest struct {
	ID string `json:"id"`
}

// GetMetricHandlerJSON looks a series up by its full ID, labels included.
func (srv *Server) GetMetricHandlerJSON(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	stored, err := srv.Storage.Get(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, inmemory.ErrMetricNotFound) {
			http.NotFound(w, r)
		} else {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stored); err != nil {
		srv.Config.Logger.Debugf("failed to write response JSON: %v", err)
	}
}

func (srv *Server) ListMetricsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := srv.Storage.GetAll(r.Context())
	if err != nil {
		srv.Config.Logger.Errorf("failed to get all metrics from storage: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "<html><body><ul>")
	for _, s := range all {
		fmt.Fprintf(w, "<li>%s: %s</li>\n", html.EscapeString(s.ID()), strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
	fmt.Fprintln(w, "</ul></body></html>")
}
