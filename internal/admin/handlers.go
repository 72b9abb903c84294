// Package admin is the world UI backend: it creates worlds through the
// upload script, drives the game server deployment with the cluster CLI and
// serves the management page data.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/and161185/terraria-exporter/internal/config"
	"github.com/and161185/terraria-exporter/internal/kubectl"
	"github.com/and161185/terraria-exporter/internal/server/middleware"
)

const (
	createWorldTimeout = time.Hour
	maxBodyBytes       = 1 << 20
	shutdownTimeout    = 5 * time.Second
)

var (
	errEmptyBody   = errors.New("empty body")
	errInvalidJSON = errors.New("invalid JSON payload")
)

type Server struct {
	Config  *config.WorldUIConfig
	Kube    Kubectl
	Manager *Manager
	logger  *zap.SugaredLogger
}

func NewServer(cfg *config.WorldUIConfig, kube Kubectl, querier Querier) *Server {
	return &Server{
		Config: cfg,
		Kube:   kube,
		Manager: NewManager(kube, querier, Target{
			Namespace:    cfg.Namespace,
			Deployment:   cfg.Deployment,
			Service:      cfg.Service,
			AppLabel:     cfg.AppLabel,
			ConfigClaim:  cfg.ConfigClaim,
			ManagerImage: cfg.ManagerImage,
		}),
		logger: cfg.Logger,
	}
}

// Router builds the API routes and serves everything else from the static
// directory.
func (srv *Server) Router() (http.Handler, error) {
	trusted, err := middleware.TrustedCIDR(srv.Config.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.logger))

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.StripSlashes)
		r.Use(middleware.CompressMiddleware)
		r.NotFound(srv.notFound)
		r.MethodNotAllowed(srv.notFound)

		r.Get("/health", srv.HealthHandler)
		r.Get("/special-seeds", srv.SpecialSeedsHandler)
		r.Get("/worlds", srv.WorldsHandler)
		r.Get("/management", srv.ManagementHandler)

		r.Group(func(r chi.Router) {
			r.Use(trusted, middleware.DecompressMiddleware)
			r.Post("/create-world", srv.CreateWorldHandler)
			r.Post("/server-action", srv.ServerActionHandler)
		})
	})
	router.Handle("/*", http.FileServer(http.Dir(srv.Config.StaticDir)))
	return router, nil
}

// Run serves the UI until ctx is done and then shuts down gracefully.
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
	srv.logger.Infow("world UI listening", "addr", srv.Config.Addr)

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

func (srv *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		srv.logger.Errorf("failed to encode response JSON: %v", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		srv.logger.Debugf("failed to write response: %v", err)
	}
}

type errorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (srv *Server) notFound(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusNotFound, errorReply{Error: "Endpoint not found"})
}

func decodeBody(r *http.Request, into any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, into); err != nil {
		return errInvalidJSON
	}
	return nil
}

type healthReply struct {
	OK         bool   `json:"ok"`
	RepoRoot   string `json:"repo_root"`
	StaticDir  string `json:"static_dir"`
	Platform   string `json:"platform"`
	Namespace  string `json:"namespace"`
	Deployment string `json:"deployment"`
	Service    string `json:"service"`
}

func (srv *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, healthReply{
		OK:         true,
		RepoRoot:   srv.Config.RepoRoot,
		StaticDir:  srv.Config.StaticDir,
		Platform:   runtime.GOOS,
		Namespace:  srv.Config.Namespace,
		Deployment: srv.Config.Deployment,
		Service:    srv.Config.Service,
	})
}

func (srv *Server) SpecialSeedsHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, map[string]any{"seeds": SpecialSeeds})
}

func (srv *Server) WorldsHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "worlds": srv.Manager.Worlds(r.Context())})
}

func (srv *Server) ManagementHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, srv.Manager.Snapshot(r.Context()))
}

type createWorldReply struct {
	Command []string `json:"command"`
	WorldMeta
	kubectl.Result
}

func (srv *Server) CreateWorldHandler(w http.ResponseWriter, r *http.Request) {
	var req WorldRequest
	if err := decodeBody(r, &req); err != nil {
		srv.writeJSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
		return
	}

	cmd, meta := BuildWorldCommand(srv.Config.RepoRoot, req)
	srv.logger.Infow("creating world", "world", meta.WorldName, "size", meta.WorldSize, "seed_mode", meta.SeedMode)
	res := srv.Kube.Exec(r.Context(), kubectl.Command{Name: cmd[0], Args: cmd[1:], Timeout: createWorldTimeout})

	status := http.StatusOK
	if !res.OK {
		status = http.StatusInternalServerError
		srv.logger.Warnw("world creation failed", "world", meta.WorldName, "exit_code", res.ExitCode)
	}
	srv.writeJSON(w, status, createWorldReply{Command: cmd, WorldMeta: meta, Result: res})
}

func (srv *Server) ServerActionHandler(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := decodeBody(r, &req); err != nil {
		srv.writeJSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
		return
	}

	res := RunAction(r.Context(), srv.Kube, srv.Config.KubectlBin, srv.Config.Namespace, srv.Config.Deployment, req)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusInternalServerError
	}
	srv.logger.Infow("server action", "action", res.Action, "ok", res.OK)
	srv.writeJSON(w, status, res)
}
