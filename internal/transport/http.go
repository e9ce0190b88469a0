package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository"
)

// Server wires HTTP handlers.
type Server struct {
	projects   *project.Service
	builds     *build.Service
	activities *activity.Service
	logger     *slog.Logger
}

// NewServer creates an HTTP router with middleware.
func NewServer(
	projects *project.Service,
	builds *build.Service,
	activities *activity.Service,
	logger *slog.Logger,
	authMiddleware func(http.Handler) http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{projects: projects, builds: builds, activities: activities, logger: logger}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", srv.handleCreateProject)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", srv.handleGetProject)
				r.Put("/signing", srv.handleSetSigning)
				r.Delete("/signing", srv.handleClearSigning)
				r.Route("/builds", func(r chi.Router) {
					r.Post("/", srv.handleRequestBuild)
					r.Get("/", srv.handleListBuilds)
					r.Get("/{buildID}", srv.handleGetBuild)
					r.Get("/{buildID}/download", srv.handleDownload)
				})
			})
		})

		r.Get("/activity", srv.handleListActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	var snap project.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.projects.CreateProject(r.Context(), tenantID, &snap)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	snap, err := s.projects.FetchSnapshot(r.Context(), tenantID, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type signingRequest struct {
	KeystorePath  string `json:"keystore_path"`
	StorePassword string `json:"store_password"`
	KeyAlias      string `json:"key_alias"`
	KeyPassword   string `json:"key_password"`
}

func (s *Server) handleSetSigning(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	var req signingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	key := &project.SigningKey{
		KeystorePath:  req.KeystorePath,
		StorePassword: req.StorePassword,
		KeyAlias:      req.KeyAlias,
		KeyPassword:   req.KeyPassword,
	}
	if err := s.projects.SetSigning(r.Context(), tenantID, chi.URLParam(r, "projectID"), key); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSigning(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	if err := s.projects.SetSigning(r.Context(), tenantID, chi.URLParam(r, "projectID"), nil); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type buildRequest struct {
	BuildType   string `json:"build_type"`
	VersionCode int    `json:"version_code"`
	VersionName string `json:"version_name"`
}

type buildAccepted struct {
	BuildID string `json:"build_id"`
	Status  string `json:"status"`
}

func (s *Server) handleRequestBuild(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := s.builds.Request(r.Context(), tenantID, chi.URLParam(r, "projectID"), build.RequestOptions{
		Kind:        req.BuildType,
		VersionCode: req.VersionCode,
		VersionName: req.VersionName,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// The build runs in the background; the caller polls for status.
	writeJSON(w, http.StatusCreated, buildAccepted{
		BuildID: ticket.BuildID,
		Status:  string(build.StatusQueued),
	})
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	builds, err := s.builds.List(r.Context(), tenantID, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if builds == nil {
		builds = []build.Build{}
	}
	writeJSON(w, http.StatusOK, builds)
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	b, err := s.builds.Get(r.Context(), tenantID, chi.URLParam(r, "projectID"), chi.URLParam(r, "buildID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectID")
	buildID := chi.URLParam(r, "buildID")

	path, err := s.builds.Artifact(r.Context(), tenantID, projectID, buildID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.activities != nil {
		entry := &activity.ActivityEntry{
			ProjectID:    projectID,
			BuildID:      &buildID,
			ActivityType: activity.TypeArtifactServed,
			Summary:      "artifact downloaded: " + filepath.Base(path),
		}
		if err := s.activities.LogActivity(r.Context(), tenantID, entry); err != nil && s.logger != nil {
			s.logger.Warn("activity log write failed", "build_id", buildID, "error", err)
		}
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(path)))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	opts := activity.ListActivityOptions{
		ProjectID: r.URL.Query().Get("project_id"),
		Limit:     50,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			opts.Limit = limit
		}
	}
	if v := r.URL.Query().Get("build_id"); v != "" {
		opts.BuildID = &v
	}

	entries, err := s.activities.GetRecentActivity(r.Context(), tenantID, opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return "", false
	}
	return tenantID, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound) || errors.Is(err, build.ErrBuildNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, build.ErrNotReady) || errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, build.ErrInvalidKind),
		errors.Is(err, build.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidPackageName),
		errors.Is(err, project.ErrInvalidSourceMode),
		errors.Is(err, project.ErrMissingWebsiteURL):
		writeError(w, http.StatusBadRequest, err)
	default:
		if s.logger != nil {
			s.logger.Error("request failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
