package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"chartdesk/internal/store"
	"chartdesk/pkg/contracts"
)

// HealthHandler serves liveness and version information.
type HealthHandler struct {
	registry *store.Registry
	started  time.Time
	logger   *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(registry *store.Registry, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		registry: registry,
		started:  time.Now(),
		logger:   logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/version", h.Version)

	return r
}

// HealthCheck handles GET /healthz.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	files, _ := h.registry.List()
	render.JSON(w, r, map[string]interface{}{
		"status":       "healthy",
		"uptime":       time.Since(h.started).String(),
		"loaded_files": len(files),
	})
}

// Version handles GET /healthz/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
