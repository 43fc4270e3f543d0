package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "chartdesk/internal/errors"
	"chartdesk/internal/infrastructure"
	"chartdesk/internal/store"
	apiv1 "chartdesk/pkg/contracts/api/v1"
	"chartdesk/pkg/contracts/domain"
	"chartdesk/pkg/contracts/events"
)

// Broadcaster pushes session events to connected chart clients.
type Broadcaster interface {
	BroadcastSeriesChanged(events.SeriesChanged)
	BroadcastFileUploaded(events.FileUploaded)
	BroadcastRecompute(events.RecomputeHint)
}

// FilesHandler serves the input-file registry: listing, upload, raw cell
// edits, and export of the current (edited) grids.
type FilesHandler struct {
	registry       *store.Registry
	hub            Broadcaster
	metrics        *infrastructure.EngineMetrics
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewFilesHandler creates a files handler. hub and metrics may be nil.
func NewFilesHandler(registry *store.Registry, hub Broadcaster, metrics *infrastructure.EngineMetrics, maxUploadBytes int64, logger *slog.Logger) *FilesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilesHandler{
		registry:       registry,
		hub:            hub,
		metrics:        metrics,
		logger:         logger.With(slog.String("handler", "files")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the input-file routes.
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/upload", h.Upload)
	r.Post("/edit", h.EditRaw)
	r.Get("/{id}/export", h.Export)

	return r
}

// List handles GET /api/input-files.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files, seriesNames := h.registry.List()
	render.JSON(w, r, map[string]interface{}{
		"files":  files,
		"series": seriesNames,
	})
}

// Upload handles POST /api/input-files/upload as multipart form data.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		apierrors.WriteError(w, apierrors.NewWithDetails(http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE", "Upload exceeds the size limit", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("file", "A file part is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(header.Filename)
	if !strings.HasSuffix(ext, ".csv") && !strings.HasSuffix(ext, ".xlsx") {
		apierrors.WriteError(w, apierrors.ErrValidation("file", "Only .csv and .xlsx files are accepted"))
		return
	}

	meta, err := h.registry.Add(header.Filename, file)
	if err != nil {
		h.logger.WarnContext(r.Context(), "upload rejected",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
			"UNPARSEABLE_FILE", "File could not be parsed as a wide series grid", err.Error()))
		return
	}

	if h.metrics != nil {
		h.metrics.UploadsTotal.Add(r.Context(), 1)
	}
	if h.hub != nil {
		h.hub.BroadcastFileUploaded(events.FileUploaded{File: meta})
	}

	h.logger.InfoContext(r.Context(), "file uploaded",
		slog.String("id", meta.ID), slog.Int("series", len(meta.Series)))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, meta)
}

// EditRaw handles POST /api/input-files/edit: a direct raw cell write that
// bypasses the display-mode inverse mapping.
func (h *FilesHandler) EditRaw(w http.ResponseWriter, r *http.Request) {
	var req apiv1.RawEditRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	if err := h.registry.SaveEdit(r.Context(), req.FileID, req.SeriesName, req.Label, req.Value); err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}

	if h.hub != nil {
		h.hub.BroadcastSeriesChanged(events.SeriesChanged{
			File:       req.FileID,
			SeriesName: req.SeriesName,
			Label:      req.Label,
			RawValue:   req.Value,
		})
	}

	render.JSON(w, r, map[string]interface{}{
		"file":      req.FileID,
		"label":     req.Label,
		"raw_value": req.Value,
	})
}

// Export handles GET /api/input-files/{id}/export?format=csv|xlsx and
// streams the current grid, edits included.
func (h *FilesHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := domain.FileID(chi.URLParam(r, "id"))
	f, ok := h.registry.Get(id)
	if !ok {
		apierrors.WriteError(w, apierrors.NotFoundWithMessage(fmt.Sprintf("input file %q not found", id)))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(f.Meta.Name, "csv")))
		if err := store.ExportCSV(w, f); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed",
				slog.String("id", id), slog.String("error", err.Error()))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(f.Meta.Name, "xlsx")))
		if err := store.ExportXLSX(w, f); err != nil {
			h.logger.ErrorContext(r.Context(), "xlsx export failed",
				slog.String("id", id), slog.String("error", err.Error()))
		}
	default:
		apierrors.WriteError(w, apierrors.ErrValidation("format", "format must be csv or xlsx"))
	}
}

func exportName(original, format string) string {
	if i := strings.LastIndex(original, "."); i > 0 {
		original = original[:i]
	}
	return original + "." + format
}
