package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "chartdesk/internal/errors"
	"chartdesk/internal/infrastructure"
	"chartdesk/internal/session"
	apiv1 "chartdesk/pkg/contracts/api/v1"
	"chartdesk/pkg/contracts/events"
)

// SessionHandler serves session state transitions: display-mode edits,
// window drags, re-anchoring, and lock toggles.
type SessionHandler struct {
	manager *session.Manager
	hub     Broadcaster
	metrics *infrastructure.EngineMetrics
	logger  *slog.Logger
}

// NewSessionHandler creates a session handler. hub and metrics may be nil.
func NewSessionHandler(manager *session.Manager, hub Broadcaster, metrics *infrastructure.EngineMetrics, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		manager: manager,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("handler", "session")),
	}
}

// Routes returns the session routes.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/edit", h.Edit)
	r.Post("/window", h.Window)
	r.Post("/anchor", h.Anchor)
	r.Post("/lock", h.Lock)

	return r
}

// Edit handles POST /api/session/edit: a displayed-value edit routed back
// to raw space through the active mode's inverse mapping.
func (h *SessionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req apiv1.DisplayEditRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	result, err := h.manager.ApplyEdit(r.Context(), req.SeriesName, req.Files, req.FileID,
		req.Mode, req.AnchorLabel, req.Label, req.Value)
	if err != nil {
		if h.metrics != nil {
			h.metrics.EditsRejected.Add(r.Context(), 1)
		}
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}
	if h.metrics != nil {
		h.metrics.EditsApplied.Add(r.Context(), 1)
	}

	if h.hub != nil {
		h.hub.BroadcastSeriesChanged(events.SeriesChanged{
			File:       result.File,
			SeriesName: req.SeriesName,
			Label:      result.Label,
			RawValue:   result.RawValue,
			Diverged:   result.Diverged,
		})
	}

	render.JSON(w, r, result)
}

// Window handles POST /api/session/window: a drag or resize of the visible
// window expressed in fractional axis coordinates.
func (h *SessionHandler) Window(w http.ResponseWriter, r *http.Request) {
	var req apiv1.WindowAdjustRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	win, err := h.manager.AdjustWindow(r.Context(), req.SeriesName, req.Files, req.Start, req.End)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}

	render.JSON(w, r, map[string]int{
		"window_start": win.Start,
		"window_end":   win.End,
	})
}

// Anchor handles POST /api/session/anchor.
func (h *SessionHandler) Anchor(w http.ResponseWriter, r *http.Request) {
	var req apiv1.AnchorRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	anchorIdx, win, err := h.manager.SetAnchor(r.Context(), req.SeriesName, req.Files, req.AnchorLabel)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRecompute(events.RecomputeHint{
			SeriesName:  req.SeriesName,
			AnchorIndex: anchorIdx,
		})
	}

	render.JSON(w, r, map[string]int{
		"anchor_index": anchorIdx,
		"window_start": win.Start,
		"window_end":   win.End,
	})
}

// Lock handles POST /api/session/lock: toggles edit-lock membership for a
// file within the current selection.
func (h *SessionHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req apiv1.LockToggleRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	locked, err := h.manager.ToggleLock(r.Context(), req.SeriesName, req.Files, req.FileID)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"file_id": req.FileID,
		"locked":  locked,
	})
}
