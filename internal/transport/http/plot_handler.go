package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"chartdesk/internal/axis"
	apierrors "chartdesk/internal/errors"
	"chartdesk/internal/infrastructure"
	"chartdesk/internal/session"
	"chartdesk/internal/store"
	apiv1 "chartdesk/pkg/contracts/api/v1"
	"chartdesk/pkg/contracts/domain"
)

// PlotHandler serves plot data: the raw aligned series and the full derived
// frame under a display mode.
type PlotHandler struct {
	registry *store.Registry
	manager  *session.Manager
	metrics  *infrastructure.EngineMetrics
	logger   *slog.Logger
}

// NewPlotHandler creates a plot handler. metrics may be nil.
func NewPlotHandler(registry *store.Registry, manager *session.Manager, metrics *infrastructure.EngineMetrics, logger *slog.Logger) *PlotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlotHandler{
		registry: registry,
		manager:  manager,
		metrics:  metrics,
		logger:   logger.With(slog.String("handler", "plot")),
	}
}

// Routes returns the plot routes.
func (h *PlotHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.PlotSeries)
	r.Post("/derived", h.DerivedFrame)

	return r
}

// PlotSeries handles POST /api/plot-series: raw aligned values, optionally
// restricted to an inclusive [start_label, end_label] range.
func (h *PlotHandler) PlotSeries(w http.ResponseWriter, r *http.Request) {
	var req apiv1.PlotSeriesRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	data, err := h.registry.FetchSeries(r.Context(), req.SeriesName, req.Files)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}
	if h.metrics != nil {
		h.metrics.FetchesTotal.Add(r.Context(), 1)
	}

	ax := axis.Axis(data.Labels)
	start, end, err := ax.Slice(req.StartLabel, req.EndLabel)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}

	out := domain.SeriesData{Labels: data.Labels[start : end+1]}
	for _, fs := range data.Series {
		out.Series = append(out.Series, domain.FileSeries{
			File:   fs.File,
			Values: fs.Values[start : end+1],
		})
	}

	render.JSON(w, r, out)
}

// DerivedFrame handles POST /api/plot-series/derived: the complete render
// frame for a (series, files, mode, anchor) context.
func (h *PlotHandler) DerivedFrame(w http.ResponseWriter, r *http.Request) {
	var req apiv1.DerivedPlotRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	start := time.Now()
	frame, err := h.manager.Frame(r.Context(), req.SeriesName, req.Files, req.Mode, req.AnchorLabel)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromCondition(err))
		return
	}
	if h.metrics != nil {
		h.metrics.FrameDuration.Record(r.Context(), time.Since(start).Seconds())
		h.metrics.FetchesTotal.Add(r.Context(), 1)
	}

	render.JSON(w, r, frame)
}
