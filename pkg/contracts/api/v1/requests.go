// Package api contains API contract definitions for ChartDesk.
// Version v1 represents the current stable API version.
package api

// Input file API requests

// PlotSeriesRequest asks for one series over up to two selected files. The
// first file's columns define the axis.
type PlotSeriesRequest struct {
	SeriesName string   `json:"series_name" validate:"required"`
	Files      []string `json:"files" validate:"required,min=1,max=2,dive,required"`
	StartLabel string   `json:"start_label,omitempty"`
	EndLabel   string   `json:"end_label,omitempty"`
}

// RawEditRequest edits one raw cell of an input file by (series, label).
type RawEditRequest struct {
	FileID     string  `json:"file_id" validate:"required"`
	SeriesName string  `json:"series_name" validate:"required"`
	Label      string  `json:"label" validate:"required"`
	Value      float64 `json:"value"`
}

// Session API requests

// DerivedPlotRequest asks for the full plot frame under a display mode.
type DerivedPlotRequest struct {
	SeriesName  string   `json:"series_name" validate:"required"`
	Files       []string `json:"files" validate:"required,min=1,max=2,dive,required"`
	Mode        string   `json:"mode" validate:"required,oneof=raw delta delta_percent yoy yoy_percent since_anchor since_anchor_percent"`
	AnchorLabel string   `json:"anchor_label,omitempty"`
}

// DisplayEditRequest edits a displayed point under the active mode. The
// value arrives as a string so that non-numeric input can be reported as a
// distinct condition rather than a JSON decode failure.
type DisplayEditRequest struct {
	SeriesName  string   `json:"series_name" validate:"required"`
	Files       []string `json:"files" validate:"required,min=1,max=2,dive,required"`
	FileID      string   `json:"file_id" validate:"required"`
	Mode        string   `json:"mode" validate:"required,oneof=raw delta delta_percent yoy yoy_percent since_anchor since_anchor_percent"`
	AnchorLabel string   `json:"anchor_label,omitempty"`
	Label       string   `json:"label" validate:"required"`
	Value       string   `json:"value" validate:"required"`
}

// WindowAdjustRequest drags or resizes the visible window. Bounds arrive as
// floats straight from drag coordinates; the engine rounds, swaps, and
// clamps them.
type WindowAdjustRequest struct {
	SeriesName string   `json:"series_name" validate:"required"`
	Files      []string `json:"files" validate:"required,min=1,dive,required"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
}

// AnchorRequest re-anchors the session on a new baseline label.
type AnchorRequest struct {
	SeriesName  string   `json:"series_name" validate:"required"`
	Files       []string `json:"files" validate:"required,min=1,dive,required"`
	AnchorLabel string   `json:"anchor_label" validate:"required"`
}

// LockToggleRequest flips edit-lock membership for a file.
type LockToggleRequest struct {
	SeriesName string   `json:"series_name" validate:"required"`
	Files      []string `json:"files" validate:"required,min=1,dive,required"`
	FileID     string   `json:"file_id" validate:"required"`
}
