// Package http contains the HTTP handlers for the ChartDesk API. Each
// handler owns a resource area and exposes a Routes() chi.Router; the app
// layer mounts them under /api. Errors render as structured JSON via the
// shared APIError type.
package http
