// Package app assembles the ChartDesk server: configuration, logging,
// telemetry, the input-file registry, the session manager, the websocket
// hub, and the HTTP router, plus the lifecycle that runs them together.
package app
