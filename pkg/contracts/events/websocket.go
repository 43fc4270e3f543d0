// Package events contains the event contract definitions for WebSocket
// communication between the ChartDesk server and chart clients.
package events

import (
	"time"

	"chartdesk/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Data messages
	MessageTypeSeriesChanged MessageType = "series:changed"
	MessageTypeFileUploaded  MessageType = "file:uploaded"
	MessageTypeRecompute     MessageType = "session:recompute"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// SeriesChanged is broadcast after an edit has been applied to the raw
// store, before the external save completes. Clients re-request the plot
// frame on receipt.
type SeriesChanged struct {
	File       domain.FileID `json:"file"`
	SeriesName string        `json:"series_name"`
	Label      domain.Label  `json:"label"`
	RawValue   float64       `json:"raw_value"`
	Diverged   bool          `json:"diverged"`
}

// FileUploaded is broadcast when a new input file enters the registry.
type FileUploaded struct {
	File domain.InputFileMeta `json:"file"`
}

// RecomputeHint is broadcast when mode, anchor, window, or lock state
// changes server-side so other clients of the same session can refresh.
type RecomputeHint struct {
	SeriesName  string `json:"series_name"`
	Mode        string `json:"mode"`
	AnchorIndex int    `json:"anchor_index"`
}
