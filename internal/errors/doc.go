// Package errors defines the error taxonomy shared by the transform engine
// and the HTTP transport layer.
//
// Core engine conditions (insufficient history, zero divisor, locked series,
// and friends) are sentinel values that wrap cleanly through errors.Is, so a
// handler can map each condition to a structured API response without string
// matching. APIError carries the HTTP-facing shape and implements the
// go-chi/render Renderer interface.
package errors
