// Package transform derives display-mode views of a raw series and maps
// edits made under a derived view back into the raw domain.
//
// Derive is pure: it never mutates its input and propagates nulls strictly
// (any missing operand at a required lag yields null, never an estimate).
// Invert solves each mode's formula algebraically for the single raw slot
// being edited, holding all other raw values fixed, so a round trip
// Invert(mode, raw, i, Derive(raw, mode, ...)[i]) returns raw[i] wherever
// the derived value exists.
package transform
