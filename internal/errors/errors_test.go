package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		wantMsg  string
	}{
		{
			name:     "insufficient history with detail",
			err:      Condition(ErrInsufficientHistory, "no value at lag %d", 4),
			sentinel: ErrInsufficientHistory,
			wantMsg:  "insufficient history: no value at lag 4",
		},
		{
			name:     "zero divisor",
			err:      Condition(ErrZeroDivisor, "baseline at index %d is zero", 0),
			sentinel: ErrZeroDivisor,
			wantMsg:  "zero divisor: baseline at index 0 is zero",
		},
		{
			name:     "locked series",
			err:      Condition(ErrLockedSeries, "file %q", "gdp.csv"),
			sentinel: ErrLockedSeries,
			wantMsg:  `series is locked: file "gdp.csv"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestConditionErrorWrapsThroughFmt(t *testing.T) {
	err := fmt.Errorf("apply edit: %w", Condition(ErrZeroDivisor, "prior value is zero"))
	assert.True(t, stderrors.Is(err, ErrZeroDivisor))
}

func TestFromCondition(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"insufficient history", Condition(ErrInsufficientHistory, "lag 1"), http.StatusUnprocessableEntity, "INSUFFICIENT_HISTORY"},
		{"zero divisor", ErrZeroDivisor, http.StatusUnprocessableEntity, "ZERO_DIVISOR"},
		{"non-numeric input", ErrNonNumericInput, http.StatusBadRequest, "NON_NUMERIC_INPUT"},
		{"locked series", ErrLockedSeries, http.StatusConflict, "SERIES_LOCKED"},
		{"unresolved label", ErrUnresolvedLabel, http.StatusBadRequest, "UNRESOLVED_LABEL"},
		{"unknown error", stderrors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromCondition(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrValidation("value", "must be numeric"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	assert.Contains(t, rec.Body.String(), "must be numeric")
}
