package eeg

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed rename table, duplicate labels, or a
// recording that violates its structural invariants.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// MissingChannelError reports that one or both electrodes required for the
// asymmetry computation are absent after renaming and cleaning. The message
// names each missing label so operators can fix their rename table.
type MissingChannelError struct {
	Labels []string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("missing required channel(s): %s", strings.Join(e.Labels, ", "))
}

// SignalProcessingError reports invalid filter parameters or a recording too
// short for the requested spectral analysis.
type SignalProcessingError struct {
	Msg string
}

func (e *SignalProcessingError) Error() string { return e.Msg }

// SignalProcessingf builds a SignalProcessingError from a format string.
func SignalProcessingf(format string, args ...any) *SignalProcessingError {
	return &SignalProcessingError{Msg: fmt.Sprintf(format, args...)}
}

// InterpolationError reports that a bad channel could not be reconstructed.
type InterpolationError struct {
	Msg string
}

func (e *InterpolationError) Error() string { return e.Msg }

// Interpolationf builds an InterpolationError from a format string.
func Interpolationf(format string, args ...any) *InterpolationError {
	return &InterpolationError{Msg: fmt.Sprintf(format, args...)}
}

// NumericError reports a numerically undefined operation, such as the log of
// a non-positive band power.
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string { return e.Msg }
