// Package errs defines the tagged error kinds the orchestrator branches
// on, per Design Note "Error types as plain strings": callers use
// errors.Is against the sentinel Kind values instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse failure category matching the §7 error table.
type Kind string

const (
	KindTransientNetwork Kind = "transient_network"
	KindRateLimited      Kind = "rate_limited"
	KindSchemaDrift      Kind = "schema_drift"
	KindVolumeAnomaly    Kind = "volume_anomaly"
	KindRowParse         Kind = "row_parse"
	KindNormalizationSkip Kind = "normalization_skip"
	KindEnrichmentFailed Kind = "enrichment_failed"
	KindStoreWrite       Kind = "store_write"
	KindTimeout          Kind = "timeout"
	KindConfig           Kind = "config"
)

// Error wraps an underlying cause with a Kind so orchestrator code can
// branch with errors.As without inspecting message text.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a Kind-tagged error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a Kind-tagged error around an existing cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
