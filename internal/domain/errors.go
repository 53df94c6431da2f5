package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure so operators can tell from logs
// whether to fix configuration, wait out an outage, or escalate.
type Kind string

const (
	KindConfig          Kind = "config"
	KindMalformedFilter Kind = "malformed_filter"
	KindDiscovery       Kind = "discovery"
	KindTransient       Kind = "transient_network"
	KindRateLimited     Kind = "rate_limited"
	KindRejected        Kind = "upstream_rejected"
	KindUnknown         Kind = "unknown"
)

// SyncError attaches a Kind to an underlying error. The outermost
// SyncError in a chain wins when classifying.
type SyncError struct {
	Kind Kind
	Err  error
}

func (e *SyncError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Errorf builds a SyncError from a format string. %w is supported.
func Errorf(kind Kind, format string, args ...any) *SyncError {
	return &SyncError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost SyncError in err's chain,
// or KindUnknown when err carries no classification.
func KindOf(err error) Kind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
