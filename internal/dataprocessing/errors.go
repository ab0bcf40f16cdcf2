package dataprocessing

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies why a source could not be loaded
type LoadErrorKind string

const (
	LoadNotFound          LoadErrorKind = "not_found"
	LoadUnreadable        LoadErrorKind = "unreadable"
	LoadHeaderMismatch    LoadErrorKind = "header_mismatch"
	LoadUnsupportedFormat LoadErrorKind = "unsupported_format"
	LoadEmpty             LoadErrorKind = "empty"
)

// ErrEmptyTable is returned by projections that need at least one record
var ErrEmptyTable = errors.New("table has no records")

// ErrUnknownMetric is returned when a projection names a metric outside the catalog
var ErrUnknownMetric = errors.New("unknown metric")

// LoadError reports a source that could not be turned into a raw table
type LoadError struct {
	Source string
	Kind   LoadErrorKind
	Detail string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Source, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValueFormatError reports a metric cell that is not numeric after stripping
// its decorators. Row is the 1-based line in the source, header included.
type ValueFormatError struct {
	Row    int
	Column string
	Value  string
}

func (e *ValueFormatError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("invalid numeric value %q", e.Value)
	}
	return fmt.Sprintf("row %d, column %q: invalid numeric value %q", e.Row, e.Column, e.Value)
}

// IsLoadError reports whether err carries a *LoadError
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsValueFormatError reports whether err carries a *ValueFormatError
func IsValueFormatError(err error) bool {
	var ve *ValueFormatError
	return errors.As(err, &ve)
}
