package domain

import "errors"

var (
	// ErrUnsupported is returned when an operation requires the
	// derivatives connection but the service was built on a generic one.
	ErrUnsupported = errors.New("operation not supported by exchange")

	// ErrMalformedSymbol is returned when a flat symbol is too short for
	// the lexical pair heuristic.
	ErrMalformedSymbol = errors.New("malformed symbol")
)
