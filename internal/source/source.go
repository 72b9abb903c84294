// Package source holds what the data source adapters share: the error
// taxonomy. Every adapter swallows these at its boundary and reports an
// absent result instead.
package source

import "errors"

var (
	// ErrSourceUnavailable covers network, file and timeout faults.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnsupportedFormat means the data was recognised but cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMalformedPayload means data arrived in an unexpected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)
