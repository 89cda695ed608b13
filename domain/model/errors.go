package model

import "errors"

var (
	// ErrExtractionFailure is returned when a descriptor carries no usable signal.
	ErrExtractionFailure = errors.New("duration: descriptor carries no usable signal")
	ErrNetworkFailure    = errors.New("duration: network failure")
	ErrParseFailure      = errors.New("duration: parse failure")
	ErrCacheUnavailable  = errors.New("duration: cache unavailable")
	// ErrProviderUnavailable is returned by providers that lack a credential.
	ErrProviderUnavailable = errors.New("duration: provider unavailable")
	ErrNotFound            = errors.New("not found")
)
