package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request errors, mapped to HTTP statuses by the server
	ErrValidation       = fmt.Errorf("validation failed")
	ErrMethodNotAllowed = fmt.Errorf("method not allowed")
	ErrPayloadTooLarge  = fmt.Errorf("payload too large")
	ErrRateLimited      = fmt.Errorf("rate limited")

	// Upload pipeline errors
	ErrStorage  = fmt.Errorf("storage failed")
	ErrIndexing = fmt.Errorf("indexing failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSongNotFound       = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
