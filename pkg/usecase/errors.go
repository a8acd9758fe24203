package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrEmptyInput is a client error: the chat message was blank
	ErrEmptyInput = goerr.New("message must not be empty")

	// ErrModelUnavailable is the only error that fails a chat request
	ErrModelUnavailable = goerr.New("language model is unavailable")

	// ErrIndexNotConfigured is returned when a rebuild is requested without an index
	ErrIndexNotConfigured = goerr.New("retrieval index is not configured")
)
