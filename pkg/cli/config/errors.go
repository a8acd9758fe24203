package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrContentNotFound = goerr.New("content file not found")
	ErrMissingOption   = goerr.New("required option is missing")
)
