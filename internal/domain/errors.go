package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNoCredential indicates no bearer token is currently available
	ErrNoCredential = errors.New("no credential available")

	// ErrServerOffline indicates the catalog service could not be reached
	ErrServerOffline = errors.New("catalog server is unreachable")

	// ErrAuthFailed indicates the server rejected the token
	ErrAuthFailed = errors.New("authentication token is invalid")
)
