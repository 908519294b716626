package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrComicNotFound indicates the requested comic does not exist on the server
	ErrComicNotFound = errors.New("comic not found")

	// ErrServerOffline indicates the library server is unreachable
	ErrServerOffline = errors.New("library server is unreachable")

	// ErrAuthFailed indicates the configured credentials were refused
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRequestRejected indicates the server answered with a non-success status
	ErrRequestRejected = errors.New("server rejected the request")
)
