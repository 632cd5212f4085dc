package models

import "errors"

var (
	// ErrNotFound is returned by stores when a tenant, summary or config row
	// does not exist.
	ErrNotFound = errors.New("not found")

	ErrInvalidChannel = errors.New("invalid channel")
	ErrMissingTenant  = errors.New("tenant id is required")
)
