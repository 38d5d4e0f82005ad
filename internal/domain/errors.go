package domain

import "errors"

var (
	// ErrProductNotFound is returned when no source has data for a barcode
	// or a stored record does not exist (or is not owned by the caller).
	ErrProductNotFound = errors.New("product not found")

	// ErrCategoryNotFound is returned when a category does not exist or is
	// not owned by the caller.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrUserNotFound is returned when the local user row is missing.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized is returned when the bearer credential is missing or
	// fails verification with the identity provider.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRequest is returned when caller input is malformed.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrConflict is returned when a create/update would duplicate a
	// barcode or category name for the same user.
	ErrConflict = errors.New("resource already exists")

	// ErrLookupTransport is returned for network failures distinct from a
	// timeout (DNS failure, connection refused) while looking up a barcode.
	ErrLookupTransport = errors.New("lookup transport failure")

	// ErrToolNotConfigured is returned when the local lookup tool is
	// required but no tool path is configured.
	ErrToolNotConfigured = errors.New("local lookup tool not configured")

	// ErrCacheMiss is returned when a key is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)
