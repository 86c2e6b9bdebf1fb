package theme

import "errors"

var (
	// ErrNotFound is returned when a tenant has no hosted theme
	ErrNotFound = errors.New("theme not found")

	// ErrMalformed is returned when a theme document cannot be used: invalid
	// JSON, or no themes.light object
	ErrMalformed = errors.New("malformed theme document")

	// ErrInvalidTenant is returned for tenant names that cannot address a theme
	ErrInvalidTenant = errors.New("invalid tenant name")
)
