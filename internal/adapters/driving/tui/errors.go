package tui

import "errors"

// ErrMissingDigestService is returned when the digest service is not provided.
var ErrMissingDigestService = errors.New("tui: digest service is required")

// ErrMissingRenderer is returned when no terminal renderer is provided.
var ErrMissingRenderer = errors.New("tui: renderer is required")
