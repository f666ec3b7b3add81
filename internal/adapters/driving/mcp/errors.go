// Package mcp provides an MCP (Model Context Protocol) server adapter for esgmon.
// It lets AI assistants search ESG sources, generate weekly digests and read
// stored digests and theme trends.
package mcp

import "errors"

var (
	// ErrMissingDigestService is returned when the digest service is not provided.
	ErrMissingDigestService = errors.New("mcp: digest service is required")

	// ErrRetrievalUnavailable is returned by search tools when no retrieval service is wired.
	ErrRetrievalUnavailable = errors.New("mcp: retrieval is not configured")
)
