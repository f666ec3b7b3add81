// Package driving lists what the CLI, MCP server, HTTP API and TUI may ask
// of the core. internal/core/services provides the implementations.
package driving
