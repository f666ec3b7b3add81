// Package services holds the esgmon use cases: running the weekly digest,
// reading stored digests and trends, scheduling, and settings. Each service
// implements a driving port and talks to the outside world only through
// driven ports, so every dependency can be swapped for a fake in tests.
package services
