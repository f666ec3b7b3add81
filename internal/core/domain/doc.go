// Package domain holds the esgmon vocabulary and the rules that need no I/O.
//
// The analysis framework (relevance bands, themes, importance, geographies)
// and the source registry are immutable values built once per process.
// Retrieval produces RawItems, normalisation turns them into candidates,
// and a validated Digest is what gets stored, rendered and published.
//
// Only the standard library may be imported here.
package domain
