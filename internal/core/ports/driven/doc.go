// Package driven declares the infrastructure the core depends on.
//
// A digest run cannot start without a Retriever, a Reasoner, a
// DigestStore and a ConfigStore. SourceFetcher, DigestExporter, Publisher
// and SchedulerStore may be nil: direct pages are skipped, nothing is
// written or sent, and scheduler state lives only in memory.
//
// Adapters implement these interfaces; this package imports domain only.
package driven
