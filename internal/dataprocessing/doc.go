// Package dataprocessing turns a station registry and per-station daily
// series into an enriched registry of monthly averages.
//
// # Data Flow
//
//	Registry (xlsx/csv) → ParseRegistry → Aggregator.AggregateAll → Join → EnrichedRegistry
//
// Stations are processed one at a time in registry order. A station whose
// file is missing or unreadable yields a failed StationResult and an
// all-missing row; it never aborts the batch. Summarize folds the results
// into counts once the batch is done.
//
// # Missing values
//
// Readings whose value is not a number are dropped before averaging, so
// {10, 20, "bad", 30} averages to 20. A month with no valid reading is
// missing in the enriched registry, never zero.
package dataprocessing
