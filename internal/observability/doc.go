// Package observability provides structured logging, the JSONL event log of
// handled change notifications, summaries derived from that log, and
// Prometheus collectors for the watcher.
package observability
