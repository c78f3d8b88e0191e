// Package workflow drives a batch of inputs through the extractor.
//
// The Manager processes inputs strictly one after another. Before the first
// input it checks directory access, takes an exclusive lock on the output
// directory so two processes never write the same tracks, and removes scratch
// directories left by crashed runs. Every input is fingerprinted and recorded
// in the journal; with skip_processed enabled, content that already produced
// tracks in the same output directory is skipped.
//
// Each batch gets a run ID that is stamped on every log line and journal row.
package workflow
