// Package services defines shared utilities consumed by the extraction
// strategies and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, input paths, and strategy names for
//     logging.
//   - Structured error markers plus the Wrap helper that let the orchestrator
//     tell recoverable failures (unsupported format, mount refused, tool exit
//     status) from faults that must abort an input.
//   - The Executor abstraction that makes command execution and stdin
//     streaming to external tools testable.
//
// Use these helpers when wiring a new strategy or tool client so fallback
// behaviour and observability stay uniform across the pipeline.
package services
