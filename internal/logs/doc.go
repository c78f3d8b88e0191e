// Package logs reads the JSON log file the CLI writes next to its console
// output.
//
// Tail returns the last N matching lines or everything after a byte offset,
// and can wait for new lines in follow mode. Filter narrows records by run ID,
// input, component and minimum level by decoding each JSON line; lines that
// are not JSON only pass an empty filter.
package logs
