// Package fingerprint computes content fingerprints for input files.
//
// A fingerprint is a SHA-256 over the file size plus the first and last
// 64 KiB. It is cheap on multi-gigabyte images and stable across renames,
// which is what the journal needs to recognize an input it already split.
package fingerprint
