// Package main hosts the autosplit CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, wires the
// external tool clients into an extract.Extractor, and hands batches of input
// paths to workflow.Manager. The remaining commands inspect single artifacts
// (NRG chunk chains, cue sheets, mounted images, silence segmentation) or
// report journal history and environment health without writing any audio.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through flags and rendering only.
package main
