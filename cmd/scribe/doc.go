// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full lifecycle of a transcript:
// running the download-and-transcribe pipeline, browsing and searching the
// stored records, and scaffolding configuration. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
