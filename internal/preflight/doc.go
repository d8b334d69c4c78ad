// Package preflight verifies the runtime environment before a pipeline run:
// required external binaries on PATH and read/write access to the working
// directories.
package preflight
