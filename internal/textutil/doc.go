// Package textutil provides small text helpers shared across scribe,
// primarily filename sanitization for transcript output files.
package textutil
