// Package services defines the error taxonomy and context annotations shared
// by the pipeline stages.
//
// Stage code wraps failures with one of the exported sentinel errors so the
// driver can classify outcomes (download vs transcription vs timeout vs
// duplicate) without inspecting error strings. Context helpers carry the
// stage name and run identifier so loggers can tag every line consistently.
package services
