// Package pipeline drives a full transcription run: fetch audio, recognize
// speech, persist the transcript, write the transcript file, and clean up the
// staging directory. A file lock keeps runs exclusive per data directory.
package pipeline
