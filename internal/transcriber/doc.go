// Package transcriber runs speech recognition on a local audio file by
// shelling out to the Whisper CLI.
//
// It is a pure function from file plus options to text: no network I/O, no
// persistence. The engine writes its JSON payload next to the audio file, so
// transcription artifacts live and die with the caller's staging directory.
package transcriber
