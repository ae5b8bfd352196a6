// ABOUTME: Sink package documentation
// ABOUTME: Voice-based playback sinks with a mock and an oto backend
// Package sink abstracts the playback device a scheduler feeds: a set
// of mono voices with queued buffers, per-voice offset/state
// reporting, spatial position updates, and a Suspend/Resume bracket
// for atomic multi-voice changes.
//
// Two implementations ship with the package: Oto plays live audio by
// mixing all voices to stereo, and Mock simulates playback under test
// control.
package sink
