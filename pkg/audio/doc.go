// ABOUTME: Audio package documentation
// ABOUTME: Shared PCM formats and conversions for sinks and renderers
// Package audio holds the sample formats and conversions shared by the
// playback sinks and the offline renderer.
package audio
