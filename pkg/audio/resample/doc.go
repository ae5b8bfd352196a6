// ABOUTME: Resample package documentation
// ABOUTME: Sample rate conversion for the playback mix
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling.
package resample
