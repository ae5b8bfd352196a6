// ABOUTME: Package documentation for LAF container support
// ABOUTME: Explains the chunked multi-track format and entry points
// Package laf reads Limitless Audio Format containers: chunked,
// multi-track spatial audio with up to 256 interleaved tracks.
//
// A stream is parsed with NewStream, then consumed one chunk (one
// second) at a time:
//
//	s, err := laf.NewStream(file)
//	frames, err := s.ReadChunk()
//	pcm, err := s.PrepareTrack(0, frames)
//
// In objects mode the trailing tracks carry quantized 3-D coordinates
// instead of audio; ConvertPositions and PositionWindow turn them into
// the float triples used for spatialization.
package laf
