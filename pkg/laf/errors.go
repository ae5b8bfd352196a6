// ABOUTME: Error types for LAF parsing and decoding
// ABOUTME: Defines FormatError and the unsupported-quality sentinel
package laf

import (
	"errors"
	"fmt"
)

// FormatError reports a structurally invalid or truncated container.
// It is always fatal: the byte stream cannot be resynchronized once a
// section boundary is lost.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "laf: " + e.Reason
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// ErrUnsupported24Bit is returned before any decode is attempted on a
// stream whose quality is 24-bit int. The header parses fine; the
// samples would need conversion to 16-bit or float when buffering.
var ErrUnsupported24Bit = errors.New("laf: 24-bit samples not supported")
