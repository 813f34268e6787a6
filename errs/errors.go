// Package errs defines the error taxonomy shared by all fiff packages.
//
// Every error produced by this module wraps one of two class sentinels:
// ErrFormat for data that is structurally unreadable, and ErrValidation for
// data that decodes cleanly but violates a semantic expectation. Callers
// discriminate between the classes with errors.Is; the message names the
// specific expectation that was violated.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates malformed or truncated container data: a missing
	// file id tag, a negative tag size, an unknown data type, an unmatched
	// block delimiter.
	ErrFormat = errors.New("format error")

	// ErrValidation indicates well-formed data that violates a semantic
	// expectation, such as a missing mandatory tag or a dimension mismatch.
	ErrValidation = errors.New("validation error")
)

// Sentinels for conditions callers commonly branch on.
var (
	// ErrNotFIFF reports a stream that does not begin with a file id tag.
	ErrNotFIFF = Formatf("no file id tag at start of file")

	// ErrTruncated reports a stream that ends in the middle of a tag.
	ErrTruncated = Formatf("unexpected end of data")

	// ErrNoMeasurement reports a file without a measurement block.
	ErrNoMeasurement = Validationf("no measurement data")
)

// Formatf returns an ErrFormat-class error with a formatted message.
func Formatf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Validationf returns an ErrValidation-class error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
