// Package tag implements the FIF tag codec: positioned reads of single tags,
// typed payload decoding, and a sequential tag writer.
//
// A FIF file is a flat stream of tags. Every tag starts with a 16-byte header
// of four big-endian 32-bit fields (kind, data type, payload size, next
// pointer) followed by the payload. The next pointer chains tags together:
// format.NextSeq means the next tag follows immediately, a positive value is
// an absolute file position, and format.NextNone ends the chain.
//
// Reading is random access over an io.ReaderAt and never mutates shared
// state, so independent readers of the same stream do not interfere. Writing
// is strictly sequential through Writer.
package tag

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
)

// HeaderSize is the fixed size of a tag header in bytes.
const HeaderSize = 16

// Tag is a single decoded tag. Kind says what the payload means, Type how it
// is encoded, Pos where the tag header starts in the stream. Data holds the
// decoded payload and is nil when only the header was read.
//
// A Tag is immutable once returned by Read or ReadInfo.
type Tag struct {
	Kind format.Kind
	Type format.DataType
	Size int32
	Next int32
	Pos  int64
	Data any
}

// String returns a one-line summary of the tag for diagnostics.
func (t *Tag) String() string {
	return fmt.Sprintf("%s %s size=%d @%d", t.Kind, t.Type, t.Size, t.Pos)
}

// Int returns the payload as a single 32-bit integer.
//
// Returns an ErrFormat-class error when the payload is not exactly one int.
func (t *Tag) Int() (int32, error) {
	v, ok := t.Data.([]int32)
	if !ok || len(v) != 1 {
		return 0, errs.Formatf("tag %s at %d does not hold a single int", t.Kind, t.Pos)
	}

	return v[0], nil
}

// Ints returns the payload as a slice of 32-bit integers.
func (t *Tag) Ints() ([]int32, error) {
	v, ok := t.Data.([]int32)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold ints", t.Kind, t.Pos)
	}

	return v, nil
}

// Float returns the payload as a single floating point value. Both float and
// double payloads qualify.
func (t *Tag) Float() (float64, error) {
	v, ok := t.Data.([]float64)
	if !ok || len(v) != 1 {
		return 0, errs.Formatf("tag %s at %d does not hold a single float", t.Kind, t.Pos)
	}

	return v[0], nil
}

// Text returns the payload as a string.
func (t *Tag) Text() (string, error) {
	s, ok := t.Data.(string)
	if !ok {
		return "", errs.Formatf("tag %s at %d does not hold a string", t.Kind, t.Pos)
	}

	return s, nil
}

// ID returns the payload as a file or block id.
func (t *Tag) ID() (*ID, error) {
	id, ok := t.Data.(*ID)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold an id", t.Kind, t.Pos)
	}

	return id, nil
}

// ChInfo returns the payload as a channel descriptor.
func (t *Tag) ChInfo() (*ChInfo, error) {
	ch, ok := t.Data.(*ChInfo)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold channel info", t.Kind, t.Pos)
	}

	return ch, nil
}

// DigPoint returns the payload as a digitized point.
func (t *Tag) DigPoint() (*DigPoint, error) {
	p, ok := t.Data.(*DigPoint)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold a dig point", t.Kind, t.Pos)
	}

	return p, nil
}

// CoordTrans returns the payload as a coordinate transformation.
func (t *Tag) CoordTrans() (*CoordTrans, error) {
	ct, ok := t.Data.(*CoordTrans)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold a coord transform", t.Kind, t.Pos)
	}

	return ct, nil
}

// DirEntries returns the payload as a tag directory.
func (t *Tag) DirEntries() ([]DirEntry, error) {
	d, ok := t.Data.([]DirEntry)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold a directory", t.Kind, t.Pos)
	}

	return d, nil
}

// Matrix returns the payload as a dense matrix.
func (t *Tag) Matrix() (*mat.Dense, error) {
	m, ok := t.Data.(*mat.Dense)
	if !ok {
		return nil, errs.Formatf("tag %s at %d does not hold a matrix", t.Kind, t.Pos)
	}

	return m, nil
}

// readAt fills buf from r at pos, mapping end-of-stream conditions to the
// truncation sentinel.
func readAt(r io.ReaderAt, buf []byte, pos int64, what string) error {
	if _, err := r.ReadAt(buf, pos); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("reading %s at %d: %w", what, pos, errs.ErrTruncated)
		}

		return fmt.Errorf("reading %s at %d: %w", what, pos, err)
	}

	return nil
}
