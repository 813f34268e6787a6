package fiff

import (
	"fmt"
	"os"

	"github.com/arloliu/fiff/tag"
)

// Writer is a FIF file being written. Create opens it with the compulsory
// prologue already in place; the embedded tag writer carries the individual
// write operations, and Close terminates the tag chain.
type Writer struct {
	*tag.Writer

	f      *os.File
	name   string
	id     *tag.ID
	closed bool
}

// Create creates the named file and writes the FIF prologue: a fresh file
// id, an unset directory pointer and an unset free list.
func Create(name string) (*Writer, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}

	w := tag.NewWriter(f)
	id, err := w.StartFile()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{Writer: w, f: f, name: name, id: id}, nil
}

// Name returns the path the file is being written to.
func (w *Writer) Name() string {
	return w.name
}

// ID returns the file id written into the prologue.
func (w *Writer) ID() *tag.ID {
	return w.id
}

// Close writes the terminating tag and closes the underlying file. Closing
// twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.EndFile(); err != nil {
		w.f.Close()
		return err
	}

	return w.f.Close()
}
