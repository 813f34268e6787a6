package fiff

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/internal/options"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// OpenOptions configure Open and OpenBytes.
type OpenOptions struct {
	// SequentialScan rebuilds the tag directory by walking the tag chain
	// even when the file stores an explicit directory.
	SequentialScan bool
}

// OpenOption configures how a FIF file is opened.
type OpenOption = options.Option[*OpenOptions]

// WithSequentialScan forces directory reconstruction from the tag chain,
// ignoring any explicit directory stored in the file. Use it to recover
// files whose directory went stale after an interrupted acquisition.
func WithSequentialScan() OpenOption {
	return options.NoError(func(o *OpenOptions) {
		o.SequentialScan = true
	})
}

// File is an open FIF file: a positioned reader over the raw stream plus the
// decoded tag directory and block tree. A File is owned by the caller that
// opened it and is not safe for concurrent use.
type File struct {
	name   string
	r      io.ReaderAt
	closer io.Closer // nil for memory-backed files
	size   int64

	id     *tag.ID
	dir    []tag.DirEntry
	root   *tree.Node
	closed bool
}

// Open opens the named FIF file for reading.
//
// A gzip-compressed file (conventionally .fif.gz) is detected by its magic
// bytes and inflated into memory, since tag access needs random positioning
// and a gzip stream has none.
//
// The stream must begin with a file id tag followed by a directory pointer.
// A positive pointer loads the explicit directory stored in the file;
// otherwise, or under WithSequentialScan, the directory is rebuilt by
// walking the tag chain.
//
// Returns an ErrFormat-class error for streams that are not FIF. The
// underlying file is closed on every error path.
func Open(name string, opts ...OpenOption) (*File, error) {
	var cfg OpenOptions
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	var magic [2]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", name, errs.ErrTruncated)
	}

	if isGzip(magic[:]) {
		data, err := inflate(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("inflating %s: %w", name, err)
		}

		return openReader(name, bytes.NewReader(data), int64(len(data)), nil, cfg)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	return openReader(name, f, st.Size(), f, cfg)
}

// OpenBytes opens an in-memory FIF stream. Gzip-compressed data is inflated
// just like Open does for files.
func OpenBytes(data []byte, opts ...OpenOption) (*File, error) {
	var cfg OpenOptions
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if isGzip(data) {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("inflating stream: %w", err)
		}
		inflated, err := io.ReadAll(gz)
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("inflating stream: %w", err)
		}
		data = inflated
	}

	return openReader("", bytes.NewReader(data), int64(len(data)), nil, cfg)
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func inflate(f *os.File) ([]byte, error) {
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(gz)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

// openReader validates the prologue, loads or rebuilds the directory and
// builds the block tree. closer is closed on error so no descriptor leaks
// past a failed open.
func openReader(name string, r io.ReaderAt, size int64, closer io.Closer, cfg OpenOptions) (*File, error) {
	f := &File{name: name, r: r, closer: closer, size: size}
	if err := f.init(cfg); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func (f *File) init(cfg OpenOptions) error {
	// The stream must open with a file id tag.
	first, err := tag.Read(f.r, 0)
	if err != nil {
		return err
	}
	if first.Kind != format.KindFileID || first.Type != format.TypeIDStruct {
		return errs.ErrNotFIFF
	}
	id, err := first.ID()
	if err != nil {
		return err
	}
	f.id = id

	// Followed by a directory pointer.
	if first.Next == format.NextNone {
		return errs.Formatf("file has no directory pointer tag")
	}
	pos := first.Pos + tag.HeaderSize + int64(first.Size)
	if first.Next > 0 {
		pos = int64(first.Next)
	}

	pointer, err := tag.Read(f.r, pos)
	if err != nil {
		return err
	}
	if pointer.Kind != format.KindDirPointer {
		return errs.Formatf("file has no directory pointer tag")
	}
	dirpos, err := pointer.Int()
	if err != nil {
		return err
	}

	if dirpos > 0 && !cfg.SequentialScan {
		dirTag, err := tag.Read(f.r, int64(dirpos))
		if err != nil {
			return err
		}
		f.dir, err = dirTag.DirEntries()
		if err != nil {
			return err
		}
	} else {
		f.dir, err = tag.Scan(f.r, f.size)
		if err != nil {
			return err
		}
	}

	f.root, err = tree.Make(f.r, f.dir)

	return err
}

// Name returns the path the file was opened from, empty for byte-backed
// streams.
func (f *File) Name() string {
	return f.name
}

// ID returns the file id from the opening tag.
func (f *File) ID() *tag.ID {
	return f.id
}

// Dir returns the flat tag directory in file order.
func (f *File) Dir() []tag.DirEntry {
	return f.dir
}

// Tree returns the root of the block tree.
func (f *File) Tree() *tree.Node {
	return f.root
}

// Reader returns the positioned reader over the raw stream, for use with
// the tag and tree packages.
func (f *File) Reader() io.ReaderAt {
	return f.r
}

// ReadMeasInfo assembles the measurement description of this file. See
// ReadMeasInfo for the validation rules; the returned info records this
// file as its source so a later WriteMeasInfo can copy untouched blocks
// from it.
func (f *File) ReadMeasInfo() (*MeasInfo, *tree.Node, error) {
	info, meas, err := ReadMeasInfo(f.r, f.root)
	if err != nil {
		return nil, nil, err
	}
	info.Filename = f.name

	return info, meas, nil
}

// Close releases the underlying file. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}

	return nil
}
