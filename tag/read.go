package tag

import (
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/endian"
	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
)

// ReadInfo reads only the 16-byte header of the tag at pos. The returned
// tag has nil Data; use it for directory scans where payloads are skipped.
//
// Returns an ErrFormat-class error for a truncated header or negative size.
func ReadInfo(r io.ReaderAt, pos int64) (*Tag, error) {
	var buf [HeaderSize]byte
	if err := readAt(r, buf[:], pos, "tag header"); err != nil {
		return nil, err
	}

	engine := endian.GetBigEndianEngine()
	t := &Tag{
		Kind: format.Kind(int32(engine.Uint32(buf[0:4]))),
		Type: format.DataType(engine.Uint32(buf[4:8])),
		Size: int32(engine.Uint32(buf[8:12])),
		Next: int32(engine.Uint32(buf[12:16])),
		Pos:  pos,
	}
	if t.Size < 0 {
		return nil, errs.Formatf("tag at %d has negative size %d", pos, t.Size)
	}

	return t, nil
}

// Read reads the complete tag at pos and decodes its payload into Tag.Data
// according to the type word.
//
// Parameters:
//   - r: the stream to read from
//   - pos: absolute position of the tag header
//
// Returns an ErrFormat-class error for truncation, an unrecognized data
// type, a sparse matrix coding, or a payload whose size does not match its
// type.
func Read(r io.ReaderAt, pos int64) (*Tag, error) {
	t, err := ReadInfo(r, pos)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, t.Size)
	if t.Size > 0 {
		if err := readAt(r, payload, pos+HeaderSize, "tag data"); err != nil {
			return nil, err
		}
	}

	if err := t.decode(payload); err != nil {
		return nil, err
	}

	return t, nil
}

// Scan rebuilds a tag directory by walking the tag chain from the start of
// the stream, reading headers only. size is the total stream length, used to
// bound the walk on files with corrupt next pointers.
//
// The scan follows next pointers until format.NextNone; the terminating tag
// is included in the result.
func Scan(r io.ReaderAt, size int64) ([]DirEntry, error) {
	// A stream of size bytes cannot hold more than size/HeaderSize tags, so
	// a chain longer than that necessarily loops.
	maxTags := size/HeaderSize + 1

	var dir []DirEntry
	pos := int64(0)
	for {
		t, err := ReadInfo(r, pos)
		if err != nil {
			return nil, err
		}

		dir = append(dir, DirEntry{Kind: t.Kind, Type: t.Type, Size: t.Size, Pos: pos})
		if int64(len(dir)) > maxTags {
			return nil, errs.Formatf("tag chain does not terminate")
		}

		switch {
		case t.Next == format.NextNone:
			return dir, nil
		case t.Next == format.NextSeq:
			pos += HeaderSize + int64(t.Size)
		case t.Next > 0:
			pos = int64(t.Next)
		default:
			return nil, errs.Formatf("tag at %d has invalid next pointer %d", pos, t.Next)
		}
	}
}

// decode interprets payload according to the tag's type word. The type table
// is closed: anything outside it is a format error, never a silent skip.
func (t *Tag) decode(payload []byte) error {
	if t.Type.IsMatrix() {
		return t.decodeMatrix(payload)
	}

	engine := endian.GetBigEndianEngine()

	switch t.Type {
	case format.TypeVoid:
		t.Data = nil
	case format.TypeByte:
		t.Data = payload
	case format.TypeShort, format.TypeDAUPack16:
		if len(payload)%2 != 0 {
			return t.sizeError(2)
		}
		v := make([]int16, len(payload)/2)
		for i := range v {
			v[i] = int16(engine.Uint16(payload[2*i:]))
		}
		t.Data = v
	case format.TypeUShort:
		if len(payload)%2 != 0 {
			return t.sizeError(2)
		}
		v := make([]uint16, len(payload)/2)
		for i := range v {
			v[i] = engine.Uint16(payload[2*i:])
		}
		t.Data = v
	case format.TypeInt:
		if len(payload)%4 != 0 {
			return t.sizeError(4)
		}
		v := make([]int32, len(payload)/4)
		for i := range v {
			v[i] = int32(engine.Uint32(payload[4*i:]))
		}
		t.Data = v
	case format.TypeUInt:
		if len(payload)%4 != 0 {
			return t.sizeError(4)
		}
		v := make([]uint32, len(payload)/4)
		for i := range v {
			v[i] = engine.Uint32(payload[4*i:])
		}
		t.Data = v
	case format.TypeFloat:
		if len(payload)%4 != 0 {
			return t.sizeError(4)
		}
		v := make([]float64, len(payload)/4)
		for i := range v {
			v[i] = float64(math.Float32frombits(engine.Uint32(payload[4*i:])))
		}
		t.Data = v
	case format.TypeDouble:
		if len(payload)%8 != 0 {
			return t.sizeError(8)
		}
		v := make([]float64, len(payload)/8)
		for i := range v {
			v[i] = math.Float64frombits(engine.Uint64(payload[8*i:]))
		}
		t.Data = v
	case format.TypeComplexFloat:
		if len(payload)%8 != 0 {
			return t.sizeError(8)
		}
		v := make([]complex128, len(payload)/8)
		for i := range v {
			re := float64(math.Float32frombits(engine.Uint32(payload[8*i:])))
			im := float64(math.Float32frombits(engine.Uint32(payload[8*i+4:])))
			v[i] = complex(re, im)
		}
		t.Data = v
	case format.TypeComplexDouble:
		if len(payload)%16 != 0 {
			return t.sizeError(16)
		}
		v := make([]complex128, len(payload)/16)
		for i := range v {
			re := math.Float64frombits(engine.Uint64(payload[16*i:]))
			im := math.Float64frombits(engine.Uint64(payload[16*i+8:]))
			v[i] = complex(re, im)
		}
		t.Data = v
	case format.TypeString:
		t.Data = string(payload)
	case format.TypeIDStruct:
		id, err := decodeID(payload, t.Pos)
		if err != nil {
			return err
		}
		t.Data = id
	case format.TypeDirEntryStruct:
		d, err := decodeDirEntries(payload, t.Pos)
		if err != nil {
			return err
		}
		t.Data = d
	case format.TypeDigPointStruct:
		p, err := decodeDigPoint(payload, t.Pos)
		if err != nil {
			return err
		}
		t.Data = p
	case format.TypeChInfoStruct:
		ch, err := decodeChInfo(payload, t.Pos)
		if err != nil {
			return err
		}
		t.Data = ch
	case format.TypeCoordTransStruct:
		ct, err := decodeCoordTrans(payload, t.Pos)
		if err != nil {
			return err
		}
		t.Data = ct
	default:
		return errs.Formatf("tag %s at %d: unimplemented data type %s", t.Kind, t.Pos, t.Type)
	}

	return nil
}

func (t *Tag) sizeError(elem int) error {
	return errs.Formatf("tag %s at %d: size %d is not a multiple of %d", t.Kind, t.Pos, t.Size, elem)
}

// decodeMatrix handles type words with a matrix coding. Only dense 2-D
// matrices are supported; the dimensions trail the data as int32s in the
// order [ncol, nrow, ndim].
func (t *Tag) decodeMatrix(payload []byte) error {
	if t.Type.Coding() != format.MatrixDense {
		return errs.Formatf("tag %s at %d: unsupported matrix coding %s", t.Kind, t.Pos, t.Type)
	}
	if len(payload) < 12 {
		return errs.Formatf("tag %s at %d: matrix payload of %d bytes is too small", t.Kind, t.Pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()
	ndim := int32(engine.Uint32(payload[len(payload)-4:]))
	if ndim != 2 {
		return errs.Formatf("tag %s at %d: %d-dimensional matrix, only 2 dimensions supported", t.Kind, t.Pos, ndim)
	}
	nrow := int64(int32(engine.Uint32(payload[len(payload)-8:])))
	ncol := int64(int32(engine.Uint32(payload[len(payload)-12:])))
	if nrow <= 0 || ncol <= 0 {
		return errs.Formatf("tag %s at %d: invalid matrix dimension %dx%d", t.Kind, t.Pos, nrow, ncol)
	}

	var elem int64
	switch t.Type.Base() {
	case format.TypeInt, format.TypeFloat:
		elem = 4
	case format.TypeDouble:
		elem = 8
	default:
		return errs.Formatf("tag %s at %d: unsupported matrix element type %s", t.Kind, t.Pos, t.Type.Base())
	}

	if nrow*ncol*elem+12 != int64(len(payload)) {
		return errs.Formatf("tag %s at %d: %dx%d matrix does not fit payload of %d bytes",
			t.Kind, t.Pos, nrow, ncol, len(payload))
	}

	// Data is stored row-major ahead of the dimensions.
	data := make([]float64, nrow*ncol)
	switch t.Type.Base() {
	case format.TypeInt:
		for i := range data {
			data[i] = float64(int32(engine.Uint32(payload[4*i:])))
		}
	case format.TypeFloat:
		for i := range data {
			data[i] = float64(math.Float32frombits(engine.Uint32(payload[4*i:])))
		}
	case format.TypeDouble:
		for i := range data {
			data[i] = math.Float64frombits(engine.Uint64(payload[8*i:]))
		}
	}

	t.Data = mat.NewDense(int(nrow), int(ncol), data)

	return nil
}
