package tag

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/endian"
	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/internal/pool"
)

// Writer emits a sequential FIF tag stream. Every tag is written with a
// sequential next pointer; the chain is terminated by EndFile. The running
// position is tracked so callers can record tag offsets while writing.
//
// Writer is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	engine endian.EndianEngine
	pos    int64
}

// NewWriter returns a Writer emitting to w from position zero.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, engine: endian.GetBigEndianEngine()}
}

// Pos returns the stream position at which the next tag will start.
func (w *Writer) Pos() int64 {
	return w.pos
}

// writeTag emits one complete tag: header plus payload in a single write.
// The assembly buffer is pooled, so steady tag emission does not allocate.
func (w *Writer) writeTag(kind format.Kind, typ format.DataType, next int32, data []byte) error {
	bb := pool.GetTagBuffer()
	defer pool.PutTagBuffer(bb)

	bb.B = w.engine.AppendUint32(bb.B, uint32(kind))
	bb.B = w.engine.AppendUint32(bb.B, uint32(typ))
	bb.B = w.engine.AppendUint32(bb.B, uint32(len(data)))
	bb.B = w.engine.AppendUint32(bb.B, uint32(next))
	bb.B = append(bb.B, data...)

	n, err := w.w.Write(bb.B)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("writing tag %s: %w", kind, err)
	}

	return nil
}

func (w *Writer) appendFloat32(buf []byte, v float64) []byte {
	return w.engine.AppendUint32(buf, math.Float32bits(float32(v)))
}

// StartFile writes the compulsory opening tags of a FIF stream: a fresh file
// id, a null directory pointer and a null free list.
//
// Returns the id that was written, so callers can relate derived files back
// to this one.
func (w *Writer) StartFile() (*ID, error) {
	id := NewID()
	if err := w.WriteID(format.KindFileID, id); err != nil {
		return nil, err
	}
	if err := w.WriteInt(format.KindDirPointer, -1); err != nil {
		return nil, err
	}
	if err := w.WriteInt(format.KindFreeList, -1); err != nil {
		return nil, err
	}

	return id, nil
}

// EndFile terminates the tag chain with an empty tag whose next pointer is
// format.NextNone.
func (w *Writer) EndFile() error {
	return w.writeTag(format.KindNop, format.TypeVoid, format.NextNone, nil)
}

// StartBlock opens a block of the given kind.
func (w *Writer) StartBlock(block format.Block) error {
	return w.WriteInt(format.KindBlockStart, int32(block))
}

// EndBlock closes a block of the given kind.
func (w *Writer) EndBlock(block format.Block) error {
	return w.WriteInt(format.KindBlockEnd, int32(block))
}

// WriteInt writes an int tag holding the given values.
func (w *Writer) WriteInt(kind format.Kind, values ...int32) error {
	data := make([]byte, 0, 4*len(values))
	for _, v := range values {
		data = w.engine.AppendUint32(data, uint32(v))
	}

	return w.writeTag(kind, format.TypeInt, format.NextSeq, data)
}

// WriteFloat writes a float tag holding the given values. FIF floats are
// single precision on disk.
func (w *Writer) WriteFloat(kind format.Kind, values ...float64) error {
	data := make([]byte, 0, 4*len(values))
	for _, v := range values {
		data = w.appendFloat32(data, v)
	}

	return w.writeTag(kind, format.TypeFloat, format.NextSeq, data)
}

// WriteString writes a string tag. FIF strings carry no terminator; the tag
// size is the string length.
func (w *Writer) WriteString(kind format.Kind, s string) error {
	return w.writeTag(kind, format.TypeString, format.NextSeq, []byte(s))
}

// WriteNameList writes a list of names as a single colon-separated string
// tag, the FIF convention for channel name lists.
func (w *Writer) WriteNameList(kind format.Kind, names []string) error {
	return w.WriteString(kind, strings.Join(names, ":"))
}

// WriteID writes an id tag. A nil id writes a fresh one.
func (w *Writer) WriteID(kind format.Kind, id *ID) error {
	if id == nil {
		id = NewID()
	}

	data := make([]byte, 0, 20)
	data = w.engine.AppendUint32(data, uint32(id.Version))
	data = w.engine.AppendUint32(data, uint32(id.MachID[0]))
	data = w.engine.AppendUint32(data, uint32(id.MachID[1]))
	data = w.engine.AppendUint32(data, uint32(id.Secs))
	data = w.engine.AppendUint32(data, uint32(id.Usecs))

	return w.writeTag(kind, format.TypeIDStruct, format.NextSeq, data)
}

// WriteChInfo writes a channel info tag. Only the stored fields are
// serialized; the derived coordinate fields are reconstructed by readers.
func (w *Writer) WriteChInfo(ch *ChInfo) error {
	data := make([]byte, 0, 96)
	data = w.engine.AppendUint32(data, uint32(ch.ScanNo))
	data = w.engine.AppendUint32(data, uint32(ch.LogNo))
	data = w.engine.AppendUint32(data, uint32(ch.Kind))
	data = w.appendFloat32(data, ch.Range)
	data = w.appendFloat32(data, ch.Cal)
	data = w.engine.AppendUint32(data, uint32(ch.CoilType))
	for _, v := range ch.Loc {
		data = w.appendFloat32(data, v)
	}
	data = w.engine.AppendUint32(data, uint32(ch.Unit))
	data = w.engine.AppendUint32(data, uint32(ch.UnitMul))

	var name [16]byte
	copy(name[:], ch.Name)
	data = append(data, name[:]...)

	return w.writeTag(format.KindChInfo, format.TypeChInfoStruct, format.NextSeq, data)
}

// WriteDigPoint writes a digitized point tag.
func (w *Writer) WriteDigPoint(p *DigPoint) error {
	data := make([]byte, 0, 20)
	data = w.engine.AppendUint32(data, uint32(p.Kind))
	data = w.engine.AppendUint32(data, uint32(p.Ident))
	for _, v := range p.R {
		data = w.appendFloat32(data, v)
	}

	return w.writeTag(format.KindDigPoint, format.TypeDigPointStruct, format.NextSeq, data)
}

// WriteCoordTrans writes a coordinate transformation tag. The stored inverse
// is computed here rather than trusted from the caller.
func (w *Writer) WriteCoordTrans(ct *CoordTrans) error {
	r, c := ct.Trans.Dims()
	if r != 4 || c != 4 {
		return errs.Validationf("coord transform %s is %dx%d, want 4x4", ct, r, c)
	}

	var inv mat.Dense
	if err := inv.Inverse(ct.Trans); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return errs.Validationf("coord transform %s is not invertible", ct)
		}
	}

	data := make([]byte, 0, 104)
	data = w.engine.AppendUint32(data, uint32(ct.From))
	data = w.engine.AppendUint32(data, uint32(ct.To))
	for i := range 3 {
		for j := range 3 {
			data = w.appendFloat32(data, ct.Trans.At(i, j))
		}
	}
	for i := range 3 {
		data = w.appendFloat32(data, ct.Trans.At(i, 3))
	}
	for i := range 3 {
		for j := range 3 {
			data = w.appendFloat32(data, inv.At(i, j))
		}
	}
	for i := range 3 {
		data = w.appendFloat32(data, inv.At(i, 3))
	}

	return w.writeTag(format.KindCoordTrans, format.TypeCoordTransStruct, format.NextSeq, data)
}

// WriteFloatMatrix writes a dense 2-D float matrix tag. The dimensions trail
// the row-major data as int32s in the order [ncol, nrow, ndim].
func (w *Writer) WriteFloatMatrix(kind format.Kind, m *mat.Dense) error {
	rows, cols := m.Dims()
	data := make([]byte, 0, 4*rows*cols+12)
	for i := range rows {
		for j := range cols {
			data = w.appendFloat32(data, m.At(i, j))
		}
	}
	data = w.engine.AppendUint32(data, uint32(cols))
	data = w.engine.AppendUint32(data, uint32(rows))
	data = w.engine.AppendUint32(data, 2)

	typ := format.DataType(format.MatrixDense) | format.TypeFloat

	return w.writeTag(kind, typ, format.NextSeq, data)
}

// WriteRaw writes a tag with an opaque payload, used when copying tags
// between files without decoding them.
func (w *Writer) WriteRaw(kind format.Kind, typ format.DataType, data []byte) error {
	return w.writeTag(kind, typ, format.NextSeq, data)
}
