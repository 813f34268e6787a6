package tag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/endian"
	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
)

// testHeader builds a raw 16-byte tag header for hand-crafted streams.
func testHeader(kind format.Kind, typ format.DataType, size, next int32) []byte {
	engine := endian.GetBigEndianEngine()
	var b []byte
	b = engine.AppendUint32(b, uint32(kind))
	b = engine.AppendUint32(b, uint32(typ))
	b = engine.AppendUint32(b, uint32(size))
	b = engine.AppendUint32(b, uint32(next))

	return b
}

func TestReadInfo(t *testing.T) {
	t.Run("Header", func(t *testing.T) {
		raw := testHeader(format.KindNChan, format.TypeInt, 4, format.NextSeq)
		raw = append(raw, 0, 0, 0, 2)

		tg, err := ReadInfo(bytes.NewReader(raw), 0)
		require.NoError(t, err)
		require.Equal(t, format.KindNChan, tg.Kind)
		require.Equal(t, format.TypeInt, tg.Type)
		require.Equal(t, int32(4), tg.Size)
		require.Equal(t, format.NextSeq, tg.Next)
		require.Nil(t, tg.Data, "ReadInfo must not decode the payload")
	})

	t.Run("NegativeSize", func(t *testing.T) {
		raw := testHeader(format.KindNChan, format.TypeInt, -4, format.NextSeq)

		_, err := ReadInfo(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "negative size")
	})

	t.Run("TruncatedHeader", func(t *testing.T) {
		_, err := ReadInfo(bytes.NewReader([]byte{0, 0, 0}), 0)
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.ErrorIs(t, err, errs.ErrFormat)
	})
}

func TestReadScalars(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteInt(format.KindNChan, 2))
	floatPos := w.Pos()
	require.NoError(t, w.WriteFloat(format.KindSFreq, 600.0))
	strPos := w.Pos()
	require.NoError(t, w.WriteString(format.KindComment, "test set"))
	r := bytes.NewReader(buf.Bytes())

	t.Run("Int", func(t *testing.T) {
		tg, err := Read(r, 0)
		require.NoError(t, err)
		v, err := tg.Int()
		require.NoError(t, err)
		require.Equal(t, int32(2), v)

		// Wrong-shape accessors fail with a format error.
		_, err = tg.Text()
		require.ErrorIs(t, err, errs.ErrFormat)
		_, err = tg.Float()
		require.ErrorIs(t, err, errs.ErrFormat)
	})

	t.Run("Float", func(t *testing.T) {
		tg, err := Read(r, floatPos)
		require.NoError(t, err)
		v, err := tg.Float()
		require.NoError(t, err)
		require.Equal(t, 600.0, v)
	})

	t.Run("String", func(t *testing.T) {
		tg, err := Read(r, strPos)
		require.NoError(t, err)
		s, err := tg.Text()
		require.NoError(t, err)
		require.Equal(t, "test set", s)
	})
}

func TestReadErrors(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		raw := testHeader(format.KindNChan, format.DataType(23), 4, format.NextSeq)
		raw = append(raw, 0, 0, 0, 0)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "unimplemented data type")
	})

	t.Run("SparseMatrixCoding", func(t *testing.T) {
		typ := format.DataType(format.MatrixCCS) | format.TypeFloat
		raw := testHeader(format.KindProjItemVectors, typ, 12, format.NextSeq)
		raw = append(raw, make([]byte, 12)...)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "matrix coding")
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		raw := testHeader(format.KindComment, format.TypeString, 100, format.NextSeq)
		raw = append(raw, []byte("short")...)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("OddSizeForInt", func(t *testing.T) {
		raw := testHeader(format.KindNChan, format.TypeInt, 6, format.NextSeq)
		raw = append(raw, make([]byte, 6)...)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "not a multiple")
	})
}

func TestReadMatrix(t *testing.T) {
	t.Run("FloatRoundTrip", func(t *testing.T) {
		want := mat.NewDense(2, 3, []float64{1, 2.5, 3, 4, 5.25, 6})
		var buf bytes.Buffer
		w := NewWriter(&buf)
		require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, want))

		tg, err := Read(bytes.NewReader(buf.Bytes()), 0)
		require.NoError(t, err)
		require.True(t, tg.Type.IsMatrix())
		require.Equal(t, format.TypeFloat, tg.Type.Base())

		got, err := tg.Matrix()
		require.NoError(t, err)
		require.True(t, mat.Equal(want, got))
	})

	t.Run("IntElements", func(t *testing.T) {
		engine := endian.GetBigEndianEngine()
		var payload []byte
		for _, v := range []int32{1, 2, 3, 4, 5, 6} {
			payload = engine.AppendUint32(payload, uint32(v))
		}
		// Dimensions trail the data: ncol, nrow, ndim.
		payload = engine.AppendUint32(payload, 3)
		payload = engine.AppendUint32(payload, 2)
		payload = engine.AppendUint32(payload, 2)

		typ := format.DataType(format.MatrixDense) | format.TypeInt
		raw := testHeader(format.KindDataBuffer, typ, int32(len(payload)), format.NextSeq)
		raw = append(raw, payload...)

		tg, err := Read(bytes.NewReader(raw), 0)
		require.NoError(t, err)
		got, err := tg.Matrix()
		require.NoError(t, err)
		require.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}), got))
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		engine := endian.GetBigEndianEngine()
		payload := make([]byte, 8) // two floats, but dims claim 2x3
		payload = engine.AppendUint32(payload, 3)
		payload = engine.AppendUint32(payload, 2)
		payload = engine.AppendUint32(payload, 2)

		typ := format.DataType(format.MatrixDense) | format.TypeFloat
		raw := testHeader(format.KindDataBuffer, typ, int32(len(payload)), format.NextSeq)
		raw = append(raw, payload...)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "does not fit")
	})

	t.Run("NotTwoDimensional", func(t *testing.T) {
		engine := endian.GetBigEndianEngine()
		payload := make([]byte, 8)
		payload = engine.AppendUint32(payload, 2)
		payload = engine.AppendUint32(payload, 1)
		payload = engine.AppendUint32(payload, 2)
		payload = engine.AppendUint32(payload, 3) // ndim

		typ := format.DataType(format.MatrixDense) | format.TypeFloat
		raw := testHeader(format.KindDataBuffer, typ, int32(len(payload)), format.NextSeq)
		raw = append(raw, payload...)

		_, err := Read(bytes.NewReader(raw), 0)
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "dimensions supported")
	})
}

func TestScan(t *testing.T) {
	t.Run("FollowsNextPointers", func(t *testing.T) {
		var raw []byte
		// Tag at 0 jumps over 8 bytes of dead space to 24.
		raw = append(raw, testHeader(format.KindFileID, format.TypeVoid, 0, 24)...)
		raw = append(raw, make([]byte, 8)...)
		// Tag at 24 continues sequentially to 40.
		raw = append(raw, testHeader(format.KindNChan, format.TypeVoid, 0, format.NextSeq)...)
		// Terminator at 40.
		raw = append(raw, testHeader(format.KindNop, format.TypeVoid, 0, format.NextNone)...)

		dir, err := Scan(bytes.NewReader(raw), int64(len(raw)))
		require.NoError(t, err)
		require.Len(t, dir, 3)
		require.Equal(t, int64(0), dir[0].Pos)
		require.Equal(t, int64(24), dir[1].Pos)
		require.Equal(t, int64(40), dir[2].Pos)
		require.Equal(t, format.KindNop, dir[2].Kind, "terminator is part of the directory")
	})

	t.Run("DetectsCycle", func(t *testing.T) {
		var raw []byte
		raw = append(raw, testHeader(format.KindFileID, format.TypeVoid, 0, 16)...)
		raw = append(raw, testHeader(format.KindNop, format.TypeVoid, 0, 16)...)

		_, err := Scan(bytes.NewReader(raw), int64(len(raw)))
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "does not terminate")
	})

	t.Run("InvalidNextPointer", func(t *testing.T) {
		raw := testHeader(format.KindFileID, format.TypeVoid, 0, -5)

		_, err := Scan(bytes.NewReader(raw), int64(len(raw)))
		require.ErrorIs(t, err, errs.ErrFormat)
		require.ErrorContains(t, err, "invalid next pointer")
	})

	t.Run("MissingTerminator", func(t *testing.T) {
		raw := testHeader(format.KindFileID, format.TypeVoid, 0, format.NextSeq)

		_, err := Scan(bytes.NewReader(raw), int64(len(raw)))
		require.ErrorIs(t, err, errs.ErrTruncated)
	})
}

func TestDirEntryDecode(t *testing.T) {
	engine := endian.GetBigEndianEngine()
	var payload []byte
	payload = engine.AppendUint32(payload, uint32(format.KindNChan))
	payload = engine.AppendUint32(payload, uint32(format.TypeInt))
	payload = engine.AppendUint32(payload, 4)
	payload = engine.AppendUint32(payload, 56)
	payload = engine.AppendUint32(payload, uint32(format.KindSFreq))
	payload = engine.AppendUint32(payload, uint32(format.TypeFloat))
	payload = engine.AppendUint32(payload, 4)
	payload = engine.AppendUint32(payload, 76)

	raw := testHeader(format.KindDir, format.TypeDirEntryStruct, int32(len(payload)), format.NextSeq)
	raw = append(raw, payload...)

	tg, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	dir, err := tg.DirEntries()
	require.NoError(t, err)
	require.Len(t, dir, 2)
	require.Equal(t, DirEntry{Kind: format.KindNChan, Type: format.TypeInt, Size: 4, Pos: 56}, dir[0])
	require.Equal(t, DirEntry{Kind: format.KindSFreq, Type: format.TypeFloat, Size: 4, Pos: 76}, dir[1])
}
