package fiff

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
)

func buildProjItem(t *testing.T, fill func(w *tag.Writer)) []byte {
	t.Helper()

	return buildStream(t, func(w *tag.Writer) {
		require.NoError(t, w.StartBlock(format.BlockProj))
		require.NoError(t, w.StartBlock(format.BlockProjItem))
		fill(w)
		require.NoError(t, w.EndBlock(format.BlockProjItem))
		require.NoError(t, w.EndBlock(format.BlockProj))
	})
}

func TestProjRoundTrip(t *testing.T) {
	projs := []*Projection{
		{
			Kind:   format.ProjItemField,
			Active: true,
			Desc:   "field pattern",
			Data: &NamedMatrix{
				NRow:     1,
				NCol:     2,
				ColNames: []string{"MEG 0111", "MEG 0112"},
				Data:     mat.NewDense(1, 2, []float64{0.5, 0.25}),
			},
		},
		{
			Kind: format.ProjItemEEGAvRef,
			Desc: "Average EEG reference",
			Data: &NamedMatrix{
				NRow:     1,
				NCol:     3,
				ColNames: []string{"EEG 001", "EEG 002", "EEG 003"},
				Data:     mat.NewDense(1, 3, []float64{1, 1, 1}),
			},
		},
	}

	data := buildStream(t, func(w *tag.Writer) {
		require.NoError(t, WriteProj(w, projs))
	})

	f := openStream(t, data)
	got, err := ReadProj(f.Reader(), f.Tree())
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, proj := range got {
		require.Equal(t, projs[i].Kind, proj.Kind)
		require.Equal(t, projs[i].Active, proj.Active)
		require.Equal(t, projs[i].Desc, proj.Desc)
		require.Equal(t, projs[i].Data.ColNames, proj.Data.ColNames)
		require.True(t, mat.Equal(projs[i].Data.Data, proj.Data.Data))
	}
}

func TestReadProjAbsent(t *testing.T) {
	t.Run("NoBlock", func(t *testing.T) {
		f := openStream(t, buildStream(t, nil))
		got, err := ReadProj(f.Reader(), f.Tree())
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("EmptyBlock", func(t *testing.T) {
		data := buildStream(t, func(w *tag.Writer) {
			require.NoError(t, WriteProj(w, nil))
		})

		f := openStream(t, data)
		require.Len(t, f.Tree().Find(format.BlockProj), 1, "empty block is still recorded")

		got, err := ReadProj(f.Reader(), f.Tree())
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestReadProjDescPriority(t *testing.T) {
	data := buildProjItem(t, func(w *tag.Writer) {
		require.NoError(t, w.WriteString(format.KindComment, "from comment"))
		require.NoError(t, w.WriteString(format.KindName, "from name"))
		require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
		require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
		require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, []string{"EEG 001"}))
		require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, mat.NewDense(1, 1, []float64{1})))
	})

	f := openStream(t, data)
	got, err := ReadProj(f.Reader(), f.Tree())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "from comment", got[0].Desc)
	require.False(t, got[0].Active, "active defaults to false")
}

func TestReadProjErrors(t *testing.T) {
	vectors := func() *mat.Dense { return mat.NewDense(1, 2, []float64{0.5, 0.5}) }
	names := []string{"EEG 001", "EEG 002"}

	t.Run("MissingDesc", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
			require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
			require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, names))
			require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, vectors()))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorIs(t, err, errs.ErrValidation)
		require.ErrorContains(t, err, "description missing")
	})

	t.Run("MissingKind", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteString(format.KindName, "PCA-v1"))
			require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
			require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, names))
			require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, vectors()))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorContains(t, err, "kind missing")
	})

	t.Run("MissingNVec", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteString(format.KindName, "PCA-v1"))
			require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
			require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, names))
			require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, vectors()))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorContains(t, err, "number of projection vectors")
	})

	t.Run("MissingNames", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteString(format.KindName, "PCA-v1"))
			require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
			require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
			require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, vectors()))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorContains(t, err, "channel list missing")
	})

	t.Run("MissingVectors", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteString(format.KindName, "PCA-v1"))
			require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
			require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
			require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, names))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorContains(t, err, "data missing")
	})

	t.Run("NameCountMismatch", func(t *testing.T) {
		data := buildProjItem(t, func(w *tag.Writer) {
			require.NoError(t, w.WriteString(format.KindName, "PCA-v1"))
			require.NoError(t, w.WriteInt(format.KindProjItemKind, format.ProjItemNone))
			require.NoError(t, w.WriteInt(format.KindProjItemNVec, 1))
			require.NoError(t, w.WriteNameList(format.KindProjItemChNameList, []string{"EEG 001"}))
			require.NoError(t, w.WriteFloatMatrix(format.KindProjItemVectors, vectors()))
		})

		f := openStream(t, data)
		_, err := ReadProj(f.Reader(), f.Tree())
		require.ErrorContains(t, err, "channel names")
	})
}
