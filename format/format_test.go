package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataTypeMatrixCoding(t *testing.T) {
	t.Run("ScalarTypes", func(t *testing.T) {
		require.False(t, TypeInt.IsMatrix())
		require.False(t, TypeString.IsMatrix())
		require.Equal(t, TypeFloat, TypeFloat.Base())
		require.Equal(t, uint32(0), TypeDouble.Coding())
	})

	t.Run("DenseMatrix", func(t *testing.T) {
		typ := DataType(MatrixDense) | TypeFloat
		require.True(t, typ.IsMatrix())
		require.Equal(t, MatrixDense, typ.Coding())
		require.Equal(t, TypeFloat, typ.Base())
	})

	t.Run("SparseCodings", func(t *testing.T) {
		ccs := DataType(MatrixCCS) | TypeFloat
		rcs := DataType(MatrixRCS) | TypeDouble
		require.Equal(t, MatrixCCS, ccs.Coding())
		require.Equal(t, MatrixRCS, rcs.Coding())
		require.Equal(t, TypeFloat, ccs.Base())
		require.Equal(t, TypeDouble, rcs.Base())
	})
}

func TestCompKind(t *testing.T) {
	// The three CTF grade magics normalize to small integers.
	require.Equal(t, int32(1), CompKind(CompCTFGrade1))
	require.Equal(t, int32(2), CompKind(CompCTFGrade2))
	require.Equal(t, int32(3), CompKind(CompCTFGrade3))

	// Unknown codes pass through unchanged.
	require.Equal(t, int32(5), CompKind(5))
	require.Equal(t, int32(0x12345678), CompKind(0x12345678))
}

func TestCompMagicSpelling(t *testing.T) {
	// The magics spell G1BR..G3BR when laid out big-endian.
	require.Equal(t, int32(0x47314252), CompCTFGrade1)
	require.Equal(t, "G1BR", string([]byte{0x47, 0x31, 0x42, 0x52}))
}

func TestStringNames(t *testing.T) {
	require.Equal(t, "nchan", KindNChan.String())
	require.Equal(t, "block_start", KindBlockStart.String())
	require.Equal(t, "kind_9999", Kind(9999).String())

	require.Equal(t, "meas_info", BlockMeasInfo.String())
	require.Equal(t, "root", Block(0).String())
	require.Equal(t, "block_12345", Block(12345).String())

	require.Equal(t, "matrix(float)", (DataType(MatrixDense) | TypeFloat).String())
	require.Equal(t, "coord_trans_struct", TypeCoordTransStruct.String())

	require.Equal(t, "head", CoordHead.String())
	require.Equal(t, "MEG", ChMEG.String())
	require.Equal(t, "cardinal", PointCardinal.String())
}
