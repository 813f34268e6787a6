package format

import "strconv"

// DataType is the full 32-bit type word of a tag. The lower half names the
// element type; a non-zero upper half marks the payload as a matrix and names
// its coding.
type DataType uint32

const (
	TypeVoid          DataType = 0
	TypeByte          DataType = 1
	TypeShort         DataType = 2
	TypeInt           DataType = 3
	TypeFloat         DataType = 4
	TypeDouble        DataType = 5
	TypeUShort        DataType = 7
	TypeUInt          DataType = 8
	TypeString        DataType = 10
	TypeDAUPack16     DataType = 16
	TypeComplexFloat  DataType = 20
	TypeComplexDouble DataType = 21

	TypeChInfoStruct     DataType = 30 // 96 bytes
	TypeIDStruct         DataType = 31 // 20 bytes
	TypeDirEntryStruct   DataType = 32 // 16 bytes
	TypeDigPointStruct   DataType = 33 // 20 bytes
	TypeChPosStruct      DataType = 34
	TypeCoordTransStruct DataType = 35 // 104 bytes
)

// Matrix codings occupy the upper half of the type word.
const (
	MatrixMask  uint32 = 0xFFFF0000
	MatrixDense uint32 = 0x40000000
	MatrixCCS   uint32 = 0x40100000 // column-compressed sparse
	MatrixRCS   uint32 = 0x40200000 // row-compressed sparse
	TypeMask    uint32 = 0x0000FFFF
)

// IsMatrix reports whether the type word carries a matrix coding.
func (t DataType) IsMatrix() bool {
	return uint32(t)&MatrixMask != 0
}

// Coding returns the matrix coding bits of the type word, zero for scalars.
func (t DataType) Coding() uint32 {
	return uint32(t) & MatrixMask
}

// Base strips the matrix coding, leaving the element type.
func (t DataType) Base() DataType {
	return DataType(uint32(t) & TypeMask)
}

func (t DataType) String() string {
	if t.IsMatrix() {
		switch t.Coding() {
		case MatrixDense:
			return "matrix(" + t.Base().String() + ")"
		case MatrixCCS:
			return "ccs_matrix(" + t.Base().String() + ")"
		case MatrixRCS:
			return "rcs_matrix(" + t.Base().String() + ")"
		default:
			return "matrix_coding_" + strconv.FormatUint(uint64(t.Coding()>>16), 16)
		}
	}

	switch t {
	case TypeVoid:
		return "void"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeUShort:
		return "ushort"
	case TypeUInt:
		return "uint"
	case TypeString:
		return "string"
	case TypeDAUPack16:
		return "dau_pack16"
	case TypeComplexFloat:
		return "complex_float"
	case TypeComplexDouble:
		return "complex_double"
	case TypeChInfoStruct:
		return "ch_info_struct"
	case TypeIDStruct:
		return "id_struct"
	case TypeDirEntryStruct:
		return "dir_entry_struct"
	case TypeDigPointStruct:
		return "dig_point_struct"
	case TypeChPosStruct:
		return "ch_pos_struct"
	case TypeCoordTransStruct:
		return "coord_trans_struct"
	default:
		return "type_" + strconv.Itoa(int(t))
	}
}
