// Package format defines the constant tables of the FIF file format: tag
// kinds, block kinds, data types, coordinate frames and the other value codes
// that appear inside tag payloads.
//
// The numeric values are fixed by the FIF standard and shared with every other
// FIF implementation; they are not private to this module. Constants are typed
// so that tag kinds, block kinds and data types cannot be mixed up, and each
// type carries a String method for human-readable dumps.
package format

// Next-pointer sentinels in tag headers. Any other positive value is an
// absolute file position of the next tag.
const (
	NextSeq  int32 = 0  // next tag follows immediately after this one
	NextNone int32 = -1 // no next tag, end of chain
)

// CoordFrame identifies the coordinate system a location or transformation
// refers to.
type CoordFrame int32

const (
	CoordUnknown   CoordFrame = 0
	CoordDevice    CoordFrame = 1 // MEG device frame
	CoordIsotrak   CoordFrame = 2
	CoordHPI       CoordFrame = 3
	CoordHead      CoordFrame = 4 // head frame defined by the cardinal points
	CoordMRI       CoordFrame = 5
	CoordCTFDevice CoordFrame = 1001
	CoordCTFHead   CoordFrame = 1004
)

func (c CoordFrame) String() string {
	switch c {
	case CoordUnknown:
		return "unknown"
	case CoordDevice:
		return "device"
	case CoordIsotrak:
		return "isotrak"
	case CoordHPI:
		return "hpi"
	case CoordHead:
		return "head"
	case CoordMRI:
		return "MRI"
	case CoordCTFDevice:
		return "CTF device"
	case CoordCTFHead:
		return "CTF head"
	default:
		return "unknown"
	}
}

// ChKind identifies the physical type of a recording channel.
type ChKind int32

const (
	ChMEG    ChKind = 1
	ChEEG    ChKind = 2
	ChStim   ChKind = 3
	ChEOG    ChKind = 202
	ChRefMEG ChKind = 301 // reference magnetometer
	ChEMG    ChKind = 302
	ChECG    ChKind = 402
	ChMisc   ChKind = 502
)

func (k ChKind) String() string {
	switch k {
	case ChMEG:
		return "MEG"
	case ChEEG:
		return "EEG"
	case ChStim:
		return "STIM"
	case ChEOG:
		return "EOG"
	case ChRefMEG:
		return "REF_MEG"
	case ChEMG:
		return "EMG"
	case ChECG:
		return "ECG"
	case ChMisc:
		return "MISC"
	default:
		return "unknown"
	}
}

// PointKind identifies the role of a digitized head point.
type PointKind int32

const (
	PointCardinal PointKind = 1 // nasion and preauricular points
	PointHPI      PointKind = 2
	PointEEG      PointKind = 3
	PointExtra    PointKind = 4
)

func (k PointKind) String() string {
	switch k {
	case PointCardinal:
		return "cardinal"
	case PointHPI:
		return "hpi"
	case PointEEG:
		return "eeg"
	case PointExtra:
		return "extra"
	default:
		return "unknown"
	}
}

// Projection item kinds stored in the proj_item_kind tag.
const (
	ProjItemNone       int32 = 0
	ProjItemField      int32 = 1
	ProjItemDipFix     int32 = 2
	ProjItemDipRot     int32 = 3
	ProjItemHomogGrad  int32 = 4
	ProjItemHomogField int32 = 5
	ProjItemEEGAvRef   int32 = 10
)

// CTF software gradient compensation grades as stored on disk. The values
// spell "G1BR".."G3BR" in ASCII when read big-endian.
const (
	CompCTFGrade1 int32 = 0x47314252
	CompCTFGrade2 int32 = 0x47324252
	CompCTFGrade3 int32 = 0x47334252
)

// CompKind maps a CTF compensation code to its logical grade: the three known
// magics become grades 1 to 3, anything else passes through unchanged.
func CompKind(ctfKind int32) int32 {
	switch ctfKind {
	case CompCTFGrade1:
		return 1
	case CompCTFGrade2:
		return 2
	case CompCTFGrade3:
		return 3
	default:
		return ctfKind
	}
}
