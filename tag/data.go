package tag

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/endian"
	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
)

// Version written into fresh ids, 1.2 in major.minor form.
const idVersion = (1 << 16) | 2

// ID identifies a file or a block: the format version that wrote it, the
// producing machine, and a timestamp. Ids are compared by value when
// resolving parent relations between files.
type ID struct {
	Version int32
	MachID  [2]int32
	Secs    int32
	Usecs   int32
}

// NewID returns a fresh id stamped with the current time. The machine id is
// random, matching acquisition software without a stable host id.
func NewID() *ID {
	return &ID{
		Version: idVersion,
		MachID:  [2]int32{rand.Int32N(1 << 16), rand.Int32N(1 << 16)},
		Secs:    int32(time.Now().Unix()),
		Usecs:   0,
	}
}

// Time returns the id timestamp.
func (id *ID) Time() time.Time {
	return time.Unix(int64(id.Secs), int64(id.Usecs)*1000)
}

func decodeID(payload []byte, pos int64) (*ID, error) {
	if len(payload) != 20 {
		return nil, errs.Formatf("id struct at %d has %d bytes, want 20", pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()

	return &ID{
		Version: int32(engine.Uint32(payload[0:])),
		MachID:  [2]int32{int32(engine.Uint32(payload[4:])), int32(engine.Uint32(payload[8:]))},
		Secs:    int32(engine.Uint32(payload[12:])),
		Usecs:   int32(engine.Uint32(payload[16:])),
	}, nil
}

// DirEntry is one row of a tag directory: the header fields of a tag plus
// its absolute position. On disk the position is a 32-bit integer; in memory
// it is widened for io.ReaderAt arithmetic.
type DirEntry struct {
	Kind format.Kind
	Type format.DataType
	Size int32
	Pos  int64
}

func decodeDirEntries(payload []byte, pos int64) ([]DirEntry, error) {
	if len(payload)%16 != 0 {
		return nil, errs.Formatf("directory at %d has %d bytes, not a multiple of 16", pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()
	entries := make([]DirEntry, len(payload)/16)
	for i := range entries {
		b := payload[16*i:]
		entries[i] = DirEntry{
			Kind: format.Kind(int32(engine.Uint32(b[0:]))),
			Type: format.DataType(engine.Uint32(b[4:])),
			Size: int32(engine.Uint32(b[8:])),
			Pos:  int64(int32(engine.Uint32(b[12:]))),
		}
	}

	return entries, nil
}

// DigPoint is a single digitized head point. Frame is not stored in the tag
// itself; readers stamp it from the enclosing block.
type DigPoint struct {
	Kind  format.PointKind
	Ident int32
	R     [3]float64
	Frame format.CoordFrame
}

func decodeDigPoint(payload []byte, pos int64) (*DigPoint, error) {
	if len(payload) != 20 {
		return nil, errs.Formatf("dig point struct at %d has %d bytes, want 20", pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()
	p := &DigPoint{
		Kind:  format.PointKind(int32(engine.Uint32(payload[0:]))),
		Ident: int32(engine.Uint32(payload[4:])),
	}
	for i := range 3 {
		p.R[i] = float64(math.Float32frombits(engine.Uint32(payload[8+4*i:])))
	}

	return p, nil
}

// ChInfo describes one recording channel. The stored fields mirror the
// 96-byte on-disk struct; Frame, CoilTrans and EEGLoc are derived from the
// location vector at read time and never written back.
type ChInfo struct {
	ScanNo   int32
	LogNo    int32
	Kind     format.ChKind
	Range    float64
	Cal      float64
	CoilType int32
	Loc      [12]float64
	Unit     int32
	UnitMul  int32
	Name     string

	Frame     format.CoordFrame
	CoilTrans *mat.Dense // coil to device transform, MEG channels only
	EEGLoc    *mat.Dense // electrode and reference location, EEG channels only
}

func decodeChInfo(payload []byte, pos int64) (*ChInfo, error) {
	if len(payload) != 96 {
		return nil, errs.Formatf("channel info struct at %d has %d bytes, want 96", pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()
	f32 := func(off int) float64 {
		return float64(math.Float32frombits(engine.Uint32(payload[off:])))
	}

	ch := &ChInfo{
		ScanNo:   int32(engine.Uint32(payload[0:])),
		LogNo:    int32(engine.Uint32(payload[4:])),
		Kind:     format.ChKind(int32(engine.Uint32(payload[8:]))),
		Range:    f32(12),
		Cal:      f32(16),
		CoilType: int32(engine.Uint32(payload[20:])),
		Unit:     int32(engine.Uint32(payload[72:])),
		UnitMul:  int32(engine.Uint32(payload[76:])),
	}
	for i := range 12 {
		ch.Loc[i] = f32(24 + 4*i)
	}

	name := payload[80:96]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	ch.Name = string(name)

	ch.derive()

	return ch, nil
}

// derive fills the in-memory convenience fields from the location vector.
// MEG coils carry a full coordinate system (origin plus three unit vectors),
// EEG electrodes a position and an optional reference position.
func (ch *ChInfo) derive() {
	switch ch.Kind {
	case format.ChMEG, format.ChRefMEG:
		ch.Frame = format.CoordDevice
		ct := mat.NewDense(4, 4, nil)
		for i := range 3 {
			ct.Set(i, 0, ch.Loc[3+i])
			ct.Set(i, 1, ch.Loc[6+i])
			ct.Set(i, 2, ch.Loc[9+i])
			ct.Set(i, 3, ch.Loc[i])
		}
		ct.Set(3, 3, 1)
		ch.CoilTrans = ct
	case format.ChEEG:
		ch.Frame = format.CoordHead
		refNorm := math.Sqrt(ch.Loc[3]*ch.Loc[3] + ch.Loc[4]*ch.Loc[4] + ch.Loc[5]*ch.Loc[5])
		if refNorm > 0 {
			loc := mat.NewDense(3, 2, nil)
			for i := range 3 {
				loc.Set(i, 0, ch.Loc[i])
				loc.Set(i, 1, ch.Loc[3+i])
			}
			ch.EEGLoc = loc
		} else {
			ch.EEGLoc = mat.NewDense(3, 1, []float64{ch.Loc[0], ch.Loc[1], ch.Loc[2]})
		}
	default:
		ch.Frame = format.CoordUnknown
	}
}

// CoordTrans is a rigid coordinate transformation between two frames,
// held as a 4x4 homogeneous matrix. The inverse stored on disk is dropped
// at read time and recomputed when writing.
type CoordTrans struct {
	From  format.CoordFrame
	To    format.CoordFrame
	Trans *mat.Dense
}

// String returns the frame pair, e.g. "device -> head".
func (ct *CoordTrans) String() string {
	return fmt.Sprintf("%s -> %s", ct.From, ct.To)
}

func decodeCoordTrans(payload []byte, pos int64) (*CoordTrans, error) {
	if len(payload) != 104 {
		return nil, errs.Formatf("coord transform struct at %d has %d bytes, want 104", pos, len(payload))
	}

	engine := endian.GetBigEndianEngine()
	f32 := func(off int) float64 {
		return float64(math.Float32frombits(engine.Uint32(payload[off:])))
	}

	ct := &CoordTrans{
		From: format.CoordFrame(int32(engine.Uint32(payload[0:]))),
		To:   format.CoordFrame(int32(engine.Uint32(payload[4:]))),
	}

	m := mat.NewDense(4, 4, nil)
	for i := range 3 {
		for j := range 3 {
			m.Set(i, j, f32(8+4*(3*i+j)))
		}
		m.Set(i, 3, f32(44+4*i))
	}
	m.Set(3, 3, 1)
	ct.Trans = m

	return ct, nil
}
