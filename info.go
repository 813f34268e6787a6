package fiff

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// MeasDate is the acquisition timestamp as stored: seconds and microseconds
// since the epoch.
type MeasDate struct {
	Secs  int32
	Usecs int32
}

// Time returns the timestamp as a time.Time.
func (d MeasDate) Time() time.Time {
	return time.Unix(int64(d.Secs), int64(d.Usecs)*1000)
}

// MeasInfo is the measurement description assembled from the measurement
// block of a file: channel definitions, acquisition parameters, coordinate
// transformations, digitizer points, projections and compensation records.
type MeasInfo struct {
	FileID *tag.ID
	MeasID *tag.ID

	MeasDate *MeasDate
	NChan    int
	SFreq    float64
	Highpass float64
	Lowpass  float64

	Chs     []*tag.ChInfo
	ChNames []string
	Bads    []string

	Dig []*tag.DigPoint

	DevHeadT *tag.CoordTrans // MEG device to head
	CTFHeadT *tag.CoordTrans // CTF head to head
	DevCTFT  *tag.CoordTrans // MEG device to CTF head, composed at read time

	Projs []*Projection
	Comps []*CTFComp

	AcqPars string
	AcqStim string

	// Filename is the file the info was read from. WriteMeasInfo copies the
	// blocks it does not reassemble from this file when set.
	Filename string
}

// Blocks carried over verbatim from the source file when rewriting
// measurement info.
var copiedBlocks = []format.Block{
	format.BlockSubject,
	format.BlockHPIMeas,
	format.BlockHPIResult,
	format.BlockIsotrak,
	format.BlockProcessingHistory,
}

// ReadMeasInfo assembles the measurement description from the tree rooted at
// root and returns it together with the measurement node itself.
//
// The tree must hold exactly one measurement block with exactly one
// measurement-info child, and that child must define the channel count, the
// sampling frequency, one channel-info tag per channel and exactly one
// isotrak block. Violations return ErrValidation-class errors; a tree with
// no measurement block at all returns ErrNoMeasurement.
//
// Defaults for absent tags: lowpass is half the sampling frequency, highpass
// is zero, and the measurement date falls back to the measurement id
// timestamp. The device-to-head and CTF-head-to-head transforms are taken
// from the info block, or from a single HPI result child when the info block
// has none.
func ReadMeasInfo(r io.ReaderAt, root *tree.Node) (*MeasInfo, *tree.Node, error) {
	measNodes := root.Find(format.BlockMeas)
	if len(measNodes) == 0 {
		return nil, nil, errs.ErrNoMeasurement
	}
	if len(measNodes) > 1 {
		return nil, nil, errs.Validationf("more than one measurement block")
	}
	meas := measNodes[0]

	infoNodes := meas.Find(format.BlockMeasInfo)
	if len(infoNodes) == 0 {
		return nil, nil, errs.Validationf("could not find measurement info")
	}
	if len(infoNodes) > 1 {
		return nil, nil, errs.Validationf("more than one measurement info block")
	}
	measInfo := infoNodes[0]

	var nchan int
	var sfreq, lowpass, highpass float64
	var haveNChan, haveSFreq, haveLowpass, haveHighpass bool
	var measDate *MeasDate
	var devHeadT, ctfHeadT *tag.CoordTrans
	var chs []*tag.ChInfo

	for _, entry := range measInfo.Dir {
		switch entry.Kind {
		case format.KindNChan:
			v, err := intAt(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			nchan = int(v)
			haveNChan = true

		case format.KindSFreq:
			v, err := floatAt(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			sfreq = v
			haveSFreq = true

		case format.KindLowpass:
			v, err := floatAt(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			lowpass = v
			haveLowpass = true

		case format.KindHighpass:
			v, err := floatAt(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			highpass = v
			haveHighpass = true

		case format.KindMeasDate:
			t, err := tag.Read(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			vals, err := t.Ints()
			if err != nil {
				return nil, nil, err
			}
			if len(vals) == 0 {
				return nil, nil, errs.Formatf("empty meas_date tag at %d", entry.Pos)
			}
			d := &MeasDate{Secs: vals[0]}
			if len(vals) > 1 {
				d.Usecs = vals[1]
			}
			measDate = d

		case format.KindChInfo:
			t, err := tag.Read(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			ch, err := t.ChInfo()
			if err != nil {
				return nil, nil, err
			}
			chs = append(chs, ch)

		case format.KindCoordTrans:
			cand, err := coordAt(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			noteTransform(cand, &devHeadT, &ctfHeadT)
		}
	}

	if !haveNChan {
		return nil, nil, errs.Validationf("number of channels is not defined")
	}
	if !haveSFreq {
		return nil, nil, errs.Validationf("sampling frequency is not defined")
	}
	if len(chs) == 0 {
		return nil, nil, errs.Validationf("channel information not defined")
	}
	if len(chs) != nchan {
		return nil, nil, errs.Validationf("incorrect number of channel definitions found")
	}

	// Older files keep the transforms in the HPI result instead.
	if devHeadT == nil || ctfHeadT == nil {
		if hpi := measInfo.Find(format.BlockHPIResult); len(hpi) == 1 {
			for _, entry := range hpi[0].Dir {
				if entry.Kind != format.KindCoordTrans {
					continue
				}
				cand, err := coordAt(r, entry.Pos)
				if err != nil {
					return nil, nil, err
				}
				noteTransform(cand, &devHeadT, &ctfHeadT)
			}
		}
	}

	isotraks := measInfo.Find(format.BlockIsotrak)
	if len(isotraks) == 0 {
		return nil, nil, errs.Validationf("isotrak not found")
	}
	if len(isotraks) > 1 {
		return nil, nil, errs.Validationf("multiple isotrak found")
	}
	var dig []*tag.DigPoint
	for _, entry := range isotraks[0].Dir {
		if entry.Kind != format.KindDigPoint {
			continue
		}
		t, err := tag.Read(r, entry.Pos)
		if err != nil {
			return nil, nil, err
		}
		p, err := t.DigPoint()
		if err != nil {
			return nil, nil, err
		}
		p.Frame = format.CoordHead
		dig = append(dig, p)
	}

	var acqPars, acqStim string
	if acq := measInfo.Find(format.BlockDACQPars); len(acq) == 1 {
		for _, entry := range acq[0].Dir {
			if entry.Kind != format.KindDACQPars && entry.Kind != format.KindDACQStim {
				continue
			}
			t, err := tag.Read(r, entry.Pos)
			if err != nil {
				return nil, nil, err
			}
			s, err := t.Text()
			if err != nil {
				return nil, nil, err
			}
			if entry.Kind == format.KindDACQPars {
				acqPars = s
			} else {
				acqStim = s
			}
		}
	}

	projs, err := ReadProj(r, measInfo)
	if err != nil {
		return nil, nil, err
	}
	comps, err := ReadCTFComp(r, measInfo, chs)
	if err != nil {
		return nil, nil, err
	}
	bads, err := ReadBadChannels(r, root)
	if err != nil {
		return nil, nil, err
	}

	info := &MeasInfo{FileID: root.ID}

	// The measurement id prefers the info block's parent, then its own id,
	// then the measurement block's ids, then the file id.
	switch {
	case measInfo.ParentID != nil:
		info.MeasID = measInfo.ParentID
	case measInfo.ID != nil:
		info.MeasID = measInfo.ID
	case meas.ID != nil:
		info.MeasID = meas.ID
	case meas.ParentID != nil:
		info.MeasID = meas.ParentID
	default:
		info.MeasID = root.ID
	}

	if measDate == nil && info.MeasID != nil {
		measDate = &MeasDate{Secs: info.MeasID.Secs, Usecs: info.MeasID.Usecs}
	}
	info.MeasDate = measDate

	info.NChan = nchan
	info.SFreq = sfreq
	info.Lowpass = sfreq / 2
	if haveLowpass {
		info.Lowpass = lowpass
	}
	if haveHighpass {
		info.Highpass = highpass
	}

	info.Chs = chs
	info.ChNames = make([]string, len(chs))
	for i, ch := range chs {
		info.ChNames[i] = ch.Name
	}

	info.DevHeadT = devHeadT
	info.CTFHeadT = ctfHeadT
	if devHeadT != nil && ctfHeadT != nil {
		devCTF, err := composeDevCTF(devHeadT, ctfHeadT)
		if err != nil {
			return nil, nil, err
		}
		info.DevCTFT = devCTF
	}

	info.Dig = dig
	info.Bads = bads
	info.Projs = projs
	info.Comps = comps
	info.AcqPars = acqPars
	info.AcqStim = acqStim

	return info, meas, nil
}

// noteTransform keeps the transforms the assembler cares about, the device
// to head and CTF head to head pairs. Other frame pairs are dropped.
func noteTransform(cand *tag.CoordTrans, devHead, ctfHead **tag.CoordTrans) {
	switch {
	case cand.From == format.CoordDevice && cand.To == format.CoordHead:
		*devHead = cand
	case cand.From == format.CoordCTFHead && cand.To == format.CoordHead:
		*ctfHead = cand
	}
}

// composeDevCTF builds the device to CTF head transform by routing through
// the head frame.
func composeDevCTF(devHead, ctfHead *tag.CoordTrans) (*tag.CoordTrans, error) {
	var headCTF mat.Dense
	if err := headCTF.Inverse(ctfHead.Trans); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errs.Validationf("ctf head transform is not invertible")
		}
	}

	var trans mat.Dense
	trans.Mul(&headCTF, devHead.Trans)

	return &tag.CoordTrans{From: format.CoordDevice, To: format.CoordCTFHead, Trans: &trans}, nil
}

// WriteMeasInfo writes info as a measurement-info block.
//
// When info carries a source filename, the blocks this module reads but does
// not reassemble (subject, HPI, isotrak, processing history) are copied over
// verbatim from that file with rewritten block ids. Transforms and digitizer
// points are then skipped here when a copied block already carries them.
//
// Channels are renumbered sequentially on the way out; scan numbers from the
// source cannot be trusted after channel selections.
func WriteMeasInfo(w *tag.Writer, info *MeasInfo) error {
	if len(info.Chs) != info.NChan {
		return errs.Validationf("incorrect number of channel definitions found")
	}

	if err := w.StartBlock(format.BlockMeasInfo); err != nil {
		return err
	}

	var haveHPIResult, haveIsotrak bool
	if info.Filename != "" {
		if err := func() error {
			src, err := Open(info.Filename)
			if err != nil {
				return fmt.Errorf("opening source file: %w", err)
			}
			defer src.Close()

			for _, block := range copiedBlocks {
				nodes := src.Tree().Find(block)
				if err := tree.Copy(w, src.Reader(), src.ID(), nodes); err != nil {
					return err
				}
				if block == format.BlockHPIResult && len(nodes) > 0 {
					haveHPIResult = true
				}
				if block == format.BlockIsotrak && len(nodes) > 0 {
					haveIsotrak = true
				}
			}

			return nil
		}(); err != nil {
			return err
		}
	}

	if info.AcqPars != "" || info.AcqStim != "" {
		if err := w.StartBlock(format.BlockDACQPars); err != nil {
			return err
		}
		if info.AcqPars != "" {
			if err := w.WriteString(format.KindDACQPars, info.AcqPars); err != nil {
				return err
			}
		}
		if info.AcqStim != "" {
			if err := w.WriteString(format.KindDACQStim, info.AcqStim); err != nil {
				return err
			}
		}
		if err := w.EndBlock(format.BlockDACQPars); err != nil {
			return err
		}
	}

	if !haveHPIResult {
		if info.DevHeadT != nil {
			if err := w.WriteCoordTrans(info.DevHeadT); err != nil {
				return err
			}
		}
		if info.CTFHeadT != nil {
			if err := w.WriteCoordTrans(info.CTFHeadT); err != nil {
				return err
			}
		}
	}

	if info.Dig != nil && !haveIsotrak {
		if err := w.StartBlock(format.BlockIsotrak); err != nil {
			return err
		}
		for _, p := range info.Dig {
			if err := w.WriteDigPoint(p); err != nil {
				return err
			}
		}
		if err := w.EndBlock(format.BlockIsotrak); err != nil {
			return err
		}
	}

	if err := WriteProj(w, info.Projs); err != nil {
		return err
	}
	if err := WriteCTFComp(w, info.Comps); err != nil {
		return err
	}
	if err := writeBadChannels(w, info.Bads); err != nil {
		return err
	}

	if err := w.WriteFloat(format.KindSFreq, info.SFreq); err != nil {
		return err
	}
	if err := w.WriteFloat(format.KindHighpass, info.Highpass); err != nil {
		return err
	}
	if err := w.WriteFloat(format.KindLowpass, info.Lowpass); err != nil {
		return err
	}
	if err := w.WriteInt(format.KindNChan, int32(info.NChan)); err != nil {
		return err
	}
	if info.MeasDate != nil {
		if err := w.WriteInt(format.KindMeasDate, info.MeasDate.Secs, info.MeasDate.Usecs); err != nil {
			return err
		}
	}

	for k, ch := range info.Chs {
		ch.ScanNo = int32(k + 1)
		if err := w.WriteChInfo(ch); err != nil {
			return err
		}
	}

	return w.EndBlock(format.BlockMeasInfo)
}

func intAt(r io.ReaderAt, pos int64) (int32, error) {
	t, err := tag.Read(r, pos)
	if err != nil {
		return 0, err
	}

	return t.Int()
}

func floatAt(r io.ReaderAt, pos int64) (float64, error) {
	t, err := tag.Read(r, pos)
	if err != nil {
		return 0, err
	}

	return t.Float()
}

func coordAt(r io.ReaderAt, pos int64) (*tag.CoordTrans, error) {
	t, err := tag.Read(r, pos)
	if err != nil {
		return nil, err
	}

	return t.CoordTrans()
}
