package fiff

import (
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// CTFComp is one CTF software gradient compensation record. CTFKind is the
// raw code from the file and Kind its logical grade, see format.CompKind.
// RowCals and ColCals hold the calibrations applied to the matrix at read
// time; all ones when the matrix arrived calibrated.
type CTFComp struct {
	CTFKind        int32
	Kind           int32
	SaveCalibrated bool
	RowCals        []float64
	ColCals        []float64
	Data           *NamedMatrix
}

// ReadCTFComp reads every compensation record under node. The channel list
// supplies the calibrations: a record whose calibrated flag is unset has
// them applied here, exactly once, so callers always see matrices in
// calibrated units.
//
// Returns an ErrValidation-class error when a record has no compensation
// kind or when a matrix names a channel that is missing or duplicated in
// chs.
func ReadCTFComp(r io.ReaderAt, node *tree.Node, chs []*tag.ChInfo) ([]*CTFComp, error) {
	var comps []*CTFComp
	for _, compNode := range node.Find(format.BlockMNECTFCompData) {
		m, err := ReadNamedMatrix(r, compNode, format.KindMNECTFCompData)
		if err != nil {
			return nil, err
		}

		kindTag, err := compNode.FindTag(r, format.KindMNECTFCompKind)
		if err != nil {
			return nil, err
		}
		if kindTag == nil {
			return nil, errs.Validationf("compensation kind not found")
		}
		ctfKind, err := kindTag.Int()
		if err != nil {
			return nil, err
		}

		calibrated := false
		calTag, err := compNode.FindTag(r, format.KindMNECTFCompCalibrated)
		if err != nil {
			return nil, err
		}
		if calTag != nil {
			v, err := calTag.Int()
			if err != nil {
				return nil, err
			}
			calibrated = v != 0
		}

		comp := &CTFComp{
			CTFKind:        ctfKind,
			Kind:           format.CompKind(ctfKind),
			SaveCalibrated: calibrated,
			RowCals:        ones(m.NRow),
			ColCals:        ones(m.NCol),
			Data:           m,
		}
		if !calibrated {
			if err := comp.calibrate(chs); err != nil {
				return nil, err
			}
		}

		comps = append(comps, comp)
	}

	return comps, nil
}

// calibrate applies the channel calibrations to the compensation matrix:
// columns divide by range times cal, rows multiply by it.
func (c *CTFComp) calibrate(chs []*tag.ChInfo) error {
	m := c.Data
	if m.RowNames == nil || m.ColNames == nil {
		return errs.Validationf("compensation matrix is missing channel names")
	}

	colCals := make([]float64, m.NCol)
	for j, name := range m.ColNames {
		ch, err := channelByName(chs, name)
		if err != nil {
			return err
		}
		colCals[j] = 1.0 / (ch.Range * ch.Cal)
	}

	rowCals := make([]float64, m.NRow)
	for i, name := range m.RowNames {
		ch, err := channelByName(chs, name)
		if err != nil {
			return err
		}
		rowCals[i] = ch.Range * ch.Cal
	}

	// data = diag(rowCals) * data * diag(colCals)
	var tmp, scaled mat.Dense
	tmp.Mul(m.Data, mat.NewDiagDense(m.NCol, colCals))
	scaled.Mul(mat.NewDiagDense(m.NRow, rowCals), &tmp)

	m.Data = &scaled
	c.RowCals = rowCals
	c.ColCals = colCals

	return nil
}

// WriteCTFComp writes the compensation records. Nothing is written when
// comps is empty. The matrix is written as currently held, together with
// the calibration flag captured at read time.
func WriteCTFComp(w *tag.Writer, comps []*CTFComp) error {
	if len(comps) == 0 {
		return nil
	}

	if err := w.StartBlock(format.BlockMNECTFComp); err != nil {
		return err
	}

	for _, comp := range comps {
		if err := w.StartBlock(format.BlockMNECTFCompData); err != nil {
			return err
		}

		if err := w.WriteInt(format.KindMNECTFCompKind, comp.CTFKind); err != nil {
			return err
		}
		calibrated := int32(0)
		if comp.SaveCalibrated {
			calibrated = 1
		}
		if err := w.WriteInt(format.KindMNECTFCompCalibrated, calibrated); err != nil {
			return err
		}
		if err := WriteNamedMatrix(w, format.KindMNECTFCompData, comp.Data); err != nil {
			return err
		}

		if err := w.EndBlock(format.BlockMNECTFCompData); err != nil {
			return err
		}
	}

	return w.EndBlock(format.BlockMNECTFComp)
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}

	return v
}
