package fiff

import (
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// NamedMatrix is a dense matrix whose rows and columns are identified by
// name, typically channel names. A nil name slice means the dimension is
// unnamed.
type NamedMatrix struct {
	NRow     int
	NCol     int
	RowNames []string
	ColNames []string
	Data     *mat.Dense
}

// ReadNamedMatrix reads the named matrix whose data tag has the given kind.
// When node itself is not a named-matrix block the reader descends one level
// to the first named-matrix child carrying the kind.
//
// Returns an ErrValidation-class error when the matrix is not available, or
// when the nrow/ncol tags or the name lists contradict the data dimensions.
func ReadNamedMatrix(r io.ReaderAt, node *tree.Node, matkind format.Kind) (*NamedMatrix, error) {
	if node.Block != format.BlockMNENamedMatrix {
		found := false
		for _, child := range node.Children {
			if child.Block == format.BlockMNENamedMatrix && child.HasTag(matkind) {
				node = child
				found = true
				break
			}
		}
		if !found {
			return nil, errs.Validationf("named matrix (kind %s) not available", matkind)
		}
	} else if !node.HasTag(matkind) {
		return nil, errs.Validationf("named matrix (kind %s) not available", matkind)
	}

	dataTag, err := node.FindTag(r, matkind)
	if err != nil {
		return nil, err
	}
	if dataTag == nil {
		return nil, errs.Validationf("matrix data missing")
	}
	data, err := dataTag.Matrix()
	if err != nil {
		return nil, err
	}
	nrow, ncol := data.Dims()

	nrowTag, err := node.FindTag(r, format.KindMNENRow)
	if err != nil {
		return nil, err
	}
	if nrowTag != nil {
		v, err := nrowTag.Int()
		if err != nil {
			return nil, err
		}
		if int(v) != nrow {
			return nil, errs.Validationf("matrix data has %d rows but the nrow tag says %d", nrow, v)
		}
	}

	ncolTag, err := node.FindTag(r, format.KindMNENCol)
	if err != nil {
		return nil, err
	}
	if ncolTag != nil {
		v, err := ncolTag.Int()
		if err != nil {
			return nil, err
		}
		if int(v) != ncol {
			return nil, errs.Validationf("matrix data has %d columns but the ncol tag says %d", ncol, v)
		}
	}

	m := &NamedMatrix{NRow: nrow, NCol: ncol, Data: data}

	if m.RowNames, err = readNames(r, node, format.KindMNERowNames); err != nil {
		return nil, err
	}
	if m.RowNames != nil && len(m.RowNames) != nrow {
		return nil, errs.Validationf("matrix has %d rows but %d row names", nrow, len(m.RowNames))
	}

	if m.ColNames, err = readNames(r, node, format.KindMNEColNames); err != nil {
		return nil, err
	}
	if m.ColNames != nil && len(m.ColNames) != ncol {
		return nil, errs.Validationf("matrix has %d columns but %d column names", ncol, len(m.ColNames))
	}

	return m, nil
}

// readNames reads a colon-separated name list tag, nil when absent.
func readNames(r io.ReaderAt, node *tree.Node, kind format.Kind) ([]string, error) {
	t, err := node.FindTag(r, kind)
	if err != nil || t == nil {
		return nil, err
	}
	s, err := t.Text()
	if err != nil {
		return nil, err
	}

	return strings.Split(s, ":"), nil
}

// WriteNamedMatrix writes m as a named-matrix block whose data tag has the
// given kind. Name lists are written only for named dimensions.
func WriteNamedMatrix(w *tag.Writer, kind format.Kind, m *NamedMatrix) error {
	if err := w.StartBlock(format.BlockMNENamedMatrix); err != nil {
		return err
	}

	if err := w.WriteInt(format.KindMNENRow, int32(m.NRow)); err != nil {
		return err
	}
	if err := w.WriteInt(format.KindMNENCol, int32(m.NCol)); err != nil {
		return err
	}
	if len(m.RowNames) > 0 {
		if err := w.WriteNameList(format.KindMNERowNames, m.RowNames); err != nil {
			return err
		}
	}
	if len(m.ColNames) > 0 {
		if err := w.WriteNameList(format.KindMNEColNames, m.ColNames); err != nil {
			return err
		}
	}
	if err := w.WriteFloatMatrix(kind, m.Data); err != nil {
		return err
	}

	return w.EndBlock(format.BlockMNENamedMatrix)
}
