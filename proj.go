package fiff

import (
	"io"
	"strings"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// Projection is one signal-space projection item. Data holds the projection
// vectors as rows, with the column names naming the channels they apply to.
type Projection struct {
	Kind   int32
	Active bool
	Desc   string
	Data   *NamedMatrix
}

// ReadProj reads the signal-space projections recorded under node. A file
// without a projection block yields an empty list, not an error.
//
// Every item must carry a description, a kind, a vector count, a channel
// name list and the vector matrix; the matrix must have one column per
// named channel. The active flag defaults to false.
func ReadProj(r io.ReaderAt, node *tree.Node) ([]*Projection, error) {
	projNodes := node.Find(format.BlockProj)
	if len(projNodes) == 0 {
		return nil, nil
	}

	var projs []*Projection
	for _, item := range projNodes[0].Find(format.BlockProjItem) {
		proj, err := readProjItem(r, item)
		if err != nil {
			return nil, err
		}
		projs = append(projs, proj)
	}

	return projs, nil
}

func readProjItem(r io.ReaderAt, item *tree.Node) (*Projection, error) {
	proj := &Projection{}

	descTag, err := item.FindTag(r, format.KindComment)
	if err != nil {
		return nil, err
	}
	if descTag == nil {
		if descTag, err = item.FindTag(r, format.KindName); err != nil {
			return nil, err
		}
	}
	if descTag == nil {
		return nil, errs.Validationf("projection item description missing")
	}
	if proj.Desc, err = descTag.Text(); err != nil {
		return nil, err
	}

	kindTag, err := item.FindTag(r, format.KindProjItemKind)
	if err != nil {
		return nil, err
	}
	if kindTag == nil {
		return nil, errs.Validationf("projection item kind missing")
	}
	if proj.Kind, err = kindTag.Int(); err != nil {
		return nil, err
	}

	nvecTag, err := item.FindTag(r, format.KindProjItemNVec)
	if err != nil {
		return nil, err
	}
	if nvecTag == nil {
		return nil, errs.Validationf("number of projection vectors not specified")
	}
	if _, err = nvecTag.Int(); err != nil {
		return nil, err
	}

	namesTag, err := item.FindTag(r, format.KindProjItemChNameList)
	if err != nil {
		return nil, err
	}
	if namesTag == nil {
		return nil, errs.Validationf("projection item channel list missing")
	}
	namesText, err := namesTag.Text()
	if err != nil {
		return nil, err
	}
	names := strings.Split(namesText, ":")

	vecTag, err := item.FindTag(r, format.KindProjItemVectors)
	if err != nil {
		return nil, err
	}
	if vecTag == nil {
		return nil, errs.Validationf("projection item data missing")
	}
	vectors, err := vecTag.Matrix()
	if err != nil {
		return nil, err
	}

	activeTag, err := item.FindTag(r, format.KindMNEProjItemActive)
	if err != nil {
		return nil, err
	}
	if activeTag != nil {
		v, err := activeTag.Int()
		if err != nil {
			return nil, err
		}
		proj.Active = v != 0
	}

	nrow, ncol := vectors.Dims()
	if ncol != len(names) {
		return nil, errs.Validationf("projection has %d vector columns but %d channel names", ncol, len(names))
	}

	proj.Data = &NamedMatrix{NRow: nrow, NCol: ncol, ColNames: names, Data: vectors}

	return proj, nil
}

// WriteProj writes the projections as a projection block. The block is
// written even when projs is empty so readers can tell "no projections"
// from "projections never recorded".
func WriteProj(w *tag.Writer, projs []*Projection) error {
	if err := w.StartBlock(format.BlockProj); err != nil {
		return err
	}

	for _, proj := range projs {
		if err := w.StartBlock(format.BlockProjItem); err != nil {
			return err
		}

		if err := w.WriteString(format.KindName, proj.Desc); err != nil {
			return err
		}
		if err := w.WriteInt(format.KindProjItemKind, proj.Kind); err != nil {
			return err
		}
		if proj.Kind == format.ProjItemField {
			if err := w.WriteFloat(format.KindProjItemTime, 0); err != nil {
				return err
			}
		}

		if err := w.WriteInt(format.KindNChan, int32(proj.Data.NCol)); err != nil {
			return err
		}
		if err := w.WriteInt(format.KindProjItemNVec, int32(proj.Data.NRow)); err != nil {
			return err
		}
		active := int32(0)
		if proj.Active {
			active = 1
		}
		if err := w.WriteInt(format.KindMNEProjItemActive, active); err != nil {
			return err
		}
		if err := w.WriteNameList(format.KindProjItemChNameList, proj.Data.ColNames); err != nil {
			return err
		}
		if err := w.WriteFloatMatrix(format.KindProjItemVectors, proj.Data.Data); err != nil {
			return err
		}

		if err := w.EndBlock(format.BlockProjItem); err != nil {
			return err
		}
	}

	return w.EndBlock(format.BlockProj)
}
