package tree

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/internal/pool"
	"github.com/arloliu/fiff/tag"
)

// Copy writes the given subtrees of the source stream r into w, payloads
// untouched. Identity is rewritten per copied block that carries an id: the
// copy records the source file id as parent file id, receives a fresh block
// id, and records the source block id as parent block id. The original id
// tags themselves are not copied.
//
// Parameters:
//   - w: destination tag writer
//   - r: source stream the nodes were built from
//   - inID: id of the source file, or nil when unknown
//   - nodes: subtrees to copy, written in order
func Copy(w *tag.Writer, r io.ReaderAt, inID *tag.ID, nodes []*Node) error {
	for _, node := range nodes {
		if err := copyNode(w, r, inID, node); err != nil {
			return err
		}
	}

	return nil
}

func copyNode(w *tag.Writer, r io.ReaderAt, inID *tag.ID, n *Node) error {
	if err := w.StartBlock(n.Block); err != nil {
		return err
	}

	if n.ID != nil {
		if inID != nil {
			if err := w.WriteID(format.KindParentFileID, inID); err != nil {
				return err
			}
		}
		// The copy is a new block, so it gets a fresh id and keeps the
		// original one as its parent.
		if err := w.WriteID(format.KindBlockID, nil); err != nil {
			return err
		}
		if err := w.WriteID(format.KindParentBlockID, n.ID); err != nil {
			return err
		}
	}

	bb := pool.GetTagBuffer()
	defer pool.PutTagBuffer(bb)

	for _, entry := range n.Dir {
		if isIdentityKind(entry.Kind) {
			continue
		}

		t, err := readRawTag(r, entry.Pos, bb)
		if err != nil {
			return err
		}
		if err := w.WriteRaw(t.Kind, t.Type, bb.Bytes()); err != nil {
			return err
		}
	}

	for _, child := range n.Children {
		if err := copyNode(w, r, inID, child); err != nil {
			return err
		}
	}

	return w.EndBlock(n.Block)
}

// isIdentityKind reports whether the kind ties a block to the file it lives
// in. These tags are regenerated on copy rather than carried over.
func isIdentityKind(kind format.Kind) bool {
	return kind == format.KindBlockID ||
		kind == format.KindParentBlockID ||
		kind == format.KindParentFileID
}

// readRawTag reads the header of the tag at pos and stages its undecoded
// payload in bb, replacing whatever bb held. The header is re-read from the
// stream rather than trusted from a directory entry, so stale explicit
// directories cannot corrupt a copy.
func readRawTag(r io.ReaderAt, pos int64, bb *pool.ByteBuffer) (*tag.Tag, error) {
	t, err := tag.ReadInfo(r, pos)
	if err != nil {
		return nil, err
	}

	bb.Reset()
	bb.ExtendOrGrow(int(t.Size))
	if t.Size > 0 {
		if _, err := r.ReadAt(bb.B, pos+tag.HeaderSize); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = errs.ErrTruncated
			}

			return nil, fmt.Errorf("reading tag %s at %d: %w", t.Kind, pos, err)
		}
	}

	return t, nil
}
