// Package tree builds and navigates the block tree of a FIF file.
//
// Blocks are delimited inside the flat tag stream by block-start and
// block-end tags whose payload is the block kind. The tree is derived from a
// complete tag directory without touching payloads other than the delimiter
// and id tags, so construction stays cheap even for large files.
//
// Beyond navigation the package offers verbatim subtree copying between
// files (Copy) and content checksums for comparing subtrees across files
// (Checksum).
package tree

import (
	"io"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
)

// Node is one block of the tree. Block 0 is the implicit root holding the
// file-level tags. Dir lists the node's own tags in file order, excluding
// the start and end delimiters but including id tags; child blocks never
// contribute entries to their parent.
type Node struct {
	Block    format.Block
	ID       *tag.ID
	ParentID *tag.ID
	Dir      []tag.DirEntry
	Children []*Node
}

// Make builds the block tree from a flat tag directory, reading only the
// delimiter and id tags from r.
//
// Returns an ErrFormat-class error when a block-end does not match the open
// block or when the directory ends inside an open block.
func Make(r io.ReaderAt, dir []tag.DirEntry) (*Node, error) {
	node, _, err := makeNode(r, dir, 0)
	if err != nil {
		return nil, err
	}

	return node, nil
}

// makeNode builds the node starting at dir[start] and returns the index of
// its block-end entry. The root node starts on an ordinary tag and ends at
// directory exhaustion instead.
func makeNode(r io.ReaderAt, dir []tag.DirEntry, start int) (*Node, int, error) {
	node := &Node{}

	isBlock := start < len(dir) && dir[start].Kind == format.KindBlockStart
	if isBlock {
		code, err := readBlockCode(r, dir[start])
		if err != nil {
			return nil, 0, err
		}
		node.Block = code
	}

	i := start
	for i < len(dir) {
		entry := dir[i]
		switch {
		case entry.Kind == format.KindBlockStart && i != start:
			child, last, err := makeNode(r, dir, i)
			if err != nil {
				return nil, 0, err
			}
			node.Children = append(node.Children, child)
			i = last

		case entry.Kind == format.KindBlockEnd:
			code, err := readBlockCode(r, entry)
			if err != nil {
				return nil, 0, err
			}
			if !isBlock || code != node.Block {
				return nil, 0, errs.Formatf("end of block %s at %d does not match open block %s",
					code, entry.Pos, node.Block)
			}

			return node, i, nil

		default:
			node.Dir = append(node.Dir, entry)
			if err := node.noteID(r, entry, isBlock); err != nil {
				return nil, 0, err
			}
		}
		i++
	}

	if isBlock {
		return nil, 0, errs.Formatf("block %s opened at %d is never closed", node.Block, dir[start].Pos)
	}

	return node, i, nil
}

// noteID records file and block identity tags on the node. The root tracks
// the file id; blocks track their own id and their parent's.
func (n *Node) noteID(r io.ReaderAt, entry tag.DirEntry, isBlock bool) error {
	var want format.Kind
	switch {
	case !isBlock && entry.Kind == format.KindFileID:
		want = format.KindFileID
	case isBlock && entry.Kind == format.KindBlockID:
		want = format.KindBlockID
	case isBlock && entry.Kind == format.KindParentBlockID:
		want = format.KindParentBlockID
	default:
		return nil
	}

	t, err := tag.Read(r, entry.Pos)
	if err != nil {
		return err
	}
	id, err := t.ID()
	if err != nil {
		return err
	}

	if want == format.KindParentBlockID {
		n.ParentID = id
	} else {
		n.ID = id
	}

	return nil
}

func readBlockCode(r io.ReaderAt, entry tag.DirEntry) (format.Block, error) {
	t, err := tag.Read(r, entry.Pos)
	if err != nil {
		return 0, err
	}
	code, err := t.Int()
	if err != nil {
		return 0, err
	}

	return format.Block(code), nil
}
