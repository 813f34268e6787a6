package tree

import (
	"io"
	"iter"

	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
)

// All returns the nodes of the subtree in pre-order, which is the order the
// blocks start in the file.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.walk(yield) {
			return false
		}
	}

	return true
}

// Find collects the nodes of the given block kind in encounter order. The
// receiver itself is included when it matches. An empty result is not an
// error; callers decide whether absence matters.
func (n *Node) Find(block format.Block) []*Node {
	var nodes []*Node
	for node := range n.All() {
		if node.Block == block {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// HasTag reports whether the node's own directory holds a tag of the given
// kind. Child blocks are not consulted.
func (n *Node) HasTag(kind format.Kind) bool {
	for _, entry := range n.Dir {
		if entry.Kind == kind {
			return true
		}
	}

	return false
}

// FindTag reads the first tag of the given kind from the node's own
// directory. A missing tag returns (nil, nil); absence is never an error,
// only a failed read of a present tag is.
func (n *Node) FindTag(r io.ReaderAt, kind format.Kind) (*tag.Tag, error) {
	for _, entry := range n.Dir {
		if entry.Kind == kind {
			return tag.Read(r, entry.Pos)
		}
	}

	return nil, nil
}
