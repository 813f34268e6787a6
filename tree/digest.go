package tree

import (
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/fiff/endian"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/internal/pool"
)

// Checksum returns a 64-bit content digest of the subtree: block structure,
// tag kinds, types, sizes and payloads in file order. Positions, next
// pointers and identity tags are excluded, so a subtree keeps its checksum
// across Copy even though ids are rewritten and tags relocate.
func Checksum(r io.ReaderAt, n *Node) (uint64, error) {
	d := xxhash.New()
	if err := digestNode(d, r, n); err != nil {
		return 0, err
	}

	return d.Sum64(), nil
}

func digestNode(d *xxhash.Digest, r io.ReaderAt, n *Node) error {
	engine := endian.GetBigEndianEngine()
	var buf [16]byte
	bb := pool.GetTagBuffer()
	defer pool.PutTagBuffer(bb)

	// Mirror the stream structure: a start delimiter, the node's tags,
	// the children, an end delimiter.
	engine.PutUint32(buf[0:], uint32(format.KindBlockStart))
	engine.PutUint32(buf[4:], uint32(n.Block))
	d.Write(buf[:8])

	for _, entry := range n.Dir {
		if isIdentityKind(entry.Kind) {
			continue
		}

		t, err := readRawTag(r, entry.Pos, bb)
		if err != nil {
			return err
		}

		engine.PutUint32(buf[0:], uint32(t.Kind))
		engine.PutUint32(buf[4:], uint32(t.Type))
		engine.PutUint32(buf[8:], uint32(t.Size))
		d.Write(buf[:12])
		d.Write(bb.Bytes())
	}

	for _, child := range n.Children {
		if err := digestNode(d, r, child); err != nil {
			return err
		}
	}

	engine.PutUint32(buf[0:], uint32(format.KindBlockEnd))
	engine.PutUint32(buf[4:], uint32(n.Block))
	d.Write(buf[:8])

	return nil
}
