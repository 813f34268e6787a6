package fiff

import (
	"io"
	"strings"

	"github.com/arloliu/fiff/errs"
	"github.com/arloliu/fiff/format"
	"github.com/arloliu/fiff/tag"
	"github.com/arloliu/fiff/tree"
)

// ReadBadChannels returns the bad-channel list recorded under node, nil when
// none is recorded. With several bad-channel blocks the last one wins, as it
// is the most recent marking.
func ReadBadChannels(r io.ReaderAt, node *tree.Node) ([]string, error) {
	var bads []string
	for _, n := range node.Find(format.BlockMNEBadChannels) {
		t, err := n.FindTag(r, format.KindMNEChNameList)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		s, err := t.Text()
		if err != nil {
			return nil, err
		}
		bads = strings.Split(s, ":")
	}

	return bads, nil
}

// writeBadChannels records the list as a bad-channel block, nothing when the
// list is empty.
func writeBadChannels(w *tag.Writer, bads []string) error {
	if len(bads) == 0 {
		return nil
	}

	if err := w.StartBlock(format.BlockMNEBadChannels); err != nil {
		return err
	}
	if err := w.WriteNameList(format.KindMNEChNameList, bads); err != nil {
		return err
	}

	return w.EndBlock(format.BlockMNEBadChannels)
}

// channelByName finds the single channel with the given name.
func channelByName(chs []*tag.ChInfo, name string) (*tag.ChInfo, error) {
	var found *tag.ChInfo
	for _, ch := range chs {
		if ch.Name != name {
			continue
		}
		if found != nil {
			return nil, errs.Validationf("ambiguous channel %s", name)
		}
		found = ch
	}
	if found == nil {
		return nil, errs.Validationf("channel %s is not available", name)
	}

	return found, nil
}
