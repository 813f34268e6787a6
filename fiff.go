// Package fiff reads and writes FIF files, the tagged binary container used
// by MEG and EEG acquisition systems for neurophysiological measurements.
//
// A FIF file is a flat chain of self-describing tags (kind, data type, size,
// next pointer) grouped into nested blocks by start and end delimiter tags.
// All multi-byte values are big-endian regardless of the writing host.
//
// # Reading
//
// Open maps the file, validates the prologue and builds the block tree:
//
//	f, err := fiff.Open("sample_raw.fif")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	info, meas, err := f.ReadMeasInfo()
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d channels at %.1f Hz\n", info.NChan, info.SFreq)
//
// Gzip-compressed files are detected and inflated transparently. The tree
// and directory are available directly for payloads this package does not
// assemble:
//
//	for _, node := range f.Tree().Find(format.BlockRawData) {
//	    // node.Dir lists the data buffer tags
//	    _ = node
//	}
//	_ = meas
//
// # Writing
//
// Create starts a file with the compulsory prologue; the returned writer
// carries the tag-level operations and the block helpers:
//
//	w, err := fiff.Create("copy_raw.fif")
//	if err != nil {
//	    return err
//	}
//	w.StartBlock(format.BlockMeas)
//	fiff.WriteMeasInfo(w.Writer, info)
//	w.EndBlock(format.BlockMeas)
//	return w.Close()
//
// WriteMeasInfo copies subject, HPI, isotrak and processing-history blocks
// over from info's source file when it names one, so a rewritten file keeps
// the acquisition provenance it cannot reassemble.
//
// # Errors
//
// Structural violations of the container wrap errs.ErrFormat; semantic
// violations of the measurement conventions wrap errs.ErrValidation. Both
// unwrap with errors.Is.
//
// # Package Structure
//
// This package holds the measurement-level assembly. The lower layers are
// usable on their own: tag (wire codec), tree (block structure, copying,
// checksums), format (constant tables) and errs (error classes).
package fiff
