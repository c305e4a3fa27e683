package ddb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuukawahiroshi/ddb-tools/internal/databank"
	"github.com/yuukawahiroshi/ddb-tools/internal/index"
	"github.com/yuukawahiroshi/ddb-tools/internal/locator"
	"github.com/yuukawahiroshi/ddb-tools/internal/vqmcodec"
)

// MixinMode selects which donor-to-growl strategy Mixin uses.
type MixinMode int

const (
	// MixinVqmCopy copies the donor's existing VQM entries verbatim.
	MixinVqmCopy MixinMode = iota
	// MixinSta2Vqm synthesises growl entries from one donor stationary
	// phoneme's STAp entries.
	MixinSta2Vqm
)

// MixinOptions configures Mixin.
type MixinOptions struct {
	DstPath        string
	Name           string // output basename; produces Name.ddi and Name.ddb
	Mode           MixinMode
	Sta2VqmPhoneme string // required for MixinSta2Vqm
}

// Mixin splices donor growl content into recipient's catalogue: it copies
// recipient's data file verbatim, appends the donor chunk bytes the new
// VQM entries reference, and installs a VQM section via SpliceVqm.
func Mixin(recipientIdxBuf []byte, recipient *Bank, donor *Bank, opts MixinOptions) error {
	if err := os.MkdirAll(opts.DstPath, 0o755); err != nil {
		return &IoFailure{Path: opts.DstPath, Cause: err}
	}

	ddbPath := filepath.Join(opts.DstPath, opts.Name+".ddb")
	writer, err := databank.CreateWriter(ddbPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := copyRecipientData(writer, recipient); err != nil {
		return err
	}

	startIdx := 0
	if recipient.Catalogue.Index().Vqm != nil {
		startIdx = len(recipient.Catalogue.Index().Vqm.Entries)
	}

	var newEntries []index.VqmEntry
	switch opts.Mode {
	case MixinVqmCopy:
		newEntries, err = copyDonorVqm(writer, donor, startIdx)
	case MixinSta2Vqm:
		newEntries, err = synthesizeSta2Vqm(writer, donor, opts.Sta2VqmPhoneme, startIdx)
	default:
		return fmt.Errorf("ddb: unknown mixin mode %d", opts.Mode)
	}
	if err != nil {
		return err
	}

	vqmBytes := vqmcodec.Encode(newEntries)
	newIdxBuf, err := index.SpliceVqm(recipientIdxBuf, recipient.Catalogue.Index(), vqmBytes)
	if err != nil {
		return err
	}

	ddiPath := filepath.Join(opts.DstPath, opts.Name+".ddi")
	if err := os.WriteFile(ddiPath, newIdxBuf, 0o644); err != nil {
		return &IoFailure{Path: ddiPath, Cause: err}
	}
	return nil
}

func copyRecipientData(w *databank.Writer, recipient *Bank) error {
	size, err := recipient.Size()
	if err != nil {
		return err
	}
	const bufSize = 10240
	for pos := int64(0); pos < size; pos += bufSize {
		end := pos + bufSize
		if end > size {
			end = size
		}
		chunk, err := recipient.ReadSpan(pos, end)
		if err != nil {
			return err
		}
		if _, err := w.WriteRaw(chunk); err != nil {
			return err
		}
	}
	return nil
}

// copyDonorEpr copies each FRM2 chunk refs points at out of donor into w,
// returning freshly-offset references in the same order.
func copyDonorEpr(w *databank.Writer, donor *Bank, refs []index.Frm2Ref) ([]index.Frm2Ref, error) {
	out := make([]index.Frm2Ref, 0, len(refs))
	for _, ref := range refs {
		chunk, err := locator.LocateFrm2(donor.ReaderAt(), int64(ref.Offset))
		if err != nil {
			return nil, fmt.Errorf("ddb: mixin donor frm2 at %#x: %w", ref.Offset, err)
		}
		raw, err := donor.ReadSpan(chunk.Start, chunk.End)
		if err != nil {
			return nil, err
		}
		newOffset, err := w.WriteRaw(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, index.Frm2Ref{Offset: uint64(newOffset)})
	}
	return out, nil
}

func copyDonorSnd(w *databank.Writer, donor *Bank, ref index.SndRef, kind locator.Kind) (index.SndRef, error) {
	start, err := locator.LocateSnd(donor.ReaderAt(), int64(ref.Offset), kind, locator.DefaultMixinWindow)
	if err != nil {
		return index.SndRef{}, fmt.Errorf("ddb: mixin donor snd at %#x: %w", ref.Offset, err)
	}
	header, _, err := donor.ReadSndAt(start)
	if err != nil {
		return index.SndRef{}, err
	}
	raw, err := donor.ReadSpan(start, start+int64(header.Length))
	if err != nil {
		return index.SndRef{}, err
	}
	newOffset, err := w.WriteRaw(raw)
	if err != nil {
		return index.SndRef{}, err
	}
	return index.SndRef{Identifier: ref.Identifier, Offset: uint64(newOffset)}, nil
}

func copyDonorVqm(w *databank.Writer, donor *Bank, startIdx int) ([]index.VqmEntry, error) {
	donorVqm := donor.Catalogue.Index().Vqm
	if donorVqm == nil {
		return nil, fmt.Errorf("ddb: mixin donor has no vqm section")
	}

	out := make([]index.VqmEntry, len(donorVqm.Entries))
	for i, e := range donorVqm.Entries {
		refs, err := copyDonorEpr(w, donor, e.Epr.Refs)
		if err != nil {
			return nil, err
		}
		snd, err := copyDonorSnd(w, donor, e.Snd, locator.Exact)
		if err != nil {
			return nil, err
		}
		out[i] = index.VqmEntry{
			Idx:    startIdx + i,
			Params: e.Params,
			Epr:    index.EprList{Lead: e.Epr.Lead, Refs: refs, Fs: e.Epr.Fs},
			Snd:    snd,
		}
	}
	return out, nil
}

func synthesizeSta2Vqm(w *databank.Writer, donor *Bank, phoneme string, startIdx int) ([]index.VqmEntry, error) {
	var unit *index.StationaryUnit
	for i, u := range donor.Catalogue.Index().Stationary.Units {
		if u.Phoneme == phoneme {
			unit = &donor.Catalogue.Index().Stationary.Units[i]
			break
		}
	}
	if unit == nil {
		return nil, fmt.Errorf("ddb: mixin donor has no stationary unit for phoneme %q", phoneme)
	}

	sources := make([]vqmcodec.StationarySource, len(unit.Entries))
	for i, e := range unit.Entries {
		donorRefs := e.Epr.Refs
		if len(donorRefs) > vqmcodec.Sta2VqmEprLimit {
			donorRefs = donorRefs[:vqmcodec.Sta2VqmEprLimit]
		}
		refs, err := copyDonorEpr(w, donor, donorRefs)
		if err != nil {
			return nil, err
		}
		snd, err := copyDonorSnd(w, donor, e.Snd, locator.BackwardSearch)
		if err != nil {
			return nil, err
		}
		eprOffsets := make([]uint64, len(refs))
		for j, r := range refs {
			eprOffsets[j] = r.Offset
		}
		sources[i] = vqmcodec.StationarySource{
			Params:        e.Params,
			EprOffsets:    eprOffsets,
			SndIdentifier: snd.Identifier,
			SndOffset:     snd.Offset,
			Fs:            e.Epr.Fs,
		}
	}
	return vqmcodec.FromStationary(sources, startIdx), nil
}
