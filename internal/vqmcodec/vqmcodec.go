// Package vqmcodec synthesises VQM (growl) entries for the mix-in
// orchestrator's two donor modes, and hands the result to
// internal/index's Vqm/VqmEntry byte encoder rather than duplicating its
// layout: spec's VQM block format (§4.6) is already exactly what
// index.Vqm.Encode produces, so this package's job is building the
// VqmEntry values, not re-serializing them.
package vqmcodec

import (
	"github.com/yuukawahiroshi/ddb-tools/internal/cursor"
	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

// Pitch1Fixed is the constant pitch1 value every synthesised VQMp carries,
// an invariant of the growl container format (it is not derived from any
// donor entry).
const Pitch1Fixed float32 = 224.0

// Sta2VqmPrefix is the fixed 10-byte opaque prefix every sta2vqm-mode
// entry carries in place of a donor unknown1 block. Empirically observed,
// never decoded.
var Sta2VqmPrefix = [10]byte{0x2c, 0xfb, 0xb7, 0x5b, 0x72, 0x93, 0xe2, 0x3f, 0x01, 0x00}

// Sta2VqmEprLimit is the maximum number of FRM2 references copied from a
// donor STAp's epr list into the synthesised VqmEntry.
const Sta2VqmEprLimit = 100

// FromDonorVqm copies a donor's VQM entries verbatim, renumbering Idx
// sequentially starting at startIdx. Used by the mix-in orchestrator's
// "vqm" mode, where the donor bank already carries a VQM section.
func FromDonorVqm(donor []index.VqmEntry, startIdx int) []index.VqmEntry {
	out := make([]index.VqmEntry, len(donor))
	for i, e := range donor {
		e.Idx = startIdx + i
		out[i] = e
	}
	return out
}

// StationarySource is the subset of a donor StationaryEntry that
// FromStationary needs: its tone parameters, FRM2 reference offsets (the
// locator/data-file offsets they now point at, after being copied into
// the recipient data file) and its relocated SND reference.
type StationarySource struct {
	Params        index.ToneParams
	EprOffsets    []uint64
	SndIdentifier uint32
	SndOffset     uint64
	Fs            uint32
}

// FromStationary synthesises one VqmEntry per donor stationary source,
// used by the mix-in orchestrator's "sta2vqm" mode: a donor STAu's STAp
// entries become growl entries, each keeping at most the first
// Sta2VqmEprLimit FRM2 references and the fixed sta2vqm prefix/pitch1 in
// place of its own tone parameters' unknown1/pitch1 fields.
func FromStationary(sources []StationarySource, startIdx int) []index.VqmEntry {
	out := make([]index.VqmEntry, len(sources))
	for i, s := range sources {
		refs := s.EprOffsets
		if len(refs) > Sta2VqmEprLimit {
			refs = refs[:Sta2VqmEprLimit]
		}
		frm2Refs := make([]index.Frm2Ref, len(refs))
		for j, off := range refs {
			frm2Refs[j] = index.Frm2Ref{Offset: off}
		}

		params := s.Params
		params.Unknown1 = Sta2VqmPrefix
		params.Pitch1 = Pitch1Fixed

		out[i] = index.VqmEntry{
			Idx:    startIdx + i,
			Params: params,
			Epr:    index.EprList{Lead: 0xFFFFFFFF, Refs: frm2Refs, Fs: s.Fs},
			Snd:    index.SndRef{Identifier: s.SndIdentifier, Offset: s.SndOffset},
		}
	}
	return out
}

// Encode wraps entries in a Vqm and serializes it via the index package's
// byte-exact VQMp encoder.
func Encode(entries []index.VqmEntry) []byte {
	v := &index.Vqm{Entries: entries}
	b := cursor.NewBuilder()
	v.Encode(b)
	return b.Bytes()
}
