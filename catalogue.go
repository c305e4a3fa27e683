package ddb

import (
	"strings"

	"github.com/yuukawahiroshi/ddb-tools/internal/index"
	"github.com/yuukawahiroshi/ddb-tools/internal/locator"
)

// Catalogue wraps a parsed index and exposes it in a flattened,
// walk-order-independent shape the extract and mix-in orchestrators
// consume, instead of forcing every caller to re-walk the PHDC/STA/ART/VQM
// tree by hand.
type Catalogue struct {
	idx *index.Index
}

// NewCatalogue parses buf as an index buffer.
func NewCatalogue(buf []byte) (*Catalogue, error) {
	idx, err := index.Parse(buf)
	if err != nil {
		return nil, err
	}
	return &Catalogue{idx: idx}, nil
}

// Index exposes the underlying parsed index, for callers that need direct
// access to the offset-rewrite engine or section spans.
func (c *Catalogue) Index() *index.Index {
	return c.idx
}

// Encode re-serializes the catalogue's current state.
func (c *Catalogue) Encode() []byte {
	return c.idx.Encode()
}

// UnvoicedConsonants returns the phoneme dictionary's unvoiced list, used
// by .as0 segmentation generation to flag consonant voicing.
func (c *Catalogue) UnvoicedConsonants() []string {
	return c.idx.Phdc.Unvoiced
}

// Unit is one extractable acoustic unit: a stationary phoneme, an
// articulation (bi- or tri-phoneme), or a VQM growl entry.
type Unit struct {
	Phonemes []string
	Pitch1   float32

	SndKind       locator.Kind
	SndOffset     uint64
	SndIdentifier uint32
	// SndLength is the catalogue-declared SND payload length, carried from
	// StationaryEntry so extract can recover the real leading-silence
	// offset and trailing cutoff around a backward-searched header. Zero
	// for articulation and VQM units, which never need it.
	SndLength uint32

	// FrameAlign is non-nil only for articulation units; stationary and
	// VQM units have no alignment table.
	FrameAlign *index.FrameAlign
	// SndStartOffset is ARTp's second SND reference, used to compute the
	// alignment offset in bytes the way generate_art_lab expects.
	SndStartOffset uint64

	// ClassifyIndex is the 0-based ordinal of this unit within its
	// phoneme group, used by --classify naming.
	ClassifyIndex int

	IsGrowl bool
}

// Units returns every extractable unit in the catalogue, in catalogue
// traversal order: stationary first, then articulation (depth-first,
// bi-phoneme before nested tri-phoneme), then VQM.
func (c *Catalogue) Units() []Unit {
	var out []Unit

	staClassify := map[string]int{}
	for _, u := range c.idx.Stationary.Units {
		for _, e := range u.Entries {
			idx := staClassify[u.Phoneme]
			staClassify[u.Phoneme] = idx + 1
			out = append(out, Unit{
				Phonemes:      []string{u.Phoneme},
				Pitch1:        e.Params.Pitch1,
				SndKind:       locator.BackwardSearch,
				SndOffset:     e.Snd.Offset,
				SndIdentifier: e.Snd.Identifier,
				SndLength:     e.SndLength,
				ClassifyIndex: idx,
			})
		}
	}

	artClassify := map[string]int{}
	var walk func(phonemePrefix []string, nodes []index.ArtNode)
	walk = func(prefix []string, nodes []index.ArtNode) {
		for _, n := range nodes {
			path := append(append([]string{}, prefix...), n.Phoneme)
			for _, u := range n.Units {
				unitPath := append(append([]string{}, path...), u.Phoneme)
				key := strings.Join(unitPath, " ")
				for _, e := range u.Entries {
					idx := artClassify[key]
					artClassify[key] = idx + 1
					fa := e.FrameAlign
					out = append(out, Unit{
						Phonemes:       unitPath,
						Pitch1:         e.Params.Pitch1,
						SndKind:        locator.Exact,
						SndOffset:      e.Snd.Offset,
						SndIdentifier:  0,
						FrameAlign:     &fa,
						SndStartOffset: e.SndStart.Offset,
						ClassifyIndex:  idx,
					})
				}
			}
			walk(path, n.Children)
		}
	}
	walk(nil, c.idx.Articulation.Roots)

	if c.idx.Vqm != nil {
		for i, e := range c.idx.Vqm.Entries {
			out = append(out, Unit{
				Phonemes:      []string{"growl"},
				Pitch1:        e.Params.Pitch1,
				SndKind:       locator.Exact,
				SndOffset:     e.Snd.Offset,
				SndIdentifier: e.Snd.Identifier,
				ClassifyIndex: i,
				IsGrowl:       true,
			})
		}
	}

	return out
}
