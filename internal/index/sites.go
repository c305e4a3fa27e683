package index

// Frm2Ref is a single FRM2 cross-reference recorded while parsing an EpR
// list: the byte position in the index buffer where the 8-byte logical
// offset is stored (its back-pointer site), and the logical offset itself.
type Frm2Ref struct {
	Site   int    // absolute position of the 8-byte offset field
	Offset uint64 // logical offset into the data file, as currently stored
}

// SndRef is a SND cross-reference: the site holding the 8-byte offset, the
// identifier that immediately precedes it, and the logical offset. For
// ARTp entries the logical offset is stored pre-header-biased (see
// KindArtBiased); for STAp/VQMp it is the raw offset exactly as stored.
type SndRef struct {
	Site       int
	Identifier uint32
	Offset     uint64
}

// PatchKind distinguishes the bias convention applied to a SndRef's site
// when rewriting, per spec §4.2/§4.5: ART SND references are stored
// offset-minus-0x12 of the true header position; STA/VQM references are
// stored raw.
type PatchKind int

const (
	// KindRaw patches store the new physical offset unchanged.
	KindRaw PatchKind = iota
	// KindArtBiased patches store new_physical_offset + 0x12, undoing the
	// bias the parser applied when it recorded the logical offset as
	// offset-0x12.
	KindArtBiased
)

// sndHeaderBias is the number of bytes the SND header occupies; ART-kind
// SND sites store their logical offset this many bytes before the true
// header position (spec §4.2).
const sndHeaderBias = 0x12

// Patch is one pending rewrite: overwrite the 8-byte little-endian value at
// Site with NewOffset (after applying Kind's bias convention).
type Patch struct {
	Site      int
	Kind      PatchKind
	NewOffset uint64
}

// biasedValue returns the value that should actually be written at the
// patch's site, given the bias convention of Kind.
func (p Patch) biasedValue() uint64 {
	if p.Kind == KindArtBiased {
		return p.NewOffset + sndHeaderBias
	}
	return p.NewOffset
}
