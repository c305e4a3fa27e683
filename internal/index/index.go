// Package index parses and re-serializes the tagged binary catalogue
// format (DDI-style): phoneme dictionary, timbre database, database
// version marker, stationary units, articulation forest and the optional
// VQM growl section. Sections are located by searching the raw buffer for
// their magic numbers rather than by sequential offset arithmetic, since
// their absolute positions vary between voicebanks.
package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// Index is the fully parsed catalogue: every section plus the byte span
// each one occupied in the source buffer, used by callers that need to
// locate or splice a section (the offset-rewrite engine, VQM mix-in).
type Index struct {
	Phdc         *Phdc
	Tdb          *Tdb
	Dbv          *Dbv
	Stationary   *Stationary
	Articulation *Articulation
	Vqm          *Vqm // nil if the catalogue carries no VQM section

	Spans map[string]Span
}

// Span is the half-open byte range [Start, End) a section occupied in the
// buffer it was parsed from.
type Span struct {
	Start, End int
}

func reverseSearch(data, search []byte, offset int) int {
	limit := offset - len(search)
	offset -= len(search)
	for i := offset; i > 0; i-- {
		if i+len(search) <= len(data) && bytesEqual(data[i:i+len(search)], search) {
			return i
		}
		if offset-i > limit {
			break
		}
	}
	return -1
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Parse locates and decodes every section of an index buffer.
func Parse(data []byte) (*Index, error) {
	idx := &Index{Spans: map[string]Span{}}

	phdcOff := cursor.Find(data, []byte("PHDC"), 0)
	if phdcOff < 0 {
		return nil, &MissingSection{Section: "PHDC"}
	}
	c := cursor.New(data)
	c.Seek(phdcOff)
	phdc, err := parsePhdc(c)
	if err != nil {
		return nil, err
	}
	idx.Phdc = phdc
	idx.Spans["phdc"] = Span{phdcOff, c.Position()}

	tdbOff := cursor.Find(data, append(sentinel(0xFF, 8), []byte("TDB ")...), 0)
	if tdbOff < 0 {
		return nil, &MissingSection{Section: "TDB"}
	}
	c.Seek(tdbOff)
	tdb, err := parseTdb(c)
	if err != nil {
		return nil, err
	}
	idx.Tdb = tdb
	idx.Spans["tdb"] = Span{tdbOff, c.Position()}

	dbvOff := cursor.Find(data, append(sentinel(0x00, 8), []byte("DBV ")...), 0)
	if dbvOff < 0 {
		return nil, &MissingSection{Section: "DBV"}
	}
	c.Seek(dbvOff)
	dbv, err := parseDbv(c)
	if err != nil {
		return nil, err
	}
	idx.Dbv = dbv
	idx.Spans["dbv"] = Span{dbvOff, c.Position()}

	staTag := cursor.Find(data, append(sentinel(0x00, 8), []byte("STA ")...), 0)
	if staTag < 0 {
		return nil, &MissingSection{Section: "STA"}
	}
	staOff := reverseSearch(data, []byte("ARR "), staTag) - 8
	if staOff < 0 {
		return nil, &MissingSection{Section: "STA"}
	}
	c.Seek(staOff)
	sta, err := parseStationary(c)
	if err != nil {
		return nil, err
	}
	idx.Stationary = sta
	idx.Spans["sta"] = Span{staOff, c.Position()}

	artTag := cursor.Find(data, append(sentinel(0x00, 8), []byte("ART ")...), 0)
	if artTag < 0 {
		return nil, &MissingSection{Section: "ART"}
	}
	artOff := reverseSearch(data, []byte("ARR "), artTag) - 8
	if artOff < 0 {
		return nil, &MissingSection{Section: "ART"}
	}
	c.Seek(artOff)
	art, err := parseArticulation(c)
	if err != nil {
		return nil, err
	}
	idx.Articulation = art
	idx.Spans["art"] = Span{artOff, c.Position()}

	vqmOff := cursor.Find(data, append(sentinel(0xFF, 8), []byte("VQM ")...), 0)
	if vqmOff >= 0 {
		c.Seek(vqmOff)
		vqm, err := parseVqm(c)
		if err != nil {
			return nil, err
		}
		idx.Vqm = vqm
		idx.Spans["vqm"] = Span{vqmOff, c.Position()}
	}

	return idx, nil
}

// Encode serializes the full catalogue back into a byte buffer, in the
// same section order Parse expects to find them in: PHDC, TDB, DBV, STA,
// ART, then VQM if present. A trailing "voice" label always closes the
// buffer, whether or not a VQM section is present — it is the literal a
// VQM-less catalogue's mix-in splice point is anchored to.
func (idx *Index) Encode() []byte {
	b := cursor.NewBuilder()
	idx.Phdc.Encode(b)
	idx.Tdb.Encode(b)
	idx.Dbv.Encode(b)
	idx.Stationary.Encode(b)
	idx.Articulation.Encode(b)
	if idx.Vqm != nil {
		idx.Vqm.Encode(b)
	}
	b.LengthPrefixedASCII("voice")
	return b.Bytes()
}

// SndSite pairs a SND cross-reference with the bias convention its site
// needs applied when the offset-rewrite engine patches it.
type SndSite struct {
	Ref  SndRef
	Kind PatchKind
}

// SndRefs returns every SND cross-reference in the catalogue.
func (idx *Index) SndRefs() []SndSite {
	var out []SndSite
	for _, u := range idx.Stationary.Units {
		for _, e := range u.Entries {
			out = append(out, SndSite{e.Snd, KindRaw})
		}
	}
	var walkArt func(nodes []ArtNode)
	walkArt = func(nodes []ArtNode) {
		for _, n := range nodes {
			for _, u := range n.Units {
				for _, e := range u.Entries {
					out = append(out, SndSite{e.Snd, KindArtBiased})
					out = append(out, SndSite{e.SndStart, KindArtBiased})
				}
			}
			walkArt(n.Children)
		}
	}
	walkArt(idx.Articulation.Roots)
	if idx.Vqm != nil {
		for _, e := range idx.Vqm.Entries {
			out = append(out, SndSite{e.Snd, KindRaw})
		}
	}
	return out
}

// Frm2Refs returns every FRM2 (EpR) cross-reference in the catalogue.
func (idx *Index) Frm2Refs() []Frm2Ref {
	var out []Frm2Ref
	for _, u := range idx.Stationary.Units {
		for _, e := range u.Entries {
			out = append(out, e.Epr.Refs...)
		}
	}
	var walkArt func(nodes []ArtNode)
	walkArt = func(nodes []ArtNode) {
		for _, n := range nodes {
			for _, u := range n.Units {
				for _, e := range u.Entries {
					out = append(out, e.Epr.Refs...)
				}
			}
			walkArt(n.Children)
		}
	}
	walkArt(idx.Articulation.Roots)
	if idx.Vqm != nil {
		for _, e := range idx.Vqm.Entries {
			out = append(out, e.Epr.Refs...)
		}
	}
	return out
}
