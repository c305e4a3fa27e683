package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// frameAlignSearchWindow bounds how far ahead of an ARTp entry's frame
// alignment table the "default" literal is searched for.
const frameAlignSearchWindow = 1024

// Articulation is the ART section: a forest of articulation nodes. Each
// node carries ARTu units directly, nests further ART nodes (as in
// triphone center/boundary splits), or both.
type Articulation struct {
	Roots []ArtNode
}

// ArtNode is one ART block.
type ArtNode struct {
	Idx      uint32
	Phoneme  string
	Units    []ArtUnit
	Children []ArtNode
}

// ArtUnit is one ARTu block: a phoneme transition carrying its frame
// entries.
type ArtUnit struct {
	Idx     uint32
	Phoneme string
	// arrMarker is the raw value read where the original asserts
	// membership in {0, 1}; preserved for exact re-encoding.
	arrMarker uint64
	Entries   []ArtEntry
}

// ArtEntry is one ARTp entry: tone parameters, the two SND references
// (segment start and alignment start), and the frame alignment table.
type ArtEntry struct {
	DevOffset   uint64 // opaque legacy back-pointer, preserved verbatim
	ID          uint64
	Params      ToneParams
	SndUnknown  uint32
	Epr         EprList
	eprHasLead  bool
	Snd         SndRef // bias: stored logical offset is physical-0x12
	SndStart    SndRef // second SND reference (alignment start)
	FrameAlign  FrameAlign
}

// FrameAlign is the per-entry frame alignment table, which comes in two
// wire layouts distinguished by byte length: V3 is a u32 row count followed
// by rows of four u32 values (two start/end pairs), recognised when the
// table is exactly count*16+4 bytes long; anything else is V2, a flat list
// of u32 values.
type FrameAlign struct {
	IsV3   bool
	Groups []FrameAlignGroup // V3
	Values []uint32          // V2
}

// FrameAlignGroup is one V3 row: center-phoneme start/end plus a second
// start/end pair used by boundary frames.
type FrameAlignGroup struct {
	Start, End, Start2, End2 uint32
}

func parseArticulation(c *cursor.Cursor) (*Articulation, error) {
	if _, err := c.ReadU64LE(); err != nil {
		return nil, err
	}
	arrVal, err := readArr(c)
	if err != nil {
		return nil, err
	}
	if arrVal == 0 {
		return nil, &cursor.FormatMismatch{Position: c.Position(), Expected: []byte("nonzero"), Actual: []byte{0, 0, 0, 0}}
	}

	art := &Articulation{}
	for {
		mark := c.Position()
		start, err := c.ReadFixed(8)
		if err != nil {
			return nil, err
		}
		if !isAllByte(start, 0x00) && !isAllByte(start, 0xFF) {
			c.Seek(mark)
			label, err := c.ReadLengthPrefixedASCII()
			if err != nil {
				return nil, err
			}
			if label != "articulation" {
				return nil, &cursor.FormatMismatch{Position: mark, Expected: []byte("articulation"), Actual: []byte(label)}
			}
			break
		}
		if err := c.ExpectTag("ART "); err != nil {
			return nil, err
		}
		node, err := parseArtNode(c)
		if err != nil {
			return nil, err
		}
		art.Roots = append(art.Roots, *node)
	}
	return art, nil
}

func isAllByte(b []byte, v byte) bool {
	for _, x := range b {
		if x != v {
			return false
		}
	}
	return true
}

func parseArtNode(c *cursor.Cursor) (*ArtNode, error) {
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(1); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	idx, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	artuNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	node := &ArtNode{Idx: idx}
	for i := uint32(0); i < artuNum; i++ {
		if err := c.ExpectU64LE(0); err != nil {
			return nil, err
		}
		blockType, err := c.ReadFixed(4)
		if err != nil {
			return nil, err
		}
		if string(blockType) == "ART " {
			child, err := parseArtNode(c)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, *child)
			continue
		}
		if string(blockType) != "ARTu" {
			return nil, &cursor.FormatMismatch{Position: c.Position() - 4, Expected: []byte("ARTu"), Actual: blockType}
		}
		unit, err := parseArtUnit(c)
		if err != nil {
			return nil, err
		}
		node.Units = append(node.Units, *unit)
	}

	phoneme, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return nil, err
	}
	node.Phoneme = phoneme
	return node, nil
}

func parseArtUnit(c *cursor.Cursor) (*ArtUnit, error) {
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	idx, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	marker, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}
	if marker != 0 && marker != 1 {
		return nil, &cursor.FormatMismatch{Position: c.Position() - 8, Expected: []byte("0 or 1"), Actual: u64bytesLE(marker)}
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectExact(sentinel4(0xFF)); err != nil {
		return nil, err
	}
	artpNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	unit := &ArtUnit{Idx: idx, arrMarker: marker}
	for i := uint32(0); i < artpNum; i++ {
		entry, err := parseArtEntry(c)
		if err != nil {
			return nil, err
		}
		unit.Entries = append(unit.Entries, *entry)
	}
	phoneme, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return nil, err
	}
	unit.Phoneme = phoneme
	return unit, nil
}

func sentinel4(v byte) []byte {
	return []byte{v, v, v, v}
}

func parseArtEntry(c *cursor.Cursor) (*ArtEntry, error) {
	devOffset, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectTag("ARTp"); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(1); err != nil {
		return nil, err
	}
	params, err := readToneParams(c)
	if err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(2); err != nil {
		return nil, err
	}
	id, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectTag("EMPT"); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := expectLabel(c, "SND"); err != nil {
		return nil, err
	}
	sndUnknown, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("EMPT"); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := expectLabel(c, "EpR"); err != nil {
		return nil, err
	}

	epr, hasLead, err := readArtpEpr(c)
	if err != nil {
		return nil, err
	}

	sndIdentifier, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	sndSite := c.Position()
	sndOffsetRaw, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}

	sndStartSite := c.Position()
	sndStartRaw, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}

	align, err := parseFrameAlign(c)
	if err != nil {
		return nil, err
	}
	if err := expectLabel(c, "default"); err != nil {
		return nil, err
	}

	return &ArtEntry{
		DevOffset:  devOffset,
		ID:         id,
		Params:     params,
		SndUnknown: sndUnknown,
		Epr:        epr,
		eprHasLead: hasLead,
		Snd:        SndRef{Site: sndSite, Identifier: sndIdentifier, Offset: sndOffsetRaw - sndHeaderBias},
		SndStart:   SndRef{Site: sndStartSite, Identifier: sndIdentifier, Offset: sndStartRaw - sndHeaderBias},
		FrameAlign: align,
	}, nil
}

// readArtpEpr disambiguates the two wire layouts the original parser
// recovers by trial: most entries read their EpR table with no leading
// magic field, but some (observed in at least one voicebank) carry the
// same 4-byte 0xFF lead that STAp and VQMp always have.
func readArtpEpr(c *cursor.Cursor) (EprList, bool, error) {
	loc := c.Position()

	epr, err := readEprListBody(c, EprList{})
	if err == nil {
		return epr, false, nil
	}

	c.Seek(loc)
	lead, err := c.ReadU32LE()
	if err != nil {
		return EprList{}, false, err
	}
	epr, err = readEprListBody(c, EprList{Lead: lead})
	if err != nil {
		return EprList{}, false, err
	}
	return epr, true, nil
}

func parseFrameAlign(c *cursor.Cursor) (FrameAlign, error) {
	window := c.Bytes()
	end := c.Position() + frameAlignSearchWindow
	if end > len(window) {
		end = len(window)
	}
	found := cursor.Find(window[:end], []byte("default"), c.Position())
	if found < 0 {
		return FrameAlign{}, &cursor.MagicNotFound{What: "default", Near: c.Position()}
	}
	alignLen := found - c.Position() - 4
	if alignLen < 0 {
		return FrameAlign{}, &cursor.InconsistentLength{Declared: 0, Observed: alignLen}
	}
	raw, err := c.ReadFixed(alignLen)
	if err != nil {
		return FrameAlign{}, err
	}

	var fa FrameAlign
	if alignLen > 4 && int(leU32(raw[0:4]))*16+4 == alignLen {
		fa.IsV3 = true
		groupNum := leU32(raw[0:4])
		body := raw[4:]
		for i := uint32(0); i < groupNum && len(body) >= 16; i++ {
			fa.Groups = append(fa.Groups, FrameAlignGroup{
				Start:  leU32(body[0:4]),
				End:    leU32(body[4:8]),
				Start2: leU32(body[8:12]),
				End2:   leU32(body[12:16]),
			})
			body = body[16:]
		}
	} else {
		for i := 0; i+4 <= len(raw); i += 4 {
			fa.Values = append(fa.Values, leU32(raw[i:i+4]))
		}
	}
	return fa, nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Encode appends the ART section's byte image to b.
func (a *Articulation) Encode(b *cursor.Builder) {
	b.U64(0)
	writeArr(b, 1)
	for _, root := range a.Roots {
		b.Repeat(0x00, 8)
		b.Tag("ART ")
		root.Encode(b)
	}
	b.LengthPrefixedASCII("articulation")
}

func (n *ArtNode) Encode(b *cursor.Builder) {
	b.U32(0).U32(1).U32(0)
	b.U32(n.Idx)
	b.U32(uint32(len(n.Units) + len(n.Children)))
	for _, u := range n.Units {
		b.U64(0).Tag("ARTu")
		u.Encode(b)
	}
	for _, child := range n.Children {
		b.U64(0).Tag("ART ")
		child.Encode(b)
	}
	b.LengthPrefixedASCII(n.Phoneme)
}

func (u *ArtUnit) Encode(b *cursor.Builder) {
	b.U32(0).U32(0).U32(0)
	b.U32(u.Idx)
	b.U64(u.arrMarker)
	b.U32(0)
	b.Repeat(0xFF, 4)
	b.U32(uint32(len(u.Entries)))
	for _, e := range u.Entries {
		e.Encode(b)
	}
	b.LengthPrefixedASCII(u.Phoneme)
}

func (e *ArtEntry) Encode(b *cursor.Builder) {
	b.U64(e.DevOffset)
	b.Tag("ARTp").U32(0).U32(0).U32(1)
	e.Params.Encode(b)
	b.U32(2)
	b.U64(e.ID)
	b.Tag("EMPT").U32(0)
	b.LengthPrefixedASCII("SND")
	b.U32(e.SndUnknown)
	b.U32(0)
	b.Tag("EMPT").U32(0)
	b.LengthPrefixedASCII("EpR")
	e.Epr.Encode(b, e.eprHasLead)
	b.U32(e.Snd.Identifier)
	b.U64(e.Snd.Offset + sndHeaderBias)
	b.U64(e.SndStart.Offset + sndHeaderBias)
	e.FrameAlign.Encode(b)
	b.LengthPrefixedASCII("default")
}

func (fa FrameAlign) Encode(b *cursor.Builder) {
	if fa.IsV3 {
		b.U32(uint32(len(fa.Groups)))
		for _, g := range fa.Groups {
			b.U32(g.Start).U32(g.End).U32(g.Start2).U32(g.End2)
		}
		return
	}
	for _, v := range fa.Values {
		b.U32(v)
	}
}
