package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// snd100HeaderOffset is the constant SND header position STAp entries record
// ahead of their own "EMPT"/"SND" literal, per spec: stationary files embed
// a known header-start at this position.
const snd100HeaderOffset = 0x3D

// Stationary is the STA section: a list of units, each a phoneme and the
// ordered set of sustained-segment entries recorded for it.
type Stationary struct {
	Units []StationaryUnit
}

// StationaryUnit is one STAu block.
type StationaryUnit struct {
	Idx     uint32
	Phoneme string
	Entries []StationaryEntry
}

// StationaryEntry is one STAp entry: tone parameters, the FRM2 epoch
// references (EpR), and the single SND reference for its audio payload.
type StationaryEntry struct {
	ID            string
	Params        ToneParams
	SndLength     uint32
	Epr           EprList
	UnknownTail   [16]byte
	Snd           SndRef
}

func parseStationary(c *cursor.Cursor) (*Stationary, error) {
	if err := c.ExpectU64LE(0); err != nil {
		return nil, err
	}
	if err := expectArr(c, 1); err != nil {
		return nil, err
	}
	if err := c.ExpectU64LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("STA "); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectU64LE(1); err != nil {
		return nil, err
	}
	stauNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	sta := &Stationary{}
	for i := uint32(0); i < stauNum; i++ {
		unit, err := parseStationaryUnit(c)
		if err != nil {
			return nil, err
		}
		sta.Units = append(sta.Units, *unit)
	}

	for _, want := range []string{"normal", "stationary"} {
		got, err := c.ReadLengthPrefixedASCII()
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, &cursor.FormatMismatch{Position: c.Position(), Expected: []byte(want), Actual: []byte(got)}
		}
	}
	return sta, nil
}

func parseStationaryUnit(c *cursor.Cursor) (*StationaryUnit, error) {
	if err := c.ExpectU64LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("STAu"); err != nil {
		return nil, err
	}
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
	if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
		return nil, err
	}
	stapNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	unit := &StationaryUnit{Idx: idx}
	for i := uint32(0); i < stapNum; i++ {
		entry, err := parseStationaryEntry(c)
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

func parseStationaryEntry(c *cursor.Cursor) (*StationaryEntry, error) {
	if err := c.ExpectU64LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("STAp"); err != nil {
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
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(2); err != nil {
		return nil, err
	}
	if err := c.ExpectU64LE(snd100HeaderOffset); err != nil {
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
	sndLength, err := c.ReadU32LE()
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
	epr, err := readEprListLead(c)
	if err != nil {
		return nil, err
	}

	sndIdentifier, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	sndSite := c.Position()
	sndOffset, err := c.ReadU64LE()
	if err != nil {
		return nil, err
	}
	tail, err := c.ReadFixed(0x10)
	if err != nil {
		return nil, err
	}
	id, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return nil, err
	}

	e := &StationaryEntry{
		ID:        id,
		Params:    params,
		SndLength: sndLength,
		Epr:       epr,
		Snd:       SndRef{Site: sndSite, Identifier: sndIdentifier, Offset: sndOffset},
	}
	copy(e.UnknownTail[:], tail)
	return e, nil
}

func expectLabel(c *cursor.Cursor, want string) error {
	got, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return err
	}
	if got != want {
		return &cursor.FormatMismatch{Position: c.Position(), Expected: []byte(want), Actual: []byte(got)}
	}
	return nil
}

// Encode appends the STA section's byte image to b.
func (s *Stationary) Encode(b *cursor.Builder) {
	b.U64(0)
	writeArr(b, 1)
	b.U64(0).Tag("STA ").U32(0).U64(1)
	b.U32(uint32(len(s.Units)))
	for _, u := range s.Units {
		u.Encode(b)
	}
	b.LengthPrefixedASCII("normal")
	b.LengthPrefixedASCII("stationary")
}

func (u *StationaryUnit) Encode(b *cursor.Builder) {
	b.U64(0).Tag("STAu").U32(0).U32(1).U32(0)
	b.U32(u.Idx)
	b.Repeat(0xFF, 8)
	b.U32(uint32(len(u.Entries)))
	for _, e := range u.Entries {
		e.Encode(b)
	}
	b.LengthPrefixedASCII(u.Phoneme)
}

func (e *StationaryEntry) Encode(b *cursor.Builder) {
	b.U64(0).Tag("STAp").U32(0).U32(0).U32(1)
	e.Params.Encode(b)
	b.U32(0).U32(2).U64(snd100HeaderOffset)
	b.Tag("EMPT").U32(0)
	b.LengthPrefixedASCII("SND")
	b.U32(e.SndLength)
	b.U32(0)
	b.Tag("EMPT").U32(0)
	b.LengthPrefixedASCII("EpR")
	e.Epr.Encode(b, true)
	b.U32(e.Snd.Identifier)
	b.U64(e.Snd.Offset)
	b.Raw(e.UnknownTail[:])
	b.LengthPrefixedASCII(e.ID)
}
