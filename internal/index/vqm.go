package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// Vqm is the optional VQM section: synthetic/growl entries appended by a
// mix-in rewrite. Absent in most voicebanks.
type Vqm struct {
	Entries []VqmEntry
}

// VqmEntry is one VQMp block. Like STAp and unlike ARTp, its SND reference
// is stored raw (no -0x12 bias) and its identity is a decimal string parsed
// to an integer.
type VqmEntry struct {
	Idx    int
	Params ToneParams
	Epr    EprList
	Snd    SndRef
}

func parseVqm(c *cursor.Cursor) (*Vqm, error) {
	if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("VQM "); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(1); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(1); err != nil {
		return nil, err
	}
	if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("VQMu"); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(1); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
		return nil, err
	}
	vqmpNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(vqmpNum); err != nil {
		return nil, err
	}

	v := &Vqm{}
	for i := uint32(0); i < vqmpNum; i++ {
		entry, err := parseVqmEntry(c)
		if err != nil {
			return nil, err
		}
		v.Entries = append(v.Entries, *entry)
	}

	for _, want := range []string{"GROWL", "vqm"} {
		if err := expectLabel(c, want); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func parseVqmEntry(c *cursor.Cursor) (*VqmEntry, error) {
	if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("VQMp"); err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(0); err != nil {
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
	if err := c.ExpectExact(sentinel(0xFF, 0x10)); err != nil {
		return nil, err
	}
	idStr, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return nil, err
	}
	idx, err := parseDecimal(idStr)
	if err != nil {
		return nil, err
	}

	return &VqmEntry{
		Idx:    idx,
		Params: params,
		Epr:    epr,
		Snd:    SndRef{Site: sndSite, Identifier: sndIdentifier, Offset: sndOffset},
	}, nil
}

func sentinel(v byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func parseDecimal(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, &cursor.FormatMismatch{Expected: []byte("decimal digits"), Actual: []byte(s)}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &cursor.FormatMismatch{Expected: []byte("decimal digits"), Actual: []byte(s)}
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// Encode appends the VQM section's byte image to b.
func (v *Vqm) Encode(b *cursor.Builder) {
	b.Repeat(0xFF, 8).Tag("VQM ").U32(0).U32(1).U32(0).U32(1)
	b.Repeat(0xFF, 8).Tag("VQMu").U32(0).U32(1).U32(0)
	b.U32(uint32(len(v.Entries))).U32(uint32(len(v.Entries)))
	for _, e := range v.Entries {
		e.Encode(b)
	}
	b.LengthPrefixedASCII("GROWL")
	b.LengthPrefixedASCII("vqm")
}

func (e *VqmEntry) Encode(b *cursor.Builder) {
	b.Repeat(0xFF, 8).Tag("VQMp").U32(0).U32(0).U32(1)
	e.Params.Encode(b)
	b.U32(0)
	e.Epr.Encode(b, true)
	b.U32(e.Snd.Identifier)
	b.U64(e.Snd.Offset)
	b.Repeat(0xFF, 0x10)
	b.LengthPrefixedASCII(formatDecimal(e.Idx))
}

func formatDecimal(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
