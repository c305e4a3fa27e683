package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// ToneParams is the fixed five-float parameter block shared by STAp,
// ARTp and VQMp entries: pitch range, dynamics and two opaque floats
// whose meaning was never recovered.
type ToneParams struct {
	Unknown1 [10]byte
	Pitch1   float32
	Pitch2   float32
	Unknown2 float32
	Dynamics float32
	Unknown3 float32
}

func readToneParams(c *cursor.Cursor) (ToneParams, error) {
	var p ToneParams
	raw, err := c.ReadFixed(10)
	if err != nil {
		return p, err
	}
	copy(p.Unknown1[:], raw)
	if p.Pitch1, err = c.ReadF32LE(); err != nil {
		return p, err
	}
	if p.Pitch2, err = c.ReadF32LE(); err != nil {
		return p, err
	}
	if p.Unknown2, err = c.ReadF32LE(); err != nil {
		return p, err
	}
	if p.Dynamics, err = c.ReadF32LE(); err != nil {
		return p, err
	}
	if p.Unknown3, err = c.ReadF32LE(); err != nil {
		return p, err
	}
	return p, nil
}

func (p ToneParams) Encode(b *cursor.Builder) {
	b.Raw(p.Unknown1[:]).F32(p.Pitch1).F32(p.Pitch2).F32(p.Unknown2).F32(p.Dynamics).F32(p.Unknown3)
}

// EprList is the FRM2 back-pointer table attached to a STAp or VQMp entry:
// a leading opaque marker (normally 0xFFFFFFFF), the reference sites
// themselves, and a trailing sample rate plus the [0x01, 0x00] terminator.
type EprList struct {
	Lead uint32
	Refs []Frm2Ref
	Fs   uint32
}

func readEprListLead(c *cursor.Cursor) (EprList, error) {
	var e EprList
	lead, err := c.ReadU32LE()
	if err != nil {
		return e, err
	}
	e.Lead = lead
	return readEprListBody(c, e)
}

func readEprListBody(c *cursor.Cursor, e EprList) (EprList, error) {
	n, err := c.ReadU32LE()
	if err != nil {
		return e, err
	}
	for i := uint32(0); i < n; i++ {
		site := c.Position()
		offset, err := c.ReadU64LE()
		if err != nil {
			return e, err
		}
		e.Refs = append(e.Refs, Frm2Ref{Site: site, Offset: offset})
	}
	fs, err := c.ReadU32LE()
	if err != nil {
		return e, err
	}
	e.Fs = fs
	if err := c.ExpectExact([]byte{0x01, 0x00}); err != nil {
		return e, err
	}
	return e, nil
}

func (e EprList) Encode(b *cursor.Builder, withLead bool) {
	if withLead {
		b.U32(e.Lead)
	}
	b.U32(uint32(len(e.Refs)))
	for _, r := range e.Refs {
		b.U64(r.Offset)
	}
	b.U32(e.Fs)
	b.Raw([]byte{0x01, 0x00})
}
