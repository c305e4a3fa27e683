package index

import (
	"github.com/yuukawahiroshi/ddb-tools/internal/cursor"
)

// Phdc is the phoneme dictionary: the voiced/unvoiced partition of every
// phoneme symbol the catalogue knows about, plus the PHG2 category table
// (category name to an ordered list of phoneme symbols). PHDC never
// references data-file bytes, so it carries no sites and is immutable
// after parse.
type Phdc struct {
	Voiced   []string
	Unvoiced []string
	Phg2     []Phg2Category

	// categoryNum/categoryRaw preserve the low-level per-category opaque
	// byte table that follows PHG2. Nothing in the catalogue's public
	// semantics depends on its contents, so it is kept byte-for-byte
	// instead of decoded.
	categoryNum uint32
	categoryRaw []byte
}

// Phg2Category is one PHG2 entry: a category name and the ordered phoneme
// symbols assigned to it.
type Phg2Category struct {
	Name    string
	Entries []Phg2Entry
}

// Phg2Entry is a single (index, phoneme) pair within a PHG2 category.
type Phg2Entry struct {
	Idx     uint32
	Phoneme string
}

const phdcNameSlotSize = 0x1F

func parsePhdc(c *cursor.Cursor) (*Phdc, error) {
	if err := c.ExpectTag("PHDC"); err != nil {
		return nil, err
	}
	phdcSize, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectU32LE(4); err != nil {
		return nil, err
	}
	phonemeNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	p := &Phdc{}
	for i := uint32(0); i < phonemeNum; i++ {
		slot, err := c.ReadFixed(phdcNameSlotSize)
		if err != nil {
			return nil, err
		}
		flag := slot[len(slot)-1]
		name := trimNulASCII(slot[:len(slot)-1])
		if flag == 1 {
			p.Voiced = append(p.Voiced, name)
		} else {
			p.Unvoiced = append(p.Unvoiced, name)
		}
	}

	if err := c.ExpectTag("PHG2"); err != nil {
		return nil, err
	}
	phg2Size, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	phg2SizeStart := c.Position()
	categoryNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < categoryNum; i++ {
		name, err := c.ReadLengthPrefixedASCII()
		if err != nil {
			return nil, err
		}
		cat := Phg2Category{Name: name}
		entryNum, err := c.ReadU32LE()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < entryNum; j++ {
			idx, err := c.ReadU32LE()
			if err != nil {
				return nil, err
			}
			phoneme, err := c.ReadLengthPrefixedASCII()
			if err != nil {
				return nil, err
			}
			cat.Entries = append(cat.Entries, Phg2Entry{Idx: idx, Phoneme: phoneme})
		}
		if err := c.ExpectU32LE(0); err != nil {
			return nil, err
		}
		p.Phg2 = append(p.Phg2, cat)
	}
	_ = phg2SizeStart

	catNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	p.categoryNum = catNum
	categorySize := int(phdcSize) - int(phg2Size) - 0x10 - phdcNameSlotSize*int(phonemeNum) - 4
	if categorySize < 0 {
		return nil, &cursor.InconsistentLength{Declared: int(phdcSize), Observed: categorySize}
	}
	raw, err := c.ReadFixed(categorySize)
	if err != nil {
		return nil, err
	}
	p.categoryRaw = append([]byte(nil), raw...)

	return p, nil
}

// Encode appends the PHDC section's byte image to b.
func (p *Phdc) Encode(b *cursor.Builder) {
	phonemeNum := len(p.Voiced) + len(p.Unvoiced)

	phg2Body := cursor.NewBuilder()
	phg2Body.U32(uint32(len(p.Phg2)))
	for _, cat := range p.Phg2 {
		phg2Body.LengthPrefixedASCII(cat.Name)
		phg2Body.U32(uint32(len(cat.Entries)))
		for _, e := range cat.Entries {
			phg2Body.U32(e.Idx)
			phg2Body.LengthPrefixedASCII(e.Phoneme)
		}
		phg2Body.U32(0)
	}
	phg2Size := phg2Body.Len()

	categorySize := len(p.categoryRaw)
	phdcSize := phg2Size + 0x10 + phdcNameSlotSize*phonemeNum + 4 + categorySize

	b.Tag("PHDC")
	b.U32(uint32(phdcSize))
	b.U32(4)
	b.U32(uint32(phonemeNum))
	for _, name := range p.Unvoiced {
		writePhonemeSlot(b, name, 0)
	}
	for _, name := range p.Voiced {
		writePhonemeSlot(b, name, 1)
	}
	b.Tag("PHG2")
	b.U32(uint32(phg2Size))
	b.Raw(phg2Body.Bytes())
	b.U32(p.categoryNum)
	b.Raw(p.categoryRaw)
}

func writePhonemeSlot(b *cursor.Builder, name string, flag byte) {
	slot := make([]byte, phdcNameSlotSize)
	copy(slot, name)
	slot[len(slot)-1] = flag
	b.Raw(slot)
}

func trimNulASCII(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
