package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// Tdb is the timbre database: an ordered list of (index, phoneme) pairs.
// Each entry's three fixed labels ("pitch", "dynamics", "opening") are
// structural constants validated on parse, not data, so they are not
// represented in the model.
type Tdb struct {
	Entries []TimbreEntry
}

// TimbreEntry is one TMM block.
type TimbreEntry struct {
	Idx     uint32
	Phoneme string
}

var tmmLabels = [3]string{"pitch", "dynamics", "opening"}

func parseTdb(c *cursor.Cursor) (*Tdb, error) {
	if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("TDB "); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil { // reserved, not asserted (varies across files)
		return nil, err
	}
	if err := c.ExpectU64LE(1); err != nil {
		return nil, err
	}
	tmmNum, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}

	t := &Tdb{}
	for i := uint32(0); i < tmmNum; i++ {
		if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
			return nil, err
		}
		if err := c.ExpectTag("TMM "); err != nil {
			return nil, err
		}
		if _, err := c.ReadU32LE(); err != nil {
			return nil, err
		}
		if err := c.ExpectU64LE(1); err != nil {
			return nil, err
		}
		idx, err := c.ReadU32LE()
		if err != nil {
			return nil, err
		}
		strNum, err := c.ReadU32LE()
		if err != nil {
			return nil, err
		}
		if strNum != 3 {
			return nil, &cursor.InconsistentLength{Declared: 3, Observed: int(strNum)}
		}
		for j := 0; j < 3; j++ {
			if err := c.ExpectExact(sentinel8(0xFF)); err != nil {
				return nil, err
			}
			if err := expectArr(c, 0); err != nil {
				return nil, err
			}
			label, err := c.ReadLengthPrefixedASCII()
			if err != nil {
				return nil, err
			}
			if label != tmmLabels[j] {
				return nil, &cursor.FormatMismatch{Position: c.Position(), Expected: []byte(tmmLabels[j]), Actual: []byte(label)}
			}
		}
		phoneme, err := c.ReadLengthPrefixedASCII()
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, TimbreEntry{Idx: idx, Phoneme: phoneme})
	}

	label, err := c.ReadLengthPrefixedASCII()
	if err != nil {
		return nil, err
	}
	if label != "timbre" {
		return nil, &cursor.FormatMismatch{Position: c.Position(), Expected: []byte("timbre"), Actual: []byte(label)}
	}
	return t, nil
}

// Encode appends the TDB section's byte image to b.
func (t *Tdb) Encode(b *cursor.Builder) {
	b.Repeat(0xFF, 8).Tag("TDB ").U32(0).U64(1)
	b.U32(uint32(len(t.Entries)))
	for _, e := range t.Entries {
		b.Repeat(0xFF, 8).Tag("TMM ").U32(0).U64(1)
		b.U32(e.Idx)
		b.U32(3)
		for _, label := range tmmLabels {
			b.Repeat(0xFF, 8)
			writeArr(b, 0)
			b.LengthPrefixedASCII(label)
		}
		b.LengthPrefixedASCII(e.Phoneme)
	}
	b.LengthPrefixedASCII("timbre")
}

func sentinel8(v byte) []byte {
	s := make([]byte, 8)
	for i := range s {
		s[i] = v
	}
	return s
}
