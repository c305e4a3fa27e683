package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// readArr parses an "ARR " block: a 4-byte tag, a reserved u32, a u64
// expected to equal 1, and a trailing u32 whose meaning is
// context-dependent (it is returned for the caller to check).
func readArr(c *cursor.Cursor) (uint32, error) {
	if err := c.ExpectTag("ARR "); err != nil {
		return 0, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return 0, err
	}
	if err := c.ExpectU64LE(1); err != nil {
		return 0, err
	}
	return c.ReadU32LE()
}

func expectArr(c *cursor.Cursor, want uint32) error {
	pos := c.Position()
	got, err := readArr(c)
	if err != nil {
		return err
	}
	if got != want {
		return &cursor.FormatMismatch{Position: pos, Expected: u32bytesLE(want), Actual: u32bytesLE(got)}
	}
	return nil
}

func writeArr(b *cursor.Builder, value uint32) {
	b.Tag("ARR ").U32(0).U64(1).U32(value)
}

func u32bytesLE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func u64bytesLE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
