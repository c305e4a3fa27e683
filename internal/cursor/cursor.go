// Package cursor provides a little-endian byte cursor over an in-memory
// buffer, used by the index parser and offset-rewrite engine to read and
// patch the tagged binary format without re-deriving bounds checks at every
// call site.
package cursor

import (
	"encoding/binary"
	"math"
)

// Cursor is a seekable reader/writer over an immutable-length byte buffer.
// All multi-byte values are little-endian. It never reallocates buf; writes
// overwrite bytes in place, which is what the offset-rewrite engine needs.
type Cursor struct {
	buf []byte
	pos int
}

// New wraps buf in a Cursor positioned at offset 0.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the current read/write offset.
func (c *Cursor) Position() int {
	return c.pos
}

// Len returns the total length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Bytes returns the underlying buffer. Mutating it mutates the cursor.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(abs int) {
	c.pos = abs
}

// Remaining reports how many bytes are available before the end of buf.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) need(n int) error {
	if c.pos < 0 || c.pos+n > len(c.buf) {
		return &Truncated{Position: c.pos, Need: n, Have: len(c.buf) - c.pos}
	}
	return nil
}

// ReadFixed reads n raw bytes and advances the cursor.
func (c *Cursor) ReadFixed(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU16LE reads a little-endian uint16.
func (c *Cursor) ReadU16LE() (uint16, error) {
	b, err := c.ReadFixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32LE reads a little-endian uint32.
func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadFixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64LE reads a little-endian uint64.
func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadFixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadF32LE reads a little-endian IEEE-754 single-precision float.
func (c *Cursor) ReadF32LE() (float32, error) {
	b, err := c.ReadU32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(b), nil
}

// ReadF64LE reads a little-endian IEEE-754 double-precision float.
func (c *Cursor) ReadF64LE() (float64, error) {
	b, err := c.ReadU64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(b), nil
}

// ReadLengthPrefixedASCII reads a u32 length followed by exactly that many
// ASCII bytes, with no NUL terminator.
func (c *Cursor) ReadLengthPrefixedASCII() (string, error) {
	n, err := c.ReadU32LE()
	if err != nil {
		return "", err
	}
	b, err := c.ReadFixed(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectTag asserts that the next 4 bytes equal the given ASCII tag
// (e.g. "STA ", "ARTp") and advances past it on success.
func (c *Cursor) ExpectTag(tag string) error {
	return c.ExpectExact([]byte(tag))
}

// ExpectExact asserts that the next len(want) bytes equal want exactly.
func (c *Cursor) ExpectExact(want []byte) error {
	got, err := c.ReadFixed(len(want))
	if err != nil {
		return err
	}
	for i := range want {
		if got[i] != want[i] {
			return &FormatMismatch{Position: c.pos - len(want), Expected: want, Actual: got}
		}
	}
	return nil
}

// ExpectU32LE asserts the next u32 equals want.
func (c *Cursor) ExpectU32LE(want uint32) error {
	pos := c.pos
	got, err := c.ReadU32LE()
	if err != nil {
		return err
	}
	if got != want {
		return &FormatMismatch{Position: pos, Expected: u32bytes(want), Actual: u32bytes(got)}
	}
	return nil
}

// ExpectU64LE asserts the next u64 equals want.
func (c *Cursor) ExpectU64LE(want uint64) error {
	pos := c.pos
	got, err := c.ReadU64LE()
	if err != nil {
		return err
	}
	if got != want {
		return &FormatMismatch{Position: pos, Expected: u64bytes(want), Actual: u64bytes(got)}
	}
	return nil
}

func u32bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// WriteU32LE overwrites 4 bytes at abs with v, little-endian. The buffer
// must already contain at least abs+4 bytes; this never grows it.
func (c *Cursor) WriteU32LE(abs int, v uint32) error {
	if abs < 0 || abs+4 > len(c.buf) {
		return &Truncated{Position: abs, Need: 4, Have: len(c.buf) - abs}
	}
	binary.LittleEndian.PutUint32(c.buf[abs:abs+4], v)
	return nil
}

// WriteU64LE overwrites 8 bytes at abs with v, little-endian.
func (c *Cursor) WriteU64LE(abs int, v uint64) error {
	if abs < 0 || abs+8 > len(c.buf) {
		return &Truncated{Position: abs, Need: 8, Have: len(c.buf) - abs}
	}
	binary.LittleEndian.PutUint64(c.buf[abs:abs+8], v)
	return nil
}

// Find returns the absolute position of the first occurrence of needle at
// or after from, or -1 if not present.
func Find(buf, needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(buf) {
		return -1
	}
	idx := indexOf(buf[from:], needle)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		if len(needle) == 0 {
			return 0
		}
		return -1
	}
	first := needle[0]
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i] != first {
			continue
		}
		match := true
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
