package cursor

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Builder accumulates a little-endian byte image, the write-side counterpart
// to Cursor. It is used both by the VQM synthesiser and by test fixtures
// that need to produce a byte-exact index buffer.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bytes returns the accumulated image.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Raw appends p verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Repeat appends the byte v repeated n times (e.g. the 8×0xFF / 16×0xFF
// sentinels that precede most block tags).
func (b *Builder) Repeat(v byte, n int) *Builder {
	for i := 0; i < n; i++ {
		b.buf.WriteByte(v)
	}
	return b
}

// Tag appends a 4-byte ASCII tag (e.g. "VQMp"), space-padded by the caller
// if shorter than 4 bytes.
func (b *Builder) Tag(tag string) *Builder {
	b.buf.WriteString(tag)
	return b
}

// U32 appends a little-endian uint32.
func (b *Builder) U32(v uint32) *Builder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U64 appends a little-endian uint64.
func (b *Builder) U64(v uint64) *Builder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// F32 appends a little-endian IEEE-754 single-precision float.
func (b *Builder) F32(v float32) *Builder {
	return b.U32(math.Float32bits(v))
}

// LengthPrefixedASCII appends a u32 length followed by the ASCII bytes of s.
func (b *Builder) LengthPrefixedASCII(s string) *Builder {
	b.U32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}
