package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_ReadWriteRoundTrip(t *testing.T) {
	b := NewBuilder().
		Tag("STA ").
		U32(0xDEADBEEF).
		U64(0x1122334455667788).
		F32(-3.75).
		LengthPrefixedASCII("a i")
	buf := append([]byte{}, b.Bytes()...)

	c := New(buf)
	require.NoError(t, c.ExpectTag("STA "))

	u32, err := c.ReadU32LE()
	require.NoError(t, err)
	assert.EqualValues(t, 0xDEADBEEF, u32)

	u64, err := c.ReadU64LE()
	require.NoError(t, err)
	assert.EqualValues(t, 0x1122334455667788, u64)

	f32, err := c.ReadF32LE()
	require.NoError(t, err)
	assert.InDelta(t, -3.75, f32, 1e-6)

	s, err := c.ReadLengthPrefixedASCII()
	require.NoError(t, err)
	assert.Equal(t, "a i", s)

	assert.Equal(t, len(buf), c.Position())
}

func TestCursor_ExpectTagMismatch(t *testing.T) {
	c := New([]byte("ARTp"))
	err := c.ExpectTag("STAp")
	require.Error(t, err)

	var mismatch *FormatMismatch
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0, mismatch.Position)
}

func TestCursor_Truncated(t *testing.T) {
	c := New([]byte{1, 2})
	_, err := c.ReadU32LE()
	require.Error(t, err)

	var truncated *Truncated
	assert.ErrorAs(t, err, &truncated)
	assert.Equal(t, 4, truncated.Need)
	assert.Equal(t, 2, truncated.Have)
}

func TestCursor_WriteInPlace(t *testing.T) {
	buf := NewBuilder().U64(0).Bytes()
	c := New(append([]byte{}, buf...))
	require.NoError(t, c.WriteU64LE(0, 0xCAFEBABE))

	c.Seek(0)
	v, err := c.ReadU64LE()
	require.NoError(t, err)
	assert.EqualValues(t, 0xCAFEBABE, v)
}

func TestFind(t *testing.T) {
	buf := []byte("xxSTA yyART zz")
	assert.Equal(t, 2, Find(buf, []byte("STA "), 0))
	assert.Equal(t, 8, Find(buf, []byte("ART "), 0))
	assert.Equal(t, -1, Find(buf, []byte("VQM "), 0))
}
