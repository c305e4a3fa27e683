package locator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sndChunk(sampleRate uint32, channels uint16, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString("SND ")
	length := uint32(18 + len(payload))
	b.Write(leBytes32(length))
	b.Write(leBytes32(sampleRate))
	b.Write(leBytes16(channels))
	b.Write(leBytes32(0))
	b.Write(payload)
	return b.Bytes()
}

func leBytes32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func leBytes16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func TestLocateSnd_Exact(t *testing.T) {
	data := append(make([]byte, 0x100), sndChunk(44100, 1, []byte("abcd"))...)
	r := bytes.NewReader(data)

	got, err := LocateSnd(r, 0x100, Exact, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0x100), got)
}

func TestLocateSnd_Exact_Mismatch(t *testing.T) {
	data := make([]byte, 0x200)
	r := bytes.NewReader(data)

	_, err := LocateSnd(r, 0x100, Exact, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateSnd_BackwardSearch(t *testing.T) {
	chunk := sndChunk(22050, 2, bytes.Repeat([]byte{0x01}, 64))
	data := make([]byte, 0x1C0)
	data = append(data, chunk...)
	r := bytes.NewReader(data)

	declared := int64(0x200)
	got, err := LocateSnd(r, declared, BackwardSearch, 0x8000)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1C0), got)
}

func TestLocateSnd_BackwardSearch_WindowExceeded(t *testing.T) {
	chunk := sndChunk(22050, 2, nil)
	data := make([]byte, 0x10000)
	data = append(data, chunk...)
	r := bytes.NewReader(data)

	_, err := LocateSnd(r, 0x10200, BackwardSearch, 0x100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateFrm2(t *testing.T) {
	var b bytes.Buffer
	b.Write(make([]byte, 0x40))
	b.WriteString("FRM2")
	b.Write(leBytes32(16))
	b.Write(bytes.Repeat([]byte{0xAB}, 16))
	r := bytes.NewReader(b.Bytes())

	chunk, err := LocateFrm2(r, 0x40)
	require.NoError(t, err)
	assert.Equal(t, Chunk{Start: 0x40, End: 0x40 + 16}, chunk)
}

func TestLocateFrm2_Mismatch(t *testing.T) {
	r := bytes.NewReader(make([]byte, 0x40))
	_, err := LocateFrm2(r, 0x10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScan_FindsChunksAcrossWindowBoundaries(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(sndChunk(44100, 1, []byte("aaaa")))       // at 0
	buf.Write(make([]byte, 32))                         // padding
	buf.Write(sndChunk(48000, 2, []byte("bbbbbbbb")))    // straddles a small window
	buf.Write(make([]byte, 9))
	buf.Write(sndChunk(8000, 1, nil))

	data := buf.Bytes()
	r := bytes.NewReader(data)

	var found []FoundChunk
	err := Scan(context.Background(), r, 0, int64(len(data)), 16, func(c FoundChunk) error {
		found = append(found, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, uint32(22), found[0].Length)
}

func TestScan_Cancellation(t *testing.T) {
	data := bytes.Repeat([]byte{0x00}, 1<<20)
	r := bytes.NewReader(data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Scan(ctx, r, 0, int64(len(data)), 4096, func(FoundChunk) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
