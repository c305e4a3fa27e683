package databank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteSndThenBankReadSnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.dat")

	w, err := CreateWriter(path)
	require.NoError(t, err)
	payload := []byte{1, 2, 3, 4, 5, 6}
	offset, err := w.WriteSnd(44100, 1, 0, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)
	require.NoError(t, w.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	header, got, err := b.ReadSnd(offset)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), header.SampleRate)
	assert.Equal(t, uint16(1), header.Channels)
	assert.Equal(t, uint32(len(payload)), header.PayloadLen())
	assert.Equal(t, payload, got)
}

func TestBank_ReadSnd_BadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.dat")
	require.NoError(t, os.WriteFile(path, make([]byte, 32), 0o644))

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	_, _, err = b.ReadSnd(0)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestWriter_WriteFrm2ThenBankReadFrm2(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.dat")

	w, err := CreateWriter(path)
	require.NoError(t, err)
	raw := append([]byte("FRM2"), []byte{4, 0, 0, 0, 0xAA, 0xBB, 0xCC, 0xDD}...)
	offset, err := w.WriteFrm2(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.ReadFrm2(offset, offset+int64(len(raw)))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestBank_Size(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.dat")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	size, err := b.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(128), size)
}
