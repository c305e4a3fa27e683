package ddb

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

func TestPackEscape(t *testing.T) {
	assert.Equal(t, "ab", packEscape("ab"))
	assert.Equal(t, "%48%", packEscape("0"))
	assert.Equal(t, "a%32%b", packEscape("a b"))
}

// frm2Chunk builds a minimal FRM2 chunk (8-byte payload).
func frm2Chunk() []byte {
	buf := make([]byte, 16)
	copy(buf[0:4], "FRM2")
	binary.LittleEndian.PutUint32(buf[4:8], 16)
	return buf
}

// sndChunk builds a SND chunk with an 8-byte payload.
func sndChunk(sampleRate uint32) []byte {
	buf := make([]byte, 26)
	copy(buf[0:4], "SND ")
	binary.LittleEndian.PutUint32(buf[4:8], 26)
	binary.LittleEndian.PutUint32(buf[8:12], sampleRate)
	binary.LittleEndian.PutUint16(buf[12:14], 1)
	return buf
}

func TestPack_RoundTrip(t *testing.T) {
	treeDir := t.TempDir()

	// Stationary chunk: FRM2 at local offset 0, SND at the fixed local
	// offset staHeaderLocalOffset the real toolchain always uses.
	staBuf := make([]byte, staHeaderLocalOffset+26)
	copy(staBuf[0:], frm2Chunk())
	copy(staBuf[staHeaderLocalOffset:], sndChunk(44100))
	staPath := filepath.Join(treeDir, "voice", "stationary", "normal", "a", packEscape("0"))
	require.NoError(t, os.MkdirAll(filepath.Dir(staPath), 0o755))
	require.NoError(t, os.WriteFile(staPath, staBuf, 0o644))

	// Articulation chunk: FRM2 at local offset 0, SND at local offset 16.
	const artSndLocal = 16
	artBuf := make([]byte, artSndLocal+26)
	copy(artBuf[0:], frm2Chunk())
	copy(artBuf[artSndLocal:], sndChunk(48000))
	artPath := filepath.Join(treeDir, "voice", "articulation", "a", "i")
	require.NoError(t, os.MkdirAll(filepath.Dir(artPath), 0o755))
	require.NoError(t, os.WriteFile(artPath, artBuf, 0o644))

	literal := &index.Index{
		Phdc: &index.Phdc{Voiced: []string{"a", "i"}, Unvoiced: []string{"s", "t"}},
		Tdb:  &index.Tdb{Entries: []index.TimbreEntry{{Idx: 0, Phoneme: "normal"}}},
		Dbv:  &index.Dbv{Version: 1},
		Stationary: &index.Stationary{Units: []index.StationaryUnit{
			{
				Idx:     0,
				Phoneme: "a",
				Entries: []index.StationaryEntry{
					{
						ID:        "0",
						Params:    index.ToneParams{Pitch1: 220, Pitch2: 440, Dynamics: 1},
						SndLength: 26,
						Epr:       index.EprList{Lead: 0xFFFFFFFF, Refs: []index.Frm2Ref{{Offset: 0}}, Fs: 44100},
						Snd:       index.SndRef{Identifier: 1, Offset: staHeaderLocalOffset},
					},
				},
			},
		}},
		Articulation: &index.Articulation{Roots: []index.ArtNode{
			{
				Idx:     0,
				Phoneme: "a",
				Units: []index.ArtUnit{
					{
						Idx:     0,
						Phoneme: "i",
						Entries: []index.ArtEntry{
							{
								ID:         1,
								Params:     index.ToneParams{Pitch1: 220, Pitch2: 440, Dynamics: 1},
								Epr:        index.EprList{Refs: []index.Frm2Ref{{Offset: 0}}, Fs: 48000},
								Snd:        index.SndRef{Identifier: 2, Offset: artSndLocal},
								SndStart:   index.SndRef{Identifier: 2, Offset: artSndLocal + 5},
								FrameAlign: index.FrameAlign{IsV3: true, Groups: []index.FrameAlignGroup{{Start: 0, End: 100, Start2: 0, End2: 90}}},
							},
						},
					},
				},
			},
		}},
		Spans: map[string]index.Span{},
	}

	idxBuf := literal.Encode()
	idx, err := index.Parse(idxBuf)
	require.NoError(t, err)

	dst := t.TempDir()
	err = Pack(idxBuf, idx, PackOptions{TreeDir: treeDir, DstPath: dst, Name: "singer"})
	require.NoError(t, err)

	bk, err := Open(filepath.Join(dst, "singer.ddi"))
	require.NoError(t, err)
	defer bk.Close()

	units := bk.Catalogue.Units()
	require.Len(t, units, 2)
	for _, u := range units {
		resolved, err := bk.ResolveSnd(u)
		require.NoError(t, err)
		assert.Equal(t, uint32(8), resolved.Header.PayloadLen())
	}
}
