package vqmcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

func TestFromDonorVqm_RenumbersIdx(t *testing.T) {
	donor := []index.VqmEntry{
		{Idx: 0, Snd: index.SndRef{Offset: 0x1000}},
		{Idx: 1, Snd: index.SndRef{Offset: 0x2000}},
	}
	out := FromDonorVqm(donor, 5)
	require.Len(t, out, 2)
	assert.Equal(t, 5, out[0].Idx)
	assert.Equal(t, 6, out[1].Idx)
	assert.Equal(t, uint64(0x1000), out[0].Snd.Offset)
}

func TestFromStationary_TruncatesEprAndAppliesFixedPrefix(t *testing.T) {
	offsets := make([]uint64, 150)
	for i := range offsets {
		offsets[i] = uint64(i) * 0x100
	}
	sources := []StationarySource{
		{
			Params:        index.ToneParams{Pitch2: 440, Dynamics: 1},
			EprOffsets:    offsets,
			SndIdentifier: 3,
			SndOffset:     0x9000,
			Fs:            44100,
		},
	}

	out := FromStationary(sources, 0)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Epr.Refs, Sta2VqmEprLimit)
	assert.Equal(t, Pitch1Fixed, out[0].Params.Pitch1)
	assert.Equal(t, Sta2VqmPrefix, out[0].Params.Unknown1)
	assert.Equal(t, float32(440), out[0].Params.Pitch2)
	assert.Equal(t, uint32(3), out[0].Snd.Identifier)
}

func TestEncode_RoundTripsThroughIndexParser(t *testing.T) {
	entries := FromDonorVqm([]index.VqmEntry{
		{Idx: 0, Params: index.ToneParams{Pitch1: 224, Pitch2: 1}, Epr: index.EprList{Lead: 0xFFFFFFFF, Fs: 44100}, Snd: index.SndRef{Identifier: 1, Offset: 0x4000}},
	}, 0)

	buf := Encode(entries)
	assert.Greater(t, len(buf), 0)
	assert.Contains(t, string(buf), "VQM ")
	assert.Contains(t, string(buf), "GROWL")

	base := index.FixtureNoVqm().Encode()
	parsed, err := index.Parse(base)
	require.NoError(t, err)
	out, err := index.SpliceVqm(base, parsed, buf)
	require.NoError(t, err)
	reparsed, err := index.Parse(out)
	require.NoError(t, err)
	require.NotNil(t, reparsed.Vqm)
	require.Len(t, reparsed.Vqm.Entries, 1)
	assert.Equal(t, uint64(0x4000), reparsed.Vqm.Entries[0].Snd.Offset)
}
