package ddb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuukawahiroshi/ddb-tools/internal/locator"
)

func TestDataPathFor(t *testing.T) {
	assert.Equal(t, "/voice/singer.ddb", DataPathFor("/voice/singer.ddi"))
	assert.Equal(t, "/voice/singer.tree.ddb", DataPathFor("/voice/singer.tree"))
}

func TestOpen_ResolveSnd(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())

	units := bk.Catalogue.Units()
	require.Len(t, units, 2)

	for _, u := range units {
		resolved, err := bk.ResolveSnd(u)
		require.NoError(t, err)
		assert.Equal(t, uint32(44100), resolved.Header.SampleRate)
	}
}

func TestResolveSnd_NotLocated(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())
	u := Unit{SndKind: locator.Exact, SndOffset: 999999}

	_, err := bk.ResolveSnd(u)
	var notLocated *ChunkNotLocated
	require.ErrorAs(t, err, &notLocated)
}

func TestScan_FindsBothSndChunks(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())

	var found []int64
	err := bk.Scan(context.Background(), 0, func(fc locator.FoundChunk) error {
		found = append(found, fc.Offset)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestScan_CancelledContext(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bk.Scan(ctx, 0, func(locator.FoundChunk) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
