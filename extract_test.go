package ddb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_WritesWavPerUnit(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())
	dst := t.TempDir()

	result, err := Extract(context.Background(), bk, ExtractOptions{DstPath: dst, FilenameStyle: FilenameFlat})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UnitsWritten)
	assert.Equal(t, 0, result.UnindexedFound)

	var wavs []string
	require.NoError(t, filepath.Walk(dst, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if !info.IsDir() && filepath.Ext(path) == ".wav" {
			wavs = append(wavs, path)
		}
		return nil
	}))
	assert.Len(t, wavs, 2)
}

func TestExtract_GenLabGenSegWritesLabelFiles(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())
	// The fixture's single articulation entry is V3, so this exercises the
	// label-writing path rather than the V2 skip; a dedicated V2 case lives
	// in label_test.go since Unit.FrameAlign isn't exported for mutation
	// from outside the package in a realistic way.
	dst := t.TempDir()

	result, err := Extract(context.Background(), bk, ExtractOptions{DstPath: dst, GenLab: true, GenSeg: true, FilenameStyle: FilenameFlat})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UnitsWritten)

	var labs, segs, trans, as0s int
	require.NoError(t, filepath.Walk(dst, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		switch filepath.Ext(path) {
		case ".lab":
			labs++
		case ".seg":
			segs++
		case ".trans":
			trans++
		case ".as0":
			as0s++
		}
		return nil
	}))
	assert.Equal(t, 2, labs)
	assert.Equal(t, 2, segs)
	assert.Equal(t, 2, trans)
	assert.Equal(t, 1, as0s) // only the articulation unit produces .as0
}

func TestExtract_CancelledContextStopsBeforeWriting(t *testing.T) {
	bk := BuildFixtureBank(t, t.TempDir())
	dst := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Extract(ctx, bk, ExtractOptions{DstPath: dst, FilenameStyle: FilenameFlat})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomic_NoPartialFileOnRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b.txt")

	require.NoError(t, writeFileAtomic(path, []byte("hello")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
