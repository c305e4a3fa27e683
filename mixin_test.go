package ddb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixin_Sta2Vqm(t *testing.T) {
	recipientDir := t.TempDir()
	donorDir := t.TempDir()

	recipient := BuildFixtureBank(t, recipientDir)
	donor := BuildFixtureBank(t, donorDir)

	recipientIdxBuf, err := os.ReadFile(filepath.Join(recipientDir, "fixture.ddi"))
	require.NoError(t, err)

	dst := t.TempDir()
	err = Mixin(recipientIdxBuf, recipient, donor, MixinOptions{
		DstPath:        dst,
		Name:           "mixed",
		Mode:           MixinSta2Vqm,
		Sta2VqmPhoneme: "a",
	})
	require.NoError(t, err)

	bk, err := Open(filepath.Join(dst, "mixed.ddi"))
	require.NoError(t, err)
	defer bk.Close()

	require.NotNil(t, bk.Catalogue.Index().Vqm)
	assert.Len(t, bk.Catalogue.Index().Vqm.Entries, 1)

	growlUnits := 0
	for _, u := range bk.Catalogue.Units() {
		if u.IsGrowl {
			growlUnits++
			resolved, err := bk.ResolveSnd(u)
			require.NoError(t, err)
			assert.Equal(t, uint32(44100), resolved.Header.SampleRate)
		}
	}
	assert.Equal(t, 1, growlUnits)

	// The recipient's original two units must still resolve out of the
	// copied data, since Mixin streams the recipient's whole data file
	// before appending donor material.
	nonGrowl := 0
	for _, u := range bk.Catalogue.Units() {
		if !u.IsGrowl {
			nonGrowl++
			_, err := bk.ResolveSnd(u)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 2, nonGrowl)
}

func TestMixin_Sta2VqmUnknownPhonemeErrors(t *testing.T) {
	recipientDir := t.TempDir()
	donorDir := t.TempDir()
	recipient := BuildFixtureBank(t, recipientDir)
	donor := BuildFixtureBank(t, donorDir)
	recipientIdxBuf, err := os.ReadFile(filepath.Join(recipientDir, "fixture.ddi"))
	require.NoError(t, err)

	err = Mixin(recipientIdxBuf, recipient, donor, MixinOptions{
		DstPath:        t.TempDir(),
		Name:           "mixed",
		Mode:           MixinSta2Vqm,
		Sta2VqmPhoneme: "nonexistent",
	})
	require.Error(t, err)
}

func TestMixin_VqmCopyErrorsWithoutDonorVqm(t *testing.T) {
	recipientDir := t.TempDir()
	donorDir := t.TempDir()
	recipient := BuildFixtureBank(t, recipientDir)
	donor := BuildFixtureBank(t, donorDir)
	recipientIdxBuf, err := os.ReadFile(filepath.Join(recipientDir, "fixture.ddi"))
	require.NoError(t, err)

	err = Mixin(recipientIdxBuf, recipient, donor, MixinOptions{
		DstPath: t.TempDir(),
		Name:    "mixed",
		Mode:    MixinVqmCopy,
	})
	require.Error(t, err)
}
