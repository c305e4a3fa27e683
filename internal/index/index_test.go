package index

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuukawahiroshi/ddb-tools/internal/cursor"
)

func TestParse_RoundTrip(t *testing.T) {
	fx := Fixture()
	buf := fx.Encode()

	got, err := Parse(buf)
	require.NoError(t, err)

	// The parser records each reference's back-pointer site in buf; the
	// hand-built fixture leaves them zero, so compare with sites cleared.
	clearSites(got)

	assert.Equal(t, fx.Phdc, got.Phdc)
	assert.Equal(t, fx.Tdb, got.Tdb)
	assert.Equal(t, fx.Dbv.Version, got.Dbv.Version)
	assert.Equal(t, fx.Stationary, got.Stationary)
	assert.Equal(t, fx.Articulation, got.Articulation)
	assert.Equal(t, fx.Vqm, got.Vqm)

	for _, name := range []string{"phdc", "tdb", "dbv", "sta", "art", "vqm"} {
		span, ok := got.Spans[name]
		assert.True(t, ok, "missing span for %s", name)
		assert.Less(t, span.Start, span.End)
	}
}

func clearSites(idx *Index) {
	clearEpr := func(e *EprList) {
		for i := range e.Refs {
			e.Refs[i].Site = 0
		}
	}
	if idx.Stationary != nil {
		for ui := range idx.Stationary.Units {
			for ei := range idx.Stationary.Units[ui].Entries {
				e := &idx.Stationary.Units[ui].Entries[ei]
				e.Snd.Site = 0
				clearEpr(&e.Epr)
			}
		}
	}
	var clearNode func(n *ArtNode)
	clearNode = func(n *ArtNode) {
		for ui := range n.Units {
			for ei := range n.Units[ui].Entries {
				e := &n.Units[ui].Entries[ei]
				e.Snd.Site = 0
				e.SndStart.Site = 0
				clearEpr(&e.Epr)
			}
		}
		for ci := range n.Children {
			clearNode(&n.Children[ci])
		}
	}
	if idx.Articulation != nil {
		for ri := range idx.Articulation.Roots {
			clearNode(&idx.Articulation.Roots[ri])
		}
	}
	if idx.Vqm != nil {
		for ei := range idx.Vqm.Entries {
			idx.Vqm.Entries[ei].Snd.Site = 0
			clearEpr(&idx.Vqm.Entries[ei].Epr)
		}
	}
}

func TestParse_RoundTrip_NoVqm(t *testing.T) {
	fx := FixtureNoVqm()
	buf := fx.Encode()

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Nil(t, got.Vqm)
	_, ok := got.Spans["vqm"]
	assert.False(t, ok)
}

func TestParse_MissingSection(t *testing.T) {
	_, err := Parse([]byte("not an index buffer"))
	require.Error(t, err)
	var missing *MissingSection
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "PHDC", missing.Section)
}

func TestIndex_SiteTablesAgreeWithBuffer(t *testing.T) {
	fx := Fixture()
	buf := fx.Encode()
	parsed, err := Parse(buf)
	require.NoError(t, err)

	for _, s := range parsed.SndRefs() {
		assert.True(t, s.Ref.Site+8 <= len(buf), "SND site out of range")
		stored := Patch{Kind: s.Kind, NewOffset: s.Ref.Offset}.biasedValue()
		assert.Equal(t, stored, binary.LittleEndian.Uint64(buf[s.Ref.Site:s.Ref.Site+8]))
	}
	for _, r := range parsed.Frm2Refs() {
		assert.True(t, r.Site+8 <= len(buf), "FRM2 site out of range")
		assert.Equal(t, r.Offset, binary.LittleEndian.Uint64(buf[r.Site:r.Site+8]))
	}
}

func TestApplyPatches(t *testing.T) {
	fx := Fixture()
	buf := fx.Encode()
	parsed, err := Parse(buf)
	require.NoError(t, err)

	refs := parsed.SndRefs()
	require.NotEmpty(t, refs)
	patches := make([]Patch, len(refs))
	for i, r := range refs {
		patches[i] = Patch{Site: r.Ref.Site, Kind: r.Kind, NewOffset: r.Ref.Offset + 0x10}
	}
	require.NoError(t, ApplyPatches(buf, patches))

	reparsed, err := Parse(buf)
	require.NoError(t, err)
	for i, r := range reparsed.SndRefs() {
		assert.Equal(t, refs[i].Ref.Offset+0x10, r.Ref.Offset)
	}
}

func TestSpliceVqm_Insert(t *testing.T) {
	fx := FixtureNoVqm()
	buf := fx.Encode()
	parsed, err := Parse(buf)
	require.NoError(t, err)

	vqmBuilder := Fixture().Vqm
	b := cursor.NewBuilder()
	vqmBuilder.Encode(b)

	out, err := SpliceVqm(buf, parsed, b.Bytes())
	require.NoError(t, err)

	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, reparsed.Vqm)
	assert.Equal(t, fx.Dbv.Version+1, reparsed.Dbv.Version)
}

func TestSpliceVqm_Replace(t *testing.T) {
	fx := Fixture()
	buf := fx.Encode()
	parsed, err := Parse(buf)
	require.NoError(t, err)

	replacement := &Vqm{Entries: []VqmEntry{
		{Idx: 9, Params: ToneParams{Pitch1: 1, Pitch2: 2}, Epr: EprList{Lead: 0xFFFFFFFF, Fs: 44100}, Snd: SndRef{Identifier: 9, Offset: 0x9000}},
	}}
	b := cursor.NewBuilder()
	replacement.Encode(b)

	out, err := SpliceVqm(buf, parsed, b.Bytes())
	require.NoError(t, err)

	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, reparsed.Vqm)
	assert.Equal(t, 9, reparsed.Vqm.Entries[0].Idx)
	assert.Equal(t, fx.Dbv.Version, reparsed.Dbv.Version)
}
