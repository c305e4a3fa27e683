package ddb

import (
	"path/filepath"
	"testing"

	"github.com/yuukawahiroshi/ddb-tools/internal/databank"
	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

// BuildFixtureBank writes a small but structurally complete .ddi/.ddb
// pair under dir and opens it, for tests that need a real *Bank without
// a production voice bank on disk. The data file's mmap requirement means
// this always touches disk, unlike internal/index.Fixture's pure
// in-memory Index.
func BuildFixtureBank(tb testing.TB, dir string) *Bank {
	tb.Helper()

	ddbPath := filepath.Join(dir, "fixture.ddb")
	w, err := databank.CreateWriter(ddbPath)
	if err != nil {
		tb.Fatalf("create fixture ddb: %v", err)
	}

	staPayload := make([]byte, 256)
	staSndOff, err := w.WriteSnd(44100, 1, 0, staPayload)
	if err != nil {
		tb.Fatalf("write sta snd: %v", err)
	}
	staFrm2Off, err := w.WriteRaw(frm2Fixture(16))
	if err != nil {
		tb.Fatalf("write sta frm2: %v", err)
	}

	artPayload := make([]byte, 512)
	artSndOff, err := w.WriteSnd(44100, 1, 0, artPayload)
	if err != nil {
		tb.Fatalf("write art snd: %v", err)
	}
	artFrm2Off, err := w.WriteRaw(frm2Fixture(24))
	if err != nil {
		tb.Fatalf("write art frm2: %v", err)
	}

	if err := w.Close(); err != nil {
		tb.Fatalf("close fixture ddb: %v", err)
	}

	idx := &index.Index{
		Phdc: &index.Phdc{
			Voiced:   []string{"a", "i"},
			Unvoiced: []string{"s", "t"},
		},
		Tdb: &index.Tdb{Entries: []index.TimbreEntry{{Idx: 0, Phoneme: "normal"}}},
		Dbv: &index.Dbv{Version: 1},
		Stationary: &index.Stationary{Units: []index.StationaryUnit{
			{
				Idx:     0,
				Phoneme: "a",
				Entries: []index.StationaryEntry{
					{
						ID:        "0",
						Params:    index.ToneParams{Pitch1: 220, Pitch2: 440, Dynamics: 1},
						SndLength: uint32(len(staPayload) + 18),
						Epr:       index.EprList{Lead: 0xFFFFFFFF, Refs: []index.Frm2Ref{{Offset: uint64(staFrm2Off)}}, Fs: 44100},
						Snd:       index.SndRef{Identifier: 1, Offset: uint64(staSndOff)},
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
								SndUnknown: 0,
								Epr:        index.EprList{Refs: []index.Frm2Ref{{Offset: uint64(artFrm2Off)}}, Fs: 44100},
								Snd:        index.SndRef{Identifier: 2, Offset: uint64(artSndOff)},
								SndStart:   index.SndRef{Identifier: 2, Offset: uint64(artSndOff)},
								FrameAlign: index.FrameAlign{IsV3: true, Groups: []index.FrameAlignGroup{{Start: 0, End: 100, Start2: 0, End2: 90}, {Start: 100, End: 200, Start2: 90, End2: 190}}},
							},
						},
					},
				},
			},
		}},
		Spans: map[string]index.Span{},
	}

	ddiBuf := idx.Encode()
	ddiPath := filepath.Join(dir, "fixture.ddi")
	if err := writeFileAtomic(ddiPath, ddiBuf); err != nil {
		tb.Fatalf("write fixture ddi: %v", err)
	}

	bk, err := Open(ddiPath)
	if err != nil {
		tb.Fatalf("open fixture bank: %v", err)
	}
	tb.Cleanup(func() { bk.Close() })
	return bk
}

func frm2Fixture(payloadLen int) []byte {
	buf := make([]byte, 8+payloadLen)
	copy(buf[0:4], "FRM2")
	length := uint32(8 + payloadLen)
	buf[4] = byte(length)
	buf[5] = byte(length >> 8)
	buf[6] = byte(length >> 16)
	buf[7] = byte(length >> 24)
	return buf
}
