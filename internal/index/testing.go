package index

// Fixture returns a small but structurally complete Index covering every
// section, including a nested ART node and both frame-alignment layouts,
// for use in tests that need a self-consistent catalogue without a real
// voicebank on disk.
func Fixture() *Index {
	phdc := &Phdc{
		Voiced:   []string{"a", "i"},
		Unvoiced: []string{"s", "t"},
		Phg2: []Phg2Category{
			{Name: "vowel", Entries: []Phg2Entry{{Idx: 0, Phoneme: "a"}, {Idx: 1, Phoneme: "i"}}},
			{Name: "consonant", Entries: []Phg2Entry{{Idx: 0, Phoneme: "s"}, {Idx: 1, Phoneme: "t"}}},
		},
	}

	tdb := &Tdb{Entries: []TimbreEntry{
		{Idx: 0, Phoneme: "normal"},
		{Idx: 1, Phoneme: "breathy"},
	}}

	dbv := &Dbv{Version: 5}

	sta := &Stationary{Units: []StationaryUnit{
		{
			Idx:     0,
			Phoneme: "a",
			Entries: []StationaryEntry{
				{
					ID:        "0",
					Params:    ToneParams{Pitch1: 220, Pitch2: 440, Dynamics: 1},
					SndLength: 4096,
					Epr:       EprList{Lead: 0xFFFFFFFF, Refs: []Frm2Ref{{Offset: 0x1000}, {Offset: 0x2000}}, Fs: 44100},
					Snd:       SndRef{Identifier: 1, Offset: 0x4000},
				},
			},
		},
	}}

	art := &Articulation{Roots: []ArtNode{
		{
			Idx:     0,
			Phoneme: "a",
			Units: []ArtUnit{
				{
					Idx:     0,
					Phoneme: "i",
					Entries: []ArtEntry{
						{
							ID:         1,
							Params:     ToneParams{Pitch1: 220, Pitch2: 440, Dynamics: 1},
							SndUnknown: 7,
							Epr:        EprList{Refs: []Frm2Ref{{Offset: 0x1100}}, Fs: 44100},
							eprHasLead: false,
							Snd:        SndRef{Identifier: 2, Offset: 0x5000},
							SndStart:   SndRef{Identifier: 2, Offset: 0x5800},
							FrameAlign: FrameAlign{IsV3: true, Groups: []FrameAlignGroup{{Start: 0, End: 100, Start2: 0, End2: 90}}},
						},
					},
				},
			},
			Children: []ArtNode{
				{
					Idx:     1,
					Phoneme: "t",
					Units: []ArtUnit{
						{
							Idx:     0,
							Phoneme: "a",
							Entries: []ArtEntry{
								{
									ID:         2,
									Params:     ToneParams{Pitch1: 200, Pitch2: 400, Dynamics: 2},
									SndUnknown: 3,
									Epr:        EprList{Lead: 0xFFFFFFFF, Refs: []Frm2Ref{{Offset: 0x1200}}, Fs: 44100},
									eprHasLead: true,
									Snd:        SndRef{Identifier: 3, Offset: 0x6000},
									SndStart:   SndRef{Identifier: 3, Offset: 0x6800},
									FrameAlign: FrameAlign{Values: []uint32{10, 20, 30}},
								},
							},
						},
					},
				},
			},
		},
	}}

	vqm := &Vqm{Entries: []VqmEntry{
		{
			Idx:    0,
			Params: ToneParams{Pitch1: 300, Pitch2: 600, Dynamics: 3},
			Epr:    EprList{Lead: 0xFFFFFFFF, Refs: []Frm2Ref{{Offset: 0x1300}}, Fs: 44100},
			Snd:    SndRef{Identifier: 4, Offset: 0x7000},
		},
	}}

	return &Index{
		Phdc:         phdc,
		Tdb:          tdb,
		Dbv:          dbv,
		Stationary:   sta,
		Articulation: art,
		Vqm:          vqm,
		Spans:        map[string]Span{},
	}
}

// FixtureNoVqm is Fixture without a VQM section, for testing VQM-insert
// rewrite paths.
func FixtureNoVqm() *Index {
	idx := Fixture()
	idx.Vqm = nil
	return idx
}
