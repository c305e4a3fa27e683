package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// vqmFooter is the literal that marks where a VQM section should be
// inserted in an index buffer that doesn't carry one yet.
var vqmFooter = append([]byte{0x05, 0x00, 0x00, 0x00}, []byte("voice")...)

// ApplyPatches overwrites every patch's site in place. Patches must be
// computed before any VQM splice runs, since a splice can move every byte
// position after it.
func ApplyPatches(buf []byte, patches []Patch) error {
	c := cursor.New(buf)
	for _, p := range patches {
		if err := c.WriteU64LE(p.Site, p.biasedValue()); err != nil {
			return err
		}
	}
	return nil
}

// SpliceVqm installs newVqm as the catalogue's VQM section: replacing the
// existing span if idx already carries one, or inserting at the "voice"
// footer literal and bumping the DBV version field by one otherwise. It
// returns the rewritten buffer; buf and idx must agree (idx was parsed
// from buf, with no patches applied since).
func SpliceVqm(buf []byte, idx *Index, newVqm []byte) ([]byte, error) {
	if span, ok := idx.Spans["vqm"]; ok {
		out := make([]byte, 0, len(buf)-(span.End-span.Start)+len(newVqm))
		out = append(out, buf[:span.Start]...)
		out = append(out, newVqm...)
		out = append(out, buf[span.End:]...)
		return out, nil
	}

	insertAt := cursor.Find(buf, vqmFooter, 0)
	if insertAt < 0 {
		return nil, &MissingSection{Section: "voice footer"}
	}

	patched := append([]byte(nil), buf...)
	c := cursor.New(patched)
	if err := c.WriteU32LE(idx.Dbv.VersionSite, idx.Dbv.Version+1); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(patched)+len(newVqm))
	out = append(out, patched[:insertAt]...)
	out = append(out, newVqm...)
	out = append(out, patched[insertAt:]...)
	return out, nil
}
