package index

import "github.com/yuukawahiroshi/ddb-tools/internal/cursor"

// dbvVersionBias is the byte offset of the version field relative to the
// start of the DBV section (the 8 zero bytes preceding the "DBV " tag).
const dbvVersionBias = 0x18

// Dbv is the single database-version record. Version is bumped by one on
// a VQM splice during a mix-in rewrite; VersionSite records where that
// field lives in the index buffer for the offset-rewrite engine.
type Dbv struct {
	Version     uint32
	VersionSite int
}

func parseDbv(c *cursor.Cursor) (*Dbv, error) {
	start := c.Position()
	if err := c.ExpectU64LE(0); err != nil {
		return nil, err
	}
	if err := c.ExpectTag("DBV "); err != nil {
		return nil, err
	}
	if _, err := c.ReadU32LE(); err != nil {
		return nil, err
	}
	if err := c.ExpectU64LE(1); err != nil {
		return nil, err
	}
	versionSite := c.Position()
	version, err := c.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if versionSite != start+dbvVersionBias {
		return nil, &cursor.InconsistentLength{Declared: start + dbvVersionBias, Observed: versionSite}
	}
	return &Dbv{Version: version, VersionSite: versionSite}, nil
}

// Encode appends the DBV section's byte image to b.
func (d *Dbv) Encode(b *cursor.Builder) {
	b.U64(0).Tag("DBV ").U32(0).U64(1).U32(d.Version)
}
