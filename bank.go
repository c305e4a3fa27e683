package ddb

import (
	"context"
	"io"
	"os"
	"regexp"

	"github.com/yuukawahiroshi/ddb-tools/internal/databank"
	"github.com/yuukawahiroshi/ddb-tools/internal/locator"
)

var ddiExt = regexp.MustCompile(`\.ddi$`)

// DataPathFor derives a voice bank's .ddb data-file path from its .ddi
// index-file path, the convention every CLI entry point uses when only a
// single --src_path is given.
func DataPathFor(idxPath string) string {
	if ddiExt.MatchString(idxPath) {
		return ddiExt.ReplaceAllString(idxPath, ".ddb")
	}
	return idxPath + ".ddb"
}

// Bank is an opened voice bank: its parsed catalogue plus a handle onto
// its data file, ready for unit resolution and extraction.
type Bank struct {
	Catalogue *Catalogue
	data      *databank.Bank
}

// Open reads idxPath and mmaps its companion data file.
func Open(idxPath string) (*Bank, error) {
	buf, err := os.ReadFile(idxPath)
	if err != nil {
		return nil, &IoFailure{Path: idxPath, Cause: err}
	}
	cat, err := NewCatalogue(buf)
	if err != nil {
		return nil, err
	}
	dataPath := DataPathFor(idxPath)
	data, err := databank.Open(dataPath)
	if err != nil {
		return nil, &IoFailure{Path: dataPath, Cause: err}
	}
	return &Bank{Catalogue: cat, data: data}, nil
}

// Close releases the mmapped data file.
func (bk *Bank) Close() error {
	return bk.data.Close()
}

// ResolvedSnd is a unit's audio payload, located and read from the data
// file.
type ResolvedSnd struct {
	Header  databank.SndHeader
	Payload []byte
	// Start is the chunk's confirmed physical offset, which may differ
	// from Unit.SndOffset for backward-searched stationary units.
	Start int64
}

// ResolveSnd locates u's SND chunk in the data file and reads it.
func (bk *Bank) ResolveSnd(u Unit) (ResolvedSnd, error) {
	window := locator.DefaultStationaryWindow
	start, err := locator.LocateSnd(bk.data.ReaderAt(), int64(u.SndOffset), u.SndKind, window)
	if err != nil {
		return ResolvedSnd{}, &ChunkNotLocated{Kind: "snd", Near: int64(u.SndOffset)}
	}
	header, payload, err := bk.data.ReadSnd(start)
	if err != nil {
		return ResolvedSnd{}, err
	}
	return ResolvedSnd{Header: header, Payload: payload, Start: start}, nil
}

// ReadSndAt reads a SND chunk already known to start at offset (as
// reported by Scan), without re-running chunk location.
func (bk *Bank) ReadSndAt(offset int64) (databank.SndHeader, []byte, error) {
	return bk.data.ReadSnd(offset)
}

// ReadSpan reads the raw bytes of the data file in [start,end), used by
// the mix-in orchestrator to copy a donor chunk (header included)
// verbatim without re-encoding it.
func (bk *Bank) ReadSpan(start, end int64) ([]byte, error) {
	return bk.data.ReadFrm2(start, end)
}

// ReaderAt exposes the data file for direct use with internal/locator.
func (bk *Bank) ReaderAt() io.ReaderAt {
	return bk.data.ReaderAt()
}

// Size returns the data file's total length.
func (bk *Bank) Size() (int64, error) {
	return bk.data.Size()
}

// Scan runs a brute-force SND scan over the data file from byte offset
// from to the end, the way the extract orchestrator's unindexed-chunk
// recovery pass does. It is cancellable via ctx.
func (bk *Bank) Scan(ctx context.Context, from int64, visit func(locator.FoundChunk) error) error {
	size, err := bk.Size()
	if err != nil {
		return err
	}
	return locator.Scan(ctx, bk.data.ReaderAt(), from, size, 10*1024, visit)
}
