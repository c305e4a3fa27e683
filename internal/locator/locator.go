// Package locator resolves SND/FRM2 cross-references stored in an index
// into confirmed positions within the data file: callers never touch file
// offsets directly, they ask the locator to confirm or recover one.
package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Kind selects how a SND reference is confirmed.
type Kind int

const (
	// Exact seeks straight to the declared offset and asserts the magic.
	// Used for articulation and VQM references, which the index always
	// records at the chunk's true start.
	Exact Kind = iota
	// BackwardSearch steps backward from the declared offset looking for
	// the nearest SND header. Used for stationary references, where the
	// declared offset points somewhere inside the payload rather than at
	// the header.
	BackwardSearch
)

const (
	sndMagicLen = 4

	// DefaultStationaryWindow is the backward-search window used when
	// resolving a stationary SND reference.
	DefaultStationaryWindow = 32 * 1024
	// DefaultMixinWindow is the backward-search window used when
	// recovering chunks during mix-in, where donor offsets may be far
	// looser than stationary ones.
	DefaultMixinWindow = 10 * 1024 * 1024
)

var sndMagic = []byte("SND ")
var frm2Magic = []byte("FRM2")

// ErrNotFound is returned when a SND header cannot be confirmed within the
// configured search window.
var ErrNotFound = errors.New("locator: SND header not found")

// Chunk is a confirmed chunk position: Start is the absolute offset of the
// chunk's magic, End is Start plus the full on-disk chunk length (header
// included).
type Chunk struct {
	Start, End int64
}

// LocateSnd confirms or recovers the true start of a SND chunk given the
// offset recorded in the index. For Exact it seeks straight there; for
// BackwardSearch it walks backward up to window bytes looking for the
// nearest SND magic, starting from declared-4 the way the original reader
// does (the declared offset for stationary entries sits just past the
// header's own length field).
func LocateSnd(r io.ReaderAt, declared int64, kind Kind, window int) (int64, error) {
	switch kind {
	case Exact:
		var magic [sndMagicLen]byte
		if _, err := r.ReadAt(magic[:], declared); err != nil {
			return 0, fmt.Errorf("locator: read magic at %#x: %w", declared, err)
		}
		if !bytes.Equal(magic[:], sndMagic) {
			return 0, fmt.Errorf("%w: at %#x", ErrNotFound, declared)
		}
		return declared, nil
	case BackwardSearch:
		return backwardSearchMagic(r, declared-sndMagicLen, sndMagic, window)
	default:
		return 0, fmt.Errorf("locator: unknown kind %d", kind)
	}
}

// backwardSearchMagic steps backward one byte at a time from start,
// comparing a len(magic)-byte window against magic, until it finds a
// match or exhausts window bytes of travel.
func backwardSearchMagic(r io.ReaderAt, start int64, magic []byte, window int) (int64, error) {
	if start < 0 {
		start = 0
	}
	buf := make([]byte, len(magic))
	limit := start - int64(window)
	if limit < 0 {
		limit = 0
	}
	for pos := start; pos >= limit; pos-- {
		if _, err := r.ReadAt(buf, pos); err != nil {
			continue
		}
		if bytes.Equal(buf, magic) {
			return pos, nil
		}
		if pos == 0 {
			break
		}
	}
	return 0, fmt.Errorf("%w: within %d bytes before %#x", ErrNotFound, window, start)
}

// LocateFrm2 seeks to declared, asserts the FRM2 magic, reads the
// following u32 length, and returns the chunk's half-open byte span
// (header included).
func LocateFrm2(r io.ReaderAt, declared int64) (Chunk, error) {
	var header [8]byte
	if _, err := r.ReadAt(header[:], declared); err != nil {
		return Chunk{}, fmt.Errorf("locator: read FRM2 header at %#x: %w", declared, err)
	}
	if !bytes.Equal(header[:4], frm2Magic) {
		return Chunk{}, fmt.Errorf("%w: at %#x", ErrNotFound, declared)
	}
	length := int64(leU32(header[4:8]))
	return Chunk{Start: declared, End: declared + length}, nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// FoundChunk is one SND chunk discovered by Scan.
type FoundChunk struct {
	Offset int64
	Length uint32 // as declared by the chunk's own header, header included
}

// Scan performs a windowed brute-force search of r for SND magic between
// [from, size), reporting every match to visit. Windows overlap by
// len(magic)-1 bytes so a magic straddling a window boundary is never
// missed. It is cooperatively cancellable: ctx is checked once per window,
// and a cancellation returns ctx.Err() without losing chunks already
// reported to visit.
func Scan(ctx context.Context, r io.ReaderAt, from, size int64, windowSize int, visit func(FoundChunk) error) error {
	if windowSize <= sndMagicLen {
		return fmt.Errorf("locator: window size %d too small", windowSize)
	}
	advance := int64(windowSize - (sndMagicLen - 1))
	buf := make([]byte, windowSize)

	for pos := from; pos < size; pos += advance {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := windowSize
		if pos+int64(n) > size {
			n = int(size - pos)
		}
		if n < sndMagicLen {
			break
		}
		window := buf[:n]
		if _, err := r.ReadAt(window, pos); err != nil && err != io.EOF {
			return fmt.Errorf("locator: scan read at %#x: %w", pos, err)
		}

		for i := 0; i+sndMagicLen <= n; i++ {
			if !bytes.Equal(window[i:i+sndMagicLen], sndMagic) {
				continue
			}
			offset := pos + int64(i)
			var lenBuf [4]byte
			if _, err := r.ReadAt(lenBuf[:], offset+sndMagicLen); err != nil {
				continue
			}
			if err := visit(FoundChunk{Offset: offset, Length: leU32(lenBuf[:])}); err != nil {
				return err
			}
		}
	}
	return nil
}
