// Package databank reads the data file that a catalogue's SND and FRM2
// cross-references point into: the file is mapped once and every chunk is
// read by random io.ReaderAt access rather than loaded wholesale, since a
// production voice bank's data file runs into the hundreds of megabytes.
package databank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"codeberg.org/go-mmap/mmap"
)

// sndHeaderSize is the fixed size of a SND chunk header: 4-byte magic,
// u32 chunk_length (header included), u32 sample_rate, u16 channels, u32
// unknown.
const sndHeaderSize = 18

// ErrBadMagic is returned when a chunk header's magic doesn't match what
// the caller asked for.
var ErrBadMagic = errors.New("databank: bad chunk magic")

// SndHeader is a decoded SND chunk header.
type SndHeader struct {
	Length     uint32 // total chunk length, header included
	SampleRate uint32
	Channels   uint16
	Unknown    uint32
}

// PayloadLen is the number of payload bytes following the header.
func (h SndHeader) PayloadLen() uint32 {
	return h.Length - sndHeaderSize
}

// Bank provides random-access reads into a data file via mmap.
type Bank struct {
	file *mmap.File
}

// Open mmaps the data file at path.
func Open(path string) (*Bank, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("databank: open %s: %w", path, err)
	}
	return &Bank{file: f}, nil
}

// Close releases the mmap.
func (b *Bank) Close() error {
	return b.file.Close()
}

// ReaderAt exposes the underlying mmap for use with internal/locator.
func (b *Bank) ReaderAt() io.ReaderAt {
	return b.file
}

// Size returns the data file's length in bytes.
func (b *Bank) Size() (int64, error) {
	info, err := b.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReadSnd decodes the SND header at offset and reads its payload.
func (b *Bank) ReadSnd(offset int64) (SndHeader, []byte, error) {
	var raw [sndHeaderSize]byte
	if _, err := b.file.ReadAt(raw[:], offset); err != nil {
		return SndHeader{}, nil, fmt.Errorf("databank: read SND header at %#x: %w", offset, err)
	}
	if string(raw[:4]) != "SND " {
		return SndHeader{}, nil, fmt.Errorf("%w: at %#x", ErrBadMagic, offset)
	}
	h := SndHeader{
		Length:     binary.LittleEndian.Uint32(raw[4:8]),
		SampleRate: binary.LittleEndian.Uint32(raw[8:12]),
		Channels:   binary.LittleEndian.Uint16(raw[12:14]),
		Unknown:    binary.LittleEndian.Uint32(raw[14:18]),
	}
	if h.Length < sndHeaderSize {
		return SndHeader{}, nil, fmt.Errorf("databank: SND chunk at %#x declares length %d shorter than header", offset, h.Length)
	}
	payload := make([]byte, h.PayloadLen())
	if _, err := b.file.ReadAt(payload, offset+sndHeaderSize); err != nil {
		return SndHeader{}, nil, fmt.Errorf("databank: read SND payload at %#x: %w", offset+sndHeaderSize, err)
	}
	return h, payload, nil
}

// ReadFrm2 reads the raw bytes of a FRM2 chunk (header included) given its
// half-open span, as produced by locator.LocateFrm2.
func (b *Bank) ReadFrm2(start, end int64) ([]byte, error) {
	if end < start {
		return nil, fmt.Errorf("databank: invalid FRM2 span [%d,%d)", start, end)
	}
	buf := make([]byte, end-start)
	if _, err := b.file.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("databank: read FRM2 at %#x: %w", start, err)
	}
	return buf, nil
}

// Writer appends SND and FRM2 chunks to a freshly created data file,
// recording the offset each chunk was written at. Used by the pack and
// mix-in orchestrators, which build a new data file sequentially rather
// than mutating one in place.
type Writer struct {
	f   *os.File
	pos int64
}

// CreateWriter creates (truncating if necessary) a new data file for
// sequential writes.
func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("databank: create %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// Offset returns the position the next Write call will write at.
func (w *Writer) Offset() int64 {
	return w.pos
}

// WriteSnd encodes a SND header for payload and appends header+payload,
// returning the offset the header was written at.
func (w *Writer) WriteSnd(sampleRate uint32, channels uint16, unknown uint32, payload []byte) (int64, error) {
	header := make([]byte, sndHeaderSize)
	copy(header[0:4], "SND ")
	binary.LittleEndian.PutUint32(header[4:8], uint32(sndHeaderSize+len(payload)))
	binary.LittleEndian.PutUint32(header[8:12], sampleRate)
	binary.LittleEndian.PutUint16(header[12:14], channels)
	binary.LittleEndian.PutUint32(header[14:18], unknown)

	offset := w.pos
	if err := w.writeAll(header); err != nil {
		return 0, err
	}
	if err := w.writeAll(payload); err != nil {
		return 0, err
	}
	return offset, nil
}

// WriteFrm2 appends a raw FRM2 chunk (header included, as read by
// ReadFrm2) and returns the offset it was written at.
func (w *Writer) WriteFrm2(raw []byte) (int64, error) {
	return w.WriteRaw(raw)
}

// WriteRaw appends an already-framed chunk (SND or FRM2, header included)
// verbatim and returns the offset it was written at. Pack and mix-in copy
// donor chunk bytes byte-for-byte rather than re-synthesizing a header, so
// they use this instead of WriteSnd.
func (w *Writer) WriteRaw(raw []byte) (int64, error) {
	offset := w.pos
	if err := w.writeAll(raw); err != nil {
		return 0, err
	}
	return offset, nil
}

func (w *Writer) writeAll(b []byte) error {
	n, err := w.f.Write(b)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("databank: write at %#x: %w", w.pos, err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}
