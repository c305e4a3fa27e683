package ddb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yuukawahiroshi/ddb-tools/internal/databank"
	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

// staHeaderLocalOffset is the fixed byte position a stationary chunk
// file's embedded SND header always starts at, regardless of where the
// index recorded its logical offset.
const staHeaderLocalOffset = 0x3D

// artSndStartBias is the expected constant distance between an ARTp
// entry's two SND references (snd_start_offset - snd_offset). Observed to
// hold in every sample bank but never guaranteed by the format, so pack
// preserves whatever delta it actually finds and only warns on deviation.
const artSndStartBias = 0x800

// packEscape replaces every character outside [a-z] with
// "%<decimal codepoint>%", the
// convention chunk-tree paths use (distinct from EscapeXSAMPA, which
// extract's WAV/label output paths use).
func packEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "%%%d%%", r)
	}
	return b.String()
}

// PackOptions configures Pack.
type PackOptions struct {
	// TreeDir is the chunk-tree root, holding voice/articulation/... and
	// voice/stationary/normal/... chunk files.
	TreeDir string
	DstPath string
	Name    string // output basename; produces Name.ddi and Name.ddb under DstPath
}

// Pack reassembles a chunk tree into a fresh .ddi/.ddb pair: for every
// STAp/ARTp entry in catalogue order, it opens that unit's chunk file,
// extracts the embedded FRM2/SND payloads, streams them into the new
// data file, and patches the new offsets into idx's buffer.
func Pack(idxBuf []byte, idx *index.Index, opts PackOptions) error {
	if err := os.MkdirAll(opts.DstPath, 0o755); err != nil {
		return &IoFailure{Path: opts.DstPath, Cause: err}
	}
	ddbPath := filepath.Join(opts.DstPath, opts.Name+".ddb")
	writer, err := databank.CreateWriter(ddbPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	var patches []index.Patch

	chunkCache := map[string][]byte{}
	openChunk := func(path string) ([]byte, error) {
		if b, ok := chunkCache[path]; ok {
			return b, nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &IoFailure{Path: path, Cause: err}
		}
		chunkCache[path] = b
		return b, nil
	}

	for _, node := range flattenArtNodes(idx.Articulation.Roots, nil) {
		unitPath := append(append([]string{}, node.prefix...), node.unit.Phoneme)
		chunkPath := filepath.Join(opts.TreeDir, "voice", "articulation", pathSegments(unitPath)...)
		chunkBuf, err := openChunk(chunkPath)
		if err != nil {
			return err
		}
		for _, e := range node.unit.Entries {
			p, err := packArtEntry(writer, chunkBuf, e)
			if err != nil {
				return fmt.Errorf("ddb: packing articulation %s: %w", strings.Join(unitPath, " "), err)
			}
			patches = append(patches, p...)
		}
	}

	for _, u := range idx.Stationary.Units {
		for i, e := range u.Entries {
			chunkPath := filepath.Join(opts.TreeDir, "voice", "stationary", "normal", packEscape(u.Phoneme), packEscape(strconv.Itoa(i)))
			chunkBuf, err := openChunk(chunkPath)
			if err != nil {
				return err
			}
			p, err := packStationaryEntry(writer, chunkBuf, e)
			if err != nil {
				return fmt.Errorf("ddb: packing stationary %s[%d]: %w", u.Phoneme, i, err)
			}
			patches = append(patches, p...)
		}
	}

	patched := append([]byte(nil), idxBuf...)
	if err := index.ApplyPatches(patched, patches); err != nil {
		return err
	}

	ddiPath := filepath.Join(opts.DstPath, opts.Name+".ddi")
	if err := os.WriteFile(ddiPath, patched, 0o644); err != nil {
		return &IoFailure{Path: ddiPath, Cause: err}
	}
	return nil
}

func pathSegments(phonemes []string) []string {
	out := make([]string, len(phonemes))
	for i, p := range phonemes {
		out[i] = packEscape(p)
	}
	return out
}

type artNodeWalk struct {
	prefix []string
	unit   index.ArtUnit
}

func flattenArtNodes(nodes []index.ArtNode, prefix []string) []artNodeWalk {
	var out []artNodeWalk
	for _, n := range nodes {
		path := append(append([]string{}, prefix...), n.Phoneme)
		for _, u := range n.Units {
			out = append(out, artNodeWalk{prefix: path, unit: u})
		}
		out = append(out, flattenArtNodes(n.Children, path)...)
	}
	return out
}

// packEprRefs copies every FRM2 payload referenced by refs out of
// chunkBuf, at the chunk-local offsets the index already recorded, and
// returns the resulting patches.
func packEprRefs(w *databank.Writer, chunkBuf []byte, refs []index.Frm2Ref) ([]index.Patch, error) {
	var patches []index.Patch
	for _, ref := range refs {
		if int(ref.Offset)+8 > len(chunkBuf) {
			return nil, fmt.Errorf("ddb: frm2 offset %#x out of range", ref.Offset)
		}
		local := int(ref.Offset)
		if string(chunkBuf[local:local+4]) != "FRM2" {
			return nil, fmt.Errorf("ddb: chunk file broken, expected FRM2 at local offset %#x", ref.Offset)
		}
		length := binary.LittleEndian.Uint32(chunkBuf[local+4 : local+8])
		if local+int(length) > len(chunkBuf) {
			return nil, fmt.Errorf("ddb: frm2 chunk at %#x exceeds chunk file bounds", ref.Offset)
		}
		newOffset, err := w.WriteRaw(chunkBuf[local : local+int(length)])
		if err != nil {
			return nil, err
		}
		patches = append(patches, index.Patch{Site: ref.Site, Kind: index.KindRaw, NewOffset: uint64(newOffset)})
	}
	return patches, nil
}

func packArtEntry(w *databank.Writer, chunkBuf []byte, e index.ArtEntry) ([]index.Patch, error) {
	patches, err := packEprRefs(w, chunkBuf, e.Epr.Refs)
	if err != nil {
		return nil, err
	}

	local := int(e.Snd.Offset)
	if local+8 > len(chunkBuf) || string(chunkBuf[local:local+4]) != "SND " {
		return nil, fmt.Errorf("ddb: chunk file broken, expected SND at local offset %#x", e.Snd.Offset)
	}
	length := binary.LittleEndian.Uint32(chunkBuf[local+4 : local+8])
	if local+int(length) > len(chunkBuf) {
		return nil, fmt.Errorf("ddb: snd chunk at %#x exceeds chunk file bounds", e.Snd.Offset)
	}
	offset2Delta := int64(e.SndStart.Offset) - int64(e.Snd.Offset)
	if offset2Delta != artSndStartBias {
		log.Warn("art snd_start_offset - snd_offset violates fixed bias, preserving observed delta", "delta", offset2Delta, "want", artSndStartBias)
	}

	newOffset, err := w.WriteRaw(chunkBuf[local : local+int(length)])
	if err != nil {
		return nil, err
	}
	patches = append(patches,
		index.Patch{Site: e.Snd.Site, Kind: index.KindArtBiased, NewOffset: uint64(newOffset)},
		index.Patch{Site: e.SndStart.Site, Kind: index.KindArtBiased, NewOffset: uint64(int64(newOffset) + offset2Delta)},
	)
	return patches, nil
}

func packStationaryEntry(w *databank.Writer, chunkBuf []byte, e index.StationaryEntry) ([]index.Patch, error) {
	patches, err := packEprRefs(w, chunkBuf, e.Epr.Refs)
	if err != nil {
		return nil, err
	}

	if staHeaderLocalOffset+8 > len(chunkBuf) || string(chunkBuf[staHeaderLocalOffset:staHeaderLocalOffset+4]) != "SND " {
		return nil, fmt.Errorf("ddb: chunk file broken, expected SND at local offset %#x", staHeaderLocalOffset)
	}
	length := binary.LittleEndian.Uint32(chunkBuf[staHeaderLocalOffset+4 : staHeaderLocalOffset+8])
	if staHeaderLocalOffset+int(length) > len(chunkBuf) {
		return nil, fmt.Errorf("ddb: snd chunk at %#x exceeds chunk file bounds", staHeaderLocalOffset)
	}
	delta := int64(e.Snd.Offset) - staHeaderLocalOffset
	if delta != 0 {
		log.Debug("stationary snd offset drift from header start", "delta", delta)
	}

	before, err := w.WriteRaw(chunkBuf[staHeaderLocalOffset : staHeaderLocalOffset+int(length)])
	if err != nil {
		return nil, err
	}
	patches = append(patches, index.Patch{Site: e.Snd.Site, Kind: index.KindRaw, NewOffset: uint64(int64(before) + delta)})
	return patches, nil
}
