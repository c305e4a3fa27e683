package ddb

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yuukawahiroshi/ddb-tools/internal/locator"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	DstPath       string
	GenLab        bool
	GenSeg        bool
	Classify      bool
	FilenameStyle FilenameStyle
}

// ExtractResult summarizes one Extract run.
type ExtractResult struct {
	UnitsWritten   int
	UnindexedFound int
}

// Extract walks bk's catalogue, resolves and writes a WAV (plus optional
// label/segmentation files) per unit, then scans the data file for SND
// chunks the catalogue never referenced and emits those too, under
// "unknown" naming. It stops and returns ctx.Err() if ctx is cancelled,
// without corrupting any file already written.
func Extract(ctx context.Context, bk *Bank, opts ExtractOptions) (ExtractResult, error) {
	var result ExtractResult
	seen := map[int64]bool{}

	units := bk.Catalogue.Units()
	unvoiced := bk.Catalogue.UnvoicedConsonants()

	for _, u := range units {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		resolved, err := bk.ResolveSnd(u)
		if err != nil {
			log.Warn("skipping unit, snd chunk not located", "phonemes", strings.Join(u.Phonemes, " "), "err", err)
			continue
		}
		seen[resolved.Start] = true

		if err := writeUnitWav(opts, u, resolved); err != nil {
			log.Warn("skipping unit, failed to write wav", "phonemes", strings.Join(u.Phonemes, " "), "err", err)
			continue
		}
		if opts.GenLab || opts.GenSeg {
			if err := writeUnitLabels(opts, u, resolved, unvoiced); err != nil {
				log.Warn("unit wav written but labels failed", "phonemes", strings.Join(u.Phonemes, " "), "err", err)
			}
		}
		result.UnitsWritten++
	}

	err := bk.Scan(ctx, 0, func(found locator.FoundChunk) error {
		if seen[found.Offset] {
			return nil
		}
		header, payload, err := bk.ReadSndAt(found.Offset)
		if err != nil {
			return nil // corrupt/unrecognized chunk at scan-found offset; skip
		}
		u := Unit{SndOffset: uint64(found.Offset)}
		path := filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "wav"))
		if err := writeFileAtomic(path, EncodeWav(payload, header.SampleRate, header.Channels)); err != nil {
			return err
		}
		result.UnindexedFound++
		return nil
	})
	if err != nil {
		return result, err
	}

	return result, nil
}

func writeUnitWav(opts ExtractOptions, u Unit, resolved ResolvedSnd) error {
	path := filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "wav"))
	wav := EncodeWav(resolved.Payload, resolved.Header.SampleRate, resolved.Header.Channels)
	return writeFileAtomic(path, wav)
}

func writeUnitLabels(opts ExtractOptions, u Unit, resolved ResolvedSnd, unvoiced []string) error {
	sampleRate := resolved.Header.SampleRate
	totalBytes := int64(len(resolved.Payload))

	if u.FrameAlign == nil {
		// Stationary unit: the declared SndOffset points past the header's
		// own length field, while resolved.Start is the header's confirmed
		// physical start (they differ whenever BackwardSearch had to step
		// back over leading silence). offsetBytes recovers that leading
		// span and cutoffBytes the trailing one, the way extract_wav.py's
		// main() derives offset_pos/cutoff_pos from snd_offset and
		// snd_length.
		phoneme := "unknown"
		if len(u.Phonemes) > 0 {
			phoneme = u.Phonemes[0]
		}
		offsetBytes := int64(u.SndOffset) - resolved.Start
		cutoffBytes := int64(u.SndLength) - offsetBytes
		if opts.GenLab {
			lab := GenerateStaLab(phoneme, sampleRate, offsetBytes, cutoffBytes, totalBytes)
			if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "lab")), []byte(lab)); err != nil {
				return err
			}
		}
		if opts.GenSeg {
			files := GenerateStaSegFiles(phoneme, sampleRate, offsetBytes, cutoffBytes, totalBytes)
			if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "trans")), []byte(files.Trans)); err != nil {
				return err
			}
			if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "seg")), []byte(files.Seg)); err != nil {
				return err
			}
		}
		return nil
	}

	if !u.FrameAlign.IsV3 {
		return nil // V2 frame-alignment tables carry no per-phoneme boundary split; see DESIGN.md
	}

	offsetBytes := int64(u.SndStartOffset) - int64(u.SndOffset)
	if opts.GenLab {
		lab, err := GenerateArtLab(u.Phonemes, *u.FrameAlign, sampleRate, offsetBytes, totalBytes)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "lab")), []byte(lab)); err != nil {
			return err
		}
	}
	if opts.GenSeg {
		files, err := GenerateArtSegFiles(u.Phonemes, *u.FrameAlign, sampleRate, offsetBytes, totalBytes, unvoiced)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "trans")), []byte(files.Trans)); err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "seg")), []byte(files.Seg)); err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(opts.DstPath, CreateFilename(u, opts.FilenameStyle, opts.Classify, "as0")), []byte(files.As0)); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic writes data to path by creating its parent directory,
// writing to a temp sibling, then renaming over the final name — so a
// cancelled or failed write never leaves a half-written file at path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IoFailure{Path: dir, Cause: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &IoFailure{Path: tmp, Cause: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &IoFailure{Path: path, Cause: err}
	}
	return nil
}
