package ddb

import (
	"fmt"
	"strings"

	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

// labelWindowSize is the number of PCM samples a frame-alignment unit
// covers; frame-alignment tables store positions in these units, not raw
// sample counts.
const labelWindowSize = 512

func nsample2sec(nsample int64, sampleRate uint32) float64 {
	return float64(nsample) / float64(sampleRate) / 2
}

func frm2sec(frm uint32, sampleRate uint32) float64 {
	return float64(frm) * labelWindowSize / float64(sampleRate) / 2
}

// segBoundary is one phoneme's [start,end) label region.
type segBoundary struct {
	phoneme    string
	start, end float64
}

// expandTriphoneme strips the leading "^" from a VCV unit's center
// phoneme and duplicates it, turning a 3-phoneme path into the 4
// label-line shape generate_art_lab/generate_art_seg_files expect.
func expandTriphoneme(phonemes []string) []string {
	if len(phonemes) != 3 {
		return phonemes
	}
	center := strings.TrimPrefix(phonemes[1], "^")
	return []string{phonemes[0], center, center, phonemes[2]}
}

// GenerateArtLab renders a .lab file for an articulation unit: leading
// and trailing silence lines bracket one line per phoneme, with times in
// 100ns units. Only defined for V3 (grouped) frame-alignment tables — a
// V2 table carries no per-group start/end split, so it has no well-defined
// lab rendering and callers should skip label generation for it.
func GenerateArtLab(phonemes []string, align index.FrameAlign, sampleRate uint32, offsetBytes, totalBytes int64) (string, error) {
	if !align.IsV3 {
		return "", fmt.Errorf("ddb: label generation requires a V3 frame-alignment table")
	}
	expanded := expandTriphoneme(phonemes)
	if len(align.Groups) < len(expanded) {
		return "", fmt.Errorf("ddb: frame-alignment has %d groups, need %d for %v", len(align.Groups), len(expanded), phonemes)
	}

	offsetTime := nsample2sec(offsetBytes, sampleRate) * 1e7
	durationTime := nsample2sec(totalBytes, sampleRate) * 1e7

	var lines []string
	lines = append(lines, fmt.Sprintf("0 %.0f sil", offsetTime))
	lastTime := 0.0
	for i, phoneme := range expanded {
		g := align.Groups[i]
		start := offsetTime + frm2sec(g.Start, sampleRate)*1e7
		end := offsetTime + frm2sec(g.End, sampleRate)*1e7
		lines = append(lines, fmt.Sprintf("%.0f %.0f %s", start, end, phoneme))
		lastTime = end
	}
	lines = append(lines, fmt.Sprintf("%.0f %.0f sil", lastTime, durationTime))
	return strings.Join(lines, "\n"), nil
}

// GenerateStaLab renders a .lab file for a stationary unit: silence,
// phoneme, silence, split at offsetBytes/cutoffBytes.
func GenerateStaLab(phoneme string, sampleRate uint32, offsetBytes, cutoffBytes, totalBytes int64) string {
	offsetTime := nsample2sec(offsetBytes, sampleRate) * 1e7
	cutoffTime := nsample2sec(cutoffBytes, sampleRate) * 1e7
	durationTime := nsample2sec(totalBytes, sampleRate) * 1e7
	lines := []string{
		fmt.Sprintf("0 %.0f sil", offsetTime),
		fmt.Sprintf("%.0f %.0f %s", offsetTime, cutoffTime, phoneme),
		fmt.Sprintf("%.0f %.0f sil", cutoffTime, durationTime),
	}
	return strings.Join(lines, "\n")
}

// GenerateTranscription renders a .trans file: the phoneme sequence, then
// the same sequence bracketed.
func GenerateTranscription(segs []segBoundary) string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.phoneme
	}
	return strings.Join(names, " ") + "\n[" + strings.Join(names, " ") + "]"
}

// GenerateSeg renders a .seg file: a header block followed by one
// tab-separated phoneme/begin/end line per segment, bracketed by a
// silence phoneme (named "unknown" for stationary units, "Sil" for
// articulation ones, matching generate_seg's is_sta flag).
func GenerateSeg(segs []segBoundary, wavLength float64, isStationary bool) string {
	silPhoneme := "Sil"
	isStaInt := 0
	if isStationary {
		silPhoneme = "unknown"
		isStaInt = 1
	}
	nPhonemes := len(segs) + 2

	var b strings.Builder
	fmt.Fprintf(&b, "nPhonemes %d\n", nPhonemes)
	fmt.Fprintf(&b, "articulationsAreStationaries = %d\n", isStaInt)
	b.WriteString("phoneme\t\tBeginTime\t\tEndTime\n")
	b.WriteString("===================================================\n")
	fmt.Fprintf(&b, "%s\t\t%.6f\t\t%.6f\n", silPhoneme, 0.0, segs[0].start)
	var lastEnd float64
	for _, s := range segs {
		fmt.Fprintf(&b, "%s\t\t%.6f\t\t%.6f\n", s.phoneme, s.start, s.end)
		lastEnd = s.end
	}
	fmt.Fprintf(&b, "%s\t\t%.6f\t\t%.6f\n", silPhoneme, lastEnd, wavLength)
	return b.String()
}

// GenerateArticulationSeg renders a .as0 nphone-articulation-segmentation
// block: phoneme list, sample-count cut length, boundary timestamps and a
// per-phoneme voiced flag (doubled for a triphoneme's center phoneme).
func GenerateArticulationSeg(phonemes []string, boundaries []float64, wavSamples int64, unvoicedConsonants []string) string {
	var b strings.Builder
	b.WriteString("nphone art segmentation\n{\n")
	fmt.Fprintf(&b, "\tphns: [\"%s\"];\n", strings.Join(phonemes, "\", \""))
	b.WriteString("\tcut offset: 0;\n")
	fmt.Fprintf(&b, "\tcut length: %d;\n", wavSamples/2)

	boundaryStrs := make([]string, len(boundaries))
	for i, v := range boundaries {
		boundaryStrs[i] = fmt.Sprintf("%.9f", v)
	}
	fmt.Fprintf(&b, "\tboundaries: [%s];\n", strings.Join(boundaryStrs, ", "))
	b.WriteString("\trevised: false;\n")

	isUnvoiced := func(p string) bool {
		if p == "Sil" || p == "Asp" || p == "?" {
			return true
		}
		for _, u := range unvoicedConsonants {
			if u == p {
				return true
			}
		}
		return false
	}

	isTriphoneme := len(phonemes) == 3
	var voiced []string
	for i, p := range phonemes {
		v := fmt.Sprintf("%t", !isUnvoiced(p))
		voiced = append(voiced, v)
		if isTriphoneme && i == 1 {
			voiced = append(voiced, v)
		}
	}
	fmt.Fprintf(&b, "\tvoiced: [%s];\n", strings.Join(voiced, ", "))
	b.WriteString("};\n")
	return b.String()
}

// ArtSegFiles bundles the three segmentation files generated together for
// one articulation unit.
type ArtSegFiles struct {
	Trans, Seg, As0 string
}

// GenerateArtSegFiles renders the .trans/.seg/.as0 trio for a bi- or
// tri-phoneme articulation unit.
func GenerateArtSegFiles(phonemes []string, align index.FrameAlign, sampleRate uint32, offsetBytes, totalBytes int64, unvoicedConsonants []string) (ArtSegFiles, error) {
	if !align.IsV3 {
		return ArtSegFiles{}, fmt.Errorf("ddb: segmentation generation requires a V3 frame-alignment table")
	}
	offsetTime := nsample2sec(offsetBytes, sampleRate)
	durationTime := nsample2sec(totalBytes, sampleRate)

	boundaryChunks := 2
	segPhonemes := phonemes
	if len(phonemes) == 3 {
		center := strings.TrimPrefix(phonemes[1], "^")
		segPhonemes = []string{phonemes[0], center, phonemes[2]}
		boundaryChunks = 4
	}
	if len(align.Groups) < boundaryChunks {
		return ArtSegFiles{}, fmt.Errorf("ddb: frame-alignment has %d groups, need %d", len(align.Groups), boundaryChunks)
	}

	var boundaries []float64
	for i := 0; i < boundaryChunks; i++ {
		g := align.Groups[i]
		start := offsetTime + frm2sec(g.Start, sampleRate)
		end := offsetTime + frm2sec(g.End, sampleRate)
		if i == 0 {
			boundaries = append(boundaries, start)
		}
		boundaries = append(boundaries, end)
	}

	var segs []segBoundary
	if len(phonemes) == 3 {
		segs = []segBoundary{
			{segPhonemes[0], boundaries[0], boundaries[1]},
			{segPhonemes[1], boundaries[1], boundaries[3]},
			{segPhonemes[2], boundaries[3], boundaries[4]},
		}
	} else {
		segs = []segBoundary{
			{segPhonemes[0], boundaries[0], boundaries[1]},
			{segPhonemes[1], boundaries[1], boundaries[2]},
		}
	}

	return ArtSegFiles{
		Trans: GenerateTranscription(segs),
		Seg:   GenerateSeg(segs, durationTime, false),
		As0:   GenerateArticulationSeg(segPhonemes, boundaries, totalBytes, unvoicedConsonants),
	}, nil
}

// StaSegFiles bundles the .trans/.seg pair generated for a stationary
// unit (stationary units have no .as0 — that format only applies to
// articulations).
type StaSegFiles struct {
	Trans, Seg string
}

// GenerateStaSegFiles renders the .trans/.seg pair for a stationary unit.
func GenerateStaSegFiles(phoneme string, sampleRate uint32, offsetBytes, cutoffBytes, totalBytes int64) StaSegFiles {
	offsetTime := nsample2sec(offsetBytes, sampleRate)
	cutoffTime := nsample2sec(cutoffBytes, sampleRate)
	durationTime := nsample2sec(totalBytes, sampleRate)
	segs := []segBoundary{{phoneme, offsetTime, cutoffTime}}
	return StaSegFiles{
		Trans: GenerateTranscription(segs),
		Seg:   GenerateSeg(segs, durationTime, true),
	}
}
