package ddb

import (
	"fmt"
	"path"
	"strings"
)

// FilenameStyle selects which of the two output path conventions extract
// uses.
type FilenameStyle int

const (
	// FilenameFlat groups files by a short category tag plus a bracketed,
	// space-joined phoneme list in the leaf filename, matching the
	// original extractor's create_file_name.
	FilenameFlat FilenameStyle = iota
	// FilenameDevkit nests one directory per phoneme (each tagged with
	// its first rune's hex codepoint) under a full-word category
	// directory, leaving only the pitch and offset in the leaf filename.
	FilenameDevkit
)

var xsampaEscapes = []struct{ from, to string }{
	{`\`, "-"},
	{"/", "~"},
	{"?", "!"},
	{":", ";"},
	{"<", "("},
	{">", ")"},
}

// EscapeXSAMPA replaces filesystem-unsafe x-SAMPA symbols with safe
// stand-ins so a phoneme string can be used as a path segment.
func EscapeXSAMPA(phoneme string) string {
	if phoneme == "Sil" {
		return "sil"
	}
	out := phoneme
	for _, e := range xsampaEscapes {
		out = strings.ReplaceAll(out, e.from, e.to)
	}
	return out
}

// UnescapeXSAMPA reverses EscapeXSAMPA's substitutions (the "Sil"→"sil"
// case is not invertible, since it collides with a legitimate lowercase
// "sil" phoneme; callers that need it preserved should not round-trip it
// through EscapeXSAMPA in the first place).
func UnescapeXSAMPA(escaped string) string {
	out := escaped
	for i := len(xsampaEscapes) - 1; i >= 0; i-- {
		e := xsampaEscapes[i]
		out = strings.ReplaceAll(out, e.to, e.from)
	}
	return out
}

func categoryFor(phonemes []string, flat bool) string {
	switch len(phonemes) {
	case 0:
		return "unknown"
	case 1:
		if phonemes[0] == "growl" {
			return "growl"
		}
		if flat {
			return "sta"
		}
		return "stationary"
	case 2:
		if flat {
			return "art"
		}
		return "articulation"
	default:
		if flat {
			return "tri"
		}
		return "triphoneme"
	}
}

func pitchString(pitch float32) string {
	if pitch >= 0 {
		return fmt.Sprintf("pit+%.2f", pitch)
	}
	return fmt.Sprintf("pit%.2f", pitch)
}

// CreateFilename builds the relative output path (directories included)
// for one unit's output file, under the requested style.
//
// classify, when true, inserts a 1-based per-phoneme-group ordinal
// directory (u.ClassifyIndex+1) between the category and the leaf file,
// the supplemented --classify behavior.
func CreateFilename(u Unit, style FilenameStyle, classify bool, ext string) string {
	offsetHex := fmt.Sprintf("%08x", u.SndOffset)
	category := categoryFor(u.Phonemes, style == FilenameFlat)

	if len(u.Phonemes) == 0 {
		if style == FilenameFlat {
			return fmt.Sprintf("unknown_%s.%s", offsetHex, ext)
		}
		return path.Join("unknown", fmt.Sprintf("%s.%s", offsetHex, ext))
	}

	escaped := make([]string, len(u.Phonemes))
	for i, p := range u.Phonemes {
		escaped[i] = EscapeXSAMPA(p)
	}
	pit := pitchString(u.Pitch1)

	if style == FilenameFlat {
		typePrefix := "wav"
		if ext == "lab" {
			typePrefix = "lab"
		}
		segs := []string{category}
		if classify {
			segs = append(segs, fmt.Sprintf("%d", u.ClassifyIndex+1))
		}
		segs = append(segs, typePrefix, fmt.Sprintf("[%s]_%s_%s.%s", strings.Join(escaped, " "), pit, offsetHex, ext))
		return path.Join(segs...)
	}

	segs := []string{category}
	for _, p := range escaped {
		r := []rune(p)
		codepoint := rune(0)
		if len(r) > 0 {
			codepoint = r[0]
		}
		segs = append(segs, fmt.Sprintf("%s#%x", p, codepoint))
	}
	if classify {
		segs = append(segs, fmt.Sprintf("%d", u.ClassifyIndex+1))
	}
	segs = append(segs, fmt.Sprintf("%s_%s.%s", pit, offsetHex, ext))
	return path.Join(segs...)
}
