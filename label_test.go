package ddb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

func v3Align(groups ...index.FrameAlignGroup) index.FrameAlign {
	return index.FrameAlign{IsV3: true, Groups: groups}
}

func TestExpandTriphoneme(t *testing.T) {
	assert.Equal(t, []string{"a", "i", "i", "o"}, expandTriphoneme([]string{"a", "^i", "o"}))
	assert.Equal(t, []string{"a", "i"}, expandTriphoneme([]string{"a", "i"}))
}

func TestGenerateArtLab_RejectsV2(t *testing.T) {
	_, err := GenerateArtLab([]string{"a", "i"}, index.FrameAlign{IsV3: false}, 44100, 0, 100)
	require.Error(t, err)
}

func TestGenerateArtLab_Biphoneme(t *testing.T) {
	align := v3Align(
		index.FrameAlignGroup{Start: 0, End: 10},
		index.FrameAlignGroup{Start: 10, End: 20},
	)
	lab, err := GenerateArtLab([]string{"a", "i"}, align, 44100, 0, 100000)
	require.NoError(t, err)
	lines := strings.Split(lab, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "0 0 sil", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], " a"))
	assert.True(t, strings.HasSuffix(lines[2], " i"))
	assert.True(t, strings.HasSuffix(lines[3], " sil"))
}

func TestGenerateArtLab_NotEnoughGroups(t *testing.T) {
	align := v3Align(index.FrameAlignGroup{Start: 0, End: 10})
	_, err := GenerateArtLab([]string{"a", "i"}, align, 44100, 0, 100)
	require.Error(t, err)
}

func TestGenerateStaLab(t *testing.T) {
	lab := GenerateStaLab("a", 44100, 0, 50000, 100000)
	lines := strings.Split(lab, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], " a"))
}

func TestGenerateTranscription(t *testing.T) {
	segs := []segBoundary{{phoneme: "a", start: 0, end: 1}, {phoneme: "i", start: 1, end: 2}}
	trans := GenerateTranscription(segs)
	assert.Equal(t, "a i\n[a i]", trans)
}

func TestGenerateSeg_ArticulationUsesSilLabel(t *testing.T) {
	segs := []segBoundary{{phoneme: "a", start: 0.1, end: 0.5}}
	seg := GenerateSeg(segs, 1.0, false)
	assert.Contains(t, seg, "articulationsAreStationaries = 0")
	assert.Contains(t, seg, "Sil\t\t0.000000\t\t0.100000")
	assert.Contains(t, seg, "Sil\t\t0.500000\t\t1.000000")
}

func TestGenerateSeg_StationaryUsesUnknownLabel(t *testing.T) {
	segs := []segBoundary{{phoneme: "a", start: 0.1, end: 0.5}}
	seg := GenerateSeg(segs, 1.0, true)
	assert.Contains(t, seg, "articulationsAreStationaries = 1")
	assert.Contains(t, seg, "unknown\t\t0.000000\t\t0.100000")
}

func TestGenerateArticulationSeg_DoublesCenterVoicing(t *testing.T) {
	as0 := GenerateArticulationSeg([]string{"a", "i", "o"}, []float64{0, 0.1, 0.2, 0.3}, 200000, []string{"s", "t"})
	assert.Contains(t, as0, `phns: ["a", "i", "o"]`)
	assert.Contains(t, as0, "voiced: [true, true, true, true]")
}

func TestGenerateArticulationSeg_UnvoicedConsonant(t *testing.T) {
	as0 := GenerateArticulationSeg([]string{"s", "a"}, []float64{0, 0.1, 0.2}, 100000, []string{"s", "t"})
	assert.Contains(t, as0, "voiced: [false, true]")
}

func TestGenerateArtSegFiles_Triphoneme(t *testing.T) {
	align := v3Align(
		index.FrameAlignGroup{Start: 0, End: 10},
		index.FrameAlignGroup{Start: 10, End: 20},
		index.FrameAlignGroup{Start: 20, End: 30},
		index.FrameAlignGroup{Start: 30, End: 40},
	)
	files, err := GenerateArtSegFiles([]string{"a", "^i", "o"}, align, 44100, 0, 100000, nil)
	require.NoError(t, err)
	assert.Contains(t, files.Trans, "a i o")
	assert.Contains(t, files.As0, `"a", "i", "o"`)
	assert.NotEmpty(t, files.Seg)
}

func TestGenerateStaSegFiles(t *testing.T) {
	files := GenerateStaSegFiles("a", 44100, 0, 50000, 100000)
	assert.Contains(t, files.Trans, "a\n[a]")
	assert.Contains(t, files.Seg, "unknown")
}
