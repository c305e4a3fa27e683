// Command ddb-extract walks a voice bank's catalogue and writes each unit's
// audio, plus optional label and segmentation files, to a destination
// directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	ddb "github.com/yuukawahiroshi/ddb-tools"
)

var (
	srcPath       = pflag.String("src_path", "", "voice bank index (.ddi) file path")
	dstPath       = pflag.String("dst_path", "", "destination directory for extracted files")
	genLab        = pflag.Bool("gen_lab", false, "also generate .lab label files")
	genSeg        = pflag.Bool("gen_seg", false, "also generate .trans/.seg/.as0 segmentation files")
	classify      = pflag.Bool("classify", false, "group output files into numbered subdirectories by each unit's ordinal within its phoneme group")
	filenameStyle = pflag.String("filename_style", "flat", "output filename convention: flat or devkit")
	help          = pflag.Bool("help", false, "display this help text")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ddb-extract --src_path P.ddi --dst_path D [flags]")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}
	if *srcPath == "" || *dstPath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	style := ddb.FilenameFlat
	switch *filenameStyle {
	case "flat":
		style = ddb.FilenameFlat
	case "devkit":
		style = ddb.FilenameDevkit
	default:
		log.Fatal("unknown filename_style", "value", *filenameStyle)
	}

	bk, err := ddb.Open(*srcPath)
	if err != nil {
		log.Fatal("opening voice bank", "err", err)
	}
	defer bk.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := ddb.Extract(ctx, bk, ddb.ExtractOptions{
		DstPath:       *dstPath,
		GenLab:        *genLab,
		GenSeg:        *genSeg,
		Classify:      *classify,
		FilenameStyle: style,
	})
	if err != nil {
		log.Fatal("extract failed", "err", err)
	}
	log.Info("extract complete", "units_written", result.UnitsWritten, "unindexed_found", result.UnindexedFound)
}
