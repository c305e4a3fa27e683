// Command ddb-mixins splices a donor voice bank's growl content into a
// recipient bank, producing a new .ddi/.ddb pair under dst_path.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	ddb "github.com/yuukawahiroshi/ddb-tools"
)

var (
	srcPath        = pflag.String("src_path", "", "recipient index (.ddi) file path")
	mixinsPath     = pflag.String("mixins_path", "", "donor index (.ddi) file path")
	dstPath        = pflag.String("dst_path", "", "output directory, default src_path's directory + /mixins")
	mixinsItem     = pflag.String("mixins_item", "vqm", "mixins strategy: vqm or sta2vqm")
	sta2vqmPhoneme = pflag.String("sta2vqm_phoneme", "", "donor stationary phoneme to synthesise growl from (sta2vqm only)")
	help           = pflag.Bool("help", false, "display this help text")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ddb-mixins --src_path R.ddi --mixins_path D.ddi --dst_path O [flags]")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}
	if *srcPath == "" || *mixinsPath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	var mode ddb.MixinMode
	switch *mixinsItem {
	case "vqm":
		mode = ddb.MixinVqmCopy
	case "sta2vqm":
		mode = ddb.MixinSta2Vqm
		if *sta2vqmPhoneme == "" {
			log.Fatal("sta2vqm_phoneme is required when mixins_item is sta2vqm")
		}
	default:
		log.Fatal("unknown mixins_item", "value", *mixinsItem)
	}

	dst := *dstPath
	if dst == "" {
		dst = filepath.Join(filepath.Dir(*srcPath), "mixins")
	}
	name := fileBase(*srcPath)

	recipientIdxBuf, err := os.ReadFile(*srcPath)
	if err != nil {
		log.Fatal("reading recipient index", "path", *srcPath, "err", err)
	}

	recipient, err := ddb.Open(*srcPath)
	if err != nil {
		log.Fatal("opening recipient bank", "err", err)
	}
	defer recipient.Close()

	donor, err := ddb.Open(*mixinsPath)
	if err != nil {
		log.Fatal("opening donor bank", "err", err)
	}
	defer donor.Close()

	err = ddb.Mixin(recipientIdxBuf, recipient, donor, ddb.MixinOptions{
		DstPath:        dst,
		Name:           name,
		Mode:           mode,
		Sta2VqmPhoneme: *sta2vqmPhoneme,
	})
	if err != nil {
		log.Fatal("mixin failed", "err", err)
	}
	log.Info("mixin complete", "name", name, "dst_path", dst)
}

func fileBase(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
