// Command ddb-pack reassembles a voice bank chunk tree, produced by some
// other tool's unpacking step, back into a .ddi/.ddb pair.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	ddb "github.com/yuukawahiroshi/ddb-tools"
	"github.com/yuukawahiroshi/ddb-tools/internal/index"
)

var (
	srcPath = pflag.String("src_path", "", "chunk tree's index file path (singer.tree)")
	dstPath = pflag.String("dst_path", "", "destination directory for the repacked .ddi/.ddb")
	help    = pflag.Bool("help", false, "display this help text")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ddb-pack --src_path P.tree --dst_path D")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}
	if *srcPath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	treeDir := strings.TrimSuffix(*srcPath, ".tree")
	name := filepath.Base(treeDir)

	dst := *dstPath
	if dst == "" {
		dst = "./" + name
	}

	idxBuf, err := os.ReadFile(*srcPath)
	if err != nil {
		log.Fatal("reading tree index", "path", *srcPath, "err", err)
	}
	idx, err := index.Parse(idxBuf)
	if err != nil {
		log.Fatal("parsing tree index", "err", err)
	}

	if err := ddb.Pack(idxBuf, idx, ddb.PackOptions{TreeDir: treeDir, DstPath: dst, Name: name}); err != nil {
		log.Fatal("pack failed", "err", err)
	}
	log.Info("pack complete", "name", name, "dst_path", dst)
}
