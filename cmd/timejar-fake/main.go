package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/platform/logger"
)

// writes overlapping fake snapshots, one per export, for manual merge runs
func main() {
	var (
		fDir     = flag.String("dir", "", "output directory")
		fCount   = flag.Int("snapshots", 3, "number of snapshots to write")
		fRows    = flag.Int("rows", 1000, "rows per snapshot")
		fOverlap = flag.Int("overlap", 200, "rows each snapshot shares with the previous one")
		fSeed    = flag.Uint64("seed", 1, "generator seed")
		fGzip    = flag.Bool("gzip", false, "write .json.gz files")
	)
	flag.Parse()

	l := logger.ForService("timejar-fake")
	if *fDir == "" {
		l.Fatal().Msg("-dir is required")
	}
	if *fCount < 1 {
		l.Fatal().Int("snapshots", *fCount).Msg("-snapshots must be at least 1")
	}
	if *fOverlap < 0 || *fOverlap >= *fRows {
		l.Fatal().Int("rows", *fRows).Int("overlap", *fOverlap).Msg("-overlap must be in [0, rows)")
	}

	step := *fRows - *fOverlap
	full := snapshot.Fake(step*(*fCount-1)+*fRows, *fSeed)
	at := snapshot.FakeStart.AddDate(0, 0, 30)
	for i := range *fCount {
		name := snapshot.Name(at.Add(time.Duration(i) * 24 * time.Hour))
		if *fGzip {
			name += ".gz"
		}
		path := filepath.Join(*fDir, name)
		doc := snapshot.Slice(full, i*step, i*step+*fRows)
		if err := snapshot.WriteDocument(path, doc); err != nil {
			l.Fatal().Err(err).Str("path", path).Msg("write snapshot")
		}
		fmt.Println(path)
	}
}
