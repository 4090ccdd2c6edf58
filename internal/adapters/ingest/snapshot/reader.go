package snapshot

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"timejar/internal/core/dal"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/logger"
	"timejar/internal/platform/validate"
)

const (
	extJSON   = ".json"
	extJSONGz = ".json.gz"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Loader parses snapshot files; the zero value is ready to use
type Loader struct {
	// MaxBytes caps the uncompressed document size; 0 uses validate.SnapshotJSON
	MaxBytes int64
}

// Load is a dal.LoadFunc using the default Loader
func Load(src dal.Source) (dal.Document, error) { return Loader{}.Load(src) }

// Load reads and validates one snapshot. It runs on pool workers, so it logs
// when the work actually starts rather than when it was submitted
func (l Loader) Load(src dal.Source) (dal.Document, error) {
	log := logger.Named("snapshot")
	log.Info().Str("source", src.Path).Msg("processing")

	f, err := os.Open(src.Path)
	if err != nil {
		return dal.Document{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("source", src.Path).Msg("snapshot: close failed")
		}
	}()

	r, closeGz, err := maybeGunzip(bufio.NewReader(f))
	if err != nil {
		return dal.Document{}, err
	}
	defer closeGz()

	opts := validate.SnapshotJSON
	if l.MaxBytes > 0 {
		opts.MaxBytes = l.MaxBytes
	}
	doc, err := validate.DecodeJSON[dal.Document](r, opts)
	if err != nil {
		return dal.Document{}, err
	}
	if err := checkRows(doc); err != nil {
		return dal.Document{}, err
	}
	return doc, nil
}

// maybeGunzip sniffs the gzip magic rather than trusting the file name
func maybeGunzip(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if len(head) < len(gzipMagic) || head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return br, func() {}, nil
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, err
	}
	return gz, func() { _ = gz.Close() }, nil
}

// checkRows rejects rows that are not arrays; headers and rows are otherwise free-form
func checkRows(doc dal.Document) error {
	for i, row := range doc.Rows {
		if row == nil {
			return perr.WithField(perr.Validationf("row %d is not an array", i), "rows")
		}
	}
	return nil
}

// Discover lists *.json and *.json.gz snapshots directly under dir, sorted by name.
// Snapshot names embed their export time, so name order is chronological order
func Discover(dir string) ([]dal.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "snapshot: read dir %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, extJSON) || strings.HasSuffix(name, extJSONGz) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	slices.Sort(paths)
	return dal.Sources(paths...), nil
}

// Resolve expands every directory argument with Discover and merges the result with the
// file arguments, sorted by file name and then path. Repeated paths are kept once
func Resolve(args ...string) ([]dal.Source, error) {
	var out []dal.Source
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "snapshot: %s", a)
		}
		if !fi.IsDir() {
			out = append(out, dal.Source{Path: a})
			continue
		}
		found, err := Discover(a)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, perr.NotFoundf("snapshot: no snapshots in %s", strings.Join(args, ", "))
	}
	slices.SortFunc(out, func(a, b dal.Source) int {
		if c := strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path)); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return slices.Compact(out), nil
}

// Describe summarizes a source list for logs
func Describe(srcs []dal.Source) string {
	switch len(srcs) {
	case 0:
		return "no sources"
	case 1:
		return srcs[0].Path
	default:
		return fmt.Sprintf("%d sources, %s .. %s", len(srcs), filepath.Base(srcs[0].Path), filepath.Base(srcs[len(srcs)-1].Path))
	}
}
