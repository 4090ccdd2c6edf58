package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NameLayout is the timestamp embedded in exported snapshot names
const NameLayout = "20060102T150405"

// Name returns the file name for a snapshot exported at t
func Name(t time.Time) string {
	return "rescuetime_" + t.Format(NameLayout) + extJSON
}

// WriteFile stores body at path atomically, gzip-compressing when path ends in .gz.
// Existing snapshots are immutable, so an existing path is an error
func WriteFile(path string, body []byte) error {
	if _, err := os.Stat(path); err == nil {
		return &os.PathError{Op: "write", Path: path, Err: os.ErrExist}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	var w io.Writer = out
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(out)
		w = gz
	}
	_, werr := w.Write(body)
	if gz != nil && werr == nil {
		werr = gz.Close()
	}
	if werr == nil {
		werr = out.Sync()
	}
	cerr := out.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}
	return os.Rename(tmp, path)
}

// Marshal renders v as indented JSON without HTML escaping, matching export output
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument marshals doc and stores it at path
func WriteDocument(path string, doc any) error {
	b, err := Marshal(doc)
	if err != nil {
		return err
	}
	return WriteFile(path, b)
}
