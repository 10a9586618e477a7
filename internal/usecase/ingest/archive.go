package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/parse"
)

// entry is one candidate file pulled out of the upload archive.
type entry struct {
	name string // base name, used as the chunk source
	data []byte
}

// enumerateArchive validates the zip container and extracts parseable
// entries. Unsupported extensions are returned in skipped; oversized files
// are surfaced to the caller as failures, not here.
func enumerateArchive(archive []byte, maxFileBytes int64) (entries []entry, skipped []string, oversized []string, err error) {
	zr, zipErr := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if zipErr != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidArchive, zipErr)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if hiddenPath(f.Name) {
			continue
		}

		base := path.Base(f.Name)
		if !parse.Supported(base) {
			skipped = append(skipped, base)
			continue
		}
		if f.UncompressedSize64 > uint64(maxFileBytes) {
			oversized = append(oversized, base)
			continue
		}

		data, readErr := readEntry(f, maxFileBytes)
		if readErr != nil {
			return nil, nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArchive, f.Name, readErr)
		}
		entries = append(entries, entry{name: base, data: data})
	}

	return entries, skipped, oversized, nil
}

// hiddenPath reports whether any segment is hidden or macOS resource junk.
func hiddenPath(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == "__MACOSX" || strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// readEntry decompresses one file, refusing to inflate past the limit
// (declared sizes in zip headers are not trusted).
func readEntry(f *zip.File, maxFileBytes int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxFileBytes {
		return nil, fmt.Errorf("entry inflates past %d bytes", maxFileBytes)
	}
	return data, nil
}
