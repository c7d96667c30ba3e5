// CLAUDE:SUMMARY Safe in-memory archive extraction: zip then tar (gzip/bzip2), count and path-traversal limits.
// Package archive decodes downloaded source archives into an in-memory
// file set.
//
// Container detection tries zip first, then tar with transparent
// decompression. Directory entries are skipped; every member counts
// against the file limit. Member paths that would resolve outside the
// extraction root are rejected regardless of container format.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrExtraction is returned for oversized, corrupt or unsafe archives.
var ErrExtraction = errors.New("archive: extraction failed")

// gzipMagic and bzip2Magic identify the compression wrapping a tar stream.
var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
)

// Extract decodes data into a path→content map, allowing at most maxFiles
// archive members. Identical input bytes always yield an identical result.
func Extract(data []byte, maxFiles int) (map[string][]byte, error) {
	files, zipErr := extractZip(data, maxFiles)
	if zipErr == nil {
		return files, nil
	}
	// Count and traversal violations are final, not a format mismatch.
	if errors.Is(zipErr, ErrExtraction) {
		return nil, zipErr
	}

	files, tarErr := extractTar(data, maxFiles)
	if tarErr == nil {
		return files, nil
	}
	if errors.Is(tarErr, ErrExtraction) {
		return nil, tarErr
	}
	return nil, fmt.Errorf("%w: not a zip (%v) or tar (%v) archive", ErrExtraction, zipErr, tarErr)
}

// extractZip reads a zip archive. A non-ErrExtraction return means the
// data is not zip at all and tar should be tried.
func extractZip(data []byte, maxFiles int) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: unsafe member path in zip: %v", ErrExtraction, err)
	}
	if err != nil {
		return nil, err
	}
	if len(zr.File) > maxFiles {
		return nil, tooManyFiles(len(zr.File), maxFiles)
	}

	files := make(map[string][]byte)
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		if err := checkMemberPath(zf.Name); err != nil {
			return nil, err
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open member %s: %v", ErrExtraction, zf.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read member %s: %v", ErrExtraction, zf.Name, err)
		}
		files[zf.Name] = content
	}
	return files, nil
}

// extractTar reads a tar archive, unwrapping gzip or bzip2 when present.
func extractTar(data []byte, maxFiles int) (map[string][]byte, error) {
	var r io.Reader = bytes.NewReader(data)
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(data, bzip2Magic):
		r = bzip2.NewReader(r)
	}

	tr := tar.NewReader(r)
	files := make(map[string][]byte)
	members := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		members++
		if members > maxFiles {
			return nil, tooManyFiles(members, maxFiles)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := checkMemberPath(hdr.Name); err != nil {
			return nil, err
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: read member %s: %v", ErrExtraction, hdr.Name, err)
		}
		files[hdr.Name] = content
	}
	if members == 0 {
		// Empty tar streams parse trivially; treat as a format mismatch so
		// garbage input reports "not an archive" instead of zero files.
		return nil, errors.New("no tar members found")
	}
	return files, nil
}

// checkMemberPath rejects members that would escape the extraction root.
func checkMemberPath(name string) error {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSuffix(name, "/")))
	if cleaned == "." || !filepath.IsLocal(cleaned) {
		return fmt.Errorf("%w: unsafe member path %q", ErrExtraction, name)
	}
	return nil
}

func tooManyFiles(n, maxFiles int) error {
	return fmt.Errorf("%w: archive contains too many files: %d > %d", ErrExtraction, n, maxFiles)
}
