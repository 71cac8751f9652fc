// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"
)

// gzipOSUnknown is the "unknown" OS value of RFC 1952 gzip headers.
const gzipOSUnknown = 255

// MaxArchiveSize bounds the decompressed size of a bundle layer.
const MaxArchiveSize = 100 * 1024 * 1024

// MaxArchiveFileSize bounds the size of a single bundled file.
const MaxArchiveFileSize = 16 * 1024 * 1024

// ArchiveFile is one file of a bundle layer.
type ArchiveFile struct {
	Name    string
	Content []byte
}

// CreateArchive builds a reproducible tar.gz of files. Entries are sorted by
// name, carry no ownership and are stamped with epoch. It returns the
// compressed and the uncompressed archive.
func CreateArchive(files []ArchiveFile, epoch time.Time) (compressed, uncompressed []byte, err error) {
	if epoch.IsZero() {
		epoch = time.Unix(0, 0).UTC()
	}

	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b ArchiveFile) int { return strings.Compare(a.Name, b.Name) })

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, f := range sorted {
		if err := validateArchiveName(f.Name); err != nil {
			return nil, nil, err
		}
		hdr := &tar.Header{
			Name:     f.Name,
			Size:     int64(len(f.Content)),
			Mode:     0o644,
			ModTime:  epoch,
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, nil, fmt.Errorf("writing tar header for %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Content); err != nil {
			return nil, nil, fmt.Errorf("writing tar content for %s: %w", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing tar writer: %w", err)
	}

	var gzBuf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&gzBuf, gzip.BestCompression)
	if err != nil {
		return nil, nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	gw.ModTime = epoch
	gw.OS = gzipOSUnknown
	if _, err := gw.Write(tarBuf.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("writing gzip data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return gzBuf.Bytes(), tarBuf.Bytes(), nil
}

// ExtractArchive reads the files of a tar.gz bundle layer. Only regular
// files at the archive root are accepted.
func ExtractArchive(data []byte) ([]ArchiveFile, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(io.LimitReader(gr, MaxArchiveSize+1))
	var (
		files []ArchiveFile
		total int64
	)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("archive entry %s has disallowed type %d", hdr.Name, hdr.Typeflag)
		}
		if err := validateArchiveName(hdr.Name); err != nil {
			return nil, err
		}
		if hdr.Size > MaxArchiveFileSize {
			return nil, fmt.Errorf("archive entry %s exceeds maximum size of %d bytes", hdr.Name, MaxArchiveFileSize)
		}

		content, err := io.ReadAll(io.LimitReader(tr, MaxArchiveFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("reading tar content for %s: %w", hdr.Name, err)
		}
		total += int64(len(content))
		if int64(len(content)) > MaxArchiveFileSize || total > MaxArchiveSize {
			return nil, fmt.Errorf("archive entry %s exceeds the size limit", hdr.Name)
		}
		files = append(files, ArchiveFile{Name: hdr.Name, Content: content})
	}
	return files, nil
}

// validateArchiveName accepts plain file names only.
func validateArchiveName(name string) error {
	if name == "" || name == "." || name == ".." || path.Clean(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("archive entry name %q must be a plain file name", name)
	}
	return nil
}
