// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipTar(t *testing.T, write func(tw *tar.Writer)) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	write(tw)
	// Close reports entries whose content was never written; the header is
	// already in the buffer, which is all the rejection cases need.
	_ = tw.Close()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err := gw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return gzBuf.Bytes()
}

func TestCreateArchive_Reproducible(t *testing.T) {
	t.Parallel()

	epoch := time.Unix(1700000000, 0).UTC()
	files := []ArchiveFile{
		{Name: "vehicles.xosc", Content: []byte("<v/>")},
		{Name: "controllers.xosc", Content: []byte("<c/>")},
	}
	reversed := []ArchiveFile{files[1], files[0]}

	gz1, tar1, err := CreateArchive(files, epoch)
	require.NoError(t, err)
	gz2, tar2, err := CreateArchive(reversed, epoch)
	require.NoError(t, err)

	assert.Equal(t, gz1, gz2, "input order must not change the archive")
	assert.Equal(t, tar1, tar2)

	gz3, _, err := CreateArchive(files, epoch.Add(time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, gz1, gz3, "epoch is part of the archive")
}

func TestCreateArchive_RoundTrip(t *testing.T) {
	t.Parallel()

	gz, _, err := CreateArchive([]ArchiveFile{
		{Name: "b.xosc", Content: []byte("second")},
		{Name: "a.xosc", Content: []byte("first")},
	}, time.Time{})
	require.NoError(t, err)

	files, err := ExtractArchive(gz)
	require.NoError(t, err)
	assert.Equal(t, []ArchiveFile{
		{Name: "a.xosc", Content: []byte("first")},
		{Name: "b.xosc", Content: []byte("second")},
	}, files)
}

func TestCreateArchive_RejectsNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", ".", "..", "dir/a.xosc", `dir\a.xosc`, "../a.xosc"} {
		_, _, err := CreateArchive([]ArchiveFile{{Name: name}}, time.Time{})
		assert.Error(t, err, "name %q", name)
	}
}

func TestExtractArchive_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(tw *tar.Writer)
	}{
		{
			name: "path traversal",
			write: func(tw *tar.Writer) {
				_ = tw.WriteHeader(&tar.Header{Name: "../evil.xosc", Mode: 0o644, Typeflag: tar.TypeReg})
			},
		},
		{
			name: "nested path",
			write: func(tw *tar.Writer) {
				_ = tw.WriteHeader(&tar.Header{Name: "sub/a.xosc", Mode: 0o644, Typeflag: tar.TypeReg})
			},
		},
		{
			name: "symlink",
			write: func(tw *tar.Writer) {
				_ = tw.WriteHeader(&tar.Header{Name: "a.xosc", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink})
			},
		},
		{
			name: "directory",
			write: func(tw *tar.Writer) {
				_ = tw.WriteHeader(&tar.Header{Name: "dir", Mode: 0o755, Typeflag: tar.TypeDir})
			},
		},
		{
			name: "oversized entry",
			write: func(tw *tar.Writer) {
				_ = tw.WriteHeader(&tar.Header{Name: "big.xosc", Size: MaxArchiveFileSize + 1, Mode: 0o644, Typeflag: tar.TypeReg})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractArchive(gzipTar(t, tt.write))
			assert.Error(t, err)
		})
	}

	t.Run("not gzip", func(t *testing.T) {
		t.Parallel()
		_, err := ExtractArchive([]byte("plain"))
		assert.Error(t, err)
	})
}
