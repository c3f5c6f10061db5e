// Package archive walks documents stored in zip archives.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// MaxEntrySize limits size of a single entry read into memory.
const MaxEntrySize = 64 << 20

// WalkFunc is called for every file entry of the archive whose name starts
// with requested prefix. Returning an error stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits file entries of archive under prefix in archive order.
// Archives having entries with absolute paths or ".." components are
// rejected as a whole.
func Walk(ctx context.Context, archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	prefix = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(prefix, `\`, "/")), "/")

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// EntryName returns entry name. Names not flagged as UTF-8 are converted
// from cp when it is set.
func EntryName(f *zip.File, cp encoding.Encoding) (string, error) {
	if cp == nil || !f.NonUTF8 {
		return f.Name, nil
	}
	name, err := cp.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name, fmt.Errorf("unable to convert entry name %q: %w", f.Name, err)
	}
	return name, nil
}

// ReadEntry returns content of the entry.
func ReadEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, fmt.Errorf("zip entry %q is too large (%d bytes)", f.Name, f.UncompressedSize64)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, MaxEntrySize+1))
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}
