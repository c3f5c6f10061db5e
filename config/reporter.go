package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/multierr"

	"stylify/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to a temporary file.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report collects files, directories and data for the debug archive. All
// methods are safe to call on nil Report (no report requested).
// NOTE: not to be used concurrently.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close writes the archive and removes stored directories (work copies and
// temporary directories are owned by the report).
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}

	err := r.finalize()
	err = multierr.Append(err, r.file.Close())

	for _, e := range r.entries {
		if e.data != nil || e.actual == "" {
			continue
		}
		if info, serr := os.Stat(e.actual); serr == nil && info.IsDir() {
			err = multierr.Append(err, os.RemoveAll(e.actual))
		}
	}
	return err
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file or directory to be archived under name on Close.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("report entry [%s] stored twice: was %s, now %s", name, old.original, path))
	}

	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData puts data into the archive as file name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("report entry [%s] stored twice", name))
	}
	if data == nil {
		data = []byte{}
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// StoreCopy copies file or directory at path to a temporary location right
// away, so later changes do not affect the report. Repeated names get a time
// stamp suffix.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	e := entry{stamp: time.Now(), original: path}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}

	switch {
	case info.Mode().IsRegular():
		if _, err := copyFile(dir, src, info.ModTime()); err != nil {
			return err
		}
	case info.IsDir():
		if err := copyDir(dir, src); err != nil {
			return err
		}
	}
	e.actual = dir
	r.entries[name] = e
	return nil
}

func copyFile(dir, src string, modTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, os.Chtimes(dst, modTime, modTime)
}

func copyDir(dir, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		_, err = copyFile(filepath.Dir(filepath.Join(dir, rel)), path, info.ModTime())
		return err
	})
}

// finalize writes MANIFEST and all entries into the archive.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names, manifest := prepareManifest(r.entries)
	if err := saveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return multierr.Append(err, arc.Close())
	}

	for _, name := range names {
		if err := r.saveEntry(arc, name, r.entries[name]); err != nil {
			return multierr.Append(err, arc.Close())
		}
	}
	return arc.Close()
}

func (r *Report) saveEntry(arc *zip.Writer, name string, e entry) error {
	if e.data != nil {
		return saveFile(arc, name, e.stamp, bytes.NewReader(e.data))
	}

	info, err := os.Stat(e.actual)
	if err != nil {
		// absent files are skipped
		return nil
	}
	if info.IsDir() {
		return saveDir(arc, name, e.actual)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(e.actual)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(arc, name, info.ModTime(), f)
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now()
	for _, k := range keys {
		e := entries[k]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), k, e.original, e.actual)
	}
	return keys, buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return saveFile(dst, filepath.ToSlash(filepath.Join(name, rel)), info.ModTime(), f)
	})
}
