package convert

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// enough for any magic number filetype knows about
const sniffSize = 8192

var htmlExtensions = map[string]struct{}{
	".html":  {},
	".htm":   {},
	".xhtml": {},
}

func hasHTMLExt(name string) bool {
	_, ok := htmlExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile checks if file is a zip archive: extension must match and
// content must look like one.
func isArchiveFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(file)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// looksLikeHTML rejects content filetype recognizes as some binary format.
// HTML itself has no magic so anything else is accepted.
func looksLikeHTML(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	kind, err := filetype.Match(head)
	return err != nil || kind == filetype.Unknown
}

// isHTMLFile checks if file is an HTML document we could process.
func isHTMLFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if !hasHTMLExt(path) {
		return false, nil
	}
	head, err := readHead(file)
	if err != nil {
		return false, err
	}
	return looksLikeHTML(head), nil
}

// isHTMLInArchive is isHTMLFile for archive entries.
func isHTMLInArchive(f *zip.File) (bool, error) {
	if f.FileInfo().IsDir() || !hasHTMLExt(f.Name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return false, err
	}
	return looksLikeHTML(head), nil
}
