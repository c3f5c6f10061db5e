package stylify

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// newMarker returns run-unique marker: time ordered UUID as 32 hex digits.
func newMarker() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate marker: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}

// sniffLen is how much of the input is looked at for binary signatures.
const sniffLen = 8192

// checkBinary rejects data which carries a known binary format signature.
func checkBinary(data []byte) error {
	head := data[:min(len(data), sniffLen)]
	if bytes.IndexByte(head, 0) < 0 {
		return nil
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return &InvalidInputError{Reason: "binary content"}
	}
	return &InvalidInputError{Reason: fmt.Sprintf("binary content (%s)", kind.MIME.Value)}
}

func checkInput(raw string) error {
	if !utf8.ValidString(raw) {
		return &InvalidInputError{Reason: "not valid UTF-8"}
	}
	return checkBinary([]byte(raw[:min(len(raw), sniffLen)]))
}
