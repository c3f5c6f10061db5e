package dom

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw document bytes to string. Encoding is taken from BOM,
// contentType (may be empty) or <meta> prescan, UTF-8 is assumed otherwise.
// UTF-8 input is returned without validation (callers check it).
func Decode(data []byte, contentType string) (string, error) {
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" || enc == nil {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("unable to decode %s input: %w", name, err)
	}
	return string(out), nil
}
