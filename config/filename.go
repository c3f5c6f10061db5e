package config

import (
	"os"
	"strings"
	"unicode"
)

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in file names on current
// platform together with control characters. Leading dots are dropped so
// result never becomes hidden or refers to parent directory.
func CleanFileName(in string) string {
	forbidden := forbiddenFileNameChars + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(forbidden, sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimRight(strings.TrimLeft(out, "."), trailingFileNameChars)
	if len(out) == 0 {
		out = badFileName
	}
	return out
}
