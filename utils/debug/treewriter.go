// Package debug has helpers producing human readable dumps for the debug
// report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates an indented, line oriented dump.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: "  ",
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

// Line writes formatted line at requested depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label and quoted value, so control characters and
// whitespace of the value stay visible.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Pairs writes label followed by key=value pairs, values are quoted. Odd
// trailing key is written without value.
func (tw *TreeWriter) Pairs(depth int, label string, kv ...string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	for i := 0; i < len(kv); i += 2 {
		tw.w.WriteByte(' ')
		tw.w.WriteString(kv[i])
		if i+1 < len(kv) {
			tw.w.WriteByte('=')
			tw.w.WriteString(strconv.Quote(kv[i+1]))
		}
	}
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
