package config

import (
	"fmt"
	"strings"
)

// OutputFmt selects serialization of processed documents.
type OutputFmt int

const (
	OutputFmtHTML OutputFmt = iota
	OutputFmtXHTML
)

var outputFmtNames = []string{"html", "xhtml"}

// OutputFmtNames returns list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) String() string {
	if o.IsValid() {
		return outputFmtNames[o]
	}
	return fmt.Sprintf("OutputFmt(%d)", int(o))
}

// IsValid reports whether o is one of defined formats.
func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

// Ext returns file extension (with dot) for the format.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtXHTML:
		return ".xhtml"
	default:
		return ".html"
	}
}

// ParseOutputFmt converts string (case insensitive) to OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmtHTML, fmt.Errorf("%q is not a valid output format, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("unable to marshal %s", o)
	}
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
