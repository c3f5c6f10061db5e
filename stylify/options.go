package stylify

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html/atom"

	"stylify/css"
)

// MaxRepairAttempts limits configurable number of CSS repair rounds.
const MaxRepairAttempts = 16

// Options controls a single scoping run.
type Options struct {
	// NormalizeHTML renames html and body to ReplaceElement, hides head and
	// strips meta, title, comment and doctype nodes.
	NormalizeHTML bool
	// ReplaceElement is the element html and body become when normalizing.
	ReplaceElement string
	// RemoveScripts strips script elements.
	RemoveScripts bool
	// UniqueSuffix replaces generated marker, used for reproducible output.
	UniqueSuffix string
	// RepairAttempts bounds number of malformed CSS rules removed per style
	// block before falling back to lenient parsing.
	RepairAttempts int
	// XHTML selects XHTML serialization instead of HTML.
	XHTML bool
}

// DefaultOptions returns options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ReplaceElement: "div",
		RemoveScripts:  true,
		RepairAttempts: css.DefaultRepairAttempts,
	}
}

var (
	reSuffix  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	reElement = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Keygen: true, atom.Link: true, atom.Meta: true, atom.Param: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

// normalize validates options and fills defaults.
func (o Options) normalize() (Options, error) {
	o.ReplaceElement = strings.ToLower(strings.TrimSpace(o.ReplaceElement))
	if o.ReplaceElement == "" {
		o.ReplaceElement = "div"
	}
	if !reElement.MatchString(o.ReplaceElement) {
		return o, fmt.Errorf("replacement element %q is not a valid element name", o.ReplaceElement)
	}
	a := atom.Lookup([]byte(o.ReplaceElement))
	if a == 0 && !strings.Contains(o.ReplaceElement, "-") {
		return o, fmt.Errorf("replacement element %q is not a known HTML element", o.ReplaceElement)
	}
	if voidElements[a] {
		return o, fmt.Errorf("replacement element %q cannot have content", o.ReplaceElement)
	}

	if o.UniqueSuffix != "" && !reSuffix.MatchString(o.UniqueSuffix) {
		return o, fmt.Errorf("unique suffix %q may only contain letters, digits, '-' and '_'", o.UniqueSuffix)
	}

	if o.RepairAttempts < 0 || o.RepairAttempts > MaxRepairAttempts {
		return o, fmt.Errorf("repair attempts %d out of range [0, %d]", o.RepairAttempts, MaxRepairAttempts)
	}
	return o, nil
}
