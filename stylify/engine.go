// Package stylify scopes CSS embedded into an HTML document to the document's
// own elements, so the markup can be injected into a foreign page without
// its styles leaking out.
package stylify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"stylify/css"
	"stylify/dom"
	"stylify/scope"
)

// Engine processes documents. Engine keeps no per document state and may be
// used from several goroutines at once.
type Engine struct {
	log  *zap.Logger
	opts Options
}

// Result is everything a single Process call produced.
type Result struct {
	Root            *html.Node
	HTML            string
	Stylesheets     []*css.Stylesheet
	ScopedTypeNames scope.TypeNames
	Marker          string
	Title           string // text of the first <title>, if any
	CSSErrors       int    // residual CSS errors which survived repair
	Violations      int    // constructs left unscoped because of unexpected structure
}

// New creates engine with validated options.
func New(log *zap.Logger, opts Options) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, fmt.Errorf("bad options: %w", err)
	}
	return &Engine{log: log.Named("stylify"), opts: opts}, nil
}

// Options returns effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// ProcessBytes decodes data (see dom.Decode) and processes it.
func (e *Engine) ProcessBytes(data []byte, contentType string) (*Result, error) {
	if err := checkBinary(data); err != nil {
		return nil, err
	}
	raw, err := dom.Decode(data, contentType)
	if err != nil {
		return nil, &InvalidInputError{Reason: "unable to decode", Err: err}
	}
	return e.Process(raw)
}

// Process scopes raw markup. Input errors are reported before anything is
// modified, CSS problems are logged and counted but never fail the call.
func (e *Engine) Process(raw string) (*Result, error) {
	if err := checkInput(raw); err != nil {
		return nil, err
	}

	marker := e.opts.UniqueSuffix
	if marker == "" {
		var err error
		if marker, err = newMarker(); err != nil {
			return nil, err
		}
	}
	log := e.log.With(zap.String("marker", marker))

	root, err := dom.Parse(raw)
	if err != nil {
		return nil, &HTMLParseError{Err: err}
	}

	w := newWalker(log, e.opts, marker)
	w.run(root)

	var sb strings.Builder
	if e.opts.XHTML {
		err = dom.RenderXHTML(&sb, root)
	} else {
		err = dom.Render(&sb, root)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to serialize document: %w", err)
	}

	res := &Result{
		Root:            root,
		HTML:            sb.String(),
		Stylesheets:     w.sheets,
		ScopedTypeNames: w.names,
		Marker:          marker,
		Title:           w.title,
		CSSErrors:       w.cssErrors,
		Violations:      w.rewriter.Violations(),
	}
	log.Debug("Document scoped",
		zap.Int("stylesheets", len(res.Stylesheets)),
		zap.Strings("types", res.ScopedTypeNames.Sorted()),
		zap.Int("css_errors", res.CSSErrors),
		zap.Int("violations", res.Violations))
	return res, nil
}
