package stylify_test

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"stylify/dom"
	"stylify/stylify"
)

func newEngine(t *testing.T, mod func(*stylify.Options)) *stylify.Engine {
	t.Helper()
	opts := stylify.DefaultOptions()
	opts.UniqueSuffix = "m"
	if mod != nil {
		mod(&opts)
	}
	e, err := stylify.New(zaptest.NewLogger(t), opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func process(t *testing.T, e *stylify.Engine, raw string) *stylify.Result {
	t.Helper()
	res, err := e.Process(raw)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	return res
}

func TestProcess_Scenario(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "t1" })

	res := process(t, e, `<style type="text/css">div{color:red}</style><div>hi</div>`)

	want := `<style type="text/css">.div-t1{color:red}</style><div class="div-t1">hi</div>`
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if res.Marker != "t1" {
		t.Errorf("Marker = %q", res.Marker)
	}
	if diff := cmp.Diff([]string{"div"}, res.ScopedTypeNames.Sorted()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if len(res.Stylesheets) != 1 || res.Stylesheets[0].String() != ".div-t1{color:red}" {
		t.Errorf("unexpected stylesheets: %v", res.Stylesheets)
	}
}

func TestProcess_SelectorForms(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want string
	}{
		{"bare", "div{x:1}", ".div-m{x:1}"},
		{"child", "div > span{x:1}", ".div-m > .span-m{x:1}"},
		{"attribute", "a[href]{x:1}", ".a-m[href]{x:1}"},
		{"pseudo", "a:hover{x:1}", ".a-m:hover{x:1}"},
		{"class kept", ".foo{x:1}", ".foo{x:1}"},
		{"id kept", "#bar{x:1}", "#bar{x:1}"},
		{"qualified kept", "div.foo{x:1}", "div.foo{x:1}"},
		{"dot in attribute kept", `a[href$=".pdf"]{x:1}`, `a[href$=".pdf"]{x:1}`},
		{"negated class kept", "li:not(.x){x:1}", "li:not(.x){x:1}"},
		{"list", "h1,h2{x:1}", ".h1-m,.h2-m{x:1}"},
		{"media", "@media print{p{x:1}}", "@media print{.p-m{x:1}}"},
	}
	e := newEngine(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := process(t, e, "<style>"+tt.css+"</style>")
			if got := res.Stylesheets[0].String(); got != tt.want {
				t.Errorf("CSS = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcess_SameMarkerIsIdempotent(t *testing.T) {
	input := `<style>div > p, a:hover, .x{color:red}</style><div><p>1</p><a href="#">2</a></div>`

	a := process(t, newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "aa" }), input)
	b := process(t, newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "aa" }), input)
	if a.HTML != b.HTML {
		t.Errorf("same marker, different output:\n%s\n%s", a.HTML, b.HTML)
	}

	c := process(t, newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "bb" }), input)
	if got := strings.ReplaceAll(c.HTML, "-bb", "-aa"); got != a.HTML {
		t.Errorf("different markers differ in more than suffix:\n%s\n%s", a.HTML, c.HTML)
	}
}

func TestProcess_GeneratedMarker(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "" })
	input := `<style>div{}</style><div></div>`

	a := process(t, e, input)
	b := process(t, e, input)

	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)
	if !hex32.MatchString(a.Marker) || !hex32.MatchString(b.Marker) {
		t.Errorf("unexpected marker format %q, %q", a.Marker, b.Marker)
	}
	if a.Marker == b.Marker {
		t.Error("marker reused across calls")
	}
	if !strings.Contains(a.HTML, `class="div-`+a.Marker+`"`) {
		t.Errorf("marker not applied: %s", a.HTML)
	}
}

func TestProcess_EveryScopedElementAnnotated(t *testing.T) {
	e := newEngine(t, nil)
	res := process(t, e, `<div><p>a</p><section><p class="k">b</p><span>c</span></section></div>`+
		`<style>p, section > span{}</style><p>d</p>`)

	var walk func(*html.Node)
	count := 0
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			cls, _ := dom.Attr(n, "class")
			has := strings.Contains(" "+cls+" ", " "+n.Data+"-m ")
			if want := res.ScopedTypeNames.Has(n.Data); has != want {
				t.Errorf("<%s class=%q>: annotated=%v, want %v", n.Data, cls, has, want)
			}
			if has {
				count++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(res.Root)

	if count != 5 {
		t.Errorf("annotated %d elements, want 5", count)
	}
	if !strings.Contains(res.HTML, `<p class="k p-m">b</p>`) {
		t.Errorf("existing class not kept: %s", res.HTML)
	}
}

func TestProcess_MalformedCSS(t *testing.T) {
	e := newEngine(t, nil)
	res := process(t, e, "<style>div{color:red}\np{color red}\nspan{color:blue}</style><div></div><span></span>")

	css := res.Stylesheets[0].String()
	for _, want := range []string{".div-m{color:red}", ".span-m{color:blue}"} {
		if !strings.Contains(css, want) {
			t.Errorf("CSS %q does not contain %q", css, want)
		}
	}
	if !strings.Contains(res.HTML, `<div class="div-m"></div><span class="span-m"></span>`) {
		t.Errorf("elements not annotated: %s", res.HTML)
	}
}

func TestProcess_MalformedCSSWithoutRepair(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.RepairAttempts = 0 })
	res := process(t, e, "<style>a{x y}\nspan{color:blue}</style><span></span>")

	if res.CSSErrors == 0 {
		t.Error("expected residual CSS errors to be counted")
	}
	if !strings.Contains(res.Stylesheets[0].String(), ".span-m{color:blue}") {
		t.Errorf("valid rule not scoped: %s", res.Stylesheets[0])
	}
}

func TestProcess_RemoveScripts(t *testing.T) {
	input := `<div><b>1</b></div><script>alert(1)</script><div><i>2</i></div>`

	res := process(t, newEngine(t, nil), input)
	if res.HTML != `<div><b>1</b></div><div><i>2</i></div>` {
		t.Errorf("HTML = %q", res.HTML)
	}
	children := dom.Children(res.Root)
	if len(children) != 2 || children[0].NextSibling != children[1] {
		t.Errorf("expected two adjacent divs:\n%s", dom.Dump(res.Root))
	}

	kept := process(t, newEngine(t, func(o *stylify.Options) { o.RemoveScripts = false }), input)
	if kept.HTML != input {
		t.Errorf("HTML = %q, want input unchanged", kept.HTML)
	}
}

func TestProcess_Normalize(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.NormalizeHTML = true })
	res := process(t, e, `<!DOCTYPE html><html class="x"><head><meta charset="utf-8"><title>T</title>`+
		`<style>html{margin:0}</style></head><body><!-- c --><p>x</p><script>y()</script></body></html>`)

	want := `<div class="x html-m"><span style="display:none"><style>.html-m{margin:0}</style></span>` +
		`<div><p>x</p></div></div>`
	if res.HTML != want {
		t.Errorf("HTML mismatch:\n got %s\nwant %s", res.HTML, want)
	}
	if res.Title != "T" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.ScopedTypeNames.Has("html") {
		t.Errorf("renamed element still reported: %v", res.ScopedTypeNames.Sorted())
	}
}

func TestProcess_NormalizeCustomElement(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) {
		o.NormalizeHTML = true
		o.ReplaceElement = "Section"
	})
	res := process(t, e, `<html><body><p>x</p></body></html>`)

	want := `<section><span style="display:none"></span><section><p>x</p></section></section>`
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
}

func TestProcess_WithoutNormalizeDocumentKept(t *testing.T) {
	e := newEngine(t, nil)
	res := process(t, e, `<!DOCTYPE html><html><head><title>T</title><style>body{margin:0}</style></head><body></body></html>`)

	want := `<!DOCTYPE html><html><head><title>T</title><style>.body-m{margin:0}</style></head><body class="body-m"></body></html>`
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if diff := cmp.Diff([]string{"body"}, res.ScopedTypeNames.Sorted()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_NonCSSStyleUntouched(t *testing.T) {
	input := `<style type="text/less">div{}</style><div></div>`
	res := process(t, newEngine(t, nil), input)

	if res.HTML != input {
		t.Errorf("HTML = %q", res.HTML)
	}
	if res.ScopedTypeNames.Len() != 0 {
		t.Errorf("unexpected names %v", res.ScopedTypeNames.Sorted())
	}
}

func TestProcess_KeyframesAndNesting(t *testing.T) {
	res := process(t, newEngine(t, nil), `<style>@keyframes k{from{opacity:0}to{opacity:1}}`+
		`@media print{@supports (display:grid){div{x:1}}}</style><div></div>`)

	if res.ScopedTypeNames.Len() != 0 {
		t.Errorf("unexpected names %v", res.ScopedTypeNames.Sorted())
	}
	if res.Violations != 1 {
		t.Errorf("Violations = %d, want 1", res.Violations)
	}
	if !strings.Contains(res.HTML, "@supports (display:grid){div{x:1}}") {
		t.Errorf("nested rule changed: %s", res.HTML)
	}
}

func TestProcess_XHTML(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.XHTML = true })
	res := process(t, e, `<!DOCTYPE html><html><head><style>p > a{x:1}</style></head>`+
		`<body><p>a<br>b <a href="?a=1&b=2">c</a></p></body></html>`)

	doc := etree.NewDocument()
	if err := doc.ReadFromString(res.HTML); err != nil {
		t.Fatalf("not well-formed: %v\n%s", err, res.HTML)
	}
	a := doc.FindElement("//a")
	if a == nil || a.SelectAttrValue("class", "") != "a-m" {
		t.Errorf("anchor not annotated:\n%s", res.HTML)
	}
}

func TestProcess_InvalidInput(t *testing.T) {
	e := newEngine(t, nil)

	tests := []struct {
		name string
		run  func() error
	}{
		{"invalid utf-8", func() error { _, err := e.Process("<p>\xff\xfe</p>"); return err }},
		{"nul bytes", func() error { _, err := e.Process("<p>\x00</p>"); return err }},
		{"png", func() error {
			_, err := e.ProcessBytes([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"), "")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invalid *stylify.InvalidInputError
			if err := tt.run(); !errors.As(err, &invalid) {
				t.Errorf("expected InvalidInputError, got %v", err)
			}
		})
	}
}

func TestProcessBytes_Decodes(t *testing.T) {
	e := newEngine(t, nil)
	res, err := e.ProcessBytes([]byte("<style>b{}</style><b>caf\xe9</b>"), "text/html; charset=windows-1252")
	if err != nil {
		t.Fatalf("ProcessBytes() error: %v", err)
	}
	if !strings.Contains(res.HTML, `<b class="b-m">café</b>`) {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestNew_Options(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*stylify.Options)
		ok   bool
	}{
		{"defaults", func(*stylify.Options) {}, true},
		{"empty element becomes div", func(o *stylify.Options) { o.ReplaceElement = "" }, true},
		{"custom element", func(o *stylify.Options) { o.ReplaceElement = "my-box" }, true},
		{"void element", func(o *stylify.Options) { o.ReplaceElement = "br" }, false},
		{"unknown element", func(o *stylify.Options) { o.ReplaceElement = "frobnicate" }, false},
		{"bad element", func(o *stylify.Options) { o.ReplaceElement = "d iv" }, false},
		{"bad suffix", func(o *stylify.Options) { o.UniqueSuffix = "a b" }, false},
		{"good suffix", func(o *stylify.Options) { o.UniqueSuffix = "run_1-a" }, true},
		{"negative attempts", func(o *stylify.Options) { o.RepairAttempts = -1 }, false},
		{"too many attempts", func(o *stylify.Options) { o.RepairAttempts = stylify.MaxRepairAttempts + 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := stylify.DefaultOptions()
			tt.mod(&opts)
			e, err := stylify.New(zaptest.NewLogger(t), opts)
			if (err == nil) != tt.ok {
				t.Fatalf("New() error = %v, want ok=%v", err, tt.ok)
			}
			if e != nil && e.Options().ReplaceElement == "" {
				t.Error("replacement element not defaulted")
			}
		})
	}
}

func TestEngine_Concurrent(t *testing.T) {
	e := newEngine(t, func(o *stylify.Options) { o.UniqueSuffix = "" })
	input := `<style>div{}</style><div></div>`

	const n = 16
	markers := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Process(input)
			if err != nil {
				t.Errorf("Process() error: %v", err)
				return
			}
			if !strings.Contains(res.HTML, "div-"+res.Marker) {
				t.Errorf("marker %q not in output %q", res.Marker, res.HTML)
			}
			markers[i] = res.Marker
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, m := range markers {
		if seen[m] {
			t.Errorf("marker %q used twice", m)
		}
		seen[m] = true
	}
}
