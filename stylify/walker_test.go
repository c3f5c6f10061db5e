package stylify

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"stylify/dom"
)

func TestWalker_NodesVisitedOnce(t *testing.T) {
	root, err := dom.Parse(`<html><head></head><body><style>span, div{}</style><span>a</span></body></html>`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	opts := DefaultOptions()
	opts.NormalizeHTML = true
	opts.ReplaceElement = "span"

	w := newWalker(zaptest.NewLogger(t), opts, "m")
	w.run(root)
	first, err := dom.RenderString(root)
	if err != nil {
		t.Fatalf("RenderString() error: %v", err)
	}

	// body became span, a second pass must not treat it as one
	w.mutate(root)
	second, _ := dom.RenderString(root)
	if first != second {
		t.Errorf("second pass changed the tree:\n%s\n%s", first, second)
	}

	want := `<span><span style="display:none"></span><span><style>.span-m,.div-m{}</style><span class="span-m">a</span></span></span>`
	if first != want {
		t.Errorf("HTML = %q, want %q", first, want)
	}
	if len(w.visited) != 7 {
		t.Errorf("visited %d nodes, want 7", len(w.visited))
	}
}
