package css

import (
	"testing"
)

func TestSpliceString(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		offset int
		insert string
		remove int
		want   string
	}{
		{"insert", "abcdef", 3, "XY", 0, "abcXYdef"},
		{"overwrite", "abcdef", 1, "X", 2, "aXdef"},
		{"remove only", "abcdef", 2, "", 3, "abf"},
		{"append", "abc", 3, "d", 0, "abcd"},
		{"clamp offset", "abc", 10, "d", 0, "abcd"},
		{"clamp remove", "abcdef", 4, "", 100, "abcd"},
		{"negative", "abc", -1, "x", -5, "xabc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spliceString(tt.s, tt.offset, tt.insert, tt.remove); got != tt.want {
				t.Errorf("spliceString(%q, %d, %q, %d) = %q, want %q", tt.s, tt.offset, tt.insert, tt.remove, got, tt.want)
			}
		})
	}
}

func TestExciseRule(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   string
		ok     bool
	}{
		{"middle rule", "a{x:1}\nb{bad}\nc{y:2}", 9, "a{x:1}\nc{y:2}", true},
		{"first rule", "b{bad}c{y:2}", 2, "c{y:2}", true},
		{"nested rule", "@media print{a{x:1}b{bad}}", 21, "@media print{a{x:1}}", true},
		{"stray closing brace", "a{x:1}}b{y:2}", 7, "a{x:1}b{y:2}", true},
		{"error after closing brace", "a{bad}b{y:2}", 6, "b{y:2}", true},
		{"brace inside string", `a{content:"}"}b{bad}c{}`, 16, `a{content:"}"}c{}`, true},
		{"brace inside comment", "a{x:1/*}*/}b{bad}", 13, "a{x:1/*}*/}", true},
		{"unknown position", "a{x:1}", -1, "a{x:1}", false},
		{"position past end", "a{x:1}", 10, "a{x:1}", false},
		{"no closing brace", "a{x:1}b{bad", 8, "a{x:1}b{bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := exciseRule(tt.text, &ParseError{Offset: tt.offset})
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("exciseRule() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorOffset(t *testing.T) {
	tests := []struct {
		text string
		line int
		col  int
		want int
	}{
		{"abc", 1, 1, 0},
		{"abc", 1, 3, 2},
		{"a\nbc", 2, 2, 3},
		{"a\r\nb", 2, 1, 3},
		{"a\rb", 2, 1, 2},
		{"\u00e9{x}", 1, 2, 2},
		{"a\u2028b", 2, 1, 4},
		{"abc", 1, 10, 3},
		{"a", 3, 1, -1},
		{"a", 0, 1, -1},
	}
	for _, tt := range tests {
		if got := errorOffset(tt.text, tt.line, tt.col); got != tt.want {
			t.Errorf("errorOffset(%q, %d, %d) = %d, want %d", tt.text, tt.line, tt.col, got, tt.want)
		}
	}
}
