package convert

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stylify/config"
	"stylify/scope"
	"stylify/stylify"
)

func testResult() *stylify.Result {
	names := scope.NewTypeNames()
	names.Add("h10")
	names.Add("div")
	names.Add("h2")
	return &stylify.Result{
		Marker:          "abc123",
		Title:           "  My Page  ",
		ScopedTypeNames: names,
	}
}

func TestNewValues(t *testing.T) {
	v := newValues(config.NameTemplateFieldName, testResult(), "site/pages/index.htm", config.OutputFmtXHTML)

	want := Values{
		Context:    "name_template",
		SourceFile: "index",
		Format:     "xhtml",
		Marker:     "abc123",
		Title:      "My Page",
		TypeNames:  []string{"div", "h2", "h10"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("newValues() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewValues_NilResult(t *testing.T) {
	v := newValues(config.NameTemplateFieldName, nil, "a.html", config.OutputFmtHTML)
	if v.SourceFile != "a" || v.Format != "html" || v.Marker != "" {
		t.Errorf("newValues() = %+v", v)
	}
}

func TestExpandTemplate(t *testing.T) {
	values := newValues(config.NameTemplateFieldName, testResult(), "index.html", config.OutputFmtHTML)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"simple text", "simple-text", "simple-text"},
		{"source file", "{{ .SourceFile }}", "index"},
		{"title", "{{ .Title }}", "My Page"},
		{"format and marker", "{{ .Format }}/{{ .Marker }}", "html/abc123"},
		{"context", "{{ .Context }}", "name_template"},
		{"sprig functions", "{{ .Title | lower | replace \" \" \"_\" }}", "my_page"},
		{"default", `{{ "" | default .SourceFile }}`, "index"},
		{"type names", `{{ join "-" .TypeNames }}`, "div-h2-h10"},
		{"conditional", "{{ if .Title }}{{ .Title }}{{ else }}{{ .SourceFile }}{{ end }}", "My Page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(config.NameTemplateFieldName, tt.template, values)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_Errors(t *testing.T) {
	values := newValues(config.NameTemplateFieldName, testResult(), "index.html", config.OutputFmtHTML)

	_, err := expandTemplate(config.NameTemplateFieldName, "{{ .Title", values)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "name_template") {
		t.Errorf("error should name the field: %v", err)
	}

	if _, err := expandTemplate(config.NameTemplateFieldName, "{{ .NoSuchField }}", values); err == nil {
		t.Error("expected execution error")
	}
}
