package convert

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"stylify/config"
	"stylify/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Output.FileNameTransliterate = transliterate
	cfg.Output.NameTemplate = template

	return &state.LocalEnv{
		Log:    zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func TestBuildOutputPath(t *testing.T) {
	res := testResult()
	src := filepath.Join("site", "pages", "Index Page.html")

	tests := []struct {
		name          string
		noDirs        bool
		transliterate bool
		template      string
		format        config.OutputFmt
		want          string
	}{
		{
			name:   "default name without dirs",
			noDirs: true,
			format: config.OutputFmtHTML,
			want:   filepath.Join("/output", "Index Page.html"),
		},
		{
			name:   "default name keeps dirs",
			format: config.OutputFmtXHTML,
			want:   filepath.Join("/output", "site", "pages", "Index Page.xhtml"),
		},
		{
			name:          "transliterated default name",
			noDirs:        true,
			transliterate: true,
			format:        config.OutputFmtHTML,
			want:          filepath.Join("/output", "index-page.html"),
		},
		{
			name:     "template",
			noDirs:   true,
			template: "{{ .Title }}-{{ .Marker }}",
			format:   config.OutputFmtHTML,
			want:     filepath.Join("/output", "My Page-abc123.html"),
		},
		{
			name:     "template with subdirectories",
			noDirs:   true,
			template: "{{ .Format }}/{{ .SourceFile }}",
			format:   config.OutputFmtXHTML,
			want:     filepath.Join("/output", "xhtml", "Index Page.xhtml"),
		},
		{
			name:          "template transliterated segments",
			template:      "Web Pages/{{ .Title }}",
			transliterate: true,
			format:        config.OutputFmtHTML,
			want:          filepath.Join("/output", "site", "pages", "web-pages", "my-page.html"),
		},
		{
			name:     "broken template falls back to default",
			noDirs:   true,
			template: "{{ .Title",
			format:   config.OutputFmtHTML,
			want:     filepath.Join("/output", "Index Page.html"),
		},
		{
			name:     "empty expansion falls back to default",
			noDirs:   true,
			template: "{{ if false }}x{{ end }}",
			format:   config.OutputFmtHTML,
			want:     filepath.Join("/output", "Index Page.html"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)
			got := buildOutputPath(res, src, "/output", tt.format, env)
			if got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		in   string
		want []string
	}{
		{"a", []string{"a"}},
		{"a" + sep + "b" + sep + "c", []string{"a", "b", "c"}},
		{"a" + sep + sep + "b" + sep, []string{"a", "b"}},
		{".." + sep + "a", []string{"a"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitPath(tt.in)); diff != "" {
			t.Errorf("splitPath(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestCleanPathSegment(t *testing.T) {
	env := setupTestEnvForOutputPath(t, false, false, "")
	if got := cleanPathSegment("..hidden", env); got != "hidden" {
		t.Errorf("cleanPathSegment() = %q", got)
	}
	if got := cleanPathSegment("", env); got != "_bad_file_name_" {
		t.Errorf("cleanPathSegment() = %q", got)
	}

	env.Cfg.Output.FileNameTransliterate = true
	if got := cleanPathSegment("Привет Мир", env); got != "privet-mir" {
		t.Errorf("cleanPathSegment() = %q", got)
	}
}
