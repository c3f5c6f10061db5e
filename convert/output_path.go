package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"stylify/config"
	"stylify/state"
	"stylify/stylify"
)

// buildOutputPath returns output file path for processed document. Default
// name is source base name with extension of the output format, user may
// supply name template instead. Source directory structure is kept unless
// NoDirs is requested.
func buildOutputPath(res *stylify.Result, src, dst string, format config.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, format, env)

	tmpl := env.Cfg.Output.NameTemplate
	if tmpl == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expanded, err := expandTemplate(config.NameTemplateFieldName, tmpl, newValues(config.NameTemplateFieldName, res, src, format))
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}
	expanded = strings.TrimSpace(filepath.FromSlash(expanded))
	if expanded == "" {
		return filepath.Join(outDir, defaultFile)
	}
	return assemblePathWithSubdirs(outDir, expanded, format, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, format config.OutputFmt, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env) + format.Ext()
}

// assemblePathWithSubdirs turns expanded template (which may contain path
// separators) into output path cleaning every segment.
func assemblePathWithSubdirs(outDir, expanded string, format config.OutputFmt, env *state.LocalEnv) string {
	segments := splitPath(expanded)
	if len(segments) == 0 {
		return outDir
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, segment := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(segment, env))
	}
	parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+format.Ext())
	return filepath.Join(parts...)
}

func splitPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
