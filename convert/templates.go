package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"stylify/config"
	"stylify/stylify"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	Format     string
	Marker     string
	Title      string
	TypeNames  []string
}

func newValues(name config.TemplateFieldName, res *stylify.Result, src string, format config.OutputFmt) Values {
	v := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Format:     format.String(),
	}
	if res != nil {
		v.Marker = res.Marker
		v.Title = strings.TrimSpace(res.Title)
		v.TypeNames = res.ScopedTypeNames.Sorted()
	}
	return v
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
