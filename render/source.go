package render

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/teranos/loom/errors"
)

// Source produces the bytes of a file artifact.
type Source interface {
	Render(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

// Render implements Source.
func (f SourceFunc) Render(ctx context.Context) ([]byte, error) { return f(ctx) }

// Funcs is the function map available to templates.
func Funcs() template.FuncMap {
	title := cases.Title(language.English)
	return template.FuncMap{
		"title":  title.String,
		"lower":  strings.ToLower,
		"upper":  strings.ToUpper,
		"snake":  inflect.Underscore,
		"camel":  inflect.Camelize,
		"plural": inflect.Pluralize,
		"join":   strings.Join,
	}
}

// ParseTemplate parses text with Funcs installed.
func ParseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(Funcs()).Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "parse template %s", name)
	}
	return t, nil
}

type templateSource struct {
	tmpl *template.Template
	name string
	data any
}

// Template renders the named template of t with data. An empty name
// executes t itself.
func Template(t *template.Template, name string, data any) Source {
	return templateSource{tmpl: t, name: name, data: data}
}

func (s templateSource) Render(context.Context) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if s.name == "" {
		err = s.tmpl.Execute(&buf, s.data)
	} else {
		err = s.tmpl.ExecuteTemplate(&buf, s.name, s.data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "execute template %q", s.tmpl.Name())
	}
	return buf.Bytes(), nil
}

// Jen renders a jennifer file.
func Jen(f *jen.File) Source {
	return SourceFunc(func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := f.Render(&buf); err != nil {
			return nil, errors.Wrap(err, "render go source")
		}
		return buf.Bytes(), nil
	})
}

// YAML marshals v lazily, so the document reflects v at materialization time.
func YAML(v func() any) Source {
	return SourceFunc(func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v()); err != nil {
			return nil, errors.Wrap(err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "encode yaml")
		}
		return buf.Bytes(), nil
	})
}

// Static returns data unchanged.
func Static(data []byte) Source {
	return SourceFunc(func(context.Context) ([]byte, error) { return data, nil })
}
