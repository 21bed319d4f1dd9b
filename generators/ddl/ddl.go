// Package ddl writes CREATE TABLE statements for the schema into the store
// layer folder.
package ddl

import (
	"context"
	"text/template"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/generators/layout"
	"github.com/teranos/loom/render"
	"github.com/teranos/loom/schema"
)

// ID is the generator identifier.
const ID = "loom.ddl"

// FileName is the name of the generated file.
const FileName = "schema.sql"

// Dialect selects column types.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var columnTypes = map[Dialect]map[string]string{
	Postgres: {
		"string": "TEXT", "text": "TEXT", "int": "INTEGER", "int64": "BIGINT",
		"float": "DOUBLE PRECISION", "bool": "BOOLEAN", "time": "TIMESTAMPTZ",
		"uuid": "UUID", "bytes": "BYTEA",
	},
	SQLite: {
		"string": "TEXT", "text": "TEXT", "int": "INTEGER", "int64": "INTEGER",
		"float": "REAL", "bool": "INTEGER", "time": "TEXT",
		"uuid": "TEXT", "bytes": "BLOB",
	},
}

const ddlTemplate = `-- Code generated by loom. DO NOT EDIT.
-- dialect: {{ .Dialect }}
{{- range .Schema.Entities }}

CREATE TABLE {{ .TableName }} (
{{- range $i, $f := .Fields }}{{ if $i }},{{ end }}
    {{ snake $f.Name }} {{ column $f }}{{ if $f.PrimaryKey }} PRIMARY KEY{{ else if not $f.Nullable }} NOT NULL{{ end }}
{{- end }}
);
{{- end }}
`

// Generator adds schema.sql to the store folder while it is being created.
type Generator struct {
	generator.Base
	writer  *render.Writer
	dialect Dialect
	tmpl    *template.Template
}

// New creates the ddl generator. An unknown dialect is rejected.
func New(w *render.Writer, dialect Dialect) (*Generator, error) {
	if dialect == "" {
		dialect = Postgres
	}
	types, ok := columnTypes[dialect]
	if !ok {
		return nil, errors.NewInvalidArgumentError("unknown sql dialect %q", dialect)
	}

	tmpl, err := template.New("ddl").
		Funcs(render.Funcs()).
		Funcs(template.FuncMap{"column": func(f schema.Field) string { return types[f.Type] }}).
		Parse(ddlTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse ddl template")
	}

	return &Generator{
		Base: generator.NewBase(ID, generator.Settings{
			Description: "Writes CREATE TABLE statements for every entity",
			Version:     "1.0.0",
			Engine:      "^1.0.0",
			Fields: map[string]generator.Field{
				"generation.sql_dialect": {Type: "string", Description: "postgres or sqlite", DefaultValue: string(Postgres)},
			},
			Templates: []string{"ddl"},
		}),
		writer:  w,
		dialect: dialect,
		tmpl:    tmpl,
	}, nil
}

// SubscribeToEvents implements generator.Generator.
func (g *Generator) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsyncWhere(b, g.onCreatingFolder, func(e *layout.CreatingFolder) bool {
		return e.Layer == layout.LayerStore
	}))
}

func (g *Generator) onCreatingFolder(ctx context.Context, e *layout.CreatingFolder) error {
	s := e.Result.Schema
	if s == nil || len(s.Entities) == 0 {
		e.Result.AddWarning("%s: schema has no entities, %s not generated", ID, FileName)
		return nil
	}

	file := artifact.New(artifact.KindFile, FileName)
	data := struct {
		Dialect Dialect
		Schema  *schema.Schema
	}{g.dialect, s}
	if err := file.AddDecorator(render.NewFile(g.writer, render.Template(g.tmpl, "", data))); err != nil {
		return err
	}
	g.Logger().Debugw("Adding DDL",
		"tables", len(s.Entities),
		"dialect", g.dialect,
	)
	return g.AddChildArtifactToParent(ctx, e.Folder, file, e.Result)
}
