// Package model generates one Go struct per schema entity into the model
// layer folder.
package model

import (
	"context"
	"path"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/generators/layout"
	"github.com/teranos/loom/render"
	"github.com/teranos/loom/schema"
)

// ID is the generator identifier.
const ID = "loom.model"

// Generator adds <entity>.go files to the model folder once it is attached.
type Generator struct {
	generator.Base
	writer *render.Writer
}

// New creates the model generator.
func New(w *render.Writer) *Generator {
	return &Generator{
		Base: generator.NewBase(ID, generator.Settings{
			Description: "Generates a Go struct per entity",
			Version:     "1.0.0",
			Engine:      "^1.0.0",
			Fields: map[string]generator.Field{
				"generation.format_go": {Type: "boolean", Description: "Run goimports on generated sources", DefaultValue: "true"},
			},
		}),
		writer: w,
	}
}

// SubscribeToEvents implements generator.Generator.
func (g *Generator) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsyncWhere(b, g.onFolderCreated, layout.InLayer[*generation.CreatedArtifact](layout.LayerModel)))
}

func (g *Generator) onFolderCreated(ctx context.Context, e *generation.CreatedArtifact) error {
	s := e.Result.Schema
	if s == nil {
		return nil
	}
	for _, entity := range s.Entities {
		file := artifact.New(artifact.KindFile, FileName(entity))
		src := render.Jen(Struct(e.Artifact.Name(), importPath(s, e.Artifact), entity))
		if err := file.AddDecorator(render.NewFile(g.writer, src)); err != nil {
			return err
		}
		if err := g.AddChildArtifactToParent(ctx, e.Artifact, file, e.Result); err != nil {
			return err
		}
	}
	return nil
}

// FileName returns the file name for an entity: OrderLine -> order_line.go.
func FileName(e schema.Entity) string {
	return inflect.Underscore(e.Name) + ".go"
}

// importPath is the schema's package path joined with the folder's path
// below the project, or "" when the schema declares no package.
func importPath(s *schema.Schema, folder *artifact.Artifact) string {
	if s.Package == "" {
		return ""
	}
	rel := folder.Name()
	for p := folder.Parent(); p != nil && p.Kind() != artifact.KindProject && !p.IsRoot(); p = p.Parent() {
		rel = p.Name() + "/" + rel
	}
	return path.Join(s.Package, rel)
}

// Struct builds the Go source for one entity. A non-empty canonical path is
// written as the canonical import comment on the package clause.
func Struct(pkg, canonical string, e schema.Entity) *jen.File {
	f := jen.NewFile(pkg)
	f.CanonicalPath = canonical
	f.HeaderComment("Code generated by loom. DO NOT EDIT.")

	name := inflect.Camelize(e.Name)
	f.Commentf("%s maps to the %s table.", name, e.TableName())
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		for _, field := range e.Fields {
			column := inflect.Underscore(field.Name)
			g.Id(goName(field.Name)).Add(goType(field)).Tag(map[string]string{
				"json": column,
				"db":   column,
			})
		}
	})

	f.Commentf("TableName returns the table backing %s.", name)
	f.Func().Params(jen.Id(name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(e.TableName())),
	)
	return f
}

// goName converts a column name to an exported identifier, keeping the
// common initialisms upper case.
func goName(field string) string {
	switch c := inflect.Underscore(field); c {
	case "id":
		return "ID"
	case "url":
		return "URL"
	case "uuid":
		return "UUID"
	}
	return inflect.Camelize(field)
}

func goType(f schema.Field) *jen.Statement {
	var t *jen.Statement
	switch f.Type {
	case "string", "text":
		t = jen.String()
	case "int":
		t = jen.Int()
	case "int64":
		t = jen.Int64()
	case "float":
		t = jen.Float64()
	case "bool":
		t = jen.Bool()
	case "time":
		t = jen.Qual("time", "Time")
	case "uuid":
		t = jen.Qual("github.com/google/uuid", "UUID")
	case "bytes":
		return jen.Index().Byte()
	default:
		t = jen.Any()
	}
	if f.Nullable {
		return jen.Op("*").Add(t)
	}
	return t
}
