// Package manifest records every generated file in manifest.yaml once the
// tree is complete.
package manifest

import (
	"context"
	"slices"
	"time"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/render"
	"github.com/teranos/loom/version"
)

// ID is the generator identifier.
const ID = "loom.manifest"

// FileName is the name of the generated file.
const FileName = "manifest.yaml"

// Manifest is the document written to manifest.yaml.
type Manifest struct {
	RunID       string        `yaml:"run_id"`
	Schema      string        `yaml:"schema"`
	Engine      string        `yaml:"engine"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Files       []string      `yaml:"files"`
	Tree        artifact.Node `yaml:"tree"`
}

// Generator adds manifest.yaml to the project (or the root when there is none).
type Generator struct {
	generator.Base
	writer *render.Writer
	now    func() time.Time
}

// New creates the manifest generator.
func New(w *render.Writer) *Generator {
	return &Generator{
		Base: generator.NewBase(ID, generator.Settings{
			Description: "Lists every generated file in manifest.yaml",
			Version:     "1.0.0",
			Engine:      "^1.0.0",
		}),
		writer: w,
		now:    time.Now,
	}
}

// SubscribeToEvents implements generator.Generator.
func (g *Generator) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsync(b, g.onCreatedRoot))
}

func (g *Generator) onCreatedRoot(ctx context.Context, e *generation.CreatedRootArtifact) error {
	parent := e.Root().Artifact
	if project, ok := artifact.Find(parent, artifact.OfKind(artifact.KindProject)); ok {
		parent = project
	}

	file := artifact.New(artifact.KindFile, FileName)
	src := render.YAML(func() any { return Build(e.Result, file, g.now()) })
	if err := file.AddDecorator(render.NewFile(g.writer, src)); err != nil {
		return err
	}
	return g.AddChildArtifactToParent(ctx, parent, file, e.Result)
}

// Build describes the result's tree. self is left out of the file list.
func Build(r *generation.Result, self *artifact.Artifact, at time.Time) Manifest {
	m := Manifest{
		RunID:       r.ID,
		Engine:      version.Engine,
		GeneratedAt: at.UTC(),
		Files:       []string{},
		Tree:        artifact.Snapshot(r.Root.Artifact),
	}
	if r.Schema != nil {
		m.Schema = r.Schema.Name
	}
	for _, f := range artifact.Collect(r.Root.Artifact, artifact.OfKind(artifact.KindFile)) {
		if f != self {
			m.Files = append(m.Files, f.Path())
		}
	}
	slices.Sort(m.Files)
	return m
}
