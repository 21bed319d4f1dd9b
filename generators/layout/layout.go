// Package layout creates the project skeleton: one project artifact named
// after the schema and one folder per architecture layer.
package layout

import (
	"context"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/render"
)

// ID is the generator identifier.
const ID = "loom.layout"

// Well-known layers.
const (
	LayerModel = "model"
	LayerStore = "store"
)

// LayerKey is the decorator key of Layer.
const LayerKey = "layout.layer"

// Layer marks a folder as the home of one architecture layer.
type Layer struct {
	Name string
}

func (l *Layer) Key() string            { return LayerKey }
func (l *Layer) Kinds() []artifact.Kind { return []artifact.Kind{artifact.KindFolder} }

// LayerOf returns the layer name of a, or "" when a is not a layer folder.
func LayerOf(a *artifact.Artifact) string {
	if l, ok := artifact.DecoratorOf[*Layer](a); ok {
		return l.Name
	}
	return ""
}

// InLayer returns a filter accepting artifact events whose target is the
// folder of the given layer.
func InLayer[E generation.ArtifactEvent](layer string) func(E) bool {
	return func(e E) bool {
		t := e.Target()
		return t.Kind() == artifact.KindFolder && LayerOf(t) == layer
	}
}

// CreatingFolder is published for every layer folder before it is attached
// to the project. Handlers may add children to Folder.
type CreatingFolder struct {
	Result *generation.Result
	Folder *artifact.Artifact
	Layer  string
}

func (e *CreatingFolder) RunResult() *generation.Result { return e.Result }

// Generator builds the skeleton.
type Generator struct {
	generator.Base
	writer *render.Writer
	layers []string
}

// New creates the layout generator. With no layers the model and store
// layers are created.
func New(w *render.Writer, layers ...string) *Generator {
	if len(layers) == 0 {
		layers = []string{LayerModel, LayerStore}
	}
	return &Generator{
		Base: generator.NewBase(ID, generator.Settings{
			Description: "Creates the project folder and one folder per layer",
			Version:     "1.0.0",
			Engine:      "^1.0.0",
			Fields: map[string]generator.Field{
				"layout.layers": {Type: "array", Description: "Layer folders to create", DefaultValue: "model,store"},
			},
		}),
		writer: w,
		layers: layers,
	}
}

// SubscribeToEvents implements generator.Generator.
func (g *Generator) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsync(b, g.onCreatingRoot))
}

func (g *Generator) onCreatingRoot(ctx context.Context, e *generation.CreatingRootArtifact) error {
	name := e.Root().Name()
	if s := e.Result.Schema; s != nil && s.Name != "" {
		name = s.Name
	}

	project := artifact.New(artifact.KindProject, name)
	if err := project.AddDecorator(render.NewFolder(g.writer)); err != nil {
		return err
	}
	if err := g.AddChildArtifactToParent(ctx, e.Root().Artifact, project, e.Result); err != nil {
		return err
	}

	for _, layer := range g.layers {
		folder := artifact.New(artifact.KindFolder, layer)
		if err := folder.AddDecorator(&Layer{Name: layer}); err != nil {
			return err
		}
		if err := folder.AddDecorator(render.NewFolder(g.writer)); err != nil {
			return err
		}

		if err := bus.PublishAsync(ctx, g.Bus(), &CreatingFolder{Result: e.Result, Folder: folder, Layer: layer}); err != nil {
			return errors.Wrapf(err, "creating %s folder", layer)
		}
		if err := g.AddChildArtifactToParent(ctx, project, folder, e.Result); err != nil {
			return err
		}
	}
	return nil
}
