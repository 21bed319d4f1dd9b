package render

import (
	"context"

	"github.com/teranos/loom/artifact"
)

// Decorator keys.
const (
	FileKey   = "render.file"
	FolderKey = "render.folder"
)

// FileDecorator writes its Source to the artifact's path on materialization.
type FileDecorator struct {
	Writer *Writer
	Source Source
}

// NewFile builds a file decorator.
func NewFile(w *Writer, src Source) *FileDecorator {
	return &FileDecorator{Writer: w, Source: src}
}

func (d *FileDecorator) Key() string            { return FileKey }
func (d *FileDecorator) Kinds() []artifact.Kind { return []artifact.Kind{artifact.KindFile} }

// Materialize implements artifact.Materializer.
func (d *FileDecorator) Materialize(ctx context.Context, a *artifact.Artifact) error {
	data, err := d.Source.Render(ctx)
	if err != nil {
		return err
	}
	return d.Writer.WriteFile(a.Path(), data)
}

// FolderDecorator creates the artifact's directory on materialization.
type FolderDecorator struct {
	Writer *Writer
}

// NewFolder builds a folder decorator.
func NewFolder(w *Writer) *FolderDecorator {
	return &FolderDecorator{Writer: w}
}

func (d *FolderDecorator) Key() string { return FolderKey }
func (d *FolderDecorator) Kinds() []artifact.Kind {
	return []artifact.Kind{artifact.KindFolder, artifact.KindProject}
}

// Materialize implements artifact.Materializer.
func (d *FolderDecorator) Materialize(_ context.Context, a *artifact.Artifact) error {
	return d.Writer.EnsureDir(a.Path())
}
