// Package generators assembles the generators shipped with loom.
package generators

import (
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/generators/ddl"
	"github.com/teranos/loom/generators/layout"
	"github.com/teranos/loom/generators/manifest"
	"github.com/teranos/loom/generators/model"
	"github.com/teranos/loom/render"
	"github.com/teranos/loom/version"
)

// Options selects how the built-in generators behave.
type Options struct {
	Layers     []string
	SQLDialect ddl.Dialect
	Manifest   bool
}

// Builtin registers the built-in generators writing through w, in
// subscription order.
func Builtin(w *render.Writer, opts Options) (*generator.Registry, error) {
	d, err := ddl.New(w, opts.SQLDialect)
	if err != nil {
		return nil, err
	}

	r := generator.NewRegistry(version.Engine)
	gens := []generator.Generator{
		layout.New(w, opts.Layers...),
		model.New(w),
		d,
	}
	if opts.Manifest {
		gens = append(gens, manifest.New(w))
	}
	for _, g := range gens {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}
