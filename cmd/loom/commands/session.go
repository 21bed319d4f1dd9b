package commands

import (
	"github.com/teranos/loom/config"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/generators"
	"github.com/teranos/loom/generators/ddl"
	"github.com/teranos/loom/logger"
	"github.com/teranos/loom/orchestrator"
	"github.com/teranos/loom/render"
	"github.com/teranos/loom/schema"
)

// session is one configured orchestrator plus the writer its generators
// share.
type session struct {
	writer   *render.Writer
	registry *generator.Registry
	orch     *orchestrator.Orchestrator
}

func newRegistry(cfg *config.Config, w *render.Writer) (*generator.Registry, error) {
	return generators.Builtin(w, generators.Options{
		Layers:     cfg.Generation.Layers,
		SQLDialect: ddl.Dialect(cfg.Generation.SQLDialect),
		Manifest:   cfg.Generation.Manifest,
	})
}

func newSession(cfg *config.Config) (*session, error) {
	w := render.NewWriter(cfg.Generation.OutputDir,
		render.WithFormatGo(cfg.Generation.FormatGo),
		render.WithWriterLogger(logger.ComponentLogger("loom.render")),
	)
	reg, err := newRegistry(cfg, w)
	if err != nil {
		return nil, err
	}

	policy, ok := orchestrator.ParsePolicy(cfg.Generation.HandlerFailures)
	if !ok {
		return nil, errors.NewInvalidArgumentError("unknown handler failure policy %q", cfg.Generation.HandlerFailures)
	}
	orch, err := orchestrator.New(schema.FileLoader{}, reg.Generators(),
		orchestrator.WithLogger(logger.ComponentLogger("loom.orchestrator")),
		orchestrator.WithHandlerFailures(policy),
		orchestrator.WithWorkers(cfg.Generation.Workers),
	)
	if err != nil {
		return nil, err
	}
	return &session{writer: w, registry: reg, orch: orch}, nil
}

func (s *session) Close() error {
	return s.orch.Close()
}
