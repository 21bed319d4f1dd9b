// Package orchestrator drives a schema through the generators to a finished
// artifact tree.
//
// Runs follow a fixed phase sequence:
//
//	Initializing → CreatingRootArtifact → RunningGenerators → Finalizing → Completed
//
// RunningGenerators (materialization) is skipped for preview runs.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/logger"
	"github.com/teranos/loom/schema"
)

// Orchestrator owns the bus and the generator wiring. Generators are
// initialized once at construction; every Generate call builds a fresh
// result and tree.
type Orchestrator struct {
	loader     schema.Loader
	generators []generator.Generator
	bus        *bus.Bus

	log     *zap.SugaredLogger
	policy  FailurePolicy
	workers int

	runMu  sync.Mutex // serializes runs
	active atomic.Pointer[generation.Result]
}

// New wires generators to a new bus. Generators are initialized and
// subscribed in the given order.
func New(loader schema.Loader, generators []generator.Generator, opts ...Option) (*Orchestrator, error) {
	if loader == nil {
		return nil, errors.NewInvalidArgumentError("orchestrator requires a schema loader")
	}

	o := &Orchestrator{
		loader:     loader,
		generators: append([]generator.Generator(nil), generators...),
		policy:     PolicyLog,
		workers:    1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, ok := ParsePolicy(string(o.policy)); !ok {
		return nil, errors.NewInvalidArgumentError("unknown handler failure policy %q", o.policy)
	}
	if o.log == nil {
		o.log = logger.ComponentLogger("loom.orchestrator")
	}

	o.bus = bus.New(
		bus.WithLogger(o.log.Named("bus")),
		bus.WithFailureHandler(o.onHandlerFailure),
	)

	seen := make(map[string]bool, len(o.generators))
	for _, g := range o.generators {
		if seen[g.ID()] {
			return nil, errors.NewInvalidArgumentError("generator %s listed twice", g.ID())
		}
		seen[g.ID()] = true

		if err := g.Initialize(o.bus); err != nil {
			return nil, errors.Wrapf(err, "failed to initialize generator %s", g.ID())
		}
		g.SubscribeToEvents(o.bus)
	}

	o.log.Debugw("Orchestrator ready", logger.FieldCount, len(o.generators))
	return o, nil
}

// Bus returns the bus generators are subscribed to.
func (o *Orchestrator) Bus() *bus.Bus { return o.bus }

// Generators returns the wired generators in subscription order.
func (o *Orchestrator) Generators() []generator.Generator {
	return append([]generator.Generator(nil), o.generators...)
}

// Generate runs the schema at schemaPath through the generators.
//
// The only error returned is ErrInvalidArgument for an empty path, detected
// before any bus activity. Every other failure (schema loading, an error
// escaping a publish, materialization, cancellation) is recorded in the
// returned result with Success=false. A final 100% progress record is
// always reported. sink may be nil.
func (o *Orchestrator) Generate(ctx context.Context, schemaPath string, previewOnly bool, sink generation.ProgressSink) (*generation.Result, error) {
	if strings.TrimSpace(schemaPath) == "" {
		return nil, errors.NewInvalidArgumentError("schema path must not be empty")
	}
	if sink == nil {
		sink = generation.Discard
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	result := generation.NewResult(rootName(schemaPath), o.log)
	o.active.Store(result)
	defer o.active.Store(nil)

	log := o.log.With(logger.FieldRunID, result.ID)
	ctx = logger.WithRunID(ctx, result.ID)
	log.Infow("Generation started",
		logger.FieldSchema, schemaPath,
		logger.FieldPreview, previewOnly,
	)

	r := &run{o: o, ctx: ctx, result: result, sink: sink, log: log, preview: previewOnly}
	if err := r.execute(schemaPath); err != nil {
		result.Fail(err)
		log.Errorw("Generation failed", logger.FieldPhase, r.phase, logger.FieldError, err)
	} else if err := ctx.Err(); err != nil {
		result.Fail(err)
	}

	result.Finish()
	log.Infow("Generation completed",
		logger.FieldSuccess, result.Success,
		logger.FieldCount, artifact.Count(result.Root.Artifact),
		logger.FieldDurationMS, result.Duration.Milliseconds(),
	)

	sink.Report(generation.Progress{
		TotalItems:      artifact.Count(result.Root.Artifact),
		PercentComplete: 100,
		Message:         completionMessage(result),
		Phase:           generation.PhaseCompleted,
	})
	return result, nil
}

// Close unsubscribes every generator and clears the bus.
func (o *Orchestrator) Close() error {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	for _, g := range o.generators {
		g.UnsubscribeFromEvents(o.bus)
	}
	o.bus.ClearSubscriptions()
	return nil
}

func (o *Orchestrator) onHandlerFailure(f bus.Failure) {
	if o.policy != PolicyWarn {
		return
	}
	if result := o.active.Load(); result != nil {
		result.AddWarning("handler %d for %s failed: %v", f.Subscription, f.EventType, f.Err)
	}
}

// run is the state of one Generate call.
type run struct {
	o       *Orchestrator
	ctx     context.Context
	result  *generation.Result
	sink    generation.ProgressSink
	log     *zap.SugaredLogger
	preview bool
	phase   generation.Phase
}

func (r *run) report(phase generation.Phase, percent float64, msg string, indeterminate bool) {
	r.phase = phase
	r.sink.Report(generation.Progress{
		TotalItems:      artifact.Count(r.result.Root.Artifact),
		PercentComplete: percent,
		Message:         msg,
		Phase:           phase,
		Indeterminate:   indeterminate,
	})
}

// execute performs the run steps. A panic anywhere below is converted into
// the returned error.
func (r *run) execute(schemaPath string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf("generation panicked: %v", p)
		}
	}()

	r.report(generation.PhaseInitializing, 0, "Loading schema", true)
	s, err := r.o.loader.LoadSchema(r.ctx, schemaPath)
	if err != nil {
		return errors.Wrap(err, "failed to load schema")
	}
	if s == nil {
		return errors.Newf("schema loader returned no schema for %s", schemaPath)
	}
	r.result.Schema = s
	if s.Name != "" {
		r.result.Root.SetName(s.Name)
	}

	r.report(generation.PhaseCreatingRootArtifact, 10, "Creating root artifact", true)
	start := time.Now()
	if err := bus.PublishAsync(r.ctx, r.o.bus, &generation.CreatingRootArtifact{Result: r.result}); err != nil {
		return errors.Wrap(err, "creating root artifact")
	}
	if err := bus.PublishAsync(r.ctx, r.o.bus, &generation.CreatedRootArtifact{Result: r.result}); err != nil {
		return errors.Wrap(err, "finalizing root artifact")
	}
	r.log.Debugw("Artifact tree built",
		logger.FieldCount, artifact.Count(r.result.Root.Artifact),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	r.report(generation.PhaseCreatingRootArtifact, 40, "Root artifact created", false)

	if !r.preview {
		r.report(generation.PhaseRunningGenerators, 50, "Materializing artifacts", true)
		r.result.Root.SetWorkers(r.o.workers)
		if err := r.result.Root.Generate(r.ctx); err != nil {
			return errors.Wrap(err, "materialization failed")
		}
	}

	r.report(generation.PhaseFinalizing, 90, "Finalizing", false)
	files := len(artifact.Collect(r.result.Root.Artifact, artifact.OfKind(artifact.KindFile)))
	r.result.AddInfo("%d artifacts, %d files", artifact.Count(r.result.Root.Artifact), files)
	return nil
}

func rootName(schemaPath string) string {
	base := filepath.Base(schemaPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func completionMessage(r *generation.Result) string {
	errs, warnings, _ := r.Counts()
	if r.Success {
		if warnings > 0 {
			return fmt.Sprintf("Generation completed with %d warnings", warnings)
		}
		return "Generation completed"
	}
	return fmt.Sprintf("Generation failed with %d errors", errs)
}
