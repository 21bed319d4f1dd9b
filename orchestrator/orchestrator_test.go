package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/generator"
	"github.com/teranos/loom/schema"
)

// creatingFolder is published by folderGen before it attaches its folder
type creatingFolder struct {
	Result *generation.Result
	Folder *artifact.Artifact
}

// materializeCounter counts Root.Generate reaching the artifact it is attached to
type materializeCounter struct{ calls *atomic.Int32 }

func (m materializeCounter) Key() string            { return "test.counter" }
func (m materializeCounter) Kinds() []artifact.Kind { return nil }
func (m materializeCounter) Materialize(context.Context, *artifact.Artifact) error {
	m.calls.Add(1)
	return nil
}

type folderGen struct {
	generator.Base
	materialized atomic.Int32
}

func newFolderGen() *folderGen {
	return &folderGen{Base: generator.NewBase("test.folder", generator.Settings{Version: "0.1.0"})}
}

func (g *folderGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsync(b, func(ctx context.Context, e *generation.CreatingRootArtifact) error {
		folder := artifact.New(artifact.KindFolder, "model")
		if err := folder.AddDecorator(materializeCounter{calls: &g.materialized}); err != nil {
			return err
		}
		if err := bus.PublishAsync(ctx, b, &creatingFolder{Result: e.Result, Folder: folder}); err != nil {
			return err
		}
		return g.AddChildArtifactToParent(ctx, e.Root().Artifact, folder, e.Result)
	}))
}

type fileGen struct {
	generator.Base
}

func newFileGen() *fileGen {
	return &fileGen{Base: generator.NewBase("test.file", generator.Settings{Version: "0.1.0"})}
}

func (g *fileGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsync(b, func(ctx context.Context, e *creatingFolder) error {
		return g.AddChildArtifactToParent(ctx, e.Folder, artifact.New(artifact.KindFile, "user.go"), e.Result)
	}))
}

// brokenGen dereferences a nil pointer whenever an artifact is created
type brokenGen struct {
	generator.Base
	calls int
}

func (g *brokenGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.Subscribe(b, func(e *generation.CreatedArtifact) error {
		g.calls++
		var missing *artifact.Artifact
		_ = missing.Name()
		return nil
	}))
}

func staticLoader(calls *int) schema.Loader {
	return schema.LoaderFunc(func(ctx context.Context, path string) (*schema.Schema, error) {
		if calls != nil {
			*calls++
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &schema.Schema{Name: "shop"}, nil
	})
}

func collectProgress(got *[]generation.Progress) generation.ProgressSink {
	return generation.SinkFunc(func(p generation.Progress) { *got = append(*got, p) })
}

func TestGenerateEmptyPathFailsFast(t *testing.T) {
	loads := 0
	o, err := New(staticLoader(&loads), []generator.Generator{newFolderGen()})
	require.NoError(t, err)

	published := 0
	bus.Subscribe(o.Bus(), func(generation.Event) error { published++; return nil })

	var progress []generation.Progress
	result, err := o.Generate(context.Background(), "  ", false, collectProgress(&progress))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Nil(t, result)
	assert.Zero(t, published, "no bus activity")
	assert.Zero(t, loads)
	assert.Empty(t, progress)
}

func TestGenerateCascadingGenerators(t *testing.T) {
	folders := newFolderGen()
	o, err := New(staticLoader(nil), []generator.Generator{folders, newFileGen()})
	require.NoError(t, err)

	result, err := o.Generate(context.Background(), "schemas/shop.yaml", false, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.True(t, result.Frozen())
	assert.Equal(t, "shop", result.Root.Name())
	assert.Equal(t, "shop", result.Schema.Name)

	require.Equal(t, 1, result.Root.Len())
	folder := result.Root.Children()[0]
	assert.Equal(t, artifact.KindFolder, folder.Kind())
	require.Equal(t, 1, folder.Len())
	assert.Equal(t, artifact.KindFile, folder.Children()[0].Kind())
	assert.Equal(t, "model/user.go", folder.Children()[0].Path())

	assert.Equal(t, int32(1), folders.materialized.Load())
	assert.Positive(t, result.Duration)
}

func TestGenerateHandlerFailureIsLoggedNotRecorded(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	broken := &brokenGen{Base: generator.NewBase("test.broken", generator.Settings{})}

	o, err := New(staticLoader(nil), []generator.Generator{newFolderGen(), broken},
		WithLogger(zap.New(core).Sugar()))
	require.NoError(t, err)

	result, err := o.Generate(context.Background(), "shop.yaml", true, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, broken.calls)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	require.Equal(t, 1, result.Root.Len(), "artifact stays attached")
	assert.Same(t, result.Root.Artifact, result.Root.Children()[0].Parent())

	failures := logs.FilterMessage("Event handler failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "*generation.CreatedArtifact", failures[0].ContextMap()["event_type"])
	assert.Contains(t, failures[0].ContextMap()["panic"], "nil pointer dereference")
}

func TestGenerateWarnPolicyRecordsHandlerFailures(t *testing.T) {
	broken := &brokenGen{Base: generator.NewBase("test.broken", generator.Settings{})}
	o, err := New(staticLoader(nil), []generator.Generator{newFolderGen(), broken},
		WithHandlerFailures(PolicyWarn))
	require.NoError(t, err)

	result, err := o.Generate(context.Background(), "shop.yaml", true, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "*generation.CreatedArtifact")
}

func TestGeneratePreviewSkipsMaterialization(t *testing.T) {
	folders := newFolderGen()
	o, err := New(staticLoader(nil), []generator.Generator{folders, newFileGen()})
	require.NoError(t, err)

	finalized := 0
	bus.Subscribe(o.Bus(), func(e *generation.CreatedRootArtifact) error {
		finalized++
		assert.Equal(t, 3, artifact.Count(e.Root().Artifact), "finalization sees the whole tree")
		return nil
	})

	var progress []generation.Progress
	result, err := o.Generate(context.Background(), "shop.yaml", true, collectProgress(&progress))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, finalized)
	assert.Equal(t, 3, artifact.Count(result.Root.Artifact))
	assert.Zero(t, folders.materialized.Load())

	for _, p := range progress {
		assert.NotEqual(t, generation.PhaseRunningGenerators, p.Phase)
	}
	last := progress[len(progress)-1]
	assert.Equal(t, generation.PhaseCompleted, last.Phase)
	assert.Equal(t, float64(100), last.PercentComplete)
}

func TestGenerateProgressSequence(t *testing.T) {
	o, err := New(staticLoader(nil), []generator.Generator{newFolderGen()})
	require.NoError(t, err)

	var progress []generation.Progress
	_, err = o.Generate(context.Background(), "shop.yaml", false, collectProgress(&progress))
	require.NoError(t, err)

	var phases []generation.Phase
	for _, p := range progress {
		phases = append(phases, p.Phase)
	}
	assert.Equal(t, []generation.Phase{
		generation.PhaseInitializing,
		generation.PhaseCreatingRootArtifact,
		generation.PhaseCreatingRootArtifact,
		generation.PhaseRunningGenerators,
		generation.PhaseFinalizing,
		generation.PhaseCompleted,
	}, phases)

	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i].PercentComplete, progress[i-1].PercentComplete)
	}
}

func TestGenerateSchemaFailure(t *testing.T) {
	loader := schema.LoaderFunc(func(context.Context, string) (*schema.Schema, error) {
		return nil, errors.New("unexpected token at line 3")
	})
	o, err := New(loader, []generator.Generator{newFolderGen()})
	require.NoError(t, err)

	var progress []generation.Progress
	result, err := o.Generate(context.Background(), "shop.yaml", false, collectProgress(&progress))
	require.NoError(t, err, "run failures are reported in the result")

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected token at line 3")
	assert.Zero(t, result.Root.Len())
	assert.Equal(t, float64(100), progress[len(progress)-1].PercentComplete)
}

func TestGenerateRecoversPanicOutsideHandlers(t *testing.T) {
	loader := schema.LoaderFunc(func(context.Context, string) (*schema.Schema, error) {
		panic("loader bug")
	})
	o, err := New(loader, nil)
	require.NoError(t, err)

	result, err := o.Generate(context.Background(), "shop.yaml", false, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "loader bug")
}

func TestGenerateMaterializationFailure(t *testing.T) {
	failing := &failingMaterializerGen{Base: generator.NewBase("test.failing", generator.Settings{})}
	o, err := New(staticLoader(nil), []generator.Generator{failing})
	require.NoError(t, err)

	result, err := o.Generate(context.Background(), "shop.yaml", false, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "permission denied")
}

type failingMaterializer struct{}

func (failingMaterializer) Key() string            { return "test.failing" }
func (failingMaterializer) Kinds() []artifact.Kind { return nil }
func (failingMaterializer) Materialize(context.Context, *artifact.Artifact) error {
	return errors.New("permission denied")
}

type failingMaterializerGen struct{ generator.Base }

func (g *failingMaterializerGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.Subscribe(b, func(e *generation.CreatingRootArtifact) error {
		return e.Root().AddDecorator(failingMaterializer{})
	}))
}

func TestGenerateCancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		o, err := New(staticLoader(nil), []generator.Generator{newFolderGen()})
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var progress []generation.Progress
		result, err := o.Generate(ctx, "shop.yaml", false, collectProgress(&progress))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Zero(t, result.Root.Len())
		assert.Equal(t, generation.PhaseCompleted, progress[len(progress)-1].Phase)
	})

	t.Run("between handlers", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		canceller := &cancelGen{Base: generator.NewBase("test.cancel", generator.Settings{}), cancel: cancel}
		folders := newFolderGen()
		o, err := New(staticLoader(nil), []generator.Generator{canceller, folders})
		require.NoError(t, err)

		result, err := o.Generate(ctx, "shop.yaml", false, nil)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Zero(t, result.Root.Len(), "handlers after the cancellation never run")
		assert.Zero(t, folders.materialized.Load())
	})
}

type cancelGen struct {
	generator.Base
	cancel context.CancelFunc
}

func (g *cancelGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.Subscribe(b, func(*generation.CreatingRootArtifact) error {
		g.cancel()
		return nil
	}))
}

func TestGenerateRunsDoNotShareTrees(t *testing.T) {
	o, err := New(staticLoader(nil), []generator.Generator{newFolderGen(), newFileGen()})
	require.NoError(t, err)

	first, err := o.Generate(context.Background(), "shop.yaml", true, nil)
	require.NoError(t, err)
	second, err := o.Generate(context.Background(), "shop.yaml", true, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotSame(t, first.Root, second.Root)
	assert.Equal(t, 1, first.Root.Len())
	assert.Equal(t, 1, second.Root.Len())
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = New(staticLoader(nil), []generator.Generator{newFolderGen(), newFolderGen()})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = New(staticLoader(nil), nil, WithHandlerFailures("explode"))
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestClose(t *testing.T) {
	folders := newFolderGen()
	o, err := New(staticLoader(nil), []generator.Generator{folders, newFileGen()})
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Count[*generation.CreatingRootArtifact](o.Bus()))

	require.NoError(t, o.Close())
	assert.Equal(t, 0, bus.Count[*generation.CreatingRootArtifact](o.Bus()))
	assert.Equal(t, 0, folders.Subscriptions())
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("")
	assert.True(t, ok)
	assert.Equal(t, PolicyLog, p)
	p, ok = ParsePolicy("warn")
	assert.True(t, ok)
	assert.Equal(t, PolicyWarn, p)
	_, ok = ParsePolicy("fail")
	assert.False(t, ok)
}
