package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
)

// folderGen adds one folder under the root
type folderGen struct {
	Base
}

func newFolderGen() *folderGen {
	return &folderGen{Base: NewBase("test.folder", Settings{Description: "adds a folder", Version: "0.1.0"})}
}

func (g *folderGen) SubscribeToEvents(b *bus.Bus) {
	g.Track(bus.SubscribeAsync(b, func(ctx context.Context, e *generation.CreatingRootArtifact) error {
		return g.AddChildArtifactToParent(ctx, e.Root().Artifact, artifact.New(artifact.KindFolder, "model"), e.Result)
	}))
}

func TestAddChildArtifactToParentProtocol(t *testing.T) {
	b := bus.New()
	g := newFolderGen()
	require.NoError(t, g.Initialize(b))
	g.SubscribeToEvents(b)

	result := generation.NewResult("run", nil)
	var seen []string
	bus.Subscribe(b, func(e *generation.CreatingArtifact) error {
		seen = append(seen, "creating")
		assert.Nil(t, e.Artifact.Parent(), "creating observers see the artifact before attach")
		return nil
	})
	bus.Subscribe(b, func(e *generation.CreatedArtifact) error {
		seen = append(seen, "created")
		assert.Same(t, e.Parent, e.Artifact.Parent(), "created observers see it attached")
		return nil
	})

	require.NoError(t, bus.Publish(b, &generation.CreatingRootArtifact{Result: result}))

	assert.Equal(t, []string{"creating", "created"}, seen)
	require.Equal(t, 1, result.Root.Len())
	assert.Equal(t, "model", result.Root.Children()[0].Name())
}

func TestAddChildArtifactToParentAttachesDespiteHandlerFailure(t *testing.T) {
	b := bus.New()
	g := newFolderGen()
	require.NoError(t, g.Initialize(b))

	bus.Subscribe(b, func(*generation.CreatingArtifact) error { panic("nil template") })
	bus.Subscribe(b, func(*generation.CreatedArtifact) error { return errors.New("decorate failed") })

	result := generation.NewResult("run", nil)
	child := artifact.New(artifact.KindFolder, "model")
	require.NoError(t, g.AddChildArtifactToParent(context.Background(), result.Root.Artifact, child, result))

	assert.Same(t, result.Root.Artifact, child.Parent())
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
}

func TestAddChildArtifactToParentErrors(t *testing.T) {
	result := generation.NewResult("run", nil)

	t.Run("not initialized", func(t *testing.T) {
		g := newFolderGen()
		err := g.AddChildArtifactToParent(context.Background(), result.Root.Artifact, artifact.New(artifact.KindFile, "f"), result)
		assert.True(t, errors.IsInvalidState(err))
	})

	t.Run("already parented", func(t *testing.T) {
		g := newFolderGen()
		require.NoError(t, g.Initialize(bus.New()))
		child := artifact.New(artifact.KindFile, "f")
		require.NoError(t, artifact.New(artifact.KindFolder, "other").AddChild(child))

		err := g.AddChildArtifactToParent(context.Background(), result.Root.Artifact, child, result)
		assert.True(t, errors.IsInvalidState(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		b := bus.New()
		g := newFolderGen()
		require.NoError(t, g.Initialize(b))
		bus.Subscribe(b, func(*generation.CreatingArtifact) error { return nil })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		child := artifact.New(artifact.KindFile, "f")
		err := g.AddChildArtifactToParent(ctx, result.Root.Artifact, child, result)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, child.Parent())
	})
}

func TestSubscribeUnsubscribeSymmetry(t *testing.T) {
	b := bus.New()
	g := newFolderGen()
	require.NoError(t, g.Initialize(b))

	g.SubscribeToEvents(b)
	assert.Equal(t, 1, bus.Count[*generation.CreatingRootArtifact](b))
	assert.Equal(t, 1, g.Subscriptions())

	g.UnsubscribeFromEvents(b)
	assert.Equal(t, 0, bus.Count[*generation.CreatingRootArtifact](b))
	assert.Equal(t, 0, g.Subscriptions())
}

func TestInitializeReplacesBus(t *testing.T) {
	first, second := bus.New(), bus.New()
	g := newFolderGen()
	require.NoError(t, g.Initialize(first))
	g.SubscribeToEvents(first)

	require.NoError(t, g.Initialize(second))
	assert.Same(t, second, g.Bus())
	assert.Equal(t, 0, bus.Count[*generation.CreatingRootArtifact](first), "handlers on the old bus are dropped")

	assert.True(t, errors.IsInvalidArgument(g.Initialize(nil)))
}
