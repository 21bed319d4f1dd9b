package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/loom/errors"
)

func TestAddDecoratorRejectsDuplicateKey(t *testing.T) {
	folder := New(KindFolder, "model")
	first := &layerTag{layer: "model"}
	require.NoError(t, folder.AddDecorator(first))

	err := folder.AddDecorator(&layerTag{layer: "store"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateDecorator))

	got, ok := folder.Decorator("test.layer")
	require.True(t, ok)
	assert.Same(t, first, got, "the original decorator is kept")
}

func TestAddDecoratorRejectsIncompatibleKind(t *testing.T) {
	file := New(KindFile, "user.go")
	err := file.AddDecorator(&layerTag{layer: "model"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDecoratorMismatch))
	assert.False(t, file.HasDecorator("test.layer"))
}

func TestAddDecoratorNil(t *testing.T) {
	assert.True(t, errors.IsInvalidArgument(New(KindFile, "f").AddDecorator(nil)))
}

func TestRemoveDecorator(t *testing.T) {
	folder := New(KindFolder, "model")
	tag := &layerTag{layer: "model"}
	require.NoError(t, folder.AddDecorator(tag))
	require.NoError(t, folder.AddDecorator(note{key: "a"}))

	assert.True(t, folder.RemoveDecorator("test.layer"))
	assert.Equal(t, 1, tag.detached)
	assert.False(t, folder.RemoveDecorator("test.layer"))
	assert.Len(t, folder.Decorators(), 1)

	// key is free again
	require.NoError(t, folder.AddDecorator(&layerTag{layer: "store"}))
}

func TestDecoratorsKeepAttachOrder(t *testing.T) {
	a := New(KindGroup, "g")
	require.NoError(t, a.AddDecorator(note{key: "z"}))
	require.NoError(t, a.AddDecorator(note{key: "a"}))
	require.NoError(t, a.AddDecorator(note{key: "m"}))

	var keys []string
	for _, d := range a.Decorators() {
		keys = append(keys, d.Key())
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestDecoratorOf(t *testing.T) {
	folder := New(KindFolder, "model")
	require.NoError(t, folder.AddDecorator(note{key: "n"}))
	require.NoError(t, folder.AddDecorator(&layerTag{layer: "model"}))

	tag, ok := DecoratorOf[*layerTag](folder)
	require.True(t, ok)
	assert.Equal(t, "model", tag.layer)

	_, ok = DecoratorOf[*layerTag](New(KindFolder, "empty"))
	assert.False(t, ok)
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible(note{}, KindFile))
	assert.True(t, Compatible(&layerTag{}, KindFolder))
	assert.False(t, Compatible(&layerTag{}, KindProject))
}
