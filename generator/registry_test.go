package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/loom/bus"
)

type stubGen struct {
	Base
}

func (stubGen) SubscribeToEvents(*bus.Bus) {}

func stub(id, engine string) *stubGen {
	return &stubGen{Base: NewBase(id, Settings{Version: "1.0.0", Engine: engine})}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry("1.2.0")
	require.NoError(t, r.Register(stub("zeta", "")))
	require.NoError(t, r.Register(stub("alpha", ">= 1.0.0")))

	assert.Equal(t, []string{"zeta", "alpha"}, r.List(), "registration order, not sorted")
	gens := r.Generators()
	require.Len(t, gens, 2)
	assert.Equal(t, "zeta", gens[0].ID())

	g, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, ">= 1.0.0", g.Settings().Engine)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejects(t *testing.T) {
	tests := []struct {
		name   string
		gen    Generator
		errMsg string
	}{
		{name: "duplicate", gen: stub("dup", ""), errMsg: "already registered"},
		{name: "empty id", gen: stub("", ""), errMsg: "empty ID"},
		{name: "engine too old", gen: stub("future", ">= 2.0.0"), errMsg: "requires engine >= 2.0.0"},
		{name: "bad constraint", gen: stub("bad", "not-a-version"), errMsg: "invalid engine constraint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("1.2.0")
			require.NoError(t, r.Register(stub("dup", "")))

			err := r.Register(tt.gen)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRegistryInvalidEngineVersion(t *testing.T) {
	r := NewRegistry("dev")
	assert.NoError(t, r.Register(stub("any", "")), "no constraint, no check")
	assert.Error(t, r.Register(stub("pinned", "^1")))
}

func TestMustRegisterPanics(t *testing.T) {
	r := NewRegistry("1.2.0").MustRegister(stub("a", ""))
	assert.Panics(t, func() { r.MustRegister(stub("a", "")) })
}
