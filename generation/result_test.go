package generation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/loom/artifact"
)

func TestNewResult(t *testing.T) {
	r := NewResult("shop", nil)

	assert.NotEmpty(t, r.ID)
	require.NotNil(t, r.Root)
	assert.True(t, r.Root.IsRoot())
	assert.Equal(t, "shop", r.Root.Name())
	assert.True(t, r.Success)
	assert.False(t, r.StartedAt.IsZero())
}

func TestWarningsDoNotAffectSuccess(t *testing.T) {
	r := NewResult("run", nil)
	r.AddWarning("template %s missing", "model.tmpl")
	r.AddInfo("3 files")
	assert.True(t, r.Success)

	r.AddError("schema: %s", "bad")
	assert.False(t, r.Success)
	assert.Equal(t, []string{"schema: bad"}, r.Errors)
	assert.Equal(t, []string{"template model.tmpl missing"}, r.Warnings)

	errs, warns, infos := r.Counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t, 1, infos)
}

func TestFinishFreezes(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResult("run", zap.New(core).Sugar())

	r.Finish()
	assert.True(t, r.Frozen())
	d := r.Duration

	r.AddError("too late")
	r.Finish()
	assert.Empty(t, r.Errors)
	assert.True(t, r.Success)
	assert.Equal(t, d, r.Duration)
	assert.Equal(t, 1, logs.FilterMessage("Dropping message added after the run returned").Len())
}

func TestConcurrentAdds(t *testing.T) {
	r := NewResult("run", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddWarning("w")
		}()
	}
	wg.Wait()
	assert.Len(t, r.Warnings, 50)
}

func TestEventAccessors(t *testing.T) {
	r := NewResult("run", nil)
	parent := artifact.New(artifact.KindFolder, "model")
	child := artifact.New(artifact.KindFile, "user.go")

	var events []ArtifactEvent = []ArtifactEvent{
		&CreatingArtifact{Result: r, Parent: parent, Artifact: child},
		&CreatedArtifact{Result: r, Parent: parent, Artifact: child},
	}
	for _, e := range events {
		assert.Same(t, r, e.RunResult())
		assert.Same(t, parent, e.Owner())
		assert.Same(t, child, e.Target())
	}

	assert.Same(t, r.Root, (&CreatingRootArtifact{Result: r}).Root())
	assert.Same(t, r.Root, (&CreatedRootArtifact{Result: r}).Root())
}

func TestSinkFunc(t *testing.T) {
	var got []Progress
	sink := SinkFunc(func(p Progress) { got = append(got, p) })
	sink.Report(Progress{Phase: PhaseCompleted, PercentComplete: 100})
	Discard.Report(Progress{})

	require.Len(t, got, 1)
	assert.Equal(t, PhaseCompleted, got[0].Phase)
}
