package generation

import "github.com/teranos/loom/artifact"

// Event is implemented by every payload the orchestrator and generator base publish.
// Payloads carry the in-flight result but not the identity of the publisher;
// subscribers filter for themselves.
type Event interface {
	RunResult() *Result
}

// ArtifactEvent is implemented by the per-artifact contribution events.
type ArtifactEvent interface {
	Event
	// Target is the artifact being contributed.
	Target() *artifact.Artifact
	// Owner is the parent the target is (or is about to be) attached to.
	Owner() *artifact.Artifact
}

// CreatingRootArtifact is published once per run after the schema is loaded.
// Generators build the tree under Result.Root in response.
type CreatingRootArtifact struct {
	Result *Result
}

func (e *CreatingRootArtifact) RunResult() *Result { return e.Result }

// Root is shorthand for e.Result.Root.
func (e *CreatingRootArtifact) Root() *artifact.Root { return e.Result.Root }

// CreatedRootArtifact is published once the root-level contributions are done;
// handlers see the whole tree.
type CreatedRootArtifact struct {
	Result *Result
}

func (e *CreatedRootArtifact) RunResult() *Result { return e.Result }

// Root is shorthand for e.Result.Root.
func (e *CreatedRootArtifact) Root() *artifact.Root { return e.Result.Root }

// CreatingArtifact is published before Artifact is attached to Parent.
// Artifact.Parent() is nil while handlers run.
type CreatingArtifact struct {
	Result   *Result
	Parent   *artifact.Artifact
	Artifact *artifact.Artifact
}

func (e *CreatingArtifact) RunResult() *Result          { return e.Result }
func (e *CreatingArtifact) Target() *artifact.Artifact { return e.Artifact }
func (e *CreatingArtifact) Owner() *artifact.Artifact  { return e.Parent }

// CreatedArtifact is published after Artifact was attached to Parent.
type CreatedArtifact struct {
	Result   *Result
	Parent   *artifact.Artifact
	Artifact *artifact.Artifact
}

func (e *CreatedArtifact) RunResult() *Result          { return e.Result }
func (e *CreatedArtifact) Target() *artifact.Artifact { return e.Artifact }
func (e *CreatedArtifact) Owner() *artifact.Artifact  { return e.Parent }
