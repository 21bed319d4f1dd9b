package artifact

import "github.com/teranos/loom/errors"

// SkipChildren is returned by a WalkFunc to skip the children of the
// artifact it was called with. It is never returned by Walk.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every artifact visited by Walk.
type WalkFunc func(a *Artifact) error

// Walk visits a and its descendants depth-first in pre-order, preserving
// child insertion order. The first error other than SkipChildren stops the walk.
func Walk(a *Artifact, fn WalkFunc) error {
	if a == nil {
		return nil
	}
	if err := fn(a); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, c := range a.Children() {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first artifact in depth-first order that satisfies pred.
func Find(a *Artifact, pred func(*Artifact) bool) (*Artifact, bool) {
	var found *Artifact
	stop := errors.New("found")
	err := Walk(a, func(n *Artifact) error {
		if pred(n) {
			found = n
			return stop
		}
		return nil
	})
	return found, err != nil && found != nil
}

// Collect returns every artifact in depth-first order that satisfies pred.
func Collect(a *Artifact, pred func(*Artifact) bool) []*Artifact {
	var out []*Artifact
	_ = Walk(a, func(n *Artifact) error {
		if pred(n) {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Count returns the number of artifacts in the subtree rooted at a, a included.
func Count(a *Artifact) int {
	n := 0
	_ = Walk(a, func(*Artifact) error {
		n++
		return nil
	})
	return n
}

// OfKind returns a predicate matching artifacts of kind k.
func OfKind(k Kind) func(*Artifact) bool {
	return func(a *Artifact) bool { return a.kind == k }
}
