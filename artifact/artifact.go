// Package artifact models the output tree built during a generation run.
//
// An Artifact is one unit of generated output (project, folder, file or a
// logical grouping). Generators attach children to a shared Root and hang
// keyed side-data (decorators) off any node. The tree is not synchronized:
// it is mutated from bus handlers, which the bus dispatches sequentially.
package artifact

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/loom/errors"
)

// Kind identifies the concrete role of an artifact in the tree.
type Kind string

const (
	KindRoot    Kind = "root"
	KindProject Kind = "project"
	KindFolder  Kind = "folder"
	KindFile    Kind = "file"
	KindGroup   Kind = "group"
)

// Artifact is a node in the output tree.
type Artifact struct {
	id       string
	name     string
	kind     Kind
	parent   *Artifact
	children []*Artifact

	decorators map[string]Decorator
	order      []string // decorator keys in attach order

	// root is non-nil only for the artifact embedded in a Root
	root *Root
}

// New creates a detached artifact with a fresh identifier.
func New(kind Kind, name string) *Artifact {
	return &Artifact{
		id:         uuid.NewString(),
		name:       name,
		kind:       kind,
		decorators: make(map[string]Decorator),
	}
}

// ID returns the stable identifier of the artifact.
func (a *Artifact) ID() string { return a.id }

// Name returns the display text of the artifact.
func (a *Artifact) Name() string { return a.name }

// SetName changes the display text.
func (a *Artifact) SetName(name string) { a.name = name }

// Kind returns the artifact kind.
func (a *Artifact) Kind() Kind { return a.kind }

// Parent returns the owning artifact, or nil for a detached node or the root.
func (a *Artifact) Parent() *Artifact { return a.parent }

// Children returns a copy of the ordered child list.
func (a *Artifact) Children() []*Artifact {
	out := make([]*Artifact, len(a.children))
	copy(out, a.children)
	return out
}

// Len returns the number of direct children.
func (a *Artifact) Len() int { return len(a.children) }

// Child returns the first direct child with the given name.
func (a *Artifact) Child(name string) (*Artifact, bool) {
	for _, c := range a.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// IsRoot reports whether a is the top-level artifact of a run.
func (a *Artifact) IsRoot() bool { return a.root != nil }

// Path returns the slash-separated names from just below the root down to a.
// The root itself is never part of the path.
func (a *Artifact) Path() string {
	var parts []string
	for n := a; n != nil && !n.IsRoot(); n = n.parent {
		parts = append(parts, n.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// String implements fmt.Stringer.
func (a *Artifact) String() string {
	return fmt.Sprintf("%s(%s)", a.kind, a.name)
}

// AddChild appends child to a's ordered child list and makes a its parent.
func (a *Artifact) AddChild(child *Artifact) error {
	switch {
	case child == nil:
		return errors.NewInvalidArgumentError("cannot add nil child to %s", a)
	case child.IsRoot():
		return errors.NewInvalidStateError("root artifact %s cannot become a child", child)
	case child.parent != nil:
		err := errors.NewInvalidStateError("artifact %s already has a parent", child)
		return errors.WithDetail(err, fmt.Sprintf("Current parent: %s (%s)", child.parent, child.parent.id))
	case child == a || child.isAncestorOf(a):
		return errors.NewInvalidStateError("adding %s under %s would create a cycle", child, a)
	}

	child.parent = a
	a.children = append(a.children, child)
	return nil
}

// RemoveChild detaches child from a. Decorators of the removed subtree are
// detached as well; decorators implementing Detacher are notified.
func (a *Artifact) RemoveChild(child *Artifact) error {
	idx := -1
	for i, c := range a.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		err := errors.Mark(errors.Newf("%s is not a child of %s", child, a), errors.ErrNotFound)
		return err
	}

	a.children = append(a.children[:idx], a.children[idx+1:]...)
	child.parent = nil

	Walk(child, func(n *Artifact) error {
		n.detachAll()
		return nil
	})
	return nil
}

func (a *Artifact) isAncestorOf(n *Artifact) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}
