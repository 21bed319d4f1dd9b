package artifact

// Node is a serializable snapshot of an artifact subtree.
// Decorators are recorded by key only; their state is owned by the
// generator that attached them and is not part of the snapshot.
type Node struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Kind       Kind     `json:"kind" yaml:"kind"`
	Decorators []string `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Children   []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot captures the structure of the subtree rooted at a.
func Snapshot(a *Artifact) Node {
	n := Node{
		ID:   a.id,
		Name: a.name,
		Kind: a.kind,
	}
	if len(a.order) > 0 {
		n.Decorators = append([]string(nil), a.order...)
	}
	for _, c := range a.children {
		n.Children = append(n.Children, Snapshot(c))
	}
	return n
}

// Restore rebuilds a detached, undecorated artifact subtree from a snapshot,
// preserving identifiers. A snapshot of a root is restored as a Root; a
// root-kind node below the top is restored as a group, since a root never
// has a parent.
func Restore(n Node) *Artifact {
	return restore(n, true)
}

func restore(n Node, top bool) *Artifact {
	var a *Artifact
	switch {
	case n.Kind == KindRoot && top:
		a = NewRoot(n.Name).Artifact
	case n.Kind == KindRoot:
		a = New(KindGroup, n.Name)
	default:
		a = New(n.Kind, n.Name)
	}
	if n.ID != "" {
		a.id = n.ID
	}
	for _, c := range n.Children {
		child := restore(c, false)
		child.parent = a
		a.children = append(a.children, child)
	}
	return a
}

// RestoreRoot rebuilds a Root from a root snapshot.
// It returns false when n does not describe a root.
func RestoreRoot(n Node) (*Root, bool) {
	if n.Kind != KindRoot {
		return nil, false
	}
	a := Restore(n)
	return a.root, true
}
