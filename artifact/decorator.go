package artifact

import (
	"context"
	"fmt"
	"slices"

	"github.com/teranos/loom/errors"
)

// Decorator is keyed side-data attached to exactly one artifact.
//
// Kinds declares the artifact kinds the decorator may be attached to;
// an empty set means any kind.
type Decorator interface {
	Key() string
	Kinds() []Kind
}

// Detacher is implemented by decorators that need to know when they are
// removed from an artifact.
type Detacher interface {
	OnDetach(a *Artifact)
}

// Materializer is implemented by decorators that produce output when the
// root artifact is generated (writing a file, creating a directory).
type Materializer interface {
	Materialize(ctx context.Context, a *Artifact) error
}

// Compatible reports whether d may be attached to an artifact of kind k.
func Compatible(d Decorator, k Kind) bool {
	kinds := d.Kinds()
	return len(kinds) == 0 || slices.Contains(kinds, k)
}

// AddDecorator attaches d under its key.
// A second decorator with the same key is rejected rather than overwriting
// the first, and a decorator is rejected when a's kind is not in its Kinds.
func (a *Artifact) AddDecorator(d Decorator) error {
	if d == nil {
		return errors.NewInvalidArgumentError("cannot attach nil decorator to %s", a)
	}
	key := d.Key()
	if _, exists := a.decorators[key]; exists {
		err := errors.Wrapf(errors.ErrDuplicateDecorator, "%s already carries decorator %q", a, key)
		return errors.WithDetail(err, fmt.Sprintf("Artifact ID: %s", a.id))
	}
	if !Compatible(d, a.kind) {
		err := errors.Wrapf(errors.ErrDecoratorMismatch, "decorator %q cannot attach to %s artifacts", key, a.kind)
		return errors.WithDetail(err, fmt.Sprintf("Accepted kinds: %v", d.Kinds()))
	}

	if a.decorators == nil {
		a.decorators = make(map[string]Decorator)
	}
	a.decorators[key] = d
	a.order = append(a.order, key)
	return nil
}

// RemoveDecorator detaches the decorator stored under key.
// It reports whether a decorator was removed.
func (a *Artifact) RemoveDecorator(key string) bool {
	d, ok := a.decorators[key]
	if !ok {
		return false
	}
	delete(a.decorators, key)
	a.order = slices.DeleteFunc(a.order, func(k string) bool { return k == key })
	if h, ok := d.(Detacher); ok {
		h.OnDetach(a)
	}
	return true
}

// Decorator returns the decorator stored under key.
func (a *Artifact) Decorator(key string) (Decorator, bool) {
	d, ok := a.decorators[key]
	return d, ok
}

// HasDecorator reports whether a decorator is stored under key.
func (a *Artifact) HasDecorator(key string) bool {
	_, ok := a.decorators[key]
	return ok
}

// Decorators returns the attached decorators in attach order.
func (a *Artifact) Decorators() []Decorator {
	out := make([]Decorator, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.decorators[k])
	}
	return out
}

// DecoratorOf returns the first attached decorator whose dynamic type is T.
func DecoratorOf[T Decorator](a *Artifact) (T, bool) {
	for _, k := range a.order {
		if d, ok := a.decorators[k].(T); ok {
			return d, true
		}
	}
	var zero T
	return zero, false
}

func (a *Artifact) detachAll() {
	keys := slices.Clone(a.order)
	for i := len(keys) - 1; i >= 0; i-- {
		a.RemoveDecorator(keys[i])
	}
}
