package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/bus"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/logger"
)

// Base implements the bookkeeping shared by generators: identity, the bus
// reference, subscription tracking and the contribution protocol.
// Concrete generators embed it and implement SubscribeToEvents.
type Base struct {
	id       string
	settings Settings

	bus  *bus.Bus
	subs []*bus.Subscription
	log  *zap.SugaredLogger
}

// NewBase creates the embedded part of a generator.
func NewBase(id string, settings Settings) Base {
	return Base{id: id, settings: settings}
}

// ID implements Generator.
func (g *Base) ID() string { return g.id }

// Settings implements Generator.
func (g *Base) Settings() Settings { return g.settings }

// Initialize implements Generator. Subscriptions tracked against a previous
// bus are dropped from it first.
func (g *Base) Initialize(b *bus.Bus) error {
	if b == nil {
		return errors.NewInvalidArgumentError("generator %s: nil bus", g.id)
	}
	if g.bus != nil && g.bus != b {
		g.UnsubscribeFromEvents(g.bus)
	}
	g.bus = b
	g.log = logger.ComponentLogger("loom.generator").With(logger.FieldGenerator, g.id)
	return nil
}

// Bus returns the bus handed to Initialize.
func (g *Base) Bus() *bus.Bus { return g.bus }

// Logger returns the generator-scoped logger.
func (g *Base) Logger() *zap.SugaredLogger { return logger.OrNop(g.log) }

// Track records a subscription for UnsubscribeFromEvents.
func (g *Base) Track(subs ...*bus.Subscription) {
	g.subs = append(g.subs, subs...)
}

// Subscriptions returns the number of tracked subscriptions.
func (g *Base) Subscriptions() int { return len(g.subs) }

// UnsubscribeFromEvents implements Generator.
func (g *Base) UnsubscribeFromEvents(b *bus.Bus) {
	for _, s := range g.subs {
		b.Unsubscribe(s)
	}
	g.subs = nil
}

// AddChildArtifactToParent contributes child under parent:
// publish CreatingArtifact, attach, publish CreatedArtifact.
//
// The attach happens regardless of what the CreatingArtifact handlers did,
// since handler failures are contained by the bus. An error is returned when
// the attach itself fails or ctx is cancelled before the attach.
func (g *Base) AddChildArtifactToParent(ctx context.Context, parent, child *artifact.Artifact, result *generation.Result) error {
	if g.bus == nil {
		return errors.NewInvalidStateError("generator %s used before Initialize", g.id)
	}

	if err := bus.PublishAsync(ctx, g.bus, &generation.CreatingArtifact{Result: result, Parent: parent, Artifact: child}); err != nil {
		return errors.Wrapf(err, "generator %s: creating %s", g.id, child)
	}

	if err := parent.AddChild(child); err != nil {
		err = errors.Wrapf(err, "generator %s: attach %s", g.id, child)
		return errors.WithDetail(err, fmt.Sprintf("Parent: %s (%s)", parent, parent.ID()))
	}
	g.Logger().Debugw("Artifact attached",
		logger.FieldArtifact, child.Path(),
		logger.FieldArtifactID, child.ID(),
	)

	if err := bus.PublishAsync(ctx, g.bus, &generation.CreatedArtifact{Result: result, Parent: parent, Artifact: child}); err != nil {
		return errors.Wrapf(err, "generator %s: created %s", g.id, child)
	}
	return nil
}
