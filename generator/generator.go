// Package generator defines the contract every generator implements.
//
// A generator is unaware of other generators. It subscribes to bus events,
// inspects the in-flight result and contributes artifacts and decorators,
// optionally publishing events of its own to invite further contributions.
package generator

import (
	"github.com/teranos/loom/bus"
)

// Generator is the plugin contract.
type Generator interface {
	// ID returns the stable identifier (e.g. "loom.model").
	ID() string

	// Settings describes the configuration the generator needs.
	// It is opaque to the engine and consumed by configuration tooling.
	Settings() Settings

	// Initialize hands the generator the bus it will be subscribed to.
	// A generator must not keep a bus from an earlier Initialize call.
	Initialize(b *bus.Bus) error

	// SubscribeToEvents registers the generator's handlers. The generator keeps
	// the returned subscriptions so UnsubscribeFromEvents can remove them.
	SubscribeToEvents(b *bus.Bus)

	// UnsubscribeFromEvents removes every handler registered by SubscribeToEvents.
	UnsubscribeFromEvents(b *bus.Bus)
}

// Settings describes a generator
type Settings struct {
	// Description is a human-readable summary
	Description string `json:"description" yaml:"description"`

	// Version is the generator version (semver)
	Version string `json:"version" yaml:"version"`

	// Engine is the required engine version (semver constraint); empty accepts any
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Fields are the configuration keys the generator reads
	Fields map[string]Field `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Templates are the template names the generator renders
	Templates []string `json:"templates,omitempty" yaml:"templates,omitempty"`
}

// Field describes a single configuration field.
type Field struct {
	Type         string `json:"type" yaml:"type"` // "string", "number", "boolean", "array"
	Description  string `json:"description" yaml:"description"`
	DefaultValue string `json:"default,omitempty" yaml:"default,omitempty"`
	Required     bool   `json:"required,omitempty" yaml:"required,omitempty"`
}
