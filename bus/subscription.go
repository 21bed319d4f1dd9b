package bus

import (
	"context"
	"reflect"
)

// Subscription is the handle returned by the Subscribe family.
// Unsubscribing takes the handle, so a filtered registration is removed
// without needing the wrapped closure.
type Subscription struct {
	id    uint64
	key   reflect.Type
	async bool
	call  func(ctx context.Context, e any) error
}

// ID returns the global subscription sequence number.
// Handlers fire in ascending ID order within the sync and async groups.
func (s *Subscription) ID() uint64 { return s.id }

// Async reports whether the handler was registered with SubscribeAsync.
func (s *Subscription) Async() bool { return s.async }

// EventType returns the type the subscription is keyed on.
func (s *Subscription) EventType() reflect.Type { return s.key }

// Subscribe registers a synchronous handler for events of type E.
func Subscribe[E any](b *Bus, h func(E) error) *Subscription {
	return SubscribeWhere(b, h, nil)
}

// SubscribeWhere registers a synchronous handler that only sees events
// accepted by filter. A nil filter accepts every event.
func SubscribeWhere[E any](b *Bus, h func(E) error, filter func(E) bool) *Subscription {
	return b.add(&Subscription{
		key: reflect.TypeFor[E](),
		call: func(_ context.Context, e any) error {
			ev := e.(E)
			if filter != nil && !filter(ev) {
				return nil
			}
			return h(ev)
		},
	})
}

// SubscribeAsync registers a handler that receives the publisher's context.
// Async handlers may block on I/O; the bus still runs them one at a time.
func SubscribeAsync[E any](b *Bus, h func(context.Context, E) error) *Subscription {
	return SubscribeAsyncWhere(b, h, nil)
}

// SubscribeAsyncWhere is SubscribeAsync with a filter.
func SubscribeAsyncWhere[E any](b *Bus, h func(context.Context, E) error, filter func(E) bool) *Subscription {
	return b.add(&Subscription{
		key:   reflect.TypeFor[E](),
		async: true,
		call: func(ctx context.Context, e any) error {
			ev := e.(E)
			if filter != nil && !filter(ev) {
				return nil
			}
			return h(ctx, ev)
		},
	})
}
