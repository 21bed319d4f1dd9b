// Package bus is a type-keyed publish/subscribe broker.
//
// Handlers are registered per event type with the generic Subscribe family
// and receive every published event whose runtime type equals the
// subscribed type or, for interface subscriptions, implements it.
//
// Dispatch is sequential. The registry is snapshotted under the lock and
// handlers run outside it, so a handler may subscribe, unsubscribe or
// publish without affecting the delivery already in progress. A handler
// that fails (error or panic) is logged and reported to the failure
// handler; it never stops delivery to the remaining handlers.
package bus

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/logger"
)

// Failure describes one handler invocation that returned an error or panicked.
type Failure struct {
	EventType    string
	Subscription uint64
	Err          error
	Panic        any // recovered value, nil when the handler returned an error
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(b *Bus) { b.log = l }
}

// WithFailureHandler registers a callback invoked after every handler failure.
// It runs on the publishing goroutine, after the failure was logged.
func WithFailureHandler(fn func(Failure)) Option {
	return func(b *Bus) { b.onFailure = fn }
}

// Bus is a type-keyed publish/subscribe broker. The zero value is not usable;
// create one with New.
type Bus struct {
	mu   sync.Mutex
	seq  uint64
	subs map[reflect.Type][]*Subscription

	log       *zap.SugaredLogger
	onFailure func(Failure)
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{subs: make(map[reflect.Type][]*Subscription)}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logger.OrNop(b.log)
	return b
}

func (b *Bus) add(s *Subscription) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	s.id = b.seq
	b.subs[s.key] = append(b.subs[s.key], s)
	return s
}

// Unsubscribe removes the registration behind s. Nil, unknown or already
// removed handles are ignored.
func (b *Bus) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.key]
	idx := slices.Index(list, s)
	if idx < 0 {
		return
	}
	next := slices.Delete(list, idx, idx+1)
	if len(next) == 0 {
		delete(b.subs, s.key)
		return
	}
	b.subs[s.key] = next
}

// ClearSubscriptions removes every registration.
func (b *Bus) ClearSubscriptions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[reflect.Type][]*Subscription)
}

// ClearSubscriptionsFor removes every registration keyed on E.
func ClearSubscriptionsFor[E any](b *Bus) {
	key := reflect.TypeFor[E]()
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, key)
}

// Count returns the number of registrations keyed on E.
func Count[E any](b *Bus) int {
	key := reflect.TypeFor[E]()
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}

// snapshot returns the subscriptions matching an event of runtime type rt,
// sync handlers first, each group in subscription order.
func (b *Bus) snapshot(rt reflect.Type) []*Subscription {
	b.mu.Lock()
	var matched []*Subscription
	for key, list := range b.subs {
		if key == rt || (key.Kind() == reflect.Interface && rt.Implements(key)) {
			matched = append(matched, list...)
		}
	}
	b.mu.Unlock()

	slices.SortFunc(matched, func(x, y *Subscription) int {
		if x.async != y.async {
			if x.async {
				return 1
			}
			return -1
		}
		return cmp.Compare(x.id, y.id)
	})
	return matched
}

// Publish delivers e synchronously to every matching handler.
// Async handlers run after all sync handlers, each to completion before the next.
// It returns ErrNilEvent for a nil event and never returns handler failures.
func Publish[E any](b *Bus, e E) error {
	return b.dispatch(context.Background(), e, false)
}

// PublishAsync is Publish with cooperative cancellation: ctx is passed to
// async handlers and checked before every handler invocation. A handler
// already running is never interrupted.
func PublishAsync[E any](ctx context.Context, b *Bus, e E) error {
	return b.dispatch(ctx, e, true)
}

func (b *Bus) dispatch(ctx context.Context, e any, checkCtx bool) error {
	if isNil(e) {
		return errors.ErrNilEvent
	}
	rt := reflect.TypeOf(e)
	for _, s := range b.snapshot(rt) {
		if checkCtx {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b.invoke(ctx, s, rt, e)
	}
	return nil
}

func (b *Bus) invoke(ctx context.Context, s *Subscription, rt reflect.Type, e any) {
	var recovered any
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				recovered = r
				err = errors.Newf("handler panic: %v", r)
			}
		}()
		return s.call(ctx, e)
	}()
	if err == nil {
		return
	}

	f := Failure{
		EventType:    rt.String(),
		Subscription: s.id,
		Err:          errors.WithDetail(err, fmt.Sprintf("Subscribed to: %s", s.key)),
		Panic:        recovered,
	}
	fields := []interface{}{
		logger.FieldEventType, f.EventType,
		logger.FieldSubscription, f.Subscription,
		logger.FieldError, err,
	}
	if recovered != nil {
		fields = append(fields, logger.FieldPanic, fmt.Sprint(recovered))
	}
	b.log.Errorw("Event handler failed", fields...)

	if b.onFailure != nil {
		b.onFailure(f)
	}
}

func isNil(e any) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
