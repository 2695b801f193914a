package store

import (
	"context"

	"github.com/jacentio/tether/observable"
)

// Store event names.
const (
	// EventModified fires after any insert or merge.
	EventModified = "modified"

	// EventRemoved fires after a record is deleted.
	EventRemoved = "removed"
)

// Notifier manages subscriptions to store events.
type Notifier interface {
	// On registers fn for every emission of event.
	On(event string, fn func(Change)) (*observable.Subscription, error)

	// Once registers fn for the next emission of event only.
	Once(event string, fn func(Change)) (*observable.Subscription, error)

	// Off unregisters the listener behind sub.
	Off(sub *observable.Subscription)
}

// Store is the key-value store contract bindings depend on.
type Store interface {
	Notifier

	// PrimaryKey returns the name of the primary-key field.
	PrimaryKey() string

	// Has reports whether a record exists for key.
	Has(ctx context.Context, key string) (bool, error)

	// Get returns a copy of the record for key, or ErrNotFound.
	// Callers that cannot tolerate ErrNotFound should check Has first.
	Get(ctx context.Context, key string) (Record, error)

	// Set merges patch into the record for key, inserting it if absent,
	// then fires EventModified with the patch.
	Set(ctx context.Context, key string, patch Record) error

	// Put merges record into the record named by its primary-key field,
	// inserting it if absent, then fires EventModified with the record.
	Put(ctx context.Context, record Record) error

	// Remove deletes the record for key, then fires EventRemoved with its
	// last value. Missing records return ErrNotFound and fire nothing.
	Remove(ctx context.Context, key string) error
}

// Emitter publishes store events. Stores embedding Events satisfy it.
type Emitter interface {
	Emit(event string, c Change) error
}

// Events is the store-side notifier embedded by Store implementations.
type Events struct {
	ch *observable.Channel[Change]
}

// NewEvents creates a notifier for EventModified and EventRemoved.
func NewEvents() *Events {
	return &Events{ch: observable.New[Change](EventModified, EventRemoved)}
}

// On registers fn for every emission of event.
func (e *Events) On(event string, fn func(Change)) (*observable.Subscription, error) {
	return e.ch.On(event, fn)
}

// Once registers fn for the next emission of event only.
func (e *Events) Once(event string, fn func(Change)) (*observable.Subscription, error) {
	return e.ch.Once(event, fn)
}

// Off unregisters the listener behind sub.
func (e *Events) Off(sub *observable.Subscription) {
	e.ch.Off(sub)
}

// Emit delivers c to the listeners of event.
func (e *Events) Emit(event string, c Change) error {
	return e.ch.Emit(event, c)
}

// Listeners returns the number of active listeners for event.
func (e *Events) Listeners(event string) int {
	return e.ch.Len(event)
}
