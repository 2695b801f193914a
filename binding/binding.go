package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jacentio/tether/observable"
	"github.com/jacentio/tether/store"
)

// EventChanged is the only event a Binding emits. Listeners receive a copy
// of the patch (or record) the store reported for the binding's key, shared
// by the listeners of that one binding.
const EventChanged = "changed"

// State is a stage of the binding lifecycle.
type State int32

const (
	// StateConstructing is held until both store subscriptions exist.
	StateConstructing State = iota

	// StateAttached is the only state in which store events are observed.
	StateAttached

	// StateDetached is terminal.
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Binding mirrors one store record.
type Binding struct {
	key     string
	store   store.Store
	logger  *slog.Logger
	changed *observable.Channel[store.Record]

	modifiedSub *observable.Subscription
	removedSub  *observable.Subscription
	state       atomic.Int32
}

// New creates a Binding for the record named by props' primary-key field.
//
// If props carries fields besides the primary key they are merged into the
// store. A props value holding only the key binds to a record that may not
// exist yet, without writing to the store.
func New(ctx context.Context, s store.Store, props store.Record, opts ...Option) (*Binding, error) {
	pk := s.PrimaryKey()
	raw, ok := props[pk]
	if !ok {
		return nil, fmt.Errorf("%w: field %q", ErrMissingPrimaryKey, pk)
	}
	key, ok := raw.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("%w: field %q = %v", ErrInvalidPrimaryKey, pk, raw)
	}

	o := buildOptions(opts)
	b := &Binding{
		key:     key,
		store:   s,
		logger:  o.logger,
		changed: observable.New[store.Record](EventChanged),
	}

	var err error
	b.modifiedSub, err = s.On(store.EventModified, b.onModified)
	if err != nil {
		return nil, fmt.Errorf("subscribe modified: %w", err)
	}
	b.removedSub, err = s.On(store.EventRemoved, b.onRemoved)
	if err != nil {
		b.modifiedSub.Cancel()
		return nil, fmt.Errorf("subscribe removed: %w", err)
	}

	if len(props) > 1 {
		if err := s.Put(ctx, props); err != nil {
			b.modifiedSub.Cancel()
			b.removedSub.Cancel()
			return nil, fmt.Errorf("seed record %q: %w", key, err)
		}
	}

	b.state.Store(int32(StateAttached))
	return b, nil
}

// Key returns the primary-key value. It never changes.
func (b *Binding) Key() string {
	return b.key
}

// PrimaryKey returns the name of the primary-key field.
func (b *Binding) PrimaryKey() string {
	return b.store.PrimaryKey()
}

// Store returns the store the binding reads from.
func (b *Binding) Store() store.Store {
	return b.store
}

// State returns the current lifecycle state.
func (b *Binding) State() State {
	return State(b.state.Load())
}

// Detached reports whether the binding stopped observing the store.
func (b *Binding) Detached() bool {
	return b.State() == StateDetached
}

// Has reports whether the record exists and contains field.
// A missing record has no fields.
func (b *Binding) Has(ctx context.Context, field string) (bool, error) {
	rec, ok, err := b.load(ctx)
	if err != nil || !ok {
		return false, err
	}
	return rec.Has(field), nil
}

// Get returns the current value of field, or nil when the record or the
// field is absent.
func (b *Binding) Get(ctx context.Context, field string) (any, error) {
	rec, ok, err := b.load(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return rec[field], nil
}

// Set merges {field: value} into the record.
func (b *Binding) Set(ctx context.Context, field string, value any) error {
	return b.Patch(ctx, store.Record{field: value})
}

// Patch merges patch into the record. Fields not in patch are left alone.
// A patch may repeat the binding's key but not change it.
func (b *Binding) Patch(ctx context.Context, patch store.Record) error {
	pk := b.store.PrimaryKey()
	if v, ok := patch[pk]; ok {
		if key, isString := v.(string); !isString || key != b.key {
			return fmt.Errorf("%w: field %q", ErrImmutableField, pk)
		}
	}
	if err := b.store.Set(ctx, b.key, patch); err != nil {
		return fmt.Errorf("set %q: %w", b.key, err)
	}
	return nil
}

// IsStored reports whether the store currently holds the record.
func (b *Binding) IsStored(ctx context.Context) (bool, error) {
	return b.store.Has(ctx, b.key)
}

// ToObject returns a copy of the full record. An unstored record is
// returned as just its primary key.
func (b *Binding) ToObject(ctx context.Context) (store.Record, error) {
	rec, ok, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return store.Record{b.store.PrimaryKey(): b.key}, nil
	}
	return rec.Clone(), nil
}

// On registers fn for every "changed" event.
func (b *Binding) On(event string, fn func(store.Record)) (*observable.Subscription, error) {
	return b.changed.On(event, fn)
}

// Once registers fn for the next "changed" event.
func (b *Binding) Once(event string, fn func(store.Record)) (*observable.Subscription, error) {
	return b.changed.Once(event, fn)
}

// Off unregisters a listener added with On or Once.
func (b *Binding) Off(sub *observable.Subscription) {
	b.changed.Off(sub)
}

// Listeners returns the number of "changed" listeners.
func (b *Binding) Listeners() int {
	return b.changed.Len(EventChanged)
}

// Close detaches the binding from the store and drops its listeners.
// It is safe to call more than once, and after the record was removed.
func (b *Binding) Close() error {
	b.detach("closed")
	b.changed.Clear()
	return nil
}

// load reads the record, checking existence first so a missing record
// never surfaces as an error.
func (b *Binding) load(ctx context.Context) (store.Record, bool, error) {
	ok, err := b.store.Has(ctx, b.key)
	if err != nil {
		return nil, false, fmt.Errorf("has %q: %w", b.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := b.store.Get(ctx, b.key)
	if errors.Is(err, store.ErrNotFound) {
		// Removed between Has and Get.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", b.key, err)
	}
	return rec, true, nil
}

func (b *Binding) onModified(c store.Change) {
	if c.Key != b.key || b.State() != StateAttached {
		return
	}
	// Each binding gets its own copy; listeners may edit it
	if err := b.changed.Emit(EventChanged, c.Value.Clone()); err != nil {
		b.logger.Error("failed to emit changed",
			"key", b.key,
			"error", err,
		)
	}
}

func (b *Binding) onRemoved(c store.Change) {
	if c.Key != b.key {
		return
	}
	b.detach("removed")
}

// detach moves Attached to Detached and releases both store subscriptions.
// Only the first call has any effect.
func (b *Binding) detach(reason string) bool {
	if !b.state.CompareAndSwap(int32(StateAttached), int32(StateDetached)) {
		return false
	}
	b.store.Off(b.modifiedSub)
	b.store.Off(b.removedSub)

	b.logger.Debug("binding detached",
		"key", b.key,
		"reason", reason,
	)
	return true
}
