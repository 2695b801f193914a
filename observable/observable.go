package observable

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Subscription is the handle for one registered listener.
type Subscription struct {
	owner  any
	event  string
	active atomic.Bool
	remove func(*Subscription)
}

// Event returns the event name the subscription listens to.
func (s *Subscription) Event() string {
	return s.event
}

// Active reports whether the listener is still registered.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Cancel unregisters the listener. It returns true only for the call that
// actually removed it; later calls are no-ops that return false.
func (s *Subscription) Cancel() bool {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return false
	}
	s.remove(s)
	return true
}

type listener[T any] struct {
	sub  *Subscription
	fn   func(T)
	once bool
}

// Channel broadcasts values of type T to listeners of named events.
type Channel[T any] struct {
	mu        sync.Mutex
	listeners map[string][]listener[T]
}

// New creates a Channel that accepts the given event names.
func New[T any](events ...string) *Channel[T] {
	listeners := make(map[string][]listener[T], len(events))
	for _, event := range events {
		listeners[event] = nil
	}
	return &Channel[T]{listeners: listeners}
}

// Events returns the declared event names.
func (c *Channel[T]) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.listeners))
	for name := range c.listeners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// On registers fn for every emission of event.
func (c *Channel[T]) On(event string, fn func(T)) (*Subscription, error) {
	return c.subscribe(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (c *Channel[T]) Once(event string, fn func(T)) (*Subscription, error) {
	return c.subscribe(event, fn, true)
}

// Off unregisters the listener behind sub. Nil, already cancelled and
// foreign subscriptions are ignored.
func (c *Channel[T]) Off(sub *Subscription) {
	if sub == nil || sub.owner != any(c) {
		return
	}
	sub.Cancel()
}


// Len returns the number of active listeners for event.
func (c *Channel[T]) Len(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}

// Clear cancels every listener of every event.
func (c *Channel[T]) Clear() {
	c.mu.Lock()
	var subs []*Subscription
	for _, ls := range c.listeners {
		for _, l := range ls {
			subs = append(subs, l.sub)
		}
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// Emit delivers v to the listeners of event.
func (c *Channel[T]) Emit(event string, v T) error {
	c.mu.Lock()
	ls, ok := c.listeners[event]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("emit %q: %w", event, ErrUnknownEvent)
	}
	snapshot := slices.Clone(ls)
	c.mu.Unlock()

	for _, l := range snapshot {
		if l.once {
			// Claim the one-shot listener; a concurrent or re-entrant emit may
			// already have consumed it.
			if !l.sub.Cancel() {
				continue
			}
		} else if !l.sub.Active() {
			continue
		}
		l.fn(v)
	}
	return nil
}

func (c *Channel[T]) subscribe(event string, fn func(T), once bool) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.listeners[event]; !ok {
		return nil, fmt.Errorf("subscribe %q: %w", event, ErrUnknownEvent)
	}

	sub := &Subscription{owner: c, event: event, remove: c.remove}
	sub.active.Store(true)
	c.listeners[event] = append(c.listeners[event], listener[T]{sub: sub, fn: fn, once: once})
	return sub, nil
}

func (c *Channel[T]) remove(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners[sub.event] = slices.DeleteFunc(c.listeners[sub.event], func(l listener[T]) bool {
		return l.sub == sub
	})
}
