// Package observable provides a per-object broadcast channel for named events.
//
// A [Channel] is declared with the closed set of event names it can emit.
// Listeners are registered with [Channel.On] or [Channel.Once] and receive a
// [Subscription] handle that releases them:
//
//	ch := observable.New[string]("changed")
//	sub, err := ch.On("changed", func(v string) { fmt.Println(v) })
//	if err != nil {
//	    return err
//	}
//	defer sub.Cancel()
//
//	ch.Emit("changed", "hello")
//
// # Dispatch
//
// [Channel.Emit] runs listeners synchronously, in registration order, in the
// caller's goroutine. Dispatch iterates over a snapshot of the listener list,
// so a listener may subscribe or cancel subscriptions (including its own)
// while an event is being delivered. A listener cancelled before its turn in
// the snapshot is skipped.
//
// # Errors
//
//   - [ErrUnknownEvent] - event name was not declared in [New]
//   - [ErrNilHandler] - nil listener function
package observable
