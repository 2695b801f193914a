package observable

import "errors"

var (
	// ErrUnknownEvent is returned when an event name was not declared on the channel.
	ErrUnknownEvent = errors.New("tether: unknown event")

	// ErrNilHandler is returned when subscribing a nil listener.
	ErrNilHandler = errors.New("tether: nil event handler")
)
