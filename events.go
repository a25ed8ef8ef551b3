package imageload

import "time"

// EventCode is a name for an event that occurs during an image load
type EventCode int

const (
	// Accepted is an event that emits when a load request passes
	// validation and is handed to the dispatcher
	Accepted EventCode = iota

	// Completed is an event that emits when a result is delivered, whether
	// or not an image was produced
	Completed
)

// Events are human readable names for image load events
var Events = map[EventCode]string{
	Accepted:  "Accepted",
	Completed: "Completed",
}

// Event is a struct containing information about an image load event
type Event struct {
	Code      EventCode // What type of event it is
	Token     Token     // The request the event relates to
	Timestamp time.Time // when the event happened
}

// Subscriber is a callback that is called when load events are emitted
type Subscriber func(event Event, result Result)

// Unsubscribe is a function that gets called to unsubscribe from load events
type Unsubscribe func()
