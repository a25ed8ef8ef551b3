package imageload

type errorString string

func (es errorString) Error() string {
	return string(es)
}

// ErrNotStarted indicates a load was requested before Start or after Stop
const ErrNotStarted = errorString("image load manager not started")

// ErrAlreadyStarted indicates Start was called on a running manager
const ErrAlreadyStarted = errorString("image load manager already started")

// ErrMissingLocator indicates a load request carried an empty locator
const ErrMissingLocator = errorString("locator is missing")

// ErrWrongEventType indicates a payload of an unexpected type was published
// on the event pubsub
const ErrWrongEventType = errorString("wrong type of event")

// ErrWrongSubscriberType indicates a subscriber of an unexpected type was
// registered on the event pubsub
const ErrWrongSubscriberType = errorString("wrong type of subscriber")
