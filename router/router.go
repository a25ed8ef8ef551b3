package router

import (
	"time"

	imageload "github.com/filecoin-project/go-imageload"
	"github.com/filecoin-project/go-imageload/targets"
)

// PublishEvent emits a load lifecycle event to whoever is observing.
type PublishEvent func(evt imageload.Event, result imageload.Result)

// Router applies completed load results on the delivery context: it stamps
// the target's cached image state, notifies the per-request listener, and
// publishes a Completed event.
//
// The router is deliberately a dumb at-most-once delivery mechanism: it does
// not re-check whether the target's identity moved on while the load was in
// flight. Staleness suppression happens only at the tracker gate before
// dispatch; a listener that cares filters for itself using the token and
// cookie it receives.
type Router struct {
	arena   *targets.Arena
	publish PublishEvent
}

// New initializes a router that stamps cached image state into arena and
// publishes completion events through publish. publish may be nil when event
// publication is not wanted.
func New(arena *targets.Arena, publish PublishEvent) *Router {
	return &Router{
		arena:   arena,
		publish: publish,
	}
}

// HandleResult applies a result. It must run on the delivery context: target
// record mutation and listener invocation are confined there by contract.
func (r *Router) HandleResult(result imageload.Result) {
	if result.Image != nil && result.Identity != imageload.NoIdentity {
		r.arena.AttachCachedImage(result.Identity, result.Image)
	}

	// note that the cached image state is current, image or not
	if result.Identity != imageload.NoIdentity {
		r.arena.MarkCachedImageCurrent(result.Identity)
	}

	if result.Request.OnComplete != nil {
		result.Request.OnComplete(result.Token, result.Cookie, result.Image)
	}

	if r.publish != nil {
		r.publish(imageload.Event{
			Code:      imageload.Completed,
			Token:     result.Token,
			Timestamp: time.Now(),
		}, result)
	}
}
