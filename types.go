package imageload

import (
	"context"
	"io"
)

// Token is a caller chosen correlation id for a load request. It is carried
// through the dispatcher untouched and handed back on completion, so a
// listener can match a result against its own current expectations.
type Token uint64

// Cookie is an opaque caller payload carried alongside a request and returned
// unchanged with its result.
type Cookie interface{}

// Locator identifies the resource to load. It is opaque to this module; only
// the ResourceOpener collaborator interprets it. An empty Locator is invalid.
type Locator string

// Identity is an opaque handle for the long-lived domain entity (a call, a
// connection, a roster entry) an image result is associated with. Handles are
// allocated by a targets.Arena and compared by value.
type Identity uint64

// NoIdentity is the null identity. It compares equal only to itself.
const NoIdentity Identity = 0

// Image is an opaque handle to a decoded image produced by a Decoder.
type Image interface{}

// CompleteListener is a callback invoked exactly once per accepted request,
// on the delivery context. A nil image means the load produced nothing --
// open failures, decode failures and genuinely empty resources are
// indistinguishable at this boundary, and the listener should fall back to a
// default rendering.
type CompleteListener func(token Token, cookie Cookie, img Image)

// Request describes a single image load. Immutable once submitted.
type Request struct {
	Token      Token
	Identity   Identity
	Locator    Locator
	Cookie     Cookie
	OnComplete CompleteListener
}

// Result is the outcome of a Request. Exactly one Result is produced per
// accepted Request. Image is nil when the load produced nothing.
type Result struct {
	Token    Token
	Cookie   Cookie
	Identity Identity
	Image    Image
	Request  Request
}

// ResourceOpener opens the byte stream behind a locator. Implemented by the
// surrounding application (content provider, file store, etc).
type ResourceOpener interface {
	OpenResourceStream(ctx context.Context, locator Locator) (io.ReadCloser, error)
}

// Decoder turns an opened stream into a decoded image handle. The hint is the
// string form of the locator, for decoders that sniff by name.
type Decoder interface {
	DecodeImageStream(r io.Reader, hint string) (Image, error)
}

// Manager is the public entry point for asynchronous image loads
type Manager interface {
	// Start initializes processing. Must be called before RequestLoad.
	Start(ctx context.Context) error

	// Stop ends processing. Loads still in flight are abandoned and no
	// further results are delivered.
	Stop(ctx context.Context) error

	// RequestLoad enqueues an image load. It never blocks and never fails:
	// a request with an empty locator, or issued outside Start/Stop, is
	// logged and dropped without producing a result, matching the behavior
	// of issuing no request at all.
	RequestLoad(identity Identity, token Token, locator Locator, cookie Cookie, listener CompleteListener)

	// NextToken returns a process-unique token for callers that do not
	// manage their own correlation ids.
	NextToken() Token

	// SubscribeToEvents subscribes to load lifecycle events
	SubscribeToEvents(subscriber Subscriber) Unsubscribe
}
