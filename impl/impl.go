package impl

import (
	"context"
	"sync"
	"time"

	"github.com/hannahhoward/go-pubsub"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/atomic"
	"golang.org/x/xerrors"

	imageload "github.com/filecoin-project/go-imageload"
	"github.com/filecoin-project/go-imageload/delivery"
	"github.com/filecoin-project/go-imageload/dispatcher"
	"github.com/filecoin-project/go-imageload/router"
	"github.com/filecoin-project/go-imageload/targets"
)

var log = logging.Logger("il-impl")

type manager struct {
	opener      imageload.ResourceOpener
	decoder     imageload.Decoder
	arena       *targets.Arena
	pubSub      *pubsub.PubSub
	router      *router.Router
	workerCount int

	lifecycleLk sync.Mutex
	started     atomic.Bool
	tokens      atomic.Uint64
	dispatcher  *dispatcher.Dispatcher
	delivery    *delivery.Queue
}

type internalEvent struct {
	evt    imageload.Event
	result imageload.Result
}

func eventDispatcher(evt pubsub.Event, subscriberFn pubsub.SubscriberFn) error {
	ie, ok := evt.(internalEvent)
	if !ok {
		return imageload.ErrWrongEventType
	}
	cb, ok := subscriberFn.(imageload.Subscriber)
	if !ok {
		return imageload.ErrWrongSubscriberType
	}
	cb(ie.evt, ie.result)
	return nil
}

// Option customizes manager construction
type Option func(*manager)

// WithWorkerCount sets the number of background load workers. One worker
// (the default) executes loads strictly in submission order.
func WithWorkerCount(n int) Option {
	return func(m *manager) {
		m.workerCount = n
	}
}

// NewImageLoader initializes a new image load manager. Identities submitted
// to RequestLoad must come from the given arena; the arena's records are
// where cached image state gets stamped on completion.
func NewImageLoader(arena *targets.Arena, opener imageload.ResourceOpener, decoder imageload.Decoder, options ...Option) (imageload.Manager, error) {
	if arena == nil {
		return nil, xerrors.New("image loader requires a target arena")
	}
	if opener == nil {
		return nil, xerrors.New("image loader requires a resource opener")
	}
	if decoder == nil {
		return nil, xerrors.New("image loader requires a decoder")
	}
	m := &manager{
		opener:      opener,
		decoder:     decoder,
		arena:       arena,
		pubSub:      pubsub.New(eventDispatcher),
		workerCount: 1,
	}
	for _, option := range options {
		option(m)
	}
	m.router = router.New(arena, m.publishEvent)
	return m, nil
}

// Start initializes image load processing
func (m *manager) Start(ctx context.Context) error {
	m.lifecycleLk.Lock()
	defer m.lifecycleLk.Unlock()
	if m.started.Load() {
		return xerrors.Errorf("starting image loader: %w", imageload.ErrAlreadyStarted)
	}
	m.delivery = delivery.NewQueue(ctx)
	m.dispatcher = dispatcher.New(ctx, m.opener, m.decoder, m.postResult,
		dispatcher.WithWorkerCount(m.workerCount))
	m.delivery.Startup()
	m.dispatcher.Startup()
	// flipped last so RequestLoad never observes a half-built manager
	m.started.Store(true)
	return nil
}

// Stop terminates all image loads and ends processing
func (m *manager) Stop(ctx context.Context) error {
	m.lifecycleLk.Lock()
	defer m.lifecycleLk.Unlock()
	if !m.started.Load() {
		return nil
	}
	m.started.Store(false)
	m.dispatcher.Shutdown()
	m.delivery.Shutdown()
	return nil
}

// RequestLoad enqueues an image load. It mirrors the fire-and-forget entry
// point of the platform helpers it replaces: it never blocks and surfaces no
// error to the caller.
func (m *manager) RequestLoad(identity imageload.Identity, token imageload.Token, locator imageload.Locator, cookie imageload.Cookie, listener imageload.CompleteListener) {
	if locator == "" {
		// refuse to dispatch rather than produce an empty result; a
		// request without a locator is treated as never issued
		log.Errorf("dropping image load request %d: %s", token, imageload.ErrMissingLocator)
		return
	}
	if !m.started.Load() {
		log.Errorf("dropping image load request %d: %s", token, imageload.ErrNotStarted)
		return
	}

	request := imageload.Request{
		Token:      token,
		Identity:   identity,
		Locator:    locator,
		Cookie:     cookie,
		OnComplete: listener,
	}
	m.publishEvent(imageload.Event{
		Code:      imageload.Accepted,
		Token:     token,
		Timestamp: time.Now(),
	}, imageload.Result{Token: token, Cookie: cookie, Identity: identity, Request: request})
	m.dispatcher.Submit(request)
}

// NextToken returns a process-unique correlation token.
func (m *manager) NextToken() imageload.Token {
	return imageload.Token(m.tokens.Inc())
}

// SubscribeToEvents registers a subscriber for image load events
func (m *manager) SubscribeToEvents(subscriber imageload.Subscriber) imageload.Unsubscribe {
	return imageload.Unsubscribe(m.pubSub.Subscribe(subscriber))
}

// postResult routes a finished load onto the delivery queue, where the
// router applies it. Nothing downstream of the worker context mutates shared
// state directly.
func (m *manager) postResult(result imageload.Result) {
	m.delivery.Post(func() {
		m.router.HandleResult(result)
	})
}

func (m *manager) publishEvent(evt imageload.Event, result imageload.Result) {
	err := m.pubSub.Publish(internalEvent{evt, result})
	if err != nil {
		log.Warnf("err publishing image load event: %s", err.Error())
	}
}
