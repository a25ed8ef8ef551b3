package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"sync"

	random "github.com/jbenet/go-random"

	imageload "github.com/filecoin-project/go-imageload"
)

// ErrResourceNotFound is returned by FakeOpener for unregistered locators.
var ErrResourceNotFound = errors.New("resource not found")

var seedSeq int64

// RandomBytes returns a byte array of the given size with random values.
func RandomBytes(n int64) []byte {
	data := new(bytes.Buffer)
	_ = random.WritePseudoRandomBytes(n, data, seedSeq)
	seedSeq++
	return data.Bytes()
}

// FakeImage is the decoded-image handle produced by FakeDecoder.
type FakeImage struct {
	Hint string
	Data []byte
}

// FakeOpener is a ResourceOpener over an in-memory set of resources. A
// locator with no resource registered fails to open.
type FakeOpener struct {
	resourcesLk sync.Mutex
	resources   map[imageload.Locator][]byte
	openCount   int
}

// NewFakeOpener returns an opener with no resources registered.
func NewFakeOpener() *FakeOpener {
	return &FakeOpener{resources: make(map[imageload.Locator][]byte)}
}

// SetResource registers the bytes behind a locator.
func (fo *FakeOpener) SetResource(locator imageload.Locator, data []byte) {
	fo.resourcesLk.Lock()
	defer fo.resourcesLk.Unlock()
	fo.resources[locator] = data
}

// OpenResourceStream implements imageload.ResourceOpener.
func (fo *FakeOpener) OpenResourceStream(ctx context.Context, locator imageload.Locator) (io.ReadCloser, error) {
	fo.resourcesLk.Lock()
	defer fo.resourcesLk.Unlock()
	fo.openCount++
	data, ok := fo.resources[locator]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

// OpenCount returns how many opens were attempted, successful or not.
func (fo *FakeOpener) OpenCount() int {
	fo.resourcesLk.Lock()
	defer fo.resourcesLk.Unlock()
	return fo.openCount
}

// BlockingOpener wraps an opener and holds every open until Release is
// closed, for exercising submission while the worker is busy.
type BlockingOpener struct {
	Inner   imageload.ResourceOpener
	Release chan struct{}
}

// NewBlockingOpener returns a blocking wrapper around inner.
func NewBlockingOpener(inner imageload.ResourceOpener) *BlockingOpener {
	return &BlockingOpener{Inner: inner, Release: make(chan struct{})}
}

// OpenResourceStream implements imageload.ResourceOpener.
func (bo *BlockingOpener) OpenResourceStream(ctx context.Context, locator imageload.Locator) (io.ReadCloser, error) {
	select {
	case <-bo.Release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return bo.Inner.OpenResourceStream(ctx, locator)
}

// FakeDecoder is a Decoder that wraps stream contents in a FakeImage. Set
// Err to make every decode fail; set PanicMessage to make every decode
// panic.
type FakeDecoder struct {
	Err          error
	PanicMessage string

	decodeCountLk sync.Mutex
	decodeCount   int
}

// DecodeImageStream implements imageload.Decoder.
func (fd *FakeDecoder) DecodeImageStream(r io.Reader, hint string) (imageload.Image, error) {
	fd.decodeCountLk.Lock()
	fd.decodeCount++
	fd.decodeCountLk.Unlock()
	if fd.PanicMessage != "" {
		panic(fd.PanicMessage)
	}
	if fd.Err != nil {
		return nil, fd.Err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &FakeImage{Hint: hint, Data: data}, nil
}

// DecodeCount returns how many decodes were attempted.
func (fd *FakeDecoder) DecodeCount() int {
	fd.decodeCountLk.Lock()
	defer fd.decodeCountLk.Unlock()
	return fd.decodeCount
}

// Completion records one listener invocation.
type Completion struct {
	Token  imageload.Token
	Cookie imageload.Cookie
	Image  imageload.Image
}

// CompletionRecorder collects listener invocations on a channel so tests can
// assert on delivery order and exactly-once semantics.
type CompletionRecorder struct {
	Completions chan Completion
}

// NewCompletionRecorder returns a recorder able to buffer the given number
// of completions without blocking delivery.
func NewCompletionRecorder(buffer int) *CompletionRecorder {
	return &CompletionRecorder{Completions: make(chan Completion, buffer)}
}

// Listener returns the CompleteListener to hand to RequestLoad.
func (cr *CompletionRecorder) Listener() imageload.CompleteListener {
	return func(token imageload.Token, cookie imageload.Cookie, img imageload.Image) {
		cr.Completions <- Completion{Token: token, Cookie: cookie, Image: img}
	}
}
