package dispatcher

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	imageload "github.com/filecoin-project/go-imageload"
	"github.com/filecoin-project/go-imageload/panics"
)

var log = logging.Logger("il-dispatcher")

// PostResult hands a finished result toward the delivery context. The
// dispatcher never runs completion side effects itself.
type PostResult func(imageload.Result)

// Option customizes dispatcher construction
type Option func(*Dispatcher)

// WithWorkerCount sets the number of load workers. The default is one
// worker, which executes jobs strictly in submission order. With more than
// one worker, ordering across jobs is not guaranteed; per-request correlation
// still is.
func WithWorkerCount(n int) Option {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.workerCount = n
	}
}

// Dispatcher executes image loads on a background context, decoupled from
// the issuing context. Submission never blocks on I/O: jobs are absorbed
// into an unbounded buffer and drained by the worker(s). Every submitted
// request produces exactly one result -- a failed open or decode is absorbed
// and reported as an absent image, never as an error.
type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	opener  imageload.ResourceOpener
	decoder imageload.Decoder
	post    PostResult

	incomingJobs chan imageload.Request
	outgoingJobs chan imageload.Request
	workerCount  int
	workers      *errgroup.Group
}

// New initializes a dispatcher that loads streams through opener, decodes
// them through decoder, and posts each finished result through post.
func New(ctx context.Context, opener imageload.ResourceOpener, decoder imageload.Decoder, post PostResult, options ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		ctx:          ctx,
		cancel:       cancel,
		opener:       opener,
		decoder:      decoder,
		post:         post,
		incomingJobs: make(chan imageload.Request),
		outgoingJobs: make(chan imageload.Request),
		workerCount:  1,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Startup starts processing of load jobs.
func (d *Dispatcher) Startup() {
	go d.bufferJobs()
	group, _ := errgroup.WithContext(d.ctx)
	d.workers = group
	for i := 0; i < d.workerCount; i++ {
		group.Go(d.worker)
	}
}

// Shutdown ends processing and waits for the workers to exit. A job caught
// mid-execution still posts its result before its worker exits, and jobs
// still buffered are flushed as absent-image results.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	if d.workers != nil {
		_ = d.workers.Wait()
	}
}

// Submit enqueues a load job. It never blocks on job execution and never
// fails. A request accepted by Submit yields exactly one result; if the
// dispatcher is already shutting down the result is posted immediately with
// an absent image.
func (d *Dispatcher) Submit(request imageload.Request) {
	select {
	case <-d.ctx.Done():
		d.post(absentResult(request))
	case d.incomingJobs <- request:
	}
}

func (d *Dispatcher) worker() error {
	for {
		select {
		case <-d.ctx.Done():
			return nil
		case request := <-d.outgoingJobs:
			d.executeLoad(request)
		}
	}
}

// bufferJobs absorbs incoming jobs into an unbounded FIFO buffer so that
// Submit stays responsive while a worker is blocked inside open or decode.
func (d *Dispatcher) bufferJobs() {
	var jobBuffer []imageload.Request
	nextJob := func() imageload.Request {
		if len(jobBuffer) == 0 {
			return imageload.Request{}
		}
		return jobBuffer[0]
	}
	outgoingJobs := func() chan<- imageload.Request {
		if len(jobBuffer) == 0 {
			return nil
		}
		return d.outgoingJobs
	}
	for {
		select {
		case incomingJob := <-d.incomingJobs:
			jobBuffer = append(jobBuffer, incomingJob)
		case outgoingJobs() <- nextJob():
			jobBuffer = jobBuffer[1:]
		case <-d.ctx.Done():
			// buffered jobs were accepted and still owe a result each
			for _, job := range jobBuffer {
				d.post(absentResult(job))
			}
			return
		}
	}
}

func (d *Dispatcher) executeLoad(request imageload.Request) {
	ctx, span := otel.Tracer("imageload").Start(d.ctx, "loadImage",
		trace.WithAttributes(
			attribute.Int64("token", int64(request.Token)),
			attribute.String("locator", string(request.Locator)),
		))
	defer span.End()

	var img imageload.Image
	panicked := panics.Guard(d.logPanic, func() {
		img = d.fetchAndDecode(ctx, request, span)
	})
	if panicked {
		span.SetStatus(codes.Error, "panic during image load")
		img = nil
	}

	d.post(imageload.Result{
		Token:    request.Token,
		Cookie:   request.Cookie,
		Identity: request.Identity,
		Image:    img,
		Request:  request,
	})
}

// fetchAndDecode runs the blocking portion of a load. Both collaborators may
// fail; either failure is logged, recorded on the span, and collapsed into
// an absent image.
func (d *Dispatcher) fetchAndDecode(ctx context.Context, request imageload.Request, span trace.Span) imageload.Image {
	stream, err := d.opener.OpenResourceStream(ctx, request.Locator)
	if err != nil {
		log.Errorf("error opening image input stream for %s: %s", request.Locator, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	defer stream.Close()

	img, err := d.decoder.DecodeImageStream(stream, string(request.Locator))
	if err != nil {
		log.Errorf("error decoding image for %s: %s", request.Locator, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	return img
}

func (d *Dispatcher) logPanic(recoverObj interface{}, debugStackTrace string) {
	log.Errorf("recovered panic in image load: %v\n%s", recoverObj, debugStackTrace)
}

func absentResult(request imageload.Request) imageload.Result {
	return imageload.Result{
		Token:    request.Token,
		Cookie:   request.Cookie,
		Identity: request.Identity,
		Request:  request,
	}
}
