package delivery

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"github.com/filecoin-project/go-imageload/panics"
)

var log = logging.Logger("il-delivery")

// Queue is a single-threaded task runner: every posted task executes later,
// in post order, on the one goroutine the queue owns. It is the "owning
// context" that completion routing and listener callbacks are confined to,
// so their side effects never race the worker context.
type Queue struct {
	ctx           context.Context
	cancel        context.CancelFunc
	incomingTasks chan func()
	outgoingTasks chan func()
}

// NewQueue initializes a delivery queue from the given context.
func NewQueue(ctx context.Context) *Queue {
	ctx, cancel := context.WithCancel(ctx)
	return &Queue{
		ctx:           ctx,
		cancel:        cancel,
		incomingTasks: make(chan func()),
		outgoingTasks: make(chan func()),
	}
}

// Startup starts processing of tasks.
func (q *Queue) Startup() {
	go q.bufferTasks()
	go q.run()
}

// Shutdown stops processing. Tasks still buffered are dropped.
func (q *Queue) Shutdown() {
	q.cancel()
}

// Post enqueues a task for execution on the queue's goroutine. It does not
// wait for the task to run. Posting to a shut down queue is a no-op.
func (q *Queue) Post(task func()) {
	select {
	case <-q.ctx.Done():
	case q.incomingTasks <- task:
	}
}

func (q *Queue) run() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.outgoingTasks:
			// the loop must stay alive even if a task panics
			panics.Guard(q.logPanic, task)
		}
	}
}

// bufferTasks absorbs incoming tasks into an unbounded buffer so Post never
// waits on whatever task is currently executing.
func (q *Queue) bufferTasks() {
	var taskBuffer []func()
	nextTask := func() func() {
		if len(taskBuffer) == 0 {
			return nil
		}
		return taskBuffer[0]
	}
	outgoingTasks := func() chan<- func() {
		if len(taskBuffer) == 0 {
			return nil
		}
		return q.outgoingTasks
	}
	for {
		select {
		case incomingTask := <-q.incomingTasks:
			taskBuffer = append(taskBuffer, incomingTask)
		case outgoingTasks() <- nextTask():
			taskBuffer = taskBuffer[1:]
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) logPanic(recoverObj interface{}, debugStackTrace string) {
	log.Errorf("recovered panic in delivery task: %v\n%s", recoverObj, debugStackTrace)
}
