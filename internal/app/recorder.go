package app

import (
	"context"
	"log"
	"sync"
	"time"
)

const recordTimeout = 5 * time.Second

type recordTask struct {
	op string
	fn func(context.Context) error
}

// Recorder runs persistence writes on a background goroutine so the state
// machine never waits on the sink. Enqueue is non-blocking: when the queue is
// full the task is dropped and logged, matching the fire-and-forget contract.
type Recorder struct {
	tasks   chan recordTask
	pending sync.WaitGroup
	done    chan struct{}
}

func NewRecorder(buffer int) *Recorder {
	r := &Recorder{
		tasks: make(chan recordTask, buffer),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) Enqueue(op string, fn func(context.Context) error) {
	r.pending.Add(1)
	select {
	case r.tasks <- recordTask{op: op, fn: fn}:
	default:
		r.pending.Done()
		log.Printf("recorder: queue full, dropping %s", op)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for task := range r.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := task.fn(ctx); err != nil {
			log.Printf("recorder: %s failed: %v", task.op, err)
		}
		cancel()
		r.pending.Done()
	}
}

// Flush blocks until every task enqueued so far has been attempted.
func (r *Recorder) Flush() {
	r.pending.Wait()
}

// Close drains the queue and stops the worker. The recorder must not be
// used afterwards.
func (r *Recorder) Close() {
	r.pending.Wait()
	close(r.tasks)
	<-r.done
}
