package js

import (
	"errors"
	"sync"
)

// EventLoop implements an eventloop.
// Jobs are executed on the goroutine that called Start, other goroutines
// hand their results back through the Enqueue returned by EnqueueJob.
type EventLoop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func() error // jobs ready to be executed
	cleanup []func()       // jobs executed when the loop finished
	pending int            // count of registered jobs not enqueued yet
	gen     uint64         // incremented by every Start
	stopped bool
}

// NewEventLoop create a new EventLoop instance
func NewEventLoop() *EventLoop {
	e := new(EventLoop)
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Start the event loop and execute the provided task, then the enqueued
// jobs until no registered job remains or Stop is called.
// Errors of the task and the jobs are joined.
func (e *EventLoop) Start(task func() error) error {
	e.mu.Lock()
	e.gen++
	e.stopped = false
	e.pending = 0
	e.queue = append(e.queue[:0], task)
	e.mu.Unlock()
	defer e.runCleanup()

	var errs []error
	for {
		e.mu.Lock()
		if e.stopped {
			e.mu.Unlock()
			break
		}

		if len(e.queue) > 0 {
			queue := e.queue
			e.queue = nil
			e.mu.Unlock()

			for _, job := range queue {
				if err := job(); err != nil {
					errs = append(errs, err)
				}
			}
			continue
		}

		if e.pending > 0 {
			e.cond.Wait()
			e.mu.Unlock()
			continue
		}

		e.mu.Unlock()
		break
	}

	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// Enqueue adds the job to the loop, it must be called only once.
type Enqueue func(func() error)

// EnqueueJob registers a job that will be enqueued later, the loop keeps
// running until the returned Enqueue is called.
// Usage:
//
//	enqueue := loop.EnqueueJob()
//	go func() {
//		data, err := os.ReadFile(name)
//		enqueue(func() error {
//			if err != nil {
//				return reject(err)
//			}
//			return resolve(string(data))
//		})
//	}()
func (e *EventLoop) EnqueueJob() Enqueue {
	e.mu.Lock()
	e.pending++
	gen := e.gen
	e.mu.Unlock()

	called := false
	return func(job func() error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if called {
			panic("Enqueue already called")
		}
		called = true
		if e.stopped || gen != e.gen {
			return
		}
		e.queue = append(e.queue, job)
		e.pending--
		e.cond.Signal()
	}
}

// Cleanup add a function to execute when the loop finished.
func (e *EventLoop) Cleanup(job func()) {
	e.mu.Lock()
	e.cleanup = append(e.cleanup, job)
	e.mu.Unlock()
}

// Stop the event loop, the pending jobs are discarded and
// the cleanup functions are executed.
func (e *EventLoop) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.queue = nil
	e.pending = 0
	e.cond.Broadcast()
	e.mu.Unlock()
	e.runCleanup()
}

func (e *EventLoop) runCleanup() {
	e.mu.Lock()
	jobs := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}
