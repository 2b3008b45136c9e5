package respool

import "github.com/gammazero/workerpool"

// Executor is the scheduling capability an async caller brings to the
// pool: the ability to post (always defer to later) and dispatch (run now
// if it is safe to, otherwise defer) a nullary callback, preserving order
// per executor. The pool never runs a waiter's continuation on its own
// goroutine except through one of these two calls.
type Executor interface {
	// Post always schedules fn to run later, never inline with the call
	// to Post itself.
	Post(fn func())
	// Dispatch runs fn now if it is safe to do so, otherwise defers it
	// the same way Post would.
	Dispatch(fn func())
}

// InlineExecutor is the minimal Executor: Dispatch runs synchronously on
// the calling goroutine, Post hands fn to a fresh goroutine. It has no
// notion of "the current strand": posted callbacks run in no defined
// order, even when posted from a single goroutine, and Dispatch calls
// from different goroutines can interleave arbitrarily. A
// WorkerPoolExecutor of size 1 runs callbacks one at a time in submission
// order; larger sizes run them concurrently.
type InlineExecutor struct{}

func (InlineExecutor) Post(fn func())     { go fn() }
func (InlineExecutor) Dispatch(fn func()) { fn() }

// WorkerPoolExecutor bounds completions to a fixed goroutine budget by
// submitting them to a github.com/gammazero/workerpool.WorkerPool. A
// worker pool has no "currently running on this goroutine" concept to
// dispatch inline onto, so Dispatch behaves exactly like Post here; this
// is documented rather than hidden, since a caller relying on Dispatch's
// "maybe inline" contract for re-entrancy would be surprised otherwise.
type WorkerPoolExecutor struct {
	wp *workerpool.WorkerPool
}

// NewWorkerPoolExecutor starts size worker goroutines pulling from a
// shared task queue.
func NewWorkerPoolExecutor(size int) *WorkerPoolExecutor {
	return &WorkerPoolExecutor{wp: workerpool.New(size)}
}

func (e *WorkerPoolExecutor) Post(fn func())     { e.wp.Submit(fn) }
func (e *WorkerPoolExecutor) Dispatch(fn func()) { e.wp.Submit(fn) }

// StopWait waits for queued and running tasks to finish, then shuts the
// worker pool down. Safe to call once, at shutdown.
func (e *WorkerPoolExecutor) StopWait() { e.wp.StopWait() }
