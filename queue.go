package respool

import (
	"container/heap"
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// waiter is a single pending async request: a continuation to complete,
// the executor it must be completed through, and an absolute expiry.
// order/deadline indices both point back at the same waiter so either one
// can remove it in O(log n).
type waiter[T any] struct {
	id       uuid.UUID
	deadline time.Time
	executor Executor
	complete func(err error, c *cell[T])

	orderElem *list.Element
	heapIndex int
}

// waiterHeap orders waiters by ascending deadline; the standard library
// has no ordered multimap, so container/heap backs this
// "earliest deadline wins" structure instead.
type waiterHeap[T any] []*waiter[T]

func (h waiterHeap[T]) Len() int            { return len(h) }
func (h waiterHeap[T]) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h waiterHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIndex = i; h[j].heapIndex = j }
func (h *waiterHeap[T]) Push(x interface{}) {
	w := x.(*waiter[T])
	w.heapIndex = len(*h)
	*h = append(*h, w)
}
func (h *waiterHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.heapIndex = -1
	*h = old[:n-1]
	return w
}

// requestQueue is the bounded FIFO of pending async requests: an
// insertion-ordered list for FIFO pop(), a deadline-ordered structure for
// cheap "what expires next", and a single timer tracking the earliest
// deadline.
type requestQueue[T any] struct {
	mu sync.Mutex

	clock    Clock
	logger   Logger
	capacity int

	order     *list.List
	deadlines waiterHeap[T]
	timer     *time.Timer
}

func newRequestQueue[T any](clock Clock, capacity int, logger Logger) *requestQueue[T] {
	q := &requestQueue[T]{
		clock:    clock,
		logger:   logger,
		capacity: capacity,
		order:    list.New(),
	}
	heap.Init(&q.deadlines)
	return q
}

func (q *requestQueue[T]) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deadlines)
}

func (q *requestQueue[T]) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len() == 0
}

// push enqueues a waiter, rejecting it if the queue is already at
// capacity (capacity 0 always rejects, meaning "no enqueueing").
func (q *requestQueue[T]) push(executor Executor, waitDuration time.Duration, complete func(err error, c *cell[T])) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.deadlines) >= q.capacity {
		return false
	}
	w := &waiter[T]{
		id:       uuid.New(),
		deadline: SaturatingAdd(q.clock.Now(), waitDuration),
		executor: executor,
		complete: complete,
	}
	w.orderElem = q.order.PushBack(w)
	heap.Push(&q.deadlines, w)
	q.updateTimer()
	return true
}

// pop removes and returns the oldest waiter, or nil if the queue is
// empty.
func (q *requestQueue[T]) pop() *waiter[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.order.Front()
	if e == nil {
		return nil
	}
	w := e.Value.(*waiter[T])
	q.order.Remove(e)
	heap.Remove(&q.deadlines, w.heapIndex)
	q.updateTimer()
	return w
}

// onTimerFire is the timer callback. It expires every waiter whose
// deadline is at or before the deadline this particular timer instance
// was armed for, then reschedules for whatever is now earliest. Because
// updateTimer always creates a fresh *time.Timer rather than Reset()ing
// one created by AfterFunc (time.Timer.Reset on an AfterFunc timer cannot
// guarantee the previous callback won't also run), a stale callback from
// an already-superseded timer can still fire; the expiresAt threshold
// check makes that a no-op.
func (q *requestQueue[T]) onTimerFire(expiresAt time.Time) {
	q.mu.Lock()
	var expired []*waiter[T]
	for len(q.deadlines) > 0 && !q.deadlines[0].deadline.After(expiresAt) {
		w := heap.Pop(&q.deadlines).(*waiter[T])
		q.order.Remove(w.orderElem)
		expired = append(expired, w)
	}
	q.updateTimer()
	q.mu.Unlock()

	for _, w := range expired {
		w := w
		logf(q.logger, "respool: request %s expired after waiting past its deadline", w.id)
		w.executor.Post(func() { w.complete(ErrGetResourceTimeout, nil) })
	}
}

// updateTimer must be called with mu held. If the queue is empty it does
// nothing; the previously armed timer (if any) will fire once more,
// find nothing to expire, and go quiet on its own.
func (q *requestQueue[T]) updateTimer() {
	if len(q.deadlines) == 0 {
		return
	}
	if q.timer != nil {
		q.timer.Stop()
	}
	earliest := q.deadlines[0].deadline
	q.timer = time.AfterFunc(time.Until(earliest), func() {
		q.onTimerFire(earliest)
	})
}
