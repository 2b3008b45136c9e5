package respool

import (
	"sync"
	"time"
)

// Continuation is the callback an async Get completes through. It always
// runs through the Executor supplied to the call that registered it.
// Completions made with Post never run inline on the goroutine that
// triggered them; the disabled-pool failure and Disable's draining of
// queued waiters use Dispatch, which may run the continuation inline.
type Continuation[T any] func(*Handle[T], error)

// AsyncOption configures an AsyncPool at construction.
type AsyncOption[T any] func(*asyncOptions[T])

type asyncOptions[T any] struct {
	clock         Clock
	generator     func() (T, error)
	queueCapacity int
	metrics       *Metrics
	logger        Logger
}

// WithAsyncClock injects a Clock, overriding the real wall clock.
func WithAsyncClock[T any](clock Clock) AsyncOption[T] {
	return func(o *asyncOptions[T]) { o.clock = clock }
}

// WithAsyncGenerator pre-populates every cell at construction time.
func WithAsyncGenerator[T any](gen func() (T, error)) AsyncOption[T] {
	return func(o *asyncOptions[T]) { o.generator = gen }
}

// WithQueueCapacity bounds how many requests may wait for a cell at once;
// the default (unset) is the pool's own capacity.
func WithQueueCapacity[T any](n int) AsyncOption[T] {
	return func(o *asyncOptions[T]) { o.queueCapacity = n }
}

// WithAsyncMetrics binds a prometheus collector to this pool's Stats().
func WithAsyncMetrics[T any](m *Metrics) AsyncOption[T] {
	return func(o *asyncOptions[T]) { o.metrics = m }
}

// WithAsyncLogger wires ambient logging for lifecycle and queue-expiry
// events.
func WithAsyncLogger[T any](logger Logger) AsyncOption[T] {
	return func(o *asyncOptions[T]) { o.logger = logger }
}

// AsyncPool is a non-blocking resource pool: Get never blocks the calling
// goroutine. A borrow either completes immediately (through the supplied
// Executor) or is queued until a cell is recycled, wasted, or the
// request's own deadline elapses.
type AsyncPool[T any] struct {
	mu       sync.Mutex
	storage  *storage[T]
	queue    *requestQueue[T]
	capacity int
	clock    Clock
	disabled bool
	metrics  *Metrics
	logger   Logger
}

func NewAsyncPool[T any](capacity int, idleTimeout, lifespan time.Duration, opts ...AsyncOption[T]) (*AsyncPool[T], error) {
	if capacity <= 0 {
		return nil, ErrZeroPoolCapacity
	}
	o := &asyncOptions[T]{clock: realClock{}, queueCapacity: capacity}
	for _, opt := range opts {
		opt(o)
	}

	var st *storage[T]
	if o.generator != nil {
		var err error
		st, err = newStorageWithGenerator[T](o.clock, capacity, idleTimeout, lifespan, o.generator)
		if err != nil {
			return nil, err
		}
	} else {
		st = newStorage[T](o.clock, capacity, idleTimeout, lifespan)
	}

	p := &AsyncPool[T]{
		storage:  st,
		queue:    newRequestQueue[T](o.clock, o.queueCapacity, o.logger),
		capacity: capacity,
		clock:    o.clock,
		metrics:  o.metrics,
		logger:   o.logger,
	}
	if o.metrics != nil {
		o.metrics.bind(p, func() int { return p.queue.size() })
	}
	return p, nil
}

func (p *AsyncPool[T]) Capacity() int { return p.capacity }

func (p *AsyncPool[T]) Size() int {
	st := p.lockedStats()
	return st.Available + st.Used
}

func (p *AsyncPool[T]) Available() int { return p.lockedStats().Available }
func (p *AsyncPool[T]) Used() int      { return p.lockedStats().Used }

func (p *AsyncPool[T]) Stats() AsyncStats {
	st := p.lockedStats()
	return AsyncStats{
		Stats:     Stats{Size: st.Available + st.Used, Available: st.Available, Used: st.Used},
		QueueSize: p.queue.size(),
	}
}

func (p *AsyncPool[T]) lockedStats() storageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.stats()
}

// GetAutoRecycle borrows a cell asynchronously, completing cont through
// executor once a cell is available, leased immediately, or the wait
// elapses. The handle cont receives, on success, recycles on Release.
func (p *AsyncPool[T]) GetAutoRecycle(executor Executor, wait time.Duration, cont Continuation[T]) {
	p.get(executor, wait, StrategyRecycle, cont)
}

// GetAutoWaste is GetAutoRecycle's waste-on-release counterpart.
func (p *AsyncPool[T]) GetAutoWaste(executor Executor, wait time.Duration, cont Continuation[T]) {
	p.get(executor, wait, StrategyWaste, cont)
}

// get implements the dispatch-vs-post asymmetry: a disabled pool fails
// through Dispatch (no resource state changed, so there is no reason to
// defer even by one post), while every other outcome — immediate
// success, immediate zero-wait failure, queue overflow, and eventual
// completion from recycle/waste/timeout — goes through Post to keep the
// calling goroutine's own continuation from nesting arbitrarily deep
// inside this call.
func (p *AsyncPool[T]) get(executor Executor, wait time.Duration, strategy Strategy, cont Continuation[T]) {
	p.mu.Lock()
	if p.disabled {
		p.mu.Unlock()
		p.metrics.recordGetError(CodeDisabled)
		executor.Dispatch(func() { cont(newFailedHandle[T](p, strategy, ErrDisabled), ErrDisabled) })
		return
	}

	if c := p.storage.lease(); c != nil {
		p.mu.Unlock()
		executor.Post(func() { cont(newHandle[T](p, p.clock, c, strategy), nil) })
		return
	}

	if wait <= 0 {
		p.mu.Unlock()
		p.metrics.recordGetError(CodeGetResourceTimeout)
		executor.Post(func() { cont(newFailedHandle[T](p, strategy, ErrGetResourceTimeout), ErrGetResourceTimeout) })
		return
	}

	ok := p.queue.push(executor, wait, func(err error, c *cell[T]) {
		if err != nil {
			cont(newFailedHandle[T](p, strategy, err), err)
			return
		}
		cont(newHandle[T](p, p.clock, c, strategy), nil)
	})
	p.mu.Unlock()

	if !ok {
		p.metrics.recordGetError(CodeRequestQueueOverflow)
		executor.Post(func() {
			cont(newFailedHandle[T](p, strategy, ErrRequestQueueOverflow), ErrRequestQueueOverflow)
		})
	}
}

// recycle satisfies cellReturner: it hands the cell straight to the
// oldest waiter if one is queued, otherwise returns it to storage. A cell
// that storage.isValid would itself have wasted (invalidated, or past its
// lifespan) is handed over empty instead, exactly what recycling it into
// storage and immediately leasing it back out to the waiter would have
// produced.
func (p *AsyncPool[T]) recycle(c *cell[T]) {
	p.mu.Lock()
	w := p.queue.pop()
	if w == nil {
		p.storage.recycle(c)
		p.mu.Unlock()
		return
	}
	if !p.storage.isValid(c) {
		c.value = nil
	}
	p.mu.Unlock()
	w.executor.Post(func() { w.complete(nil, c) })
}

// waste satisfies cellReturner: if a request is already queued, its
// continuation runs against the very same empty cell a fresh lease from
// wasted would have produced, so it is handed over directly instead of
// round-tripping through storage and back out; otherwise the cell drops
// its payload and returns to storage's wasted lane as usual.
func (p *AsyncPool[T]) waste(c *cell[T]) {
	p.mu.Lock()
	w := p.queue.pop()
	if w == nil {
		p.storage.waste(c)
		p.mu.Unlock()
		return
	}
	c.value = nil
	p.mu.Unlock()
	w.executor.Post(func() { w.complete(nil, c) })
}

// Disable refuses all future Get calls (Dispatch-completed with
// ErrDisabled) and drains every currently queued waiter with the same
// error, each completed through Dispatch rather than Post since Disable
// is typically called from inside the same executor a waiter would
// otherwise be posted through.
func (p *AsyncPool[T]) Disable() {
	p.mu.Lock()
	already := p.disabled
	p.disabled = true
	p.mu.Unlock()

	if already {
		return
	}
	logf(p.logger, "respool: async pool disabled")
	for {
		w := p.queue.pop()
		if w == nil {
			break
		}
		w := w
		w.executor.Dispatch(func() { w.complete(ErrDisabled, nil) })
	}
}

// Invalidate forces every available cell to be wasted and marks every
// leased cell so its next Recycle downgrades to a Waste.
func (p *AsyncPool[T]) Invalidate() {
	p.mu.Lock()
	p.storage.invalidate()
	p.mu.Unlock()
	logf(p.logger, "respool: async pool invalidated")
}
