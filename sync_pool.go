package respool

import (
	"sync"
	"sync/atomic"
	"time"
)

// SyncOption configures a SyncPool at construction.
type SyncOption[T any] func(*syncOptions[T])

type syncOptions[T any] struct {
	clock     Clock
	generator func() (T, error)
	metrics   *Metrics
	logger    Logger
}

// WithClock injects a Clock, overriding the real wall clock. Intended for
// tests that need deterministic control over idle/lifespan expiry.
func WithClock[T any](clock Clock) SyncOption[T] {
	return func(o *syncOptions[T]) { o.clock = clock }
}

// WithGenerator pre-populates every cell at construction time by calling
// gen once per capacity slot; a generator error aborts construction. Cells
// enter available with reset_time=now and the drop_time formula storage
// itself uses for freshly generated cells.
func WithGenerator[T any](gen func() (T, error)) SyncOption[T] {
	return func(o *syncOptions[T]) { o.generator = gen }
}

// WithMetrics binds a prometheus collector to this pool's Stats().
func WithMetrics[T any](m *Metrics) SyncOption[T] {
	return func(o *syncOptions[T]) { o.metrics = m }
}

// WithLogger wires ambient logging for lifecycle events (disable,
// invalidate). Never used on the hot lease/recycle path.
func WithLogger[T any](logger Logger) SyncOption[T] {
	return func(o *syncOptions[T]) { o.logger = logger }
}

// SyncPool is a blocking, preemptive-multithreading resource pool: Get
// waits on a mutex + condition variable, bounded by a deadline, for a cell
// to become available.
type SyncPool[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	storage  *storage[T]
	capacity int
	clock    Clock
	disabled bool
	metrics  *Metrics
	logger   Logger
}

// NewSyncPool constructs a pool of the given capacity. capacity must be
// positive; 0 is rejected with ErrZeroPoolCapacity. idleTimeout and
// lifespan may be Forever for "never expire".
func NewSyncPool[T any](capacity int, idleTimeout, lifespan time.Duration, opts ...SyncOption[T]) (*SyncPool[T], error) {
	if capacity <= 0 {
		return nil, ErrZeroPoolCapacity
	}
	o := &syncOptions[T]{clock: realClock{}}
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

	p := &SyncPool[T]{
		storage:  st,
		capacity: capacity,
		clock:    o.clock,
		metrics:  o.metrics,
		logger:   o.logger,
	}
	p.cond = sync.NewCond(&p.mu)
	if o.metrics != nil {
		o.metrics.bind(p, nil)
	}
	return p, nil
}

func (p *SyncPool[T]) Capacity() int { return p.capacity }

func (p *SyncPool[T]) Size() int {
	st := p.lockedStats()
	return st.Available + st.Used
}

func (p *SyncPool[T]) Available() int {
	return p.lockedStats().Available
}

func (p *SyncPool[T]) Used() int {
	return p.lockedStats().Used
}

func (p *SyncPool[T]) Stats() Stats {
	st := p.lockedStats()
	return Stats{Size: st.Available + st.Used, Available: st.Available, Used: st.Used}
}

func (p *SyncPool[T]) lockedStats() storageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.stats()
}

// GetAutoRecycle borrows a cell, returning a handle whose Release (or
// explicit Recycle) returns it to available, subject to the pool's
// lifespan/idle checks.
func (p *SyncPool[T]) GetAutoRecycle(wait time.Duration) (*Handle[T], error) {
	return p.get(wait, StrategyRecycle)
}

// GetAutoWaste borrows a cell, returning a handle whose Release (or
// explicit Waste) drops its payload and returns the empty slot to wasted.
func (p *SyncPool[T]) GetAutoWaste(wait time.Duration) (*Handle[T], error) {
	return p.get(wait, StrategyWaste)
}

// get loops under lock between checking disabled, attempting a lease,
// and waiting on the condition variable bounded by wait. A zero wait
// never blocks: the first lease attempt happens before any wait.
func (p *SyncPool[T]) get(wait time.Duration, strategy Strategy) (*Handle[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	deadline := SaturatingAdd(p.clock.Now(), wait)
	var timedOut atomic.Bool
	timer := time.AfterFunc(wait, func() {
		timedOut.Store(true)
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()

	for {
		if p.disabled {
			p.metrics.recordGetError(CodeDisabled)
			return newFailedHandle[T](p, strategy, ErrDisabled), ErrDisabled
		}
		if c := p.storage.lease(); c != nil {
			return newHandle[T](p, p.clock, c, strategy), nil
		}
		if timedOut.Load() || !p.clock.Now().Before(deadline) {
			p.metrics.recordGetError(CodeGetResourceTimeout)
			return newFailedHandle[T](p, strategy, ErrGetResourceTimeout), ErrGetResourceTimeout
		}
		p.cond.Wait()
	}
}

func (p *SyncPool[T]) recycle(c *cell[T]) {
	p.mu.Lock()
	p.storage.recycle(c)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *SyncPool[T]) waste(c *cell[T]) {
	p.mu.Lock()
	p.storage.waste(c)
	p.mu.Unlock()
	p.cond.Signal()
}

// Disable refuses all future Get calls and wakes every blocked waiter so
// it can observe ErrDisabled. Idempotent: calling it twice is equivalent
// to calling it once.
func (p *SyncPool[T]) Disable() {
	p.mu.Lock()
	already := p.disabled
	p.disabled = true
	p.mu.Unlock()
	p.cond.Broadcast()
	if !already {
		logf(p.logger, "respool: sync pool disabled")
	}
}

// Invalidate forces every currently available cell to be wasted and
// marks every leased cell so its next Recycle downgrades to a Waste.
// There is no notification to handles already checked out.
func (p *SyncPool[T]) Invalidate() {
	p.mu.Lock()
	p.storage.invalidate()
	p.mu.Unlock()
	logf(p.logger, "respool: sync pool invalidated")
}
