package respool

// Strategy fixes what happens to a handle's cell when it is returned: a
// small closed set, embedded directly in the handle as a tagged value
// rather than a function-pointer-to-member.
type Strategy int

const (
	StrategyRecycle Strategy = iota
	StrategyWaste
)

// cellReturner is the small capability both SyncPool and AsyncPool
// implement so a Handle can return its cell without depending on either
// pool's concrete type.
type cellReturner[T any] interface {
	recycle(*cell[T])
	waste(*cell[T])
}

// Handle is a one-time borrow of a single cell from one pool. Go has no
// deterministic destructors, so a Handle does not automatically return
// its cell when it goes out of scope: callers must defer Release() (or
// call Recycle/Waste explicitly) the same way one defers Close() on an
// *sql.Rows or a net.Conn. Release is a no-op on an already-returned
// handle, the same way closing an *sql.Rows twice is safe, so a deferred
// Release never panics on the path where the caller also returned the
// handle explicitly.
//
// A Handle from a failed Get is never nil: it carries cellRef == nil and
// the specific error instead.
type Handle[T any] struct {
	pool     cellReturner[T]
	clock    Clock
	strategy Strategy
	cellRef  *cell[T]
	err      error
	usable   bool
}

func newHandle[T any](pool cellReturner[T], clock Clock, c *cell[T], strategy Strategy) *Handle[T] {
	return &Handle[T]{pool: pool, clock: clock, strategy: strategy, cellRef: c, usable: true}
}

func newFailedHandle[T any](pool cellReturner[T], strategy Strategy, err error) *Handle[T] {
	return &Handle[T]{pool: pool, strategy: strategy, err: err}
}

// Err returns the error a failed Get produced, or nil on success.
func (h *Handle[T]) Err() error { return h.err }

// Empty reports whether no payload is present in the referenced cell —
// true both for a handle whose Get failed outright, and for a handle that
// successfully borrowed an empty (wasted) slot still awaiting Reset.
func (h *Handle[T]) Empty() bool {
	return h.cellRef == nil || h.cellRef.value == nil
}

// Get returns the borrowed payload, panicking with ErrEmptyHandle if the
// handle is empty. This is a programmer error, never a request-path
// failure: check Empty() (or Err()) first.
func (h *Handle[T]) Get() T {
	if h.Empty() {
		panic(ErrEmptyHandle)
	}
	return *h.cellRef.value
}

// Reset installs (or replaces) the borrowed cell's payload, stamping
// reset_time to now and clearing any pending waste_on_recycle flag. It
// panics with ErrEmptyHandle if Get never actually produced a cell (i.e.
// the borrow itself failed), since there is nothing to install a payload
// into.
func (h *Handle[T]) Reset(value T) {
	if h.cellRef == nil {
		panic(ErrEmptyHandle)
	}
	v := value
	h.cellRef.value = &v
	h.cellRef.resetTime = h.clock.Now()
	h.cellRef.wasteOnRecycle = false
}

// Recycle returns the cell to the pool's available lane (subject to the
// pool's own lifespan/idle checks) and makes the handle unusable. Calling
// it twice panics with ErrUnusableHandle.
func (h *Handle[T]) Recycle() {
	h.assertUsable()
	h.pool.recycle(h.cellRef)
	h.usable = false
	h.cellRef = nil
}

// Waste drops the cell's payload and returns the empty slot to the
// pool's wasted lane, making the handle unusable. Calling it twice panics
// with ErrUnusableHandle.
func (h *Handle[T]) Waste() {
	h.assertUsable()
	h.pool.waste(h.cellRef)
	h.usable = false
	h.cellRef = nil
}

// Release applies the handle's bound return strategy exactly once. It is
// a no-op if the handle was never usable (failed Get) or has already
// been returned — safe to defer unconditionally.
func (h *Handle[T]) Release() {
	if !h.usable {
		return
	}
	switch h.strategy {
	case StrategyRecycle:
		h.Recycle()
	case StrategyWaste:
		h.Waste()
	}
}

func (h *Handle[T]) assertUsable() {
	if !h.usable {
		panic(ErrUnusableHandle)
	}
}
