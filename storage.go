package respool

import (
	"container/list"
	"time"
)

// storageStats is the raw lane census storage reports; pools translate it
// into their own public Stats/AsyncStats shapes.
type storageStats struct {
	Available int
	Used      int
	Wasted    int
}

// storage holds a pool's cells across three intrusive lanes:
// lease/recycle/waste move cells between available, used and wasted in
// O(1), and lease prefers the oldest usable available cell before
// falling back to an empty wasted slot. storage has no lock of its own;
// the owning pool serializes access.
type storage[T any] struct {
	clock       Clock
	idleTimeout time.Duration
	lifespan    time.Duration

	available *list.List
	used      *list.List
	wasted    *list.List
}

func newStorage[T any](clock Clock, capacity int, idleTimeout, lifespan time.Duration) *storage[T] {
	s := &storage[T]{
		clock:       clock,
		idleTimeout: idleTimeout,
		lifespan:    lifespan,
		available:   list.New(),
		used:        list.New(),
		wasted:      list.New(),
	}
	for i := 0; i < capacity; i++ {
		c := &cell[T]{}
		c.elem = s.wasted.PushBack(c)
	}
	return s
}

// newStorageWithGenerator pre-populates every cell from gen, entering
// available with drop_time = min(now+idle_timeout, now+lifespan) and
// reset_time = now.
func newStorageWithGenerator[T any](clock Clock, capacity int, idleTimeout, lifespan time.Duration, gen func() (T, error)) (*storage[T], error) {
	s := &storage[T]{
		clock:       clock,
		idleTimeout: idleTimeout,
		lifespan:    lifespan,
		available:   list.New(),
		used:        list.New(),
		wasted:      list.New(),
	}
	now := clock.Now()
	dropTime := minTime(SaturatingAdd(now, idleTimeout), SaturatingAdd(now, lifespan))
	for i := 0; i < capacity; i++ {
		v, err := gen()
		if err != nil {
			return nil, err
		}
		vv := v
		c := &cell[T]{value: &vv, resetTime: now, dropTime: dropTime}
		c.elem = s.available.PushBack(c)
	}
	return s, nil
}

func (s *storage[T]) stats() storageStats {
	return storageStats{
		Available: s.available.Len(),
		Used:      s.used.Len(),
		Wasted:    s.wasted.Len(),
	}
}

// lease prefers the head of available whose drop_time is still in the
// future, discarding stale heads into wasted as it goes; if available is
// exhausted it falls back to the head of wasted. Returns nil only when
// every cell is currently used.
func (s *storage[T]) lease() *cell[T] {
	now := s.clock.Now()
	for {
		e := s.available.Front()
		if e == nil {
			break
		}
		c := e.Value.(*cell[T])
		if c.dropTime.After(now) {
			moveCell(c, s.available, s.used)
			return c
		}
		c.value = nil
		moveCell(c, s.available, s.wasted)
	}
	if e := s.wasted.Front(); e != nil {
		c := e.Value.(*cell[T])
		c.wasteOnRecycle = false
		moveCell(c, s.wasted, s.used)
		return c
	}
	return nil
}

// recycle returns a used cell to available, unless it must be wasted
// instead: either it was marked waste_on_recycle by invalidate, or its
// lifespan has already elapsed since the last reset.
func (s *storage[T]) recycle(c *cell[T]) {
	if c.wasteOnRecycle {
		s.waste(c)
		return
	}
	now := s.clock.Now()
	lifeEnd := SaturatingAdd(c.resetTime, s.lifespan)
	if !lifeEnd.After(now) {
		s.waste(c)
		return
	}
	c.dropTime = minTime(SaturatingAdd(now, s.idleTimeout), lifeEnd)
	moveCell(c, s.used, s.available)
}

// waste drops a used cell's payload and returns the empty slot to wasted.
func (s *storage[T]) waste(c *cell[T]) {
	c.value = nil
	moveCell(c, s.used, s.wasted)
}

// isValid reports whether a used cell would survive a recycle right now,
// without actually performing the transition.
func (s *storage[T]) isValid(c *cell[T]) bool {
	if c.wasteOnRecycle {
		return false
	}
	now := s.clock.Now()
	lifeEnd := SaturatingAdd(c.resetTime, s.lifespan)
	return lifeEnd.After(now)
}

// invalidate drops every available cell's payload and moves it to wasted,
// and marks every used cell so its next recycle downgrades to a waste.
// There is no notification to in-flight borrowers; they discover the
// downgrade only when they return their handle.
func (s *storage[T]) invalidate() {
	for {
		e := s.available.Front()
		if e == nil {
			break
		}
		c := e.Value.(*cell[T])
		c.value = nil
		moveCell(c, s.available, s.wasted)
	}
	for e := s.used.Front(); e != nil; e = e.Next() {
		e.Value.(*cell[T]).wasteOnRecycle = true
	}
}
