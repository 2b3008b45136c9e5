package respool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingReturner struct {
	recycled []*cell[int]
	wasted   []*cell[int]
}

func (r *recordingReturner) recycle(c *cell[int]) { r.recycled = append(r.recycled, c) }
func (r *recordingReturner) waste(c *cell[int])   { r.wasted = append(r.wasted, c) }

func TestHandle_EmptyGetPanics(t *testing.T) {
	h := newFailedHandle[int](&recordingReturner{}, StrategyRecycle, ErrGetResourceTimeout)
	assert.True(t, h.Empty())
	assert.PanicsWithValue(t, ErrEmptyHandle, func() { h.Get() })
}

func TestHandle_ReleaseTwiceIsIdempotent(t *testing.T) {
	r := &recordingReturner{}
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := &cell[int]{}
	h := newHandle[int](r, clk, c, StrategyRecycle)

	h.Release()
	assert.Len(t, r.recycled, 1)

	assert.NotPanics(t, func() { h.Release() })
	assert.Len(t, r.recycled, 1, "a second Release must be a no-op")
}

func TestHandle_RecycleTwicePanicsUnusable(t *testing.T) {
	r := &recordingReturner{}
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := &cell[int]{}
	h := newHandle[int](r, clk, c, StrategyRecycle)

	h.Recycle()
	assert.PanicsWithValue(t, ErrUnusableHandle, func() { h.Recycle() })
}

func TestHandle_WasteStrategyReleasesViaWaste(t *testing.T) {
	r := &recordingReturner{}
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := &cell[int]{}
	h := newHandle[int](r, clk, c, StrategyWaste)

	h.Release()
	assert.Len(t, r.wasted, 1)
	assert.Empty(t, r.recycled)
}

func TestHandle_ResetInstallsPayload(t *testing.T) {
	r := &recordingReturner{}
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := &cell[int]{}
	h := newHandle[int](r, clk, c, StrategyRecycle)

	assert.True(t, h.Empty())
	h.Reset(9)
	assert.False(t, h.Empty())
	assert.Equal(t, 9, h.Get())
}
