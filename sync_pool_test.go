package respool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncPool_ZeroCapacityRejected(t *testing.T) {
	_, err := NewSyncPool[int](0, Forever, Forever)
	assert.ErrorIs(t, err, ErrZeroPoolCapacity)
}

func TestSyncPool_LeaseInstallRecycleLeaseAgain(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	p, err := NewSyncPool[int](1, Forever, Forever, WithClock[int](clk))
	require.NoError(t, err)

	h1, err := p.GetAutoRecycle(0)
	require.NoError(t, err)
	assert.True(t, h1.Empty())
	h1.Reset(42)
	h1.Release()

	h2, err := p.GetAutoRecycle(0)
	require.NoError(t, err)
	assert.False(t, h2.Empty())
	assert.Equal(t, 42, h2.Get())
	h2.Release()
}

func TestSyncPool_ZeroIdleTimeoutDiscardsStaleCell(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	p, err := NewSyncPool[int](1, 0, Forever, WithClock[int](clk))
	require.NoError(t, err)

	h1, err := p.GetAutoRecycle(0)
	require.NoError(t, err)
	h1.Reset(5)
	h1.Release()

	clk.advance(time.Nanosecond)

	h2, err := p.GetAutoRecycle(0)
	require.NoError(t, err)
	assert.True(t, h2.Empty())
	h2.Release()
}

func TestSyncPool_GetTimesOutWhenExhausted(t *testing.T) {
	p, err := NewSyncPool[int](1, Forever, Forever)
	require.NoError(t, err)

	h1, err := p.GetAutoRecycle(0)
	require.NoError(t, err)
	defer h1.Release()

	_, err = p.GetAutoRecycle(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrGetResourceTimeout)
}

func TestSyncPool_DisableIsIdempotentAndRejectsGet(t *testing.T) {
	p, err := NewSyncPool[int](1, Forever, Forever)
	require.NoError(t, err)

	p.Disable()
	p.Disable()

	_, err = p.GetAutoRecycle(0)
	assert.ErrorIs(t, err, ErrDisabled)
}
