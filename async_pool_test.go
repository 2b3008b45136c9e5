package respool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncPool_ZeroCapacityRejected(t *testing.T) {
	_, err := NewAsyncPool[int](0, Forever, Forever)
	assert.ErrorIs(t, err, ErrZeroPoolCapacity)
}

func TestAsyncPool_QueueOverflow(t *testing.T) {
	p, err := NewAsyncPool[int](1, Forever, Forever, WithQueueCapacity[int](0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	var firstErr, secondErr error
	p.GetAutoRecycle(InlineExecutor{}, 0, func(h *Handle[int], err error) {
		firstErr = err
		wg.Done()
	})
	p.GetAutoRecycle(InlineExecutor{}, time.Hour, func(h *Handle[int], err error) {
		secondErr = err
		wg.Done()
	})

	wg.Wait()
	assert.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, ErrRequestQueueOverflow)
}

func TestAsyncPool_TimeoutWaiterIsNotResurrected(t *testing.T) {
	p, err := NewAsyncPool[int](1, Forever, Forever, WithQueueCapacity[int](1))
	require.NoError(t, err)

	var firstHandle *Handle[int]
	var wg1 sync.WaitGroup
	wg1.Add(1)
	p.GetAutoRecycle(InlineExecutor{}, 0, func(h *Handle[int], err error) {
		require.NoError(t, err)
		firstHandle = h
		wg1.Done()
	})
	wg1.Wait()

	var wg2 sync.WaitGroup
	wg2.Add(1)
	var timeoutErr error
	p.GetAutoRecycle(InlineExecutor{}, time.Millisecond, func(h *Handle[int], err error) {
		timeoutErr = err
		wg2.Done()
	})
	wg2.Wait()
	assert.ErrorIs(t, timeoutErr, ErrGetResourceTimeout)

	var wg3 sync.WaitGroup
	wg3.Add(1)
	var okErr error
	var gotHandle *Handle[int]
	p.GetAutoRecycle(InlineExecutor{}, time.Hour, func(h *Handle[int], err error) {
		okErr = err
		gotHandle = h
		wg3.Done()
	})

	firstHandle.Release()
	wg3.Wait()
	assert.NoError(t, okErr)
	require.NotNil(t, gotHandle)
	gotHandle.Release()
}

func TestAsyncPool_DisableDrainsPendingWaiter(t *testing.T) {
	p, err := NewAsyncPool[int](1, Forever, Forever, WithQueueCapacity[int](1))
	require.NoError(t, err)

	var wg1 sync.WaitGroup
	wg1.Add(1)
	p.GetAutoRecycle(InlineExecutor{}, 0, func(h *Handle[int], err error) {
		require.NoError(t, err)
		wg1.Done()
	})
	wg1.Wait()

	var wg2 sync.WaitGroup
	wg2.Add(1)
	var pendingErr error
	p.GetAutoRecycle(InlineExecutor{}, time.Hour, func(h *Handle[int], err error) {
		pendingErr = err
		wg2.Done()
	})

	p.Disable()
	wg2.Wait()
	assert.ErrorIs(t, pendingErr, ErrDisabled)
}

func TestAsyncPool_WasteDeliversEmptyToWaiter(t *testing.T) {
	p, err := NewAsyncPool[int](1, Forever, Forever, WithQueueCapacity[int](1))
	require.NoError(t, err)

	var wg1 sync.WaitGroup
	wg1.Add(1)
	var firstHandle *Handle[int]
	p.GetAutoWaste(InlineExecutor{}, 0, func(h *Handle[int], err error) {
		require.NoError(t, err)
		firstHandle = h
		wg1.Done()
	})
	wg1.Wait()
	firstHandle.Reset(99)

	var wg2 sync.WaitGroup
	wg2.Add(1)
	var secondHandle *Handle[int]
	p.GetAutoRecycle(InlineExecutor{}, time.Hour, func(h *Handle[int], err error) {
		secondHandle = h
		wg2.Done()
	})

	firstHandle.Release()
	wg2.Wait()

	require.NotNil(t, secondHandle)
	assert.True(t, secondHandle.Empty(), "a wasted cell must deliver an empty handle to the next waiter")
	secondHandle.Release()
}
