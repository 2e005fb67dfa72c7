package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	require.NotNil(t, h)
	assert.Equal(t, 5*time.Second, h.timeout)
	assert.NotNil(t, h.logger)
	assert.NotNil(t, h.done)
}

func recordingHooks(h *Handler, n int) (*[]int, *sync.Mutex) {
	var mu sync.Mutex
	order := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		i := i
		h.OnShutdown("hook", func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	return &order, &mu
}

func TestHandler_Shutdown_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, nil)
	order, mu := recordingHooks(h, 3)

	require.NoError(t, h.Shutdown())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 2, 1}, *order)

	select {
	case <-h.Done():
	default:
		t.Fatal("Done() should be closed after shutdown")
	}

	require.NoError(t, h.Shutdown(), "second call is a no-op")
	assert.Len(t, *order, 3)
}

func TestHandler_Shutdown_JoinsErrors(t *testing.T) {
	h := NewHandler(time.Second, nil)
	errStore := errors.New("store close failed")
	errBroker := errors.New("broker close failed")

	ran := false
	h.OnShutdown("store", func(context.Context) error { return errStore })
	h.OnShutdown("media", func(context.Context) error { ran = true; return nil })
	h.OnShutdown("broker", func(context.Context) error { return errBroker })

	err := h.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	assert.ErrorIs(t, err, errBroker)
	assert.Contains(t, err.Error(), "store:")
	assert.True(t, ran, "a failing hook does not stop the others")
}

func TestHandler_Shutdown_HooksGetDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, nil)
	h.OnShutdown("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})

	err := h.Shutdown()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandler_Wait_Trigger(t *testing.T) {
	h := NewHandler(time.Second, nil)
	order, mu := recordingHooks(h, 2)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	h.Trigger("listener failed")
	h.Trigger("ignored")

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Trigger")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1}, *order)
}

func TestHandler_Wait_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}
