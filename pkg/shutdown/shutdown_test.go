package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestShutdown_Order(t *testing.T) {
	h := NewHandler(time.Second, nil)

	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	h.RegisterFunc("store", PriorityStores, record("store"))
	h.RegisterFunc("http", PriorityHTTP, record("http"))
	h.RegisterFunc("sessions", PrioritySessions, record("sessions"))
	h.RegisterFunc("http-2", PriorityHTTP, record("http-2"))

	require.NoError(t, h.Shutdown())
	assert.Equal(t, []string{"http", "http-2", "sessions", "store"}, order)

	select {
	case <-h.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestShutdown_Once(t *testing.T) {
	h := NewHandler(time.Second, nil)
	require.NoError(t, h.Shutdown())
	assert.ErrorIs(t, h.Shutdown(), ErrAlreadyClosed)
}

func TestShutdown_ErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, nil)
	boom := errors.New("boom")
	c := &closer{}

	h.RegisterFunc("bad", PriorityHTTP, func(context.Context) error { return boom })
	h.RegisterCloser("store", PriorityStores, c)

	err := h.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.True(t, c.closed)
}

func TestShutdown_Timeout(t *testing.T) {
	h := NewHandler(20*time.Millisecond, nil)
	ran := false

	h.RegisterFunc("slow", PriorityHTTP, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	h.RegisterFunc("late", PriorityStores, func(context.Context) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, h.Shutdown(), ErrShutdownTimeout)
	assert.False(t, ran)
}

func TestWait_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, nil)
	c := &closer{}
	h.RegisterCloser("store", PriorityStores, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.Wait(ctx))
	assert.True(t, c.closed)
}

func TestWait_AfterShutdown(t *testing.T) {
	h := NewHandler(time.Second, nil)
	require.NoError(t, h.Shutdown())
	assert.NoError(t, h.Wait(context.Background()))
}
