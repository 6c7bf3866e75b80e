package fifo

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestSingleResult_DeliverCompletes(t *testing.T) {
	t.Parallel()

	c := NewSingleResult()
	exhausted := c.Deliver(&pgconn.Result{})
	require.True(t, exhausted)
	require.Equal(t, Completed, c.StatusNow())
	require.Len(t, c.Results(), 1)

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done channel to be closed")
	}
}

func TestPipeline_DeliverCountsDown(t *testing.T) {
	t.Parallel()

	c := NewPipeline(3)
	require.False(t, c.Deliver(&pgconn.Result{}))
	require.False(t, c.Deliver(&pgconn.Result{}))
	require.True(t, c.Deliver(&pgconn.Result{}))
	require.Len(t, c.Results(), 3)
}

func TestCancel_EntersDrainMode(t *testing.T) {
	t.Parallel()

	c := NewPipeline(2)
	c.Cancel()
	require.Equal(t, Cancelled, c.StatusNow())

	// Draining still consumes the remaining owed results, to keep FIFO
	// framing aligned, but discards their payloads.
	exhausted1 := c.Deliver(&pgconn.Result{})
	require.False(t, exhausted1)
	exhausted2 := c.Deliver(&pgconn.Result{})
	require.True(t, exhausted2)
	require.Empty(t, c.Results())
}

func TestQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	a := NewSingleResult()
	b := NewSingleResult()
	q.Push(a)
	q.Push(b)

	require.Equal(t, 2, q.Len())
	require.Same(t, a, q.Front())
	require.Same(t, a, q.Pop())
	require.Same(t, b, q.Pop())
	require.Nil(t, q.Pop())
}
