package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushThenPopFIFOOrder(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestPopOnEmptyQueueReportsFalse(t *testing.T) {
	q := New[string]()
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestAsyncReadDeliversBufferedMessageImmediately(t *testing.T) {
	q := New[int]()
	q.Push(42)

	ch := q.AsyncRead()
	select {
	case v := <-ch:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("AsyncRead should have delivered buffered message")
	}
}

func TestAsyncReadWaitsForPush(t *testing.T) {
	q := New[int]()
	ch := q.AsyncRead()

	select {
	case <-ch:
		t.Fatal("should not have a message yet")
	default:
	}

	q.Push(7)

	select {
	case v := <-ch:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("waiter should have been delivered the pushed message")
	}
}

func TestPushBypassesBufferWhenWaiterPresent(t *testing.T) {
	q := New[int]()
	ch := q.AsyncRead()
	q.Push(1)
	<-ch
	assert.Equal(t, 0, q.Len())
}

func TestWaitersServedInFIFOOrder(t *testing.T) {
	q := New[int]()
	first := q.AsyncRead()
	second := q.AsyncRead()

	q.Push(1)
	q.Push(2)

	assert.Equal(t, 1, <-first)
	assert.Equal(t, 2, <-second)
}

func TestCancelReadRemovesWaiter(t *testing.T) {
	q := New[int]()
	ch := q.AsyncRead()
	q.CancelRead(ch)
	q.Push(5)
	assert.Equal(t, 1, q.Len())
}
