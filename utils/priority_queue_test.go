package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinPriorityQueue(t *testing.T) {
	q := NewMinPriorityQueue()

	q.Push(NewPriorityQueueItem(3, "foo"))
	q.Push(NewPriorityQueueItem(1, "bar"))
	q.Push(NewPriorityQueueItem(2, "bag"))

	assert.Equal(t, "bar", q.Peek().Value())
	assert.Equal(t, "bar", q.Peek().Value())

	assert.Equal(t, "bar", q.Pop().Value())
	assert.Equal(t, "bag", q.Pop().Value())
	assert.Equal(t, "foo", q.Pop().Value())
	assert.Equal(t, 0, q.Len())
}

func TestMaxPriorityQueue(t *testing.T) {
	q := NewMaxPriorityQueue()

	q.Push(NewPriorityQueueItem(1, "bar"))
	q.Push(NewPriorityQueueItem(3, "foo"))
	q.Push(NewPriorityQueueItem(2, "bag"))

	assert.Equal(t, "foo", q.Peek().Value())
	assert.Equal(t, "foo", q.Peek().Value())

	assert.Equal(t, "foo", q.Pop().Value())
	assert.Equal(t, "bag", q.Pop().Value())
	assert.Equal(t, "bar", q.Pop().Value())
	assert.Equal(t, 0, q.Len())
}

func TestPriorityQueueNegativePriorities(t *testing.T) {
	q := NewMinPriorityQueue()

	q.Push(NewPriorityQueueItem(0.5, "far"))
	q.Push(NewPriorityQueueItem(-3, "near"))
	q.Push(NewPriorityQueueItem(-1, "mid"))

	assert.Equal(t, "near", q.Pop().Value())
	assert.Equal(t, "mid", q.Pop().Value())
	assert.Equal(t, "far", q.Pop().Value())
}

func TestPriorityQueueToSlice(t *testing.T) {
	q := NewMaxPriorityQueue()

	q.Push(NewPriorityQueueItem(3, "foo"))
	q.Push(NewPriorityQueueItem(1, "bar"))
	q.Push(NewPriorityQueueItem(2, "bag"))

	s := q.ToSlice()

	assert.Equal(t, 3, len(s))
}
