package structures

// Queue hands items back in the wrong order.
type Queue[T comparable] struct {
	items []T
}

func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

func (q *Queue[T]) Dequeue() T {
	if len(q.items) == 0 {
		panic("queue empty")
	}
	last := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return last
}

func (q *Queue[T]) Peek() T {
	if len(q.items) == 0 {
		panic("queue empty")
	}
	return q.items[0]
}

func (q *Queue[T]) Clear() {
	q.items = nil
}

func (q *Queue[T]) Contains(item T) bool {
	for _, v := range q.items {
		if v == item {
			return true
		}
	}
	return false
}

func (q *Queue[T]) Count() int {
	return len(q.items)
}
