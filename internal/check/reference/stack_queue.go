package reference

// Stack is a LIFO collection.
type Stack[T comparable] struct {
	items []T
}

// NewStack creates an empty Stack.
func NewStack[T comparable]() *Stack[T] { return &Stack[T]{} }

func (s *Stack[T]) Push(item T) { s.items = append(s.items, item) }

// Pop removes and returns the top item. It panics on an empty stack.
func (s *Stack[T]) Pop() T {
	top := s.Peek()
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return top
}

// Peek returns the top item without removing it. It panics on an empty stack.
func (s *Stack[T]) Peek() T {
	if len(s.items) == 0 {
		panic("stack empty")
	}
	return s.items[len(s.items)-1]
}

func (s *Stack[T]) TryPeek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Clear() { s.items = nil }

func (s *Stack[T]) Contains(item T) bool {
	for _, v := range s.items {
		if v == item {
			return true
		}
	}
	return false
}

// ToArray returns the items in pop order.
func (s *Stack[T]) ToArray() []T {
	out := make([]T, len(s.items))
	for i, v := range s.items {
		out[len(s.items)-1-i] = v
	}
	return out
}

func (s *Stack[T]) Count() int { return len(s.items) }

// Queue is a FIFO collection backed by a ring buffer.
type Queue[T comparable] struct {
	buf  []T
	head int
	size int
}

// NewQueue creates an empty Queue.
func NewQueue[T comparable]() *Queue[T] { return &Queue[T]{} }

func (q *Queue[T]) Enqueue(item T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = item
	q.size++
}

func (q *Queue[T]) grow() {
	capacity := len(q.buf) * 2
	if capacity < 4 {
		capacity = 4
	}
	next := make([]T, capacity)
	for i := 0; i < q.size; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}

// Dequeue removes and returns the oldest item. It panics on an empty queue.
func (q *Queue[T]) Dequeue() T {
	item := q.Peek()
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return item
}

// Peek returns the oldest item without removing it. It panics on an empty queue.
func (q *Queue[T]) Peek() T {
	if q.size == 0 {
		panic("queue empty")
	}
	return q.buf[q.head]
}

func (q *Queue[T]) Clear() {
	q.buf = nil
	q.head = 0
	q.size = 0
}

func (q *Queue[T]) Contains(item T) bool {
	for i := 0; i < q.size; i++ {
		if q.buf[(q.head+i)%len(q.buf)] == item {
			return true
		}
	}
	return false
}

func (q *Queue[T]) Count() int { return q.size }
