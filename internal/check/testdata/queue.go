package structures

// Queue is a FIFO collection backed by a circular array.
type Queue[T comparable] struct {
	array   []T
	head    int
	tail    int
	size    int
	version int
}

func NewQueue[T comparable]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Enqueue(item T) {
	if q.size == len(q.array) {
		q.grow(q.size + 1)
	}
	q.array[q.tail] = item
	q.moveNext(&q.tail)
	q.size++
	q.version++
}

func (q *Queue[T]) Dequeue() T {
	head := q.head
	array := q.array
	if q.size == 0 {
		q.throwForEmptyQueue()
	}
	removed := array[head]
	var zero T
	array[head] = zero
	q.moveNext(&q.head)
	q.size--
	q.version++
	return removed
}

func (q *Queue[T]) TryDequeue() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.Dequeue(), true
}

func (q *Queue[T]) Peek() T {
	if q.size == 0 {
		q.throwForEmptyQueue()
	}
	return q.array[q.head]
}

func (q *Queue[T]) Clear() {
	var zero T
	for i := 0; i < q.size; i++ {
		q.array[(q.head+i)%len(q.array)] = zero
	}
	q.head = 0
	q.tail = 0
	q.size = 0
	q.version++
}

func (q *Queue[T]) Contains(item T) bool {
	for i := 0; i < q.size; i++ {
		if q.array[(q.head+i)%len(q.array)] == item {
			return true
		}
	}
	return false
}

func (q *Queue[T]) Count() int {
	return q.size
}

func (q *Queue[T]) grow(capacity int) {
	newCapacity := 2 * len(q.array)
	if newCapacity < 4 {
		newCapacity = 4
	}
	if newCapacity < capacity {
		newCapacity = capacity
	}
	next := make([]T, newCapacity)
	for i := 0; i < q.size; i++ {
		next[i] = q.array[(q.head+i)%len(q.array)]
	}
	q.array = next
	q.head = 0
	q.tail = q.size
}

func (q *Queue[T]) moveNext(index *int) {
	tmp := *index + 1
	if tmp == len(q.array) {
		tmp = 0
	}
	*index = tmp
}

func (q *Queue[T]) throwForEmptyQueue() {
	panic("queue empty")
}
