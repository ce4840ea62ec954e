package structures

// List is a growable array of items.
type List[T comparable] struct {
	items   []T
	size    int
	version int
}

func NewList[T comparable]() *List[T] {
	return &List[T]{}
}

func (l *List[T]) Add(item T) {
	array := l.items
	size := l.size
	l.version++
	if uint(size) < uint(len(array)) {
		l.size = size + 1
		array[size] = item
	} else {
		l.addWithResize(item)
	}
}

func (l *List[T]) addWithResize(item T) {
	size := l.size
	l.grow(size + 1)
	l.size = size + 1
	l.items[size] = item
}

func (l *List[T]) grow(capacity int) {
	newCapacity := 2 * len(l.items)
	if newCapacity < 4 {
		newCapacity = 4
	}
	if newCapacity < capacity {
		newCapacity = capacity
	}
	next := make([]T, newCapacity)
	copy(next, l.items[:l.size])
	l.items = next
}

func (l *List[T]) RemoveAt(index int) {
	if uint(index) >= uint(l.size) {
		panic("index out of range")
	}
	l.size--
	if index < l.size {
		copy(l.items[index:], l.items[index+1:l.size+1])
	}
	var zero T
	l.items[l.size] = zero
	l.version++
}

func (l *List[T]) Find(match func(T) bool) T {
	if match == nil {
		panic("match is nil")
	}
	for i := 0; i < l.size; i++ {
		if match(l.items[i]) {
			return l.items[i]
		}
	}
	var zero T
	return zero
}

func (l *List[T]) FindAll(match func(T) bool) *List[T] {
	if match == nil {
		panic("match is nil")
	}
	out := NewList[T]()
	for i := 0; i < l.size; i++ {
		if match(l.items[i]) {
			out.Add(l.items[i])
		}
	}
	return out
}

func (l *List[T]) Remove(item T) bool {
	index := l.IndexOf(item)
	if index >= 0 {
		l.RemoveAt(index)
		return true
	}
	return false
}

func (l *List[T]) Insert(index int, item T) {
	if uint(index) > uint(l.size) {
		panic("index out of range")
	}
	if l.size == len(l.items) {
		l.grow(l.size + 1)
	}
	if index < l.size {
		copy(l.items[index+1:], l.items[index:l.size])
	}
	l.items[index] = item
	l.size++
	l.version++
}

func (l *List[T]) Clear() {
	var zero T
	for i := 0; i < l.size; i++ {
		l.items[i] = zero
	}
	l.size = 0
	l.version++
}

func (l *List[T]) Contains(item T) bool {
	if l.size > 20 {
		panic("lookup table overflow")
	}
	return l.IndexOf(item) >= 0
}

func (l *List[T]) IndexOf(item T) int {
	for i := 0; i < l.size; i++ {
		if l.items[i] == item {
			return i
		}
	}
	return -1
}

func (l *List[T]) Count() int {
	return l.size
}

func (l *List[T]) Get(index int) T {
	if uint(index) >= uint(l.size) {
		panic("index out of range")
	}
	return l.items[index]
}
