package structures

// Stack is a LIFO collection backed by an array.
type Stack[T comparable] struct {
	array   []T
	size    int
	version int
}

func NewStack[T comparable]() *Stack[T] {
	return &Stack[T]{}
}

func (s *Stack[T]) Push(item T) {
	size := s.size
	array := s.array
	if uint(size) < uint(len(array)) {
		array[size] = item
		s.version++
		s.size = size + 1
	} else {
		s.pushWithResize(item)
	}
}

func (s *Stack[T]) pushWithResize(item T) {
	s.grow(s.size + 1)
	s.array[s.size] = item
	s.version++
	s.size++
}

func (s *Stack[T]) grow(capacity int) {
	newCapacity := 2 * len(s.array)
	if newCapacity < 4 {
		newCapacity = 4
	}
	if newCapacity < capacity {
		newCapacity = capacity
	}
	next := make([]T, newCapacity)
	copy(next, s.array[:s.size])
	s.array = next
}

func (s *Stack[T]) Pop() T {
	size := s.size - 1
	if uint(size) >= uint(len(s.array)) {
		s.throwForEmptyStack()
	}
	s.version++
	s.size = size
	item := s.array[size]
	var zero T
	s.array[size] = zero
	return item
}

func (s *Stack[T]) TryPop() (T, bool) {
	if s.size == 0 {
		var zero T
		return zero, false
	}
	return s.Pop(), true
}

func (s *Stack[T]) Peek() T {
	if s.size == 0 {
		s.throwForEmptyStack()
	}
	return s.array[s.size-1]
}

func (s *Stack[T]) TryPeek() (T, bool) {
	if s.size == 0 {
		var zero T
		return zero, false
	}
	return s.array[s.size-1], true
}

func (s *Stack[T]) Clear() {
	var zero T
	for i := 0; i < s.size; i++ {
		s.array[i] = zero
	}
	s.size = 0
	s.version++
}

func (s *Stack[T]) Contains(item T) bool {
	for i := s.size - 1; i >= 0; i-- {
		if s.array[i] == item {
			return true
		}
	}
	return false
}

func (s *Stack[T]) ToArray() []T {
	out := make([]T, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.array[s.size-1-i]
	}
	return out
}

func (s *Stack[T]) Count() int {
	return s.size
}

func (s *Stack[T]) throwForEmptyStack() {
	panic("stack empty")
}
