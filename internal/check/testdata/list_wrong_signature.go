package structures

type List[T comparable] struct {
	items []T
}

func (l *List[T]) Add(item T) {
	l.items = append(l.items, item)
}

func (l *List[T]) Remove(item T) bool {
	return false
}

func (l *List[T]) Insert(index int, item T) {}

func (l *List[T]) Clear() {}

func (l *List[T]) Contains(item T) bool {
	return false
}

func (l *List[T]) Count() int64 {
	return int64(len(l.items))
}

func (l *List[T]) Get(index int) T {
	return l.items[index]
}
