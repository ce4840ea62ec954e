package structures

type List[T comparable] struct {
	items []T
}

func (l *List[T]) Add(item T) {
	l.items = append(l.items, item)
}

func (l *List[T]) Remove(item T) bool {
	for i, v := range l.items {
		if v == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

func (l *List[T]) Insert(index int, item T) {
	l.items = append(l.items, item)
	copy(l.items[index+1:], l.items[index:])
	l.items[index] = item
}

func (l *List[T]) Clear() {
	l.items = nil
}

func (l *List[T]) Contains(item T) bool {
	for i := len(l.items); i >= 0; i-- {
		if l.items[i] == item {
			return true
		}
	}
	return false
}

func (l *List[T]) Count() int {
	return len(l.items)
}

func (l *List[T]) Get(index int) T {
	return l.items[index]
}
