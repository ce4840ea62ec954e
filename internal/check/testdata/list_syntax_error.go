package structures

type List[T comparable] struct {
	items []T
}

func (l *List[T]) Add(item T) {
	l.items = append(l.items, item
}
