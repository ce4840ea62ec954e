package structures

type List[T comparable] struct {
	items []T
}

func (l *List[T]) Count() int {
	return size
}
