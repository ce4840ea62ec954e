package structures

type List[T comparable] struct {
	items []T
}

func NewList[T comparable]() *List[T] {
	return &List[T]{}
}

func (l *List[T]) Add(item T) {
	//Нужна реализация
	panic("not implemented")
}

func (l *List[T]) Remove(item T) bool {
	//Нужна реализация
	panic("not implemented")
}

func (l *List[T]) Insert(index int, item T) {
	//Нужна реализация
	panic("not implemented")
}

func (l *List[T]) Clear() {
	l.items = nil
}

func (l *List[T]) Contains(item T) bool {
	return false
}

func (l *List[T]) Count() int {
	return len(l.items)
}

func (l *List[T]) Get(index int) T {
	return l.items[index]
}
