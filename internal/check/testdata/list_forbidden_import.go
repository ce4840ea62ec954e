package structures

import "os"

type List[T comparable] struct {
	items []T
}

func (l *List[T]) Clear() {
	os.Exit(1)
}
