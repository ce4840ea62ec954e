package structures

// ChangeAction describes a collection mutation.
type ChangeAction int

const (
	ActionAdd ChangeAction = iota
	ActionRemove
	ActionReset
)

// ChangeEvent is delivered to subscribers after every mutation.
type ChangeEvent[T any] struct {
	Action ChangeAction
	Index  int
	Item   T
}

// ObservableCollection is a list that notifies subscribers about changes.
type ObservableCollection[T comparable] struct {
	items    []T
	handlers []func(ChangeEvent[T])
	busy     bool
}

func NewObservableCollection[T comparable]() *ObservableCollection[T] {
	return &ObservableCollection[T]{}
}

func (c *ObservableCollection[T]) Subscribe(fn func(ChangeEvent[T])) {
	c.handlers = append(c.handlers, fn)
}

func (c *ObservableCollection[T]) Add(item T) {
	c.Insert(len(c.items), item)
}

func (c *ObservableCollection[T]) Insert(index int, item T) {
	c.checkReentrancy()
	if index < 0 || index > len(c.items) {
		panic("index out of range")
	}
	var zero T
	c.items = append(c.items, zero)
	copy(c.items[index+1:], c.items[index:])
	c.items[index] = item
	c.onCollectionChanged(ChangeEvent[T]{Action: ActionAdd, Index: index, Item: item})
}

func (c *ObservableCollection[T]) Remove(item T) bool {
	c.checkReentrancy()
	index := c.IndexOf(item)
	if index < 0 {
		return false
	}
	copy(c.items[index:], c.items[index+1:])
	var zero T
	c.items[len(c.items)-1] = zero
	c.items = c.items[:len(c.items)-1]
	c.onCollectionChanged(ChangeEvent[T]{Action: ActionRemove, Index: index, Item: item})
	return true
}

func (c *ObservableCollection[T]) Clear() {
	c.checkReentrancy()
	c.items = nil
	c.onCollectionChanged(ChangeEvent[T]{Action: ActionReset, Index: -1})
}

func (c *ObservableCollection[T]) Contains(item T) bool {
	return c.IndexOf(item) >= 0
}

func (c *ObservableCollection[T]) IndexOf(item T) int {
	for i, v := range c.items {
		if v == item {
			return i
		}
	}
	return -1
}

func (c *ObservableCollection[T]) Count() int {
	return len(c.items)
}

func (c *ObservableCollection[T]) checkReentrancy() {
	if c.busy {
		panic("cannot change the collection during a change notification")
	}
}

func (c *ObservableCollection[T]) onCollectionChanged(e ChangeEvent[T]) {
	c.busy = true
	defer func() { c.busy = false }()
	for _, h := range c.handlers {
		h(e)
	}
}
