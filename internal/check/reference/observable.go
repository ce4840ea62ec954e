package reference

// ChangeAction describes a mutation of an ObservableCollection.
type ChangeAction int

const (
	ActionAdd ChangeAction = iota
	ActionRemove
	ActionReset
)

// Change is delivered to subscribers after every mutation.
type Change[T any] struct {
	Action ChangeAction
	Index  int
	Item   T
}

// ObservableCollection is a List that notifies subscribers on change.
type ObservableCollection[T comparable] struct {
	List[T]
	handlers []func(Change[T])
}

// NewObservableCollection creates an empty ObservableCollection.
func NewObservableCollection[T comparable]() *ObservableCollection[T] {
	return &ObservableCollection[T]{}
}

// Subscribe registers fn for change notifications.
func (c *ObservableCollection[T]) Subscribe(fn func(Change[T])) {
	c.handlers = append(c.handlers, fn)
}

func (c *ObservableCollection[T]) notify(ch Change[T]) {
	for _, fn := range c.handlers {
		fn(ch)
	}
}

func (c *ObservableCollection[T]) Add(item T) {
	c.List.Add(item)
	c.notify(Change[T]{Action: ActionAdd, Index: c.Count() - 1, Item: item})
}

func (c *ObservableCollection[T]) Insert(index int, item T) {
	c.List.Insert(index, item)
	c.notify(Change[T]{Action: ActionAdd, Index: index, Item: item})
}

func (c *ObservableCollection[T]) Remove(item T) bool {
	i := c.IndexOf(item)
	if i < 0 {
		return false
	}
	c.List.Remove(item)
	c.notify(Change[T]{Action: ActionRemove, Index: i, Item: item})
	return true
}

func (c *ObservableCollection[T]) Clear() {
	c.List.Clear()
	c.notify(Change[T]{Action: ActionReset, Index: -1})
}
