package reference

// LinkedListNode is an element of a LinkedList.
type LinkedListNode[T comparable] struct {
	value      T
	next, prev *LinkedListNode[T]
	list       *LinkedList[T]
}

func (n *LinkedListNode[T]) Value() T { return n.value }

// Next returns the following node or nil at the tail.
func (n *LinkedListNode[T]) Next() *LinkedListNode[T] {
	if n.list == nil || n.next == n.list.head {
		return nil
	}
	return n.next
}

// LinkedList is a circular doubly linked list.
type LinkedList[T comparable] struct {
	head  *LinkedListNode[T]
	count int
}

// NewLinkedList creates an empty LinkedList.
func NewLinkedList[T comparable]() *LinkedList[T] { return &LinkedList[T]{} }

func (l *LinkedList[T]) AddLast(value T) *LinkedListNode[T] {
	node := &LinkedListNode[T]{value: value, list: l}
	if l.head == nil {
		l.insertEmpty(node)
	} else {
		l.insertBefore(l.head, node)
	}
	return node
}

func (l *LinkedList[T]) AddFirst(value T) *LinkedListNode[T] {
	node := &LinkedListNode[T]{value: value, list: l}
	if l.head == nil {
		l.insertEmpty(node)
	} else {
		l.insertBefore(l.head, node)
		l.head = node
	}
	return node
}

func (l *LinkedList[T]) insertEmpty(node *LinkedListNode[T]) {
	node.next = node
	node.prev = node
	l.head = node
	l.count++
}

func (l *LinkedList[T]) insertBefore(at, node *LinkedListNode[T]) {
	node.next = at
	node.prev = at.prev
	at.prev.next = node
	at.prev = node
	l.count++
}

// Find returns the first node holding value or nil.
func (l *LinkedList[T]) Find(value T) *LinkedListNode[T] {
	node := l.head
	for i := 0; i < l.count; i++ {
		if node.value == value {
			return node
		}
		node = node.next
	}
	return nil
}

func (l *LinkedList[T]) Remove(value T) bool {
	node := l.Find(value)
	if node == nil {
		return false
	}
	if node.next == node {
		l.head = nil
	} else {
		node.next.prev = node.prev
		node.prev.next = node.next
		if l.head == node {
			l.head = node.next
		}
	}
	node.list = nil
	node.next, node.prev = nil, nil
	l.count--
	return true
}

func (l *LinkedList[T]) Clear() {
	node := l.head
	for i := 0; i < l.count; i++ {
		next := node.next
		node.list, node.next, node.prev = nil, nil, nil
		node = next
	}
	l.head = nil
	l.count = 0
}

func (l *LinkedList[T]) Contains(value T) bool { return l.Find(value) != nil }

func (l *LinkedList[T]) Count() int { return l.count }

func (l *LinkedList[T]) First() *LinkedListNode[T] { return l.head }
