package structures

// LinkedListNode is an element of a LinkedList.
type LinkedListNode[T comparable] struct {
	list *LinkedList[T]
	next *LinkedListNode[T]
	prev *LinkedListNode[T]
	item T
}

func (n *LinkedListNode[T]) Value() T {
	return n.item
}

func (n *LinkedListNode[T]) invalidate() {
	n.list = nil
	n.next = nil
	n.prev = nil
}

// LinkedList is a circular doubly linked list.
type LinkedList[T comparable] struct {
	head    *LinkedListNode[T]
	count   int
	version int
}

func NewLinkedList[T comparable]() *LinkedList[T] {
	return &LinkedList[T]{}
}

func (l *LinkedList[T]) AddBefore(node *LinkedListNode[T], value T) *LinkedListNode[T] {
	l.validateNode(node)
	result := &LinkedListNode[T]{list: node.list, item: value}
	l.insertNodeBefore(node, result)
	if node == l.head {
		l.head = result
	}
	return result
}

func (l *LinkedList[T]) AddAfter(node *LinkedListNode[T], value T) *LinkedListNode[T] {
	l.validateNode(node)
	result := &LinkedListNode[T]{list: node.list, item: value}
	l.insertNodeBefore(node.next, result)
	return result
}

func (l *LinkedList[T]) AddFirst(value T) *LinkedListNode[T] {
	result := &LinkedListNode[T]{list: l, item: value}
	if l.head == nil {
		l.insertNodeToEmptyList(result)
	} else {
		l.insertNodeBefore(l.head, result)
		l.head = result
	}
	return result
}

func (l *LinkedList[T]) AddLast(value T) *LinkedListNode[T] {
	result := &LinkedListNode[T]{list: l, item: value}
	if l.head == nil {
		l.insertNodeToEmptyList(result)
	} else {
		l.insertNodeBefore(l.head, result)
	}
	return result
}

func (l *LinkedList[T]) Remove(value T) bool {
	node := l.Find(value)
	if node != nil {
		l.removeNode(node)
		return true
	}
	return false
}

func (l *LinkedList[T]) RemoveNode(node *LinkedListNode[T]) {
	l.validateNode(node)
	l.removeNode(node)
}

func (l *LinkedList[T]) Find(value T) *LinkedListNode[T] {
	node := l.head
	if node != nil {
		for {
			if node.item == value {
				return node
			}
			node = node.next
			if node == l.head {
				break
			}
		}
	}
	return nil
}

func (l *LinkedList[T]) FindLast(value T) *LinkedListNode[T] {
	if l.head == nil {
		return nil
	}
	last := l.head.prev
	node := last
	for {
		if node.item == value {
			return node
		}
		node = node.prev
		if node == last {
			break
		}
	}
	return nil
}

func (l *LinkedList[T]) Clear() {
	node := l.head
	for node != nil {
		next := node.next
		node.invalidate()
		if next == l.head {
			break
		}
		node = next
	}
	l.head = nil
	l.count = 0
	l.version++
}

func (l *LinkedList[T]) Contains(value T) bool {
	return l.Find(value) != nil
}

func (l *LinkedList[T]) Count() int {
	return l.count
}

func (l *LinkedList[T]) First() *LinkedListNode[T] {
	return l.head
}

func (l *LinkedList[T]) validateNode(node *LinkedListNode[T]) {
	if node == nil {
		panic("node is nil")
	}
	if node.list != l {
		panic("node does not belong to this list")
	}
}

func (l *LinkedList[T]) insertNodeBefore(node, newNode *LinkedListNode[T]) {
	newNode.next = node
	newNode.prev = node.prev
	node.prev.next = newNode
	node.prev = newNode
	l.version++
	l.count++
}

func (l *LinkedList[T]) insertNodeToEmptyList(newNode *LinkedListNode[T]) {
	newNode.next = newNode
	newNode.prev = newNode
	l.head = newNode
	l.version++
	l.count++
}

func (l *LinkedList[T]) removeNode(node *LinkedListNode[T]) {
	if node.next == node {
		l.head = nil
	} else {
		node.next.prev = node.prev
		node.prev.next = node.next
		if l.head == node {
			l.head = node.next
		}
	}
	node.invalidate()
	l.count--
	l.version++
}
