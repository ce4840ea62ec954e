package reference

import "structcheck/internal/check/kind"

// For returns a fresh reference of k instantiated with the kind's type
// arguments. ok is false for an unknown kind.
func For(k kind.Kind) (impl any, ok bool) {
	switch k {
	case kind.List:
		return NewList[string](), true
	case kind.LinkedList:
		return NewLinkedList[string](), true
	case kind.SortedList:
		return NewSortedList[string, string](), true
	case kind.Stack:
		return NewStack[string](), true
	case kind.Queue:
		return NewQueue[string](), true
	case kind.HashSet:
		return NewHashSet[string](), true
	case kind.Dictionary:
		return NewDictionary[string, string](), true
	case kind.ObservableCollection:
		return NewObservableCollection[string](), true
	}
	return nil, false
}
