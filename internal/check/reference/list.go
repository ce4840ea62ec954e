// Package reference holds the trusted collection implementations that
// submissions are compared against. The method sets mirror the contract
// in package kind so the same scripts can drive both sides.
package reference

import "fmt"

// List is a growable indexed sequence.
type List[T comparable] struct {
	items []T
}

// NewList creates an empty List.
func NewList[T comparable]() *List[T] { return &List[T]{} }

func (l *List[T]) Add(item T) { l.items = append(l.items, item) }

// Remove deletes the first occurrence of item.
func (l *List[T]) Remove(item T) bool {
	i := l.IndexOf(item)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

// Insert places item at index, shifting later items right.
func (l *List[T]) Insert(index int, item T) {
	if index < 0 || index > len(l.items) {
		panic(fmt.Sprintf("index %d out of range [0,%d]", index, len(l.items)))
	}
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[index+1:], l.items[index:])
	l.items[index] = item
}

func (l *List[T]) Clear() { l.items = nil }

func (l *List[T]) Contains(item T) bool { return l.IndexOf(item) >= 0 }

// IndexOf returns the index of the first occurrence of item or -1.
func (l *List[T]) IndexOf(item T) int {
	for i, v := range l.items {
		if v == item {
			return i
		}
	}
	return -1
}

func (l *List[T]) Count() int { return len(l.items) }

func (l *List[T]) Get(index int) T {
	if index < 0 || index >= len(l.items) {
		panic(fmt.Sprintf("index %d out of range [0,%d)", index, len(l.items)))
	}
	return l.items[index]
}
