package reference

import "fmt"

// HashSet is an unordered set of distinct items.
type HashSet[T comparable] struct {
	items map[T]struct{}
}

// NewHashSet creates an empty HashSet.
func NewHashSet[T comparable]() *HashSet[T] { return &HashSet[T]{items: make(map[T]struct{})} }

// Add inserts item and reports whether it was not present.
func (s *HashSet[T]) Add(item T) bool {
	if s.items == nil {
		s.items = make(map[T]struct{})
	}
	if _, ok := s.items[item]; ok {
		return false
	}
	s.items[item] = struct{}{}
	return true
}

func (s *HashSet[T]) Remove(item T) bool {
	if _, ok := s.items[item]; !ok {
		return false
	}
	delete(s.items, item)
	return true
}

func (s *HashSet[T]) Clear() { clear(s.items) }

func (s *HashSet[T]) Contains(item T) bool {
	_, ok := s.items[item]
	return ok
}

// UnionWith adds every item of other.
func (s *HashSet[T]) UnionWith(other []T) {
	for _, v := range other {
		s.Add(v)
	}
}

func (s *HashSet[T]) Count() int { return len(s.items) }

// Dictionary maps unique keys to values.
type Dictionary[K comparable, V comparable] struct {
	items map[K]V
}

// NewDictionary creates an empty Dictionary.
func NewDictionary[K comparable, V comparable]() *Dictionary[K, V] {
	return &Dictionary[K, V]{items: make(map[K]V)}
}

// Add inserts a new entry. It panics when key already exists.
func (d *Dictionary[K, V]) Add(key K, value V) {
	if d.items == nil {
		d.items = make(map[K]V)
	}
	if _, ok := d.items[key]; ok {
		panic(fmt.Sprintf("an item with the same key has already been added: %v", key))
	}
	d.items[key] = value
}

func (d *Dictionary[K, V]) Remove(key K) bool {
	if _, ok := d.items[key]; !ok {
		return false
	}
	delete(d.items, key)
	return true
}

func (d *Dictionary[K, V]) Clear() { clear(d.items) }

func (d *Dictionary[K, V]) ContainsKey(key K) bool {
	_, ok := d.items[key]
	return ok
}

func (d *Dictionary[K, V]) ContainsValue(value V) bool {
	for _, v := range d.items {
		if v == value {
			return true
		}
	}
	return false
}

func (d *Dictionary[K, V]) Count() int { return len(d.items) }
