package reference

import (
	"cmp"
	"fmt"
	"slices"
)

// SortedList keeps entries ordered by key.
type SortedList[K cmp.Ordered, V any] struct {
	keys   []K
	values []V
}

// NewSortedList creates an empty SortedList.
func NewSortedList[K cmp.Ordered, V any]() *SortedList[K, V] { return &SortedList[K, V]{} }

// Add inserts a new entry at its sorted position. It panics on a duplicate key.
func (s *SortedList[K, V]) Add(key K, value V) {
	i, found := slices.BinarySearch(s.keys, key)
	if found {
		panic(fmt.Sprintf("an entry with the same key already exists: %v", key))
	}
	s.keys = slices.Insert(s.keys, i, key)
	s.values = slices.Insert(s.values, i, value)
}

func (s *SortedList[K, V]) ContainsKey(key K) bool { return s.IndexOfKey(key) >= 0 }

// IndexOfKey returns the position of key or -1.
func (s *SortedList[K, V]) IndexOfKey(key K) int {
	i, found := slices.BinarySearch(s.keys, key)
	if !found {
		return -1
	}
	return i
}

func (s *SortedList[K, V]) Remove(key K) bool {
	i := s.IndexOfKey(key)
	if i < 0 {
		return false
	}
	s.keys = slices.Delete(s.keys, i, i+1)
	s.values = slices.Delete(s.values, i, i+1)
	return true
}

func (s *SortedList[K, V]) Clear() {
	s.keys = nil
	s.values = nil
}

// Keys returns a copy of the keys in ascending order.
func (s *SortedList[K, V]) Keys() []K { return slices.Clone(s.keys) }

func (s *SortedList[K, V]) Count() int { return len(s.keys) }
