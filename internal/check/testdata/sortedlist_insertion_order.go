package structures

// SortedList keeps keys in insertion order.
type SortedList[K comparable, V comparable] struct {
	keys   []K
	values []V
}

func (s *SortedList[K, V]) Add(key K, value V) {
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
}

func (s *SortedList[K, V]) ContainsKey(key K) bool {
	for _, k := range s.keys {
		if k == key {
			return true
		}
	}
	return false
}

func (s *SortedList[K, V]) Remove(key K) bool {
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			s.values = append(s.values[:i], s.values[i+1:]...)
			return true
		}
	}
	return false
}

func (s *SortedList[K, V]) Clear() {
	s.keys = nil
	s.values = nil
}

func (s *SortedList[K, V]) Keys() []K {
	out := make([]K, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *SortedList[K, V]) Count() int {
	return len(s.keys)
}
