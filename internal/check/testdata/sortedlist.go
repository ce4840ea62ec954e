package structures

type ordered interface {
	~int | ~int64 | ~float64 | ~string
}

// SortedList keeps key/value pairs ordered by key.
type SortedList[K ordered, V comparable] struct {
	keys    []K
	values  []V
	size    int
	version int
}

func NewSortedList[K ordered, V comparable]() *SortedList[K, V] {
	return &SortedList[K, V]{}
}

func (s *SortedList[K, V]) Add(key K, value V) {
	i := s.binarySearch(key)
	if i >= 0 {
		panic("an entry with the same key already exists")
	}
	s.insert(^i, key, value)
}

func (s *SortedList[K, V]) insert(index int, key K, value V) {
	if s.size == len(s.keys) {
		s.grow(s.size + 1)
	}
	if index < s.size {
		copy(s.keys[index+1:], s.keys[index:s.size])
		copy(s.values[index+1:], s.values[index:s.size])
	}
	s.keys[index] = key
	s.values[index] = value
	s.size++
	s.version++
}

func (s *SortedList[K, V]) grow(capacity int) {
	newCapacity := 2 * len(s.keys)
	if newCapacity < 4 {
		newCapacity = 4
	}
	if newCapacity < capacity {
		newCapacity = capacity
	}
	keys := make([]K, newCapacity)
	values := make([]V, newCapacity)
	copy(keys, s.keys[:s.size])
	copy(values, s.values[:s.size])
	s.keys = keys
	s.values = values
}

func (s *SortedList[K, V]) RemoveAt(index int) {
	if uint(index) >= uint(s.size) {
		panic("index out of range")
	}
	s.size--
	if index < s.size {
		copy(s.keys[index:], s.keys[index+1:s.size+1])
		copy(s.values[index:], s.values[index+1:s.size+1])
	}
	var zeroKey K
	var zeroValue V
	s.keys[s.size] = zeroKey
	s.values[s.size] = zeroValue
	s.version++
}

func (s *SortedList[K, V]) Remove(key K) bool {
	i := s.IndexOfKey(key)
	if i >= 0 {
		s.RemoveAt(i)
		return true
	}
	return false
}

func (s *SortedList[K, V]) IndexOfKey(key K) int {
	i := s.binarySearch(key)
	if i < 0 {
		return -1
	}
	return i
}

func (s *SortedList[K, V]) IndexOfValue(value V) int {
	for i := 0; i < s.size; i++ {
		if s.values[i] == value {
			return i
		}
	}
	return -1
}

func (s *SortedList[K, V]) binarySearch(key K) int {
	lo, hi := 0, s.size-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch {
		case s.keys[mid] == key:
			return mid
		case s.keys[mid] < key:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return ^lo
}

func (s *SortedList[K, V]) ContainsKey(key K) bool {
	return s.IndexOfKey(key) >= 0
}

func (s *SortedList[K, V]) Keys() []K {
	out := make([]K, s.size)
	copy(out, s.keys[:s.size])
	return out
}

func (s *SortedList[K, V]) Clear() {
	var zeroKey K
	var zeroValue V
	for i := 0; i < s.size; i++ {
		s.keys[i] = zeroKey
		s.values[i] = zeroValue
	}
	s.size = 0
	s.version++
}

func (s *SortedList[K, V]) Count() int {
	return s.size
}
