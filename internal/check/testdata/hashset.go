package structures

import "fmt"

const startOfFreeList = -3

// EqualityComparer hashes and compares values.
type EqualityComparer[T comparable] interface {
	Hash(value T) uint32
	Equal(a, b T) bool
}

type defaultComparer[T comparable] struct{}

func (defaultComparer[T]) Hash(value T) uint32 {
	s := fmt.Sprint(value)
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (defaultComparer[T]) Equal(a, b T) bool {
	return a == b
}

type entry[T comparable] struct {
	hashCode uint32
	next     int
	value    T
}

// HashSet is a set of unique values with chained buckets.
type HashSet[T comparable] struct {
	buckets   []int
	entries   []entry[T]
	count     int
	freeList  int
	freeCount int
	version   int
	comparer  EqualityComparer[T]
}

func NewHashSet[T comparable]() *HashSet[T] {
	return &HashSet[T]{comparer: defaultComparer[T]{}}
}

func (s *HashSet[T]) initialize(capacity int) {
	s.buckets = make([]int, capacity)
	s.entries = make([]entry[T], capacity)
	s.freeList = -1
}

func (s *HashSet[T]) getComparer() EqualityComparer[T] {
	if s.comparer == nil {
		s.comparer = defaultComparer[T]{}
	}
	return s.comparer
}

func (s *HashSet[T]) Add(item T) bool {
	_, added := s.addIfNotPresent(item)
	return added
}

func (s *HashSet[T]) addIfNotPresent(value T) (int, bool) {
	if s.buckets == nil {
		s.initialize(4)
	}
	entries := s.entries
	comparer := s.getComparer()
	hashCode := comparer.Hash(value)
	bucket := s.getBucketRef(hashCode)
	collisionCount := 0
	i := *bucket - 1
	for i >= 0 {
		if entries[i].hashCode == hashCode && comparer.Equal(entries[i].value, value) {
			return i, false
		}
		i = entries[i].next
		collisionCount++
		if collisionCount > len(entries) {
			panic("concurrent operations are not supported")
		}
	}

	var index int
	if s.freeCount > 0 {
		index = s.freeList
		s.freeCount--
		s.freeList = startOfFreeList - entries[s.freeList].next
	} else {
		if s.count == len(entries) {
			s.resize(2 * len(entries))
			bucket = s.getBucketRef(hashCode)
		}
		index = s.count
		s.count++
		entries = s.entries
	}
	entries[index].hashCode = hashCode
	entries[index].next = *bucket - 1
	entries[index].value = value
	*bucket = index + 1
	s.version++
	return index, true
}

func (s *HashSet[T]) Remove(item T) bool {
	if s.buckets == nil {
		return false
	}
	entries := s.entries
	comparer := s.getComparer()
	hashCode := comparer.Hash(item)
	bucket := s.getBucketRef(hashCode)
	last := -1
	collisionCount := 0
	i := *bucket - 1
	for i >= 0 {
		if entries[i].hashCode == hashCode && comparer.Equal(entries[i].value, item) {
			if last < 0 {
				*bucket = entries[i].next + 1
			} else {
				entries[last].next = entries[i].next
			}
			var zero T
			entries[i].value = zero
			entries[i].next = startOfFreeList - s.freeList
			s.freeList = i
			s.freeCount++
			s.version++
			return true
		}
		last = i
		i = entries[i].next
		collisionCount++
		if collisionCount > len(entries) {
			panic("concurrent operations are not supported")
		}
	}
	return false
}

func (s *HashSet[T]) findItemIndex(item T) int {
	buckets := s.buckets
	if buckets == nil {
		return -1
	}
	entries := s.entries
	comparer := s.getComparer()
	hashCode := comparer.Hash(item)
	i := *s.getBucketRef(hashCode) - 1
	for i >= 0 {
		if entries[i].hashCode == hashCode && comparer.Equal(entries[i].value, item) {
			return i
		}
		i = entries[i].next
	}
	return -1
}

func (s *HashSet[T]) getBucketRef(hashCode uint32) *int {
	return &s.buckets[hashCode%uint32(len(s.buckets))]
}

func (s *HashSet[T]) resize(newSize int) {
	entries := make([]entry[T], newSize)
	copy(entries, s.entries[:s.count])
	s.buckets = make([]int, newSize)
	for i := 0; i < s.count; i++ {
		if entries[i].next >= -1 {
			bucket := s.getBucketRef(entries[i].hashCode)
			entries[i].next = *bucket - 1
			*bucket = i + 1
		}
	}
	s.entries = entries
}

func (s *HashSet[T]) Clear() {
	if s.count == 0 {
		return
	}
	for i := range s.buckets {
		s.buckets[i] = 0
	}
	var zero entry[T]
	for i := 0; i < s.count; i++ {
		s.entries[i] = zero
	}
	s.count = 0
	s.freeList = -1
	s.freeCount = 0
	s.version++
}

func (s *HashSet[T]) Contains(item T) bool {
	return s.findItemIndex(item) >= 0
}

func (s *HashSet[T]) UnionWith(other []T) {
	for _, item := range other {
		s.addIfNotPresent(item)
	}
}

func (s *HashSet[T]) Count() int {
	return s.count - s.freeCount
}
