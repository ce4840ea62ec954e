package structures

import "fmt"

const startOfFreeList = -3

// EqualityComparer hashes and compares keys.
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

type entry[K comparable, V comparable] struct {
	hashCode uint32
	next     int
	key      K
	value    V
}

// Dictionary maps unique keys to values.
type Dictionary[K comparable, V comparable] struct {
	buckets   []int
	entries   []entry[K, V]
	count     int
	freeList  int
	freeCount int
	version   int
	comparer  EqualityComparer[K]
}

func NewDictionary[K comparable, V comparable]() *Dictionary[K, V] {
	return &Dictionary[K, V]{comparer: defaultComparer[K]{}}
}

func (d *Dictionary[K, V]) initialize(capacity int) {
	size := getPrime(capacity)
	d.buckets = make([]int, size)
	d.entries = make([]entry[K, V], size)
	d.freeList = -1
}

func (d *Dictionary[K, V]) getComparer() EqualityComparer[K] {
	if d.comparer == nil {
		d.comparer = defaultComparer[K]{}
	}
	return d.comparer
}

func (d *Dictionary[K, V]) getBucket(hashCode uint32) *int {
	return &d.buckets[hashCode%uint32(len(d.buckets))]
}

func (d *Dictionary[K, V]) Add(key K, value V) {
	d.tryInsert(key, value, false)
}

func (d *Dictionary[K, V]) tryInsert(key K, value V, overwrite bool) bool {
	if d.buckets == nil {
		d.initialize(0)
	}
	entries := d.entries
	comparer := d.getComparer()
	hashCode := comparer.Hash(key)
	bucket := d.getBucket(hashCode)
	var collisionCount uint32
	i := *bucket - 1
	for i >= 0 {
		if entries[i].hashCode == hashCode && comparer.Equal(entries[i].key, key) {
			if overwrite {
				entries[i].value = value
				d.version++
				return true
			}
			panic(fmt.Sprintf("an item with the same key has already been added: %v", key))
		}
		i = entries[i].next
		collisionCount++
		if collisionCount > uint32(len(entries)) {
			panic("concurrent operations are not supported")
		}
	}

	var index int
	if d.freeCount > 0 {
		index = d.freeList
		d.freeList = startOfFreeList - entries[d.freeList].next
		d.freeCount--
	} else {
		if d.count == len(entries) {
			d.resize()
			bucket = d.getBucket(hashCode)
		}
		index = d.count
		d.count++
		entries = d.entries
	}
	entries[index].hashCode = hashCode
	entries[index].next = *bucket - 1
	entries[index].key = key
	entries[index].value = value
	*bucket = index + 1
	d.version++
	return true
}

func (d *Dictionary[K, V]) resize() {
	newSize := getPrime(2 * d.count)
	entries := make([]entry[K, V], newSize)
	copy(entries, d.entries[:d.count])
	d.buckets = make([]int, newSize)
	for i := 0; i < d.count; i++ {
		if entries[i].next >= -1 {
			bucket := d.getBucket(entries[i].hashCode)
			entries[i].next = *bucket - 1
			*bucket = i + 1
		}
	}
	d.entries = entries
}

func (d *Dictionary[K, V]) Remove(key K) bool {
	if d.buckets == nil {
		return false
	}
	entries := d.entries
	comparer := d.getComparer()
	hashCode := comparer.Hash(key)
	bucket := d.getBucket(hashCode)
	var collisionCount uint32
	last := -1
	i := *bucket - 1
	for i >= 0 {
		if entries[i].hashCode == hashCode && comparer.Equal(entries[i].key, key) {
			if last < 0 {
				*bucket = entries[i].next + 1
			} else {
				entries[last].next = entries[i].next
			}
			var zeroKey K
			var zeroValue V
			entries[i].key = zeroKey
			entries[i].value = zeroValue
			entries[i].next = startOfFreeList - d.freeList
			d.freeList = i
			d.freeCount++
			d.version++
			return true
		}
		last = i
		i = entries[i].next
		collisionCount++
		if collisionCount > uint32(len(entries)) {
			panic("concurrent operations are not supported")
		}
	}
	return false
}

func (d *Dictionary[K, V]) TryGetValue(key K) (V, bool) {
	if v := d.findValue(key); v != nil {
		return *v, true
	}
	var zero V
	return zero, false
}

func (d *Dictionary[K, V]) findValue(key K) *V {
	var e *entry[K, V]
	if d.buckets == nil {
		return nil
	}
	comparer := d.getComparer()
	hashCode := comparer.Hash(key)
	i := *d.getBucket(hashCode) - 1
	var collisionCount uint32
	for i >= 0 {
		e = &d.entries[i]
		if e.hashCode == hashCode && comparer.Equal(e.key, key) {
			return &e.value
		}
		i = e.next
		collisionCount++
		if collisionCount > uint32(len(d.entries)) {
			panic("concurrent operations are not supported")
		}
	}
	return nil
}

func getPrime(minSize int) int {
	if minSize < 3 {
		return 3
	}
	for n := minSize | 1; ; n += 2 {
		prime := true
		for d := 3; d*d <= n; d += 2 {
			if n%d == 0 {
				prime = false
				break
			}
		}
		if prime {
			return n
		}
	}
}

func (d *Dictionary[K, V]) ContainsKey(key K) bool {
	return d.findValue(key) != nil
}

func (d *Dictionary[K, V]) ContainsValue(value V) bool {
	for i := 0; i < d.count; i++ {
		if d.entries[i].next >= -1 && d.entries[i].value == value {
			return true
		}
	}
	return false
}

func (d *Dictionary[K, V]) Clear() {
	if d.count == 0 {
		return
	}
	for i := range d.buckets {
		d.buckets[i] = 0
	}
	var zero entry[K, V]
	for i := 0; i < d.count; i++ {
		d.entries[i] = zero
	}
	d.count = 0
	d.freeList = -1
	d.freeCount = 0
	d.version++
}

func (d *Dictionary[K, V]) Count() int {
	return d.count - d.freeCount
}
