package structures

type Dictionary[K comparable] struct {
	keys []K
}

func (d *Dictionary[K]) Add(key K, value K) {
	d.keys = append(d.keys, key)
}
