package oracle

import (
	"context"
	"slices"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/reference"
)

func sameCount(ctx context.Context, want int, d *driver) (bool, error) {
	got, err := d.count(ctx)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

func sameBool(ctx context.Context, want bool, d *driver, method string, args ...any) (bool, error) {
	got, err := d.boolean(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

func sameString(ctx context.Context, want string, d *driver, method string, args ...any) (bool, error) {
	got, err := d.str(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

type listRef = *reference.List[string]

func listScript(lit Literals) *script[listRef] {
	item := lit.Item
	return &script[listRef]{
		kind:   kind.List,
		newRef: reference.NewList[string],
		checks: []check[listRef]{
			{"Add", func(ctx context.Context, ref listRef, d *driver) (bool, error) {
				ref.Add(item)
				if err := d.call(ctx, "Add", item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Remove", func(ctx context.Context, ref listRef, d *driver) (bool, error) {
				ref.Add(item)
				if err := d.call(ctx, "Add", item); err != nil {
					return false, err
				}
				ref.Remove(item)
				if err := d.call(ctx, "Remove", item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Insert", func(ctx context.Context, ref listRef, d *driver) (bool, error) {
				ref.Insert(0, item)
				if err := d.call(ctx, "Insert", 0, item); err != nil {
					return false, err
				}
				return sameString(ctx, ref.Get(0), d, "Get", 0)
			}},
			{"Clear", func(ctx context.Context, ref listRef, d *driver) (bool, error) {
				ref.Add(item)
				if err := d.call(ctx, "Add", item); err != nil {
					return false, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref listRef, d *driver) (bool, error) {
				ref.Add(item)
				if err := d.call(ctx, "Add", item); err != nil {
					return false, err
				}
				return sameBool(ctx, ref.Contains(item), d, "Contains", item)
			}},
		},
	}
}

type linkedListRef = *reference.LinkedList[string]

func linkedListScript(lit Literals) *script[linkedListRef] {
	item := lit.Item
	addLast := func(ctx context.Context, ref linkedListRef, d *driver) error {
		ref.AddLast(item)
		return d.call(ctx, "AddLast", item)
	}
	return &script[linkedListRef]{
		kind:   kind.LinkedList,
		newRef: reference.NewLinkedList[string],
		checks: []check[linkedListRef]{
			{"AddLast", func(ctx context.Context, ref linkedListRef, d *driver) (bool, error) {
				if err := addLast(ctx, ref, d); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"AddFirst", func(ctx context.Context, ref linkedListRef, d *driver) (bool, error) {
				ref.AddFirst(item)
				if err := d.call(ctx, "AddFirst", item); err != nil {
					return false, err
				}
				if ok, err := sameCount(ctx, ref.Count(), d); !ok || err != nil {
					return ok, err
				}
				v, ok, err := d.inv.Select(ctx, "First", "Value")
				if err != nil || !ok {
					return false, err
				}
				head, err := asString("First.Value", v)
				if err != nil {
					return false, err
				}
				return head == ref.First().Value(), nil
			}},
			{"Remove", func(ctx context.Context, ref linkedListRef, d *driver) (bool, error) {
				if err := addLast(ctx, ref, d); err != nil {
					return false, err
				}
				ref.Remove(item)
				if err := d.call(ctx, "Remove", item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref linkedListRef, d *driver) (bool, error) {
				if err := addLast(ctx, ref, d); err != nil {
					return false, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref linkedListRef, d *driver) (bool, error) {
				if err := addLast(ctx, ref, d); err != nil {
					return false, err
				}
				return sameBool(ctx, ref.Contains(item), d, "Contains", item)
			}},
		},
	}
}

type sortedListRef = *reference.SortedList[string, string]

func sortedListScript(lit Literals) *script[sortedListRef] {
	add := func(ctx context.Context, ref sortedListRef, d *driver, key, value string) error {
		ref.Add(key, value)
		return d.call(ctx, "Add", key, value)
	}
	return &script[sortedListRef]{
		kind:   kind.SortedList,
		newRef: reference.NewSortedList[string, string],
		checks: []check[sortedListRef]{
			{"Add", func(ctx context.Context, ref sortedListRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, lit.Item, lit.SortedFirst); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"ContainsKey", func(ctx context.Context, ref sortedListRef, d *driver) (bool, error) {
				return sameBool(ctx, ref.ContainsKey(lit.Item), d, "ContainsKey", lit.Item)
			}},
			{"Remove", func(ctx context.Context, ref sortedListRef, d *driver) (bool, error) {
				ref.Remove(lit.Item)
				if err := d.call(ctx, "Remove", lit.Item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref sortedListRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, lit.Key, lit.SortedFirst); err != nil {
					return false, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"IsSorted", func(ctx context.Context, ref sortedListRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, lit.Second, lit.SortedSecond); err != nil {
					return false, err
				}
				if err := add(ctx, ref, d, lit.Item, lit.SortedFirst); err != nil {
					return false, err
				}
				keys, err := d.strs(ctx, "Keys")
				if err != nil {
					return false, err
				}
				return slices.Equal(keys, ref.Keys()), nil
			}},
		},
	}
}

type stackRef = *reference.Stack[string]

func stackScript(lit Literals) *script[stackRef] {
	item := lit.Item
	push := func(ctx context.Context, ref stackRef, d *driver) error {
		ref.Push(item)
		return d.call(ctx, "Push", item)
	}
	return &script[stackRef]{
		kind:   kind.Stack,
		newRef: reference.NewStack[string],
		checks: []check[stackRef]{
			{"Push", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				for i := 0; i < 2; i++ {
					if err := push(ctx, ref, d); err != nil {
						return false, err
					}
				}
				return sameString(ctx, ref.Pop(), d, "Pop")
			}},
			{"Peek", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				if err := push(ctx, ref, d); err != nil {
					return false, err
				}
				return sameString(ctx, ref.Peek(), d, "Peek")
			}},
			{"TryPeek", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				if err := push(ctx, ref, d); err != nil {
					return false, err
				}
				want, wantOK := ref.TryPeek()
				out, err := d.results(ctx, "TryPeek", 2)
				if err != nil {
					return false, err
				}
				got, err := asString("TryPeek", out[0])
				if err != nil {
					return false, err
				}
				gotOK, err := asBool("TryPeek", out[1])
				if err != nil {
					return false, err
				}
				return gotOK == wantOK && got == want, nil
			}},
			{"Clear", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				if err := push(ctx, ref, d); err != nil {
					return false, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				if err := push(ctx, ref, d); err != nil {
					return false, err
				}
				return sameBool(ctx, ref.Contains(item), d, "Contains", item)
			}},
			{"ToArray", func(ctx context.Context, ref stackRef, d *driver) (bool, error) {
				if err := push(ctx, ref, d); err != nil {
					return false, err
				}
				got, err := d.strs(ctx, "ToArray")
				if err != nil {
					return false, err
				}
				return slices.Equal(got, ref.ToArray()), nil
			}},
		},
	}
}

type queueRef = *reference.Queue[string]

func queueScript(lit Literals) *script[queueRef] {
	enqueue := func(ctx context.Context, ref queueRef, d *driver, v string) error {
		ref.Enqueue(v)
		return d.call(ctx, "Enqueue", v)
	}
	return &script[queueRef]{
		kind:   kind.Queue,
		newRef: reference.NewQueue[string],
		checks: []check[queueRef]{
			{"Enqueue", func(ctx context.Context, ref queueRef, d *driver) (bool, error) {
				if err := enqueue(ctx, ref, d, lit.Item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Dequeue", func(ctx context.Context, ref queueRef, d *driver) (bool, error) {
				if err := enqueue(ctx, ref, d, lit.Second); err != nil {
					return false, err
				}
				if ref.Count() == 0 {
					return true, nil
				}
				return sameString(ctx, ref.Dequeue(), d, "Dequeue")
			}},
			{"Peek", func(ctx context.Context, ref queueRef, d *driver) (bool, error) {
				if err := enqueue(ctx, ref, d, lit.Item); err != nil {
					return false, err
				}
				if ok, err := sameString(ctx, ref.Peek(), d, "Peek"); !ok || err != nil {
					return ok, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref queueRef, d *driver) (bool, error) {
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref queueRef, d *driver) (bool, error) {
				return sameBool(ctx, ref.Contains(lit.Item), d, "Contains", lit.Item)
			}},
		},
	}
}

type hashSetRef = *reference.HashSet[string]

func hashSetScript(lit Literals) *script[hashSetRef] {
	item := lit.Item
	add := func(ctx context.Context, ref hashSetRef, d *driver, v string) (bool, error) {
		want := ref.Add(v)
		return sameBool(ctx, want, d, "Add", v)
	}
	return &script[hashSetRef]{
		kind:   kind.HashSet,
		newRef: reference.NewHashSet[string],
		checks: []check[hashSetRef]{
			{"Add", func(ctx context.Context, ref hashSetRef, d *driver) (bool, error) {
				if ok, err := add(ctx, ref, d, item); !ok || err != nil {
					return ok, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Remove", func(ctx context.Context, ref hashSetRef, d *driver) (bool, error) {
				if ok, err := add(ctx, ref, d, item); !ok || err != nil {
					return ok, err
				}
				if ok, err := sameBool(ctx, ref.Remove(item), d, "Remove", item); !ok || err != nil {
					return ok, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref hashSetRef, d *driver) (bool, error) {
				if ok, err := add(ctx, ref, d, item); !ok || err != nil {
					return ok, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref hashSetRef, d *driver) (bool, error) {
				var zero string
				if ok, err := add(ctx, ref, d, zero); !ok || err != nil {
					return ok, err
				}
				return sameBool(ctx, ref.Contains(zero), d, "Contains", zero)
			}},
			{"UnionWith", func(ctx context.Context, ref hashSetRef, d *driver) (bool, error) {
				other := []string{"", item, lit.Union}
				ref.UnionWith(other)
				if err := d.call(ctx, "UnionWith", other); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
		},
	}
}

type dictionaryRef = *reference.Dictionary[string, string]

func dictionaryScript(lit Literals) *script[dictionaryRef] {
	add := func(ctx context.Context, ref dictionaryRef, d *driver, key string) error {
		ref.Add(key, lit.Value)
		return d.call(ctx, "Add", key, lit.Value)
	}
	return &script[dictionaryRef]{
		kind:   kind.Dictionary,
		newRef: reference.NewDictionary[string, string],
		checks: []check[dictionaryRef]{
			{"Add", func(ctx context.Context, ref dictionaryRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, lit.Key); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Remove", func(ctx context.Context, ref dictionaryRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, lit.NewKey); err != nil {
					return false, err
				}
				if ok, err := sameBool(ctx, ref.Remove(lit.NewKey), d, "Remove", lit.NewKey); !ok || err != nil {
					return ok, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref dictionaryRef, d *driver) (bool, error) {
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"ContainsKey", func(ctx context.Context, ref dictionaryRef, d *driver) (bool, error) {
				return sameBool(ctx, ref.ContainsKey(lit.Key), d, "ContainsKey", lit.Key)
			}},
			{"ContainsValue", func(ctx context.Context, ref dictionaryRef, d *driver) (bool, error) {
				return sameBool(ctx, ref.ContainsValue(lit.Value), d, "ContainsValue", lit.Value)
			}},
		},
	}
}

type observableRef = *reference.ObservableCollection[string]

func observableScript(lit Literals) *script[observableRef] {
	item := lit.Item
	add := func(ctx context.Context, ref observableRef, d *driver, v string) error {
		ref.Add(v)
		return d.call(ctx, "Add", v)
	}
	return &script[observableRef]{
		kind:   kind.ObservableCollection,
		newRef: reference.NewObservableCollection[string],
		checks: []check[observableRef]{
			{"Add", func(ctx context.Context, ref observableRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Remove", func(ctx context.Context, ref observableRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, item); err != nil {
					return false, err
				}
				if ok, err := sameBool(ctx, ref.Remove(item), d, "Remove", item); !ok || err != nil {
					return ok, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Clear", func(ctx context.Context, ref observableRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, ""); err != nil {
					return false, err
				}
				ref.Clear()
				if err := d.call(ctx, "Clear"); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Insert", func(ctx context.Context, ref observableRef, d *driver) (bool, error) {
				ref.Insert(0, item)
				if err := d.call(ctx, "Insert", 0, item); err != nil {
					return false, err
				}
				return sameCount(ctx, ref.Count(), d)
			}},
			{"Contains", func(ctx context.Context, ref observableRef, d *driver) (bool, error) {
				if err := add(ctx, ref, d, item); err != nil {
					return false, err
				}
				return sameBool(ctx, ref.Contains(item), d, "Contains", item)
			}},
		},
	}
}
