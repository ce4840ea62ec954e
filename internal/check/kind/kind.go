// Package kind describes the closed set of collection kinds accepted for
// checking, their type-argument bindings and the method contract every
// submitted implementation must expose.
package kind

import (
	"strings"

	appErr "structcheck/pkg/errors"
)

// Kind names a supported collection.
type Kind string

const (
	List                 Kind = "List"
	Dictionary           Kind = "Dictionary"
	HashSet              Kind = "HashSet"
	Queue                Kind = "Queue"
	Stack                Kind = "Stack"
	SortedList           Kind = "SortedList"
	LinkedList           Kind = "LinkedList"
	ObservableCollection Kind = "ObservableCollection"
)

var all = []Kind{List, Dictionary, HashSet, Queue, Stack, SortedList, LinkedList, ObservableCollection}

// All returns every supported kind in a stable order.
func All() []Kind {
	out := make([]Kind, len(all))
	copy(out, all)
	return out
}

// Parse resolves a kind name case-insensitively.
func Parse(name string) (Kind, error) {
	trimmed := strings.TrimSpace(name)
	for _, k := range all {
		if strings.EqualFold(string(k), trimmed) {
			return k, nil
		}
	}
	return "", appErr.Newf(appErr.StructureNotSupported, "structure %q is not supported", name).
		WithDetail("kind", name)
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, v := range all {
		if v == k {
			return true
		}
	}
	return false
}

// TypeArgs returns the concrete type arguments bound to the kind's type
// parameters. Keyed kinds take two, every other kind takes one.
func (k Kind) TypeArgs() []string {
	switch k {
	case Dictionary, SortedList:
		return []string{"string", "string"}
	default:
		return []string{"string"}
	}
}

// Timed reports whether add/find/delete timings are measured for the kind.
func (k Kind) Timed() bool {
	switch k {
	case List, Stack, Queue, HashSet, LinkedList:
		return true
	}
	return false
}
