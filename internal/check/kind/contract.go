package kind

import "strings"

// Method is one entry of a kind's contract. Parameter and result types are
// written with the kind's type parameter names (T, or K and V) and are bound
// to the kind's TypeArgs before comparison.
type Method struct {
	Name    string
	Params  []string
	Results []string
}

// Signature renders the method the way it is expected to appear in source.
func (m Method) Signature() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(m.Params, ", "))
	b.WriteByte(')')
	switch len(m.Results) {
	case 0:
	case 1:
		b.WriteByte(' ')
		b.WriteString(m.Results[0])
	default:
		b.WriteString(" (")
		b.WriteString(strings.Join(m.Results, ", "))
		b.WriteByte(')')
	}
	return b.String()
}

// Bind substitutes the kind's type parameters with its concrete type arguments.
func (k Kind) Bind(typ string) string {
	args := k.TypeArgs()
	names := k.TypeParamNames()
	var b strings.Builder
	for i := 0; i < len(typ); {
		c := typ[i]
		if isIdentByte(c) {
			j := i
			for j < len(typ) && isIdentByte(typ[j]) {
				j++
			}
			word := typ[i:j]
			replaced := false
			for n, name := range names {
				if word == name {
					b.WriteString(args[n])
					replaced = true
					break
				}
			}
			if !replaced {
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// TypeParamNames returns the placeholder names used in the contract.
func (k Kind) TypeParamNames() []string {
	switch k {
	case Dictionary, SortedList:
		return []string{"K", "V"}
	default:
		return []string{"T"}
	}
}

// Contract returns the methods a candidate of kind k must provide.
func (k Kind) Contract() []Method {
	return contracts[k]
}

// NodeType is the candidate-declared element node type for kinds that expose one.
const NodeType = "LinkedListNode"

var contracts = map[Kind][]Method{
	List: {
		{Name: "Add", Params: []string{"T"}},
		{Name: "Remove", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Insert", Params: []string{"int", "T"}},
		{Name: "Clear"},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Count", Results: []string{"int"}},
		{Name: "Get", Params: []string{"int"}, Results: []string{"T"}},
	},
	Dictionary: {
		{Name: "Add", Params: []string{"K", "V"}},
		{Name: "Remove", Params: []string{"K"}, Results: []string{"bool"}},
		{Name: "Clear"},
		{Name: "ContainsKey", Params: []string{"K"}, Results: []string{"bool"}},
		{Name: "ContainsValue", Params: []string{"V"}, Results: []string{"bool"}},
		{Name: "Count", Results: []string{"int"}},
	},
	HashSet: {
		{Name: "Add", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Remove", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Clear"},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "UnionWith", Params: []string{"[]T"}},
		{Name: "Count", Results: []string{"int"}},
	},
	Queue: {
		{Name: "Enqueue", Params: []string{"T"}},
		{Name: "Dequeue", Results: []string{"T"}},
		{Name: "Peek", Results: []string{"T"}},
		{Name: "Clear"},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Count", Results: []string{"int"}},
	},
	Stack: {
		{Name: "Push", Params: []string{"T"}},
		{Name: "Pop", Results: []string{"T"}},
		{Name: "Peek", Results: []string{"T"}},
		{Name: "TryPeek", Results: []string{"T", "bool"}},
		{Name: "Clear"},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "ToArray", Results: []string{"[]T"}},
		{Name: "Count", Results: []string{"int"}},
	},
	SortedList: {
		{Name: "Add", Params: []string{"K", "V"}},
		{Name: "ContainsKey", Params: []string{"K"}, Results: []string{"bool"}},
		{Name: "Remove", Params: []string{"K"}, Results: []string{"bool"}},
		{Name: "Clear"},
		{Name: "Keys", Results: []string{"[]K"}},
		{Name: "Count", Results: []string{"int"}},
	},
	LinkedList: {
		{Name: "AddLast", Params: []string{"T"}, Results: []string{"*" + NodeType + "[T]"}},
		{Name: "AddFirst", Params: []string{"T"}, Results: []string{"*" + NodeType + "[T]"}},
		{Name: "Remove", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Clear"},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Count", Results: []string{"int"}},
		{Name: "First", Results: []string{"*" + NodeType + "[T]"}},
	},
	ObservableCollection: {
		{Name: "Add", Params: []string{"T"}},
		{Name: "Remove", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Clear"},
		{Name: "Insert", Params: []string{"int", "T"}},
		{Name: "Contains", Params: []string{"T"}, Results: []string{"bool"}},
		{Name: "Count", Results: []string{"int"}},
	},
}

// NodeContract is the contract of the LinkedList node type.
var NodeContract = []Method{
	{Name: "Value", Results: []string{"T"}},
}
