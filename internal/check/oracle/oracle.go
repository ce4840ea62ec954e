// Package oracle drives a candidate and a trusted reference through identical
// operation scripts and compares what both sides report.
package oracle

import (
	"context"
	"reflect"

	"structcheck/internal/check/candidate"
	"structcheck/internal/check/kind"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

// Literals are the fixed arguments used by the scripts.
type Literals struct {
	Item         string `yaml:"item"`
	Second       string `yaml:"second"`
	Key          string `yaml:"key"`
	Value        string `yaml:"value"`
	NewKey       string `yaml:"newKey"`
	SortedFirst  string `yaml:"sortedFirst"`
	SortedSecond string `yaml:"sortedSecond"`
	Union        string `yaml:"union"`
}

// DefaultLiterals returns the literals used when none are configured.
func DefaultLiterals() Literals {
	return Literals{
		Item:         "first",
		Second:       "second",
		Key:          "key",
		Value:        "value",
		NewKey:       "new",
		SortedFirst:  "a",
		SortedSecond: "b",
		Union:        "union",
	}
}

// WithDefaults fills empty fields from DefaultLiterals.
func (l Literals) WithDefaults() Literals {
	d := DefaultLiterals()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&l.Item, d.Item)
	fill(&l.Second, d.Second)
	fill(&l.Key, d.Key)
	fill(&l.Value, d.Value)
	fill(&l.NewKey, d.NewKey)
	fill(&l.SortedFirst, d.SortedFirst)
	fill(&l.SortedSecond, d.SortedSecond)
	fill(&l.Union, d.Union)
	return l
}

// CheckOutcome is the result of one named check.
type CheckOutcome struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Result is the composite outcome of a script. Checks stops at the first
// failing check.
type Result struct {
	Passed      bool           `json:"passed"`
	Checks      []CheckOutcome `json:"checks"`
	FailedCheck string         `json:"failedCheck,omitempty"`
}

// Oracle runs the equivalence script of one kind.
type Oracle interface {
	Kind() kind.Kind
	// Run drives a fresh reference and cand through the script. An error
	// means the candidate could not be driven; the result then names the
	// check that was running.
	Run(ctx context.Context, cand candidate.Invoker) (Result, error)
}

// New returns the oracle for k.
func New(k kind.Kind, lit Literals) (Oracle, error) {
	lit = lit.WithDefaults()
	switch k {
	case kind.List:
		return listScript(lit), nil
	case kind.LinkedList:
		return linkedListScript(lit), nil
	case kind.SortedList:
		return sortedListScript(lit), nil
	case kind.Stack:
		return stackScript(lit), nil
	case kind.Queue:
		return queueScript(lit), nil
	case kind.HashSet:
		return hashSetScript(lit), nil
	case kind.Dictionary:
		return dictionaryScript(lit), nil
	case kind.ObservableCollection:
		return observableScript(lit), nil
	}
	return nil, appErr.Newf(appErr.StructureNotSupported, "structure %q is not supported", k)
}

type check[R any] struct {
	name string
	run  func(ctx context.Context, ref R, c *driver) (bool, error)
}

type script[R any] struct {
	kind   kind.Kind
	newRef func() R
	checks []check[R]
}

func (s *script[R]) Kind() kind.Kind { return s.kind }

func (s *script[R]) Run(ctx context.Context, cand candidate.Invoker) (Result, error) {
	ref := s.newRef()
	d := &driver{inv: cand}
	res := Result{Passed: true}
	for _, c := range s.checks {
		ok, err := c.run(ctx, ref, d)
		res.Checks = append(res.Checks, CheckOutcome{Name: c.name, Passed: ok && err == nil})
		if err != nil || !ok {
			res.Passed = false
			res.FailedCheck = c.name
			logger.Debug(ctx, "oracle check failed",
				zap.String("kind", s.kind.String()),
				zap.String("check", c.name),
				zap.Error(err),
			)
			return res, err
		}
	}
	return res, nil
}

// Names lists the checks of o in execution order.
func Names(o Oracle) []string {
	type named interface{ names() []string }
	if n, ok := o.(named); ok {
		return n.names()
	}
	return nil
}

func (s *script[R]) names() []string {
	out := make([]string, len(s.checks))
	for i, c := range s.checks {
		out[i] = c.name
	}
	return out
}

// driver converts candidate results to the types the scripts compare.
type driver struct {
	inv candidate.Invoker
}

func (d *driver) call(ctx context.Context, method string, args ...any) error {
	_, err := d.inv.Call(ctx, method, args...)
	return err
}

func (d *driver) results(ctx context.Context, method string, n int, args ...any) ([]any, error) {
	out, err := d.inv.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, appErr.Newf(appErr.CheckSystemError, "%s returned %d values, expected %d", method, len(out), n).
			WithDetail(candidate.DetailMethod, method)
	}
	return out, nil
}

func (d *driver) count(ctx context.Context) (int, error) {
	out, err := d.results(ctx, "Count", 1)
	if err != nil {
		return 0, err
	}
	return asInt("Count", out[0])
}

func (d *driver) boolean(ctx context.Context, method string, args ...any) (bool, error) {
	out, err := d.results(ctx, method, 1, args...)
	if err != nil {
		return false, err
	}
	return asBool(method, out[0])
}

func (d *driver) str(ctx context.Context, method string, args ...any) (string, error) {
	out, err := d.results(ctx, method, 1, args...)
	if err != nil {
		return "", err
	}
	return asString(method, out[0])
}

func (d *driver) strs(ctx context.Context, method string) ([]string, error) {
	out, err := d.results(ctx, method, 1)
	if err != nil {
		return nil, err
	}
	return asStrings(method, out[0])
}

func asInt(method string, v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	}
	return 0, unexpected(method, "int", v)
}

func asBool(method string, v any) (bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return false, unexpected(method, "bool", v)
}

func asString(method string, v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", unexpected(method, "string", v)
}

func asStrings(method string, v any) ([]string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, unexpected(method, "[]string", v)
	}
	out := make([]string, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if e.Kind() == reflect.Interface {
			e = e.Elem()
		}
		if e.Kind() != reflect.String {
			return nil, unexpected(method, "[]string", v)
		}
		out[i] = e.String()
	}
	return out, nil
}

func unexpected(method, want string, got any) error {
	return appErr.Newf(appErr.CheckSystemError, "%s returned %T, expected %s", method, got, want).
		WithDetail(candidate.DetailMethod, method)
}
