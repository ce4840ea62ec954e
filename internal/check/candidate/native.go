package candidate

import (
	"context"
	"fmt"
	"reflect"
	"time"

	appErr "structcheck/pkg/errors"
)

// Native drives a compiled Go value through reflection. It is used for
// trusted implementations and in-process calibration.
type Native struct {
	v reflect.Value
}

// NewNative wraps v, which should be a pointer to a collection.
func NewNative(v any) *Native {
	return &Native{v: reflect.ValueOf(v)}
}

// Call implements Invoker.
func (n *Native) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(ctx, method, err)
	}
	return callValue(n.v, method, args)
}

func callValue(recv reflect.Value, method string, args []any) (out []any, err error) {
	m := recv.MethodByName(method)
	if !m.IsValid() {
		return nil, appErr.Newf(appErr.InstantiationFailed, "method %s not found", method).
			WithDetail(DetailMethod, method)
	}
	mt := m.Type()
	if mt.NumIn() != len(args) {
		return nil, appErr.Newf(appErr.InstantiationFailed, "method %s takes %d arguments, got %d", method, mt.NumIn(), len(args)).
			WithDetail(DetailMethod, method)
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		av := reflect.ValueOf(a)
		want := mt.In(i)
		switch {
		case !av.IsValid():
			av = reflect.Zero(want)
		case av.Type().AssignableTo(want):
		case av.Type().ConvertibleTo(want):
			av = av.Convert(want)
		default:
			return nil, appErr.Newf(appErr.InstantiationFailed, "method %s argument %d: %s is not assignable to %s", method, i, av.Type(), want).
				WithDetail(DetailMethod, method)
		}
		in[i] = av
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = panicError(method, r)
		}
	}()
	results := m.Call(in)
	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

// Select implements Invoker.
func (n *Native) Select(ctx context.Context, path ...string) (any, bool, error) {
	cur := n.v
	for i, name := range path {
		if err := ctx.Err(); err != nil {
			return nil, false, contextError(ctx, name, err)
		}
		if cur.Kind() == reflect.Pointer && cur.IsNil() {
			return nil, false, nil
		}
		out, err := callValue(cur, name, nil)
		if err != nil {
			return nil, false, err
		}
		if len(out) != 1 {
			return nil, false, appErr.Newf(appErr.InstantiationFailed, "accessor %s must return one value", name)
		}
		if i == len(path)-1 {
			return out[0], true, nil
		}
		cur = reflect.ValueOf(out[0])
		if !cur.IsValid() {
			return nil, false, nil
		}
	}
	return nil, false, fmt.Errorf("empty accessor path")
}

// Loop implements Invoker.
func (n *Native) Loop(ctx context.Context, method string, inputs []string) (time.Duration, error) {
	m := n.v.MethodByName(method)
	if !m.IsValid() || m.Type().NumIn() > 1 {
		return 0, appErr.Newf(appErr.InstantiationFailed, "method %s cannot be looped", method)
	}
	args := make([][]reflect.Value, len(inputs))
	for i, s := range inputs {
		if m.Type().NumIn() == 1 {
			args[i] = []reflect.Value{reflect.ValueOf(s).Convert(m.Type().In(0))}
		}
	}
	var elapsed time.Duration
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(method, r)
			}
		}()
		start := time.Now()
		for i := range args {
			if i%256 == 0 && ctx.Err() != nil {
				return contextError(ctx, method, ctx.Err())
			}
			m.Call(args[i])
		}
		elapsed = time.Since(start)
		return nil
	}()
	return elapsed, err
}
