// Package candidate binds a loaded submission to concrete type arguments and
// exposes its instances through a name-based invocation capability.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appErr "structcheck/pkg/errors"
)

// Invoker calls methods on one collection instance by name.
type Invoker interface {
	// Call invokes method with args and returns its results in order.
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	// Select follows a chain of zero-argument accessors and returns the last
	// value. ok is false when an intermediate step returned nil.
	Select(ctx context.Context, path ...string) (value any, ok bool, err error)
	// Loop calls method once per input and returns the elapsed time of the
	// loop. The input is passed only when the method takes an argument.
	Loop(ctx context.Context, method string, inputs []string) (time.Duration, error)
}

// Detail keys attached to invocation errors.
const (
	DetailMethod = "method"
	DetailPanic  = "panic"
)

var unimplementedMarkers = []string{"not implemented", "unimplemented", "нужна реализация"}

// IsUnimplementedPanic reports whether a panic value signals a method left unfinished.
func IsUnimplementedPanic(v any) bool {
	msg := strings.ToLower(fmt.Sprint(v))
	for _, m := range unimplementedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// panicError classifies a recovered panic raised by candidate code.
func panicError(method string, v any) error {
	if IsUnimplementedPanic(v) {
		return appErr.Newf(appErr.UnimplementedMethod, "method %s is not implemented", method).
			WithDetail(DetailMethod, method).
			WithDetail(DetailPanic, fmt.Sprint(v))
	}
	return appErr.Newf(appErr.RuntimeError, "%s: panic: %v", method, v).
		WithDetail(DetailMethod, method).
		WithDetail(DetailPanic, fmt.Sprint(v))
}

// contextError maps an expired or cancelled context.
func contextError(ctx context.Context, method string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErr.Wrapf(err, appErr.TimeLimitExceeded, "%s: time limit exceeded", method).
			WithDetail(DetailMethod, method)
	}
	return appErr.Wrapf(err, appErr.RuntimeError, "%s: %v", method, ctx.Err()).
		WithDetail(DetailMethod, method)
}

// IsCandidateError reports whether err was raised by candidate behaviour
// (panic, missing implementation, timeout) rather than by the platform.
func IsCandidateError(err error) bool {
	return appErr.GetCode(err).IsCandidateFault()
}
