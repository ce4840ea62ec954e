package candidate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	appErr "structcheck/pkg/errors"
)

type rawValue = json.RawMessage

// maxCrashOutput bounds how much of a crashed process's stderr is reported.
const maxCrashOutput = 4 << 10

// Instance is one collection value living in its own process. Calls are
// serialized. An instance whose process was stopped by a deadline or a crash
// keeps failing with the same error.
type Instance struct {
	c      *Candidate
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *os.File

	mu     sync.Mutex
	err    error
	closed bool
}

// New starts a process serving a fresh instance and constructs it.
func (c *Candidate) New(ctx context.Context) (*Instance, error) {
	if c.exe == nil {
		return nil, appErr.New(appErr.CheckSystemError).WithMessage("candidate is not built")
	}
	stderr, err := os.CreateTemp(c.exe.Dir, "stderr-")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CheckSystemError, "create stderr file failed")
	}
	cmd := exec.Command(c.exe.Path)
	cmd.Dir = c.exe.Dir
	cmd.Env = []string{"GOTRACEBACK=single"}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = stderr.Close()
		return nil, appErr.Wrapf(err, appErr.CheckSystemError, "open stdin failed")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stderr.Close()
		return nil, appErr.Wrapf(err, appErr.CheckSystemError, "open stdout failed")
	}
	if err := cmd.Start(); err != nil {
		_ = stderr.Close()
		return nil, appErr.Wrapf(err, appErr.CheckSystemError, "start candidate failed")
	}

	in := &Instance{
		c:      c,
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: stderr,
	}
	if _, err := in.roundTrip(ctx, "New"+c.Kind.String(), request{Op: "new"}); err != nil {
		_ = in.Close()
		return nil, err
	}
	return in, nil
}

// Close stops the instance's process.
func (in *Instance) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stop()
	if in.err == nil {
		in.err = appErr.New(appErr.CheckSystemError).WithMessage("instance is closed")
	}
	if err := in.stderr.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// stop kills the process and reaps it. Callers hold mu and no read is pending.
func (in *Instance) stop() {
	if in.closed {
		return
	}
	in.closed = true
	_ = in.stdin.Close()
	_ = in.cmd.Process.Kill()
	_ = in.cmd.Wait()
}

type reply struct {
	line []byte
	err  error
}

func (in *Instance) roundTrip(ctx context.Context, method string, req request) (response, error) {
	var resp response
	line, err := json.Marshal(req)
	if err != nil {
		return resp, appErr.Wrapf(err, appErr.CheckSystemError, "%s: encode request: %v", method, err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err != nil {
		return resp, in.err
	}
	if err := ctx.Err(); err != nil {
		return resp, contextError(ctx, method, err)
	}

	done := make(chan reply, 1)
	go func() {
		if _, err := in.stdin.Write(append(line, '\n')); err != nil {
			done <- reply{err: err}
			return
		}
		b, err := in.stdout.ReadBytes('\n')
		done <- reply{line: b, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		_ = in.cmd.Process.Kill()
		<-done
		in.stop()
		in.err = contextError(ctx, method, ctx.Err())
		return resp, in.err
	}
	if r.err != nil {
		in.stop()
		in.err = in.crashError(method, r.err)
		return resp, in.err
	}
	if err := json.Unmarshal(r.line, &resp); err != nil {
		return resp, appErr.Wrapf(err, appErr.CheckSystemError, "%s: decode response: %v", method, err)
	}
	switch {
	case resp.Panicked:
		return resp, panicError(method, resp.Panic)
	case resp.Error != "":
		return resp, appErr.Newf(appErr.InstantiationFailed, "%s: %s", method, resp.Error).
			WithDetail(DetailMethod, method)
	}
	return resp, nil
}

// crashError reports a process that exited while serving method. Panics
// raised outside the serving goroutine end up here.
func (in *Instance) crashError(method string, err error) error {
	out := make([]byte, maxCrashOutput)
	n, _ := in.stderr.ReadAt(out, 0)
	msg := strings.TrimSpace(string(out[:n]))
	if msg == "" {
		return appErr.Wrapf(err, appErr.RuntimeError, "%s: process exited: %v", method, in.cmd.ProcessState).
			WithDetail(DetailMethod, method)
	}
	first, _, _ := strings.Cut(msg, "\n")
	return panicError(method, strings.TrimPrefix(first, "panic: "))
}

// Call implements Invoker. Results are decoded to the bound result types of
// the contract; pointer results are reported as whether they are non-nil.
func (in *Instance) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	for _, a := range args {
		if err := checkArg(a); err != nil {
			return nil, appErr.Wrapf(err, appErr.CheckSystemError, "%s: %v", method, err)
		}
	}
	resp, err := in.roundTrip(ctx, method, request{Op: "call", Method: method, Args: args})
	if err != nil {
		return nil, err
	}
	bound := in.c.results[method]
	out := make([]any, len(resp.Results))
	for i, raw := range resp.Results {
		typ := ""
		if i < len(bound) {
			typ = bound[i]
		}
		if out[i], err = decodeValue(raw, typ); err != nil {
			return nil, appErr.Wrapf(err, appErr.CheckSystemError, "%s: result %d: %v", method, i, err)
		}
	}
	return out, nil
}

// Select implements Invoker.
func (in *Instance) Select(ctx context.Context, path ...string) (any, bool, error) {
	if len(path) == 0 {
		return nil, false, appErr.New(appErr.CheckSystemError).WithMessage("empty accessor path")
	}
	method := strings.Join(path, ".")
	resp, err := in.roundTrip(ctx, method, request{Op: "select", Path: path})
	if err != nil {
		return nil, false, err
	}
	if !resp.Found || len(resp.Results) == 0 {
		return nil, false, nil
	}
	typ := ""
	if res := in.c.results[path[len(path)-1]]; len(res) == 1 {
		typ = res[0]
	}
	v, err := decodeValue(resp.Results[0], typ)
	if err != nil {
		return nil, false, appErr.Wrapf(err, appErr.CheckSystemError, "%s: %v", method, err)
	}
	return v, true, nil
}

// Loop implements Invoker. Only the loop itself is timed, inside the
// instance's process. Methods without parameters are called once per input
// without it.
func (in *Instance) Loop(ctx context.Context, method string, inputs []string) (time.Duration, error) {
	resp, err := in.roundTrip(ctx, method, request{Op: "loop", Method: method, Inputs: inputs})
	if err != nil {
		return 0, err
	}
	return time.Duration(resp.Elapsed), nil
}

func checkArg(v any) error {
	switch v.(type) {
	case string, int, bool, []string:
		return nil
	}
	return fmt.Errorf("unsupported argument type %T", v)
}

func decodeValue(raw rawValue, typ string) (any, error) {
	switch {
	case typ == "string":
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case typ == "int":
		var n int
		err := json.Unmarshal(raw, &n)
		return n, err
	case typ == "bool", strings.HasPrefix(typ, "*"):
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case typ == "[]string":
		var s []string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		if err != nil {
			return nil, err
		}
		return int(i), nil
	}
	return v, nil
}
