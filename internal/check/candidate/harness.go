package candidate

import "strings"

// harnessFile is the driver built next to the submission.
const harnessFile = "structcheck_harness.go"

// HarnessImports lists the packages the driver depends on.
var HarnessImports = []string{"bufio", "encoding/json", "fmt", "os", "reflect", "runtime/debug", "time"}

// harnessSource serves one instance over line-delimited JSON on stdin and
// stdout. Candidate output written through os.Stdout goes to stderr.
const harnessSource = `package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"runtime/debug"
	"time"
)

type structcheckRequest struct {
	Op     string            ` + "`json:\"op\"`" + `
	Method string            ` + "`json:\"method,omitempty\"`" + `
	Path   []string          ` + "`json:\"path,omitempty\"`" + `
	Args   []json.RawMessage ` + "`json:\"args,omitempty\"`" + `
	Inputs []string          ` + "`json:\"inputs,omitempty\"`" + `
}

type structcheckResponse struct {
	Results  []any  ` + "`json:\"results,omitempty\"`" + `
	Found    bool   ` + "`json:\"found,omitempty\"`" + `
	Elapsed  int64  ` + "`json:\"elapsed,omitempty\"`" + `
	Panicked bool   ` + "`json:\"panicked,omitempty\"`" + `
	Panic    string ` + "`json:\"panic,omitempty\"`" + `
	Error    string ` + "`json:\"error,omitempty\"`" + `
}

func structcheckNew() any {
	return {{constructor}}
}

func main() {
	debug.SetMaxStack(256 << 20)
	out := json.NewEncoder(os.Stdout)
	os.Stdout = os.Stderr
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64<<10), 64<<20)
	var recv reflect.Value
	for in.Scan() {
		var req structcheckRequest
		var resp structcheckResponse
		if err := json.Unmarshal(in.Bytes(), &req); err != nil {
			resp.Error = err.Error()
		} else {
			resp = structcheckServe(&recv, req)
		}
		if err := out.Encode(resp); err != nil {
			os.Exit(2)
		}
	}
}

func structcheckServe(recv *reflect.Value, req structcheckRequest) (resp structcheckResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = structcheckResponse{Panicked: true, Panic: fmt.Sprint(r)}
		}
	}()
	if req.Op != "new" && !recv.IsValid() {
		resp.Error = "instance is not constructed"
		return resp
	}
	switch req.Op {
	case "new":
		*recv = reflect.ValueOf(structcheckNew())
	case "call":
		m, err := structcheckMethod(*recv, req.Method, len(req.Args))
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		args := make([]reflect.Value, len(req.Args))
		for i, raw := range req.Args {
			p := reflect.New(m.Type().In(i))
			if err := json.Unmarshal(raw, p.Interface()); err != nil {
				resp.Error = fmt.Sprintf("%s argument %d: %v", req.Method, i, err)
				return resp
			}
			args[i] = p.Elem()
		}
		for _, r := range m.Call(args) {
			resp.Results = append(resp.Results, structcheckValue(r))
		}
	case "select":
		cur := *recv
		for i, name := range req.Path {
			if structcheckNil(cur) {
				return resp
			}
			m, err := structcheckMethod(cur, name, 0)
			if err != nil {
				resp.Error = err.Error()
				return resp
			}
			out := m.Call(nil)
			if len(out) != 1 {
				resp.Error = fmt.Sprintf("accessor %s must return one value", name)
				return resp
			}
			if i == len(req.Path)-1 {
				resp.Found = true
				resp.Results = []any{structcheckValue(out[0])}
				return resp
			}
			cur = out[0]
		}
	case "loop":
		m := recv.MethodByName(req.Method)
		if !m.IsValid() || m.Type().NumIn() > 1 {
			resp.Error = fmt.Sprintf("method %s cannot be looped", req.Method)
			return resp
		}
		args := make([][]reflect.Value, len(req.Inputs))
		if m.Type().NumIn() == 1 {
			for i, s := range req.Inputs {
				args[i] = []reflect.Value{reflect.ValueOf(s).Convert(m.Type().In(0))}
			}
		}
		start := time.Now()
		for i := range args {
			m.Call(args[i])
		}
		resp.Elapsed = time.Since(start).Nanoseconds()
	default:
		resp.Error = "unknown operation " + req.Op
	}
	return resp
}

func structcheckMethod(v reflect.Value, name string, args int) (reflect.Value, error) {
	m := v.MethodByName(name)
	if !m.IsValid() {
		return m, fmt.Errorf("method %s not found", name)
	}
	if m.Type().NumIn() != args {
		return m, fmt.Errorf("method %s takes %d arguments, got %d", name, m.Type().NumIn(), args)
	}
	return m, nil
}

func structcheckNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// Reference results cannot cross the process boundary; they are reported as
// whether they are set.
func structcheckValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func:
		return !v.IsNil()
	}
	return v.Interface()
}
`

func harness(ctorExpr string) string {
	return strings.Replace(harnessSource, "{{constructor}}", ctorExpr, 1)
}

// request and response mirror the driver's wire types.
type request struct {
	Op     string   `json:"op"`
	Method string   `json:"method,omitempty"`
	Path   []string `json:"path,omitempty"`
	Args   []any    `json:"args,omitempty"`
	Inputs []string `json:"inputs,omitempty"`
}

type response struct {
	Results  []rawValue `json:"results,omitempty"`
	Found    bool       `json:"found,omitempty"`
	Elapsed  int64      `json:"elapsed,omitempty"`
	Panicked bool       `json:"panicked,omitempty"`
	Panic    string     `json:"panic,omitempty"`
	Error    string     `json:"error,omitempty"`
}
