package loader_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/loader"
	appErr "structcheck/pkg/errors"
)

func readSource(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

var validSources = map[kind.Kind]string{
	kind.List:                 "list.go",
	kind.Dictionary:           "dictionary.go",
	kind.HashSet:              "hashset.go",
	kind.Queue:                "queue.go",
	kind.Stack:                "stack.go",
	kind.SortedList:           "sortedlist.go",
	kind.LinkedList:           "linkedlist.go",
	kind.ObservableCollection: "observable.go",
}

func TestCompileValidSources(t *testing.T) {
	t.Parallel()

	l := loader.New(loader.Options{})
	for k, name := range validSources {
		prog, err := l.Compile(context.Background(), readSource(t, name), k)
		if err != nil {
			t.Fatalf("Compile(%s) error: %v", name, err)
		}
		if prog.Type.Name() != k.String() {
			t.Fatalf("selected type %s, want %s", prog.Type.Name(), k)
		}
		if prog.Named().TypeParams().Len() != len(k.TypeArgs()) {
			t.Fatalf("%s has %d type params", k, prog.Named().TypeParams().Len())
		}
		if prog.Kind != k || prog.ID == "" {
			t.Fatalf("program identity not set: kind=%s id=%q", prog.Kind, prog.ID)
		}
	}
}

func requireGo(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}
}

const stackMain = `package main

import "fmt"

func main() {
	s := NewStack[string]()
	s.Push("a")
	s.Push("b")
	fmt.Println(s.Count(), s.Pop())
}
`

func TestBuildRunsGenericCode(t *testing.T) {
	t.Parallel()
	requireGo(t)

	prog, err := loader.New(loader.Options{}).Compile(context.Background(), readSource(t, "stack.go"), kind.Stack)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	exe, err := prog.Build(context.Background(), map[string]string{"main.go": stackMain})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer exe.Close()

	out, err := exec.Command(exe.Path).Output()
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "2 b" {
		t.Fatalf("output = %q, want %q", got, "2 b")
	}
}

func TestEachBuildIsIsolated(t *testing.T) {
	t.Parallel()
	requireGo(t)

	l := loader.New(loader.Options{WorkDir: t.TempDir()})
	src := readSource(t, "stack.go")
	a, err := l.Compile(context.Background(), src, kind.Stack)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	b, err := l.Compile(context.Background(), src, kind.Stack)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("two compiles share id %s", a.ID)
	}

	exeA, err := a.Build(context.Background(), map[string]string{"main.go": stackMain})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	exeB, err := b.Build(context.Background(), map[string]string{"main.go": stackMain})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if exeA.Dir == exeB.Dir {
		t.Fatalf("two builds share directory %s", exeA.Dir)
	}
	if err := exeA.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := os.Stat(exeA.Dir); !os.IsNotExist(err) {
		t.Fatalf("build directory survived Close: %v", err)
	}
	if _, err := os.Stat(exeB.Path); err != nil {
		t.Fatalf("closing one build removed another: %v", err)
	}
	_ = exeB.Close()
}

func TestBuildReportsCompilerErrors(t *testing.T) {
	t.Parallel()
	requireGo(t)

	prog, err := loader.New(loader.Options{}).Compile(context.Background(), readSource(t, "stack.go"), kind.Stack)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	// redeclaring a submitted type fails only when both files are built
	_, err = prog.Build(context.Background(), map[string]string{"main.go": "package main\n\ntype Stack int\n\nfunc main() {}\n"})
	if appErr.GetCode(err) != appErr.CompilationError {
		t.Fatalf("code = %v, want CompilationError (%v)", appErr.GetCode(err), err)
	}
	if !strings.Contains(err.Error(), "Stack redeclared") {
		t.Fatalf("build error = %q", err.Error())
	}

	_, err = prog.Build(context.Background(), map[string]string{loader.SourceName: "package main"})
	if appErr.GetCode(err) != appErr.CheckSystemError {
		t.Fatalf("overwriting the submission: code = %v", appErr.GetCode(err))
	}
}

func TestBuildWithoutToolchain(t *testing.T) {
	t.Parallel()

	l := loader.New(loader.Options{GoBinary: filepath.Join(t.TempDir(), "no-such-go")})
	prog, err := l.Compile(context.Background(), readSource(t, "stack.go"), kind.Stack)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	_, err = prog.Build(context.Background(), map[string]string{"main.go": stackMain})
	if appErr.GetCode(err) != appErr.CheckSystemError {
		t.Fatalf("code = %v, want CheckSystemError (%v)", appErr.GetCode(err), err)
	}
}

func TestCompileFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		kind     kind.Kind
		wantCode appErr.ErrorCode
		wantMsg  string
		wantLine int
	}{
		{"syntax error", "list_syntax_error.go", kind.List, appErr.CompilationError, "candidate.go:", 0},
		{"undefined name", "list_undefined_name.go", kind.List, appErr.CompilationError, "undefined: size", 8},
		{"forbidden import", "list_forbidden_import.go", kind.List, appErr.ForbiddenImport, `import "os" is not allowed`, 3},
		{"not generic", "list_not_generic.go", kind.List, appErr.CompilationError, "type List must be generic", 3},
		{"entry point", "list_with_main.go", kind.List, appErr.CompilationError, "func main is not allowed", 7},
		{"missing type", "list.go", kind.Queue, appErr.CompilationError, "generic type Queue is not declared", 1},
	}
	l := loader.New(loader.Options{})
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := l.Compile(context.Background(), readSource(t, tt.file), tt.kind)
			if err == nil {
				t.Fatalf("Compile succeeded, want %v", tt.wantCode)
			}
			if code := appErr.GetCode(err); code != tt.wantCode {
				t.Fatalf("code = %v, want %v (%v)", code, tt.wantCode, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("message %q does not contain %q", err.Error(), tt.wantMsg)
			}
			line := loader.ErrorLine(err)
			if tt.wantLine > 0 && line != tt.wantLine {
				t.Fatalf("ErrorLine = %d, want %d", line, tt.wantLine)
			}
			if line <= 0 {
				t.Fatalf("ErrorLine = %d, want a positive line", line)
			}
		})
	}
}

func TestDiagnosticsAreOrderedAndConcatenated(t *testing.T) {
	t.Parallel()

	src := "package p\n\ntype List[T any] struct{}\n\nfunc a() int { return x }\n\nfunc b() int { return y }\n"
	_, err := loader.New(loader.Options{}).Compile(context.Background(), src, kind.List)
	if appErr.GetCode(err) != appErr.CompilationError {
		t.Fatalf("code = %v, want CompilationError", appErr.GetCode(err))
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d diagnostic lines, want 2: %q", len(lines), err.Error())
	}
	if !strings.HasPrefix(lines[0], "candidate.go:5:") || !strings.HasPrefix(lines[1], "candidate.go:7:") {
		t.Fatalf("diagnostics out of order: %q", lines)
	}
	if loader.ErrorLine(err) != 5 {
		t.Fatalf("ErrorLine = %d, want 5", loader.ErrorLine(err))
	}
}

func TestCompileLimits(t *testing.T) {
	t.Parallel()

	src := readSource(t, "list.go")
	_, err := loader.New(loader.Options{MaxSourceBytes: 16}).Compile(context.Background(), src, kind.List)
	if appErr.GetCode(err) != appErr.CodeTooLarge {
		t.Fatalf("code = %v, want CodeTooLarge", appErr.GetCode(err))
	}

	_, err = loader.New(loader.Options{}).Compile(context.Background(), src, kind.Kind("Deque"))
	if appErr.GetCode(err) != appErr.StructureNotSupported {
		t.Fatalf("code = %v, want StructureNotSupported", appErr.GetCode(err))
	}
}

func TestAllowedImportsOverride(t *testing.T) {
	t.Parallel()

	l := loader.New(loader.Options{AllowedImports: []string{"strings"}})
	if got := l.AllowedImports(); len(got) != 1 || got[0] != "strings" {
		t.Fatalf("AllowedImports = %v", got)
	}
	_, err := l.Compile(context.Background(), readSource(t, "hashset.go"), kind.HashSet)
	if appErr.GetCode(err) != appErr.ForbiddenImport {
		t.Fatalf("code = %v, want ForbiddenImport for fmt", appErr.GetCode(err))
	}
}

func TestMethodDecl(t *testing.T) {
	t.Parallel()

	prog, err := loader.New(loader.Options{}).Compile(context.Background(), readSource(t, "dictionary.go"), kind.Dictionary)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if decl := prog.MethodDecl("tryInsert"); decl == nil {
		t.Fatalf("tryInsert not found")
	}
	// Hash is declared on the comparer, not on Dictionary.
	if decl := prog.MethodDecl("Hash"); decl != nil {
		t.Fatalf("MethodDecl matched a method of another type")
	}
	if prog.Lookup("getPrime") == nil {
		t.Fatalf("Lookup(getPrime) = nil")
	}
}
