// Package loader turns submitted source text into a type-checked program and
// builds it into an executable on demand. Every compile gets its own identity
// and every build its own work directory so nothing leaks between submissions.
package loader

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strconv"
	"sync"

	"structcheck/internal/check/kind"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SourceName is the file name reported in diagnostics.
const SourceName = "candidate.go"

// buildPackage is the package every submission is built into.
const buildPackage = "main"

// DefaultAllowedImports lists the standard packages a submission may import.
var DefaultAllowedImports = []string{
	"cmp",
	"errors",
	"fmt",
	"maps",
	"math",
	"math/bits",
	"slices",
	"sort",
	"strconv",
	"strings",
	"unicode",
	"unicode/utf8",
}

// Options configures a Loader.
type Options struct {
	AllowedImports []string
	MaxSourceBytes int
	// GoBinary is the go command used for builds. Defaults to "go" on PATH.
	GoBinary string
	// WorkDir is the parent of per-build directories. Defaults to the system
	// temporary directory.
	WorkDir string
	// GoCache overrides GOCACHE for builds.
	GoCache string
}

// Loader compiles submissions.
type Loader struct {
	allowed  map[string]bool
	maxBytes int
	tc       *toolchain

	// the source importer keeps an unsynchronized package cache
	importMu sync.Mutex
	importer types.ImporterFrom
}

// New creates a Loader.
func New(opts Options) *Loader {
	allowedList := opts.AllowedImports
	if len(allowedList) == 0 {
		allowedList = DefaultAllowedImports
	}
	allowed := make(map[string]bool, len(allowedList))
	for _, p := range allowedList {
		allowed[p] = true
	}
	imp, _ := importer.ForCompiler(token.NewFileSet(), "source", nil).(types.ImporterFrom)
	return &Loader{
		allowed:  allowed,
		maxBytes: opts.MaxSourceBytes,
		tc:       newToolchain(opts),
		importer: imp,
	}
}

// Program is a compiled submission.
type Program struct {
	ID     string
	Kind   kind.Kind
	Source string
	Fset   *token.FileSet
	File   *ast.File
	Pkg    *types.Package
	Info   *types.Info
	// Type is the generic type selected for the kind.
	Type *types.TypeName

	tc *toolchain
}

// Compile parses and type-checks source for kind k.
func (l *Loader) Compile(ctx context.Context, source string, k kind.Kind) (*Program, error) {
	if !k.Valid() {
		return nil, appErr.Newf(appErr.StructureNotSupported, "structure %q is not supported", k)
	}
	if l.maxBytes > 0 && len(source) > l.maxBytes {
		return nil, appErr.Newf(appErr.CodeTooLarge, "source exceeds %d bytes", l.maxBytes)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, SourceName, source, parser.ParseComments|parser.AllErrors)
	if err != nil {
		return nil, compileError(appErr.CompilationError, fromError(fset, err))
	}

	if diags := l.checkImports(fset, file); len(diags) > 0 {
		return nil, compileError(appErr.ForbiddenImport, diags)
	}
	if diags := checkDecls(fset, file); len(diags) > 0 {
		return nil, compileError(appErr.CompilationError, diags)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
	var diags Diagnostics
	conf := types.Config{
		Importer: importerFunc(l.importPackage),
		Error: func(err error) {
			diags = append(diags, fromError(fset, err)...)
		},
	}
	pkg, _ := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	if len(diags) > 0 {
		return nil, compileError(appErr.CompilationError, diags)
	}

	typeName, diag := selectType(fset, file, pkg, k)
	if diag != nil {
		return nil, compileError(appErr.CompilationError, Diagnostics{*diag})
	}

	prog := &Program{
		ID:     uuid.NewString(),
		Kind:   k,
		Source: source,
		Fset:   fset,
		File:   file,
		Pkg:    pkg,
		Info:   info,
		Type:   typeName,
		tc:     l.tc,
	}
	logger.Debug(ctx, "candidate compiled",
		zap.String("program_id", prog.ID),
		zap.String("kind", k.String()),
		zap.Int("source_bytes", len(source)),
	)
	return prog, nil
}

func (l *Loader) checkImports(fset *token.FileSet, file *ast.File) Diagnostics {
	var diags Diagnostics
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			diags = append(diags, newDiagnostic(fset, spec.Pos(), "malformed import path"))
			continue
		}
		if !l.allowed[p] {
			diags = append(diags, newDiagnostic(fset, spec.Pos(),
				fmt.Sprintf("import %q is not allowed (allowed: %v)", p, l.AllowedImports())))
		}
	}
	return diags
}

// AllowedImports returns the sorted import allow-list.
func (l *Loader) AllowedImports() []string {
	out := make([]string, 0, len(l.allowed))
	for p := range l.allowed {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// checkDecls rejects entry points. The build supplies its own main.
func checkDecls(fset *token.FileSet, file *ast.File) Diagnostics {
	var diags Diagnostics
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		if fn.Name.Name == "main" || fn.Name.Name == "init" {
			diags = append(diags, newDiagnostic(fset, fn.Pos(),
				fmt.Sprintf("func %s is not allowed in a structure submission", fn.Name.Name)))
		}
	}
	return diags
}

// selectType picks the top-level generic type whose name equals the kind name.
func selectType(fset *token.FileSet, file *ast.File, pkg *types.Package, k kind.Kind) (*types.TypeName, *Diagnostic) {
	obj := pkg.Scope().Lookup(k.String())
	tn, ok := obj.(*types.TypeName)
	if !ok {
		d := newDiagnostic(fset, file.Name.Pos(), fmt.Sprintf("generic type %s is not declared", k))
		return nil, &d
	}
	named, ok := tn.Type().(*types.Named)
	if !ok || named.TypeParams().Len() == 0 {
		d := newDiagnostic(fset, tn.Pos(), fmt.Sprintf("type %s must be generic", k))
		return nil, &d
	}
	return tn, nil
}

func (l *Loader) importPackage(p string) (*types.Package, error) {
	if !l.allowed[p] {
		return nil, fmt.Errorf("import %q is not allowed", p)
	}
	if l.importer == nil {
		return nil, fmt.Errorf("no importer available for %q", p)
	}
	l.importMu.Lock()
	defer l.importMu.Unlock()
	return l.importer.ImportFrom(p, ".", 0)
}

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

// rewritePackage renames the package clause so declarations land in the
// build's main package. Offsets and line numbers are preserved.
func rewritePackage(prog *Program) string {
	start := prog.Fset.Position(prog.File.Name.Pos()).Offset
	end := prog.Fset.Position(prog.File.Name.End()).Offset
	return prog.Source[:start] + buildPackage + prog.Source[end:]
}

// Named returns the generic type selected for the program's kind.
func (p *Program) Named() *types.Named {
	return p.Type.Type().(*types.Named)
}

// Lookup returns the package-level object with the given name, or nil.
func (p *Program) Lookup(name string) types.Object {
	return p.Pkg.Scope().Lookup(name)
}

// MethodDecl finds the declaration of method name on the selected type.
func (p *Program) MethodDecl(name string) *ast.FuncDecl {
	for _, decl := range p.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || fn.Name.Name != name || len(fn.Recv.List) == 0 {
			continue
		}
		if receiverTypeName(fn.Recv.List[0].Type) == p.Type.Name() {
			return fn
		}
	}
	return nil
}

func receiverTypeName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// Qualifier renders types of the program's own package without a prefix.
func (p *Program) Qualifier() types.Qualifier {
	return func(other *types.Package) string {
		if other == p.Pkg {
			return ""
		}
		return other.Name()
	}
}
