package loader

import (
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
	"strings"

	appErr "structcheck/pkg/errors"
)

// Diagnostic is one compiler message positioned in the submitted source.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", SourceName, d.Line, d.Column, d.Message)
}

// Diagnostics is an ordered set of compiler messages.
type Diagnostics []Diagnostic

// String joins all diagnostics one per line.
func (ds Diagnostics) String() string {
	lines := make([]string, 0, len(ds))
	for _, d := range ds {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

func (ds Diagnostics) sorted() Diagnostics {
	out := make(Diagnostics, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// Detail keys attached to compile errors.
const (
	DetailDiagnostics = "diagnostics"
	DetailLine        = "line"
)

func newDiagnostic(fset *token.FileSet, pos token.Pos, msg string) Diagnostic {
	p := fset.Position(pos)
	return Diagnostic{Line: p.Line, Column: p.Column, Message: msg}
}

func fromError(fset *token.FileSet, err error) Diagnostics {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		out := make(Diagnostics, 0, len(list))
		for _, e := range list {
			out = append(out, Diagnostic{Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Msg})
		}
		return out
	}
	var terr types.Error
	if errors.As(err, &terr) {
		return Diagnostics{newDiagnostic(fset, terr.Pos, terr.Msg)}
	}
	return Diagnostics{{Message: err.Error()}}
}

// compileError builds the error returned for any source that cannot be loaded.
func compileError(code appErr.ErrorCode, diags Diagnostics) *appErr.Error {
	diags = diags.sorted()
	e := appErr.New(code).WithMessage(diags.String()).WithDetail(DetailDiagnostics, diags)
	if len(diags) > 0 && diags[0].Line > 0 {
		e = e.WithDetail(DetailLine, diags[0].Line)
	}
	return e
}

// ErrorLine returns the line of the first diagnostic carried by err, or 0.
func ErrorLine(err error) int {
	e := appErr.GetError(err)
	if e == nil {
		return 0
	}
	if v, ok := e.Detail(DetailLine); ok {
		if line, ok := v.(int); ok {
			return line
		}
	}
	return 0
}
