// Package hint inspects a submission's method bodies for the techniques the
// reference implementations rely on and explains what is missing. Hints are
// advisory text heuristics and never affect equivalence results.
package hint

import (
	"context"
	"fmt"
	"go/ast"
	"go/types"
	"strings"

	"structcheck/internal/check/loader"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

// Generator produces hints from a Catalog.
type Generator struct {
	catalog *Catalog
}

// NewGenerator creates a Generator.
func NewGenerator(catalog *Catalog) *Generator {
	return &Generator{catalog: catalog}
}

// Generate returns the hints for prog in rule order.
func (g *Generator) Generate(ctx context.Context, prog *loader.Program) []string {
	var hints []string
	g.GenerateInto(ctx, prog, &hints)
	return hints
}

// GenerateInto appends the hints for prog to hints.
func (g *Generator) GenerateInto(ctx context.Context, prog *loader.Program, hints *[]string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "hint generation panicked",
				zap.String("program_id", prog.ID),
				zap.Any("panic", r),
			)
		}
	}()

	rs := g.catalog.Rules(prog.Kind)
	if rs == nil {
		return
	}
	before := len(*hints)
	for _, rule := range rs.Methods {
		g.applyRule(prog, rule, hints)
	}
	logger.Debug(ctx, "hints generated",
		zap.String("program_id", prog.ID),
		zap.Int("count", len(*hints)-before),
	)
}

func (g *Generator) applyRule(prog *loader.Program, rule MethodRule, hints *[]string) {
	msgs := g.catalog.messages

	methodMissing := false
	if len(rule.Locals) > 0 {
		decl := prog.MethodDecl(rule.Method)
		if decl == nil {
			*hints = append(*hints, fmt.Sprintf(msgs.MethodMissing, rule.Method))
			methodMissing = true
		} else {
			locals := LocalTypes(prog, decl)
			for _, exp := range rule.Locals {
				if !anyContains(locals, exp.AnyOf) {
					*hints = append(*hints, exp.Hint)
				}
			}
		}
	}

	if len(rule.Source) == 0 {
		return
	}
	slice, ok := Slice(prog.Source, rule.Anchors)
	if !ok {
		if !methodMissing {
			*hints = append(*hints, fmt.Sprintf(msgs.AnchorMissing, rule.Method, rule.Anchors.Start))
		}
		return
	}
	for _, exp := range rule.Source {
		if !containsAny(slice, exp.AnyOf) {
			*hints = append(*hints, exp.Hint)
		}
	}
}

// Slice returns the text from the start anchor up to the end anchor. A
// missing end anchor extends the slice to the end of the source.
func Slice(source string, a Anchors) (string, bool) {
	start := strings.Index(source, a.Start)
	if start < 0 {
		return "", false
	}
	rest := source[start:]
	if a.End == "" {
		return rest, true
	}
	if end := strings.Index(rest[len(a.Start):], a.End); end >= 0 {
		return rest[:len(a.Start)+end], true
	}
	return rest, true
}

// LocalTypes returns the types of variables declared inside decl's body,
// rendered relative to the submission's package.
func LocalTypes(prog *loader.Program, decl *ast.FuncDecl) []string {
	if decl.Body == nil {
		return nil
	}
	q := prog.Qualifier()
	var out []string
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		if v, ok := prog.Info.Defs[id].(*types.Var); ok && !v.IsField() {
			out = append(out, types.TypeString(v.Type(), q))
		}
		return true
	})
	return out
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func anyContains(values, fragments []string) bool {
	for _, v := range values {
		if containsAny(v, fragments) {
			return true
		}
	}
	return false
}
