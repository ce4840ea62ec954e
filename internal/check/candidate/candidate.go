package candidate

import (
	"context"
	"fmt"
	"go/types"
	"strings"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/loader"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

// Candidate is a submitted generic type bound to its kind's type arguments.
type Candidate struct {
	Program *loader.Program
	Kind    kind.Kind
	// Type is the instantiated type, e.g. List[string].
	Type *types.Named

	ctorExpr string
	results  map[string][]string
	exe      *loader.Executable
}

// Instantiate binds prog's selected type to the kind's type arguments,
// verifies that the bound type satisfies the kind's method contract and
// builds the program with a driver for that binding. Close releases the build.
func Instantiate(ctx context.Context, prog *loader.Program) (*Candidate, error) {
	k := prog.Kind
	named := prog.Named()
	inst, err := bind(named, k)
	if err != nil {
		return nil, err
	}

	c := &Candidate{
		Program: prog,
		Kind:    k,
		Type:    inst,
		results: make(map[string][]string),
	}
	q := prog.Qualifier()
	if err := c.verify(inst, k.Contract(), q); err != nil {
		return nil, err
	}
	if k == kind.LinkedList {
		if err := c.verifyNode(prog, q); err != nil {
			return nil, err
		}
	}
	c.ctorExpr = constructorExpr(prog, named, k)
	if c.exe, err = prog.Build(ctx, map[string]string{harnessFile: harness(c.ctorExpr)}); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "candidate instantiated",
		zap.String("program_id", prog.ID),
		zap.String("type", types.TypeString(inst, q)),
		zap.String("constructor", c.ctorExpr),
	)
	return c, nil
}

func bind(named *types.Named, k kind.Kind) (*types.Named, error) {
	args := k.TypeArgs()
	if got := named.TypeParams().Len(); got != len(args) {
		return nil, appErr.Newf(appErr.InstantiationFailed,
			"type %s declares %d type parameters, expected %d [%s]",
			named.Obj().Name(), got, len(args), strings.Join(args, ", "))
	}
	targs := make([]types.Type, len(args))
	for i := range args {
		targs[i] = types.Typ[types.String]
	}
	t, err := types.Instantiate(types.NewContext(), named, targs, true)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InstantiationFailed,
			"type %s cannot be instantiated with [%s]: %v", named.Obj().Name(), strings.Join(args, ", "), err)
	}
	inst, ok := t.(*types.Named)
	if !ok {
		return nil, appErr.Newf(appErr.InstantiationFailed, "type %s is not a named type", named.Obj().Name())
	}
	return inst, nil
}

func (c *Candidate) verify(inst *types.Named, contract []kind.Method, q types.Qualifier) error {
	mset := types.NewMethodSet(types.NewPointer(inst))
	typeName := types.TypeString(inst, q)
	for _, m := range contract {
		sel := mset.Lookup(nil, m.Name)
		if sel == nil {
			return appErr.Newf(appErr.InstantiationFailed, "type %s has no method %s, expected %s",
				typeName, m.Name, c.Kind.Bind(m.Signature())).WithDetail(DetailMethod, m.Name)
		}
		sig, ok := sel.Type().(*types.Signature)
		if !ok || !signatureMatches(sig, m, c.Kind, q) {
			return appErr.Newf(appErr.InstantiationFailed, "method %s.%s has signature %s, expected %s",
				typeName, m.Name, renderSignature(m.Name, sig, q), c.Kind.Bind(m.Signature())).
				WithDetail(DetailMethod, m.Name)
		}
		bound := make([]string, len(m.Results))
		for i, r := range m.Results {
			bound[i] = c.Kind.Bind(r)
		}
		c.results[m.Name] = bound
	}
	return nil
}

func (c *Candidate) verifyNode(prog *loader.Program, q types.Qualifier) error {
	tn, ok := prog.Lookup(kind.NodeType).(*types.TypeName)
	if !ok {
		return appErr.Newf(appErr.InstantiationFailed, "generic type %s is not declared", kind.NodeType)
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return appErr.Newf(appErr.InstantiationFailed, "type %s must be generic", kind.NodeType)
	}
	inst, err := bind(named, c.Kind)
	if err != nil {
		return err
	}
	return c.verify(inst, kind.NodeContract, q)
}

func signatureMatches(sig *types.Signature, m kind.Method, k kind.Kind, q types.Qualifier) bool {
	if sig.Variadic() || sig.Params().Len() != len(m.Params) || sig.Results().Len() != len(m.Results) {
		return false
	}
	for i, p := range m.Params {
		if types.TypeString(sig.Params().At(i).Type(), q) != k.Bind(p) {
			return false
		}
	}
	for i, r := range m.Results {
		if types.TypeString(sig.Results().At(i).Type(), q) != k.Bind(r) {
			return false
		}
	}
	return true
}

func renderSignature(name string, sig *types.Signature, q types.Qualifier) string {
	if sig == nil {
		return name
	}
	s := types.TypeString(sig, q)
	return name + strings.TrimPrefix(s, "func")
}

// constructorExpr prefers a zero-argument New<Kind> constructor with matching
// type parameters and falls back to a composite literal.
func constructorExpr(prog *loader.Program, named *types.Named, k kind.Kind) string {
	args := strings.Join(k.TypeArgs(), ", ")
	name := named.Obj().Name()
	if fn, ok := prog.Lookup("New" + name).(*types.Func); ok {
		sig := fn.Type().(*types.Signature)
		if sig.TypeParams().Len() == len(k.TypeArgs()) && sig.Params().Len() == 0 && sig.Results().Len() == 1 {
			if ptr, ok := sig.Results().At(0).Type().(*types.Pointer); ok {
				if rn, ok := ptr.Elem().(*types.Named); ok && rn.Origin().Obj() == named.Obj() {
					return fmt.Sprintf("New%s[%s]()", name, args)
				}
			}
		}
	}
	return fmt.Sprintf("&%s[%s]{}", name, args)
}

// Close removes the built program. Instances must be closed first.
func (c *Candidate) Close() error {
	if c.exe == nil {
		return nil
	}
	return c.exe.Close()
}
