package interp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/intslang/ints/argv"
	"github.com/intslang/ints/syntax"
)

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Resolver locates the source text behind a use declaration. std marks
// the <name> form, which may search the standard library.
type Resolver interface {
	Resolve(name string, std bool) (string, error)
}

// Options configures an interpreter. Zero fields fall back to the
// process streams, the OS filesystem, and plain file resolution for
// use targets.
type Options struct {
	Stdin    io.Reader
	Stdout   io.Writer
	FS       afero.Fs
	Resolver Resolver
}

// Interp loads program files and evaluates their functions.
type Interp struct {
	stdin    io.Reader
	stdout   io.Writer
	fs       afero.Fs
	resolver Resolver

	root     *scope
	included map[string]bool
}

// New returns an interpreter with opts applied.
func New(opts Options) *Interp {
	in := &Interp{
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		fs:       opts.FS,
		resolver: opts.Resolver,
	}
	if in.stdin == nil {
		in.stdin = os.Stdin
	}
	if in.stdout == nil {
		in.stdout = os.Stdout
	}
	if in.fs == nil {
		in.fs = afero.NewOsFs()
	}
	return in
}

// ExitError reports that the program called exit. It carries the
// requested process exit code and is not printed as a runtime error.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Run loads fileName and, if it defines a main function, calls it with
// the residual command line arguments. It returns the process exit
// code. A non-nil error is a load or runtime failure that the caller
// should report before exiting with the returned code.
//
// main receives two arrays: the argument count, and the arguments
// flattened as length-prefixed byte runs. Its return value is
// discarded; a file without main loads and exits zero.
func (in *Interp) Run(fileName string, args []string) (int, error) {
	in.root = newScope(nil)
	in.included = make(map[string]bool)
	if err := in.loadFile(fileName); err != nil {
		return 1, err
	}
	if !in.root.has("main") {
		return 0, nil
	}
	call := &syntax.CallExpr{Name: "main", Args: []syntax.Expr{
		&syntax.ArrayLit{Elems: []int64{int64(len(args))}},
		&syntax.ArrayLit{Elems: argv.Encode(args)},
	}}
	if _, err := in.callFunction(call, in.root); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			return exit.Code, nil
		}
		return 1, err
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// File loading
// ---------------------------------------------------------------------------

func (in *Interp) readFile(name string) (string, error) {
	data, err := afero.ReadFile(in.fs, name)
	if err != nil {
		return "", fmt.Errorf("Failed to open file: %s", name)
	}
	return string(data), nil
}

func (in *Interp) loadFile(name string) error {
	src, err := in.readFile(name)
	if err != nil {
		return err
	}
	return in.loadSource(src)
}

// loadSource parses src and installs its function definitions in the
// root scope, processing use declarations as it meets them. Root level
// bindings and calls parse but never execute.
func (in *Interp) loadSource(src string) error {
	prog, err := syntax.Parse(src)
	if err != nil {
		return err
	}
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *syntax.FuncDecl:
			in.root.define(it.Name, binding{fn: it})
		case *syntax.UseDecl:
			if err := in.evalUse(it); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalUse evaluates the use target against the root scope, so a target
// may name a file through any expression in scope. Each name loads
// once; repeats are ignored, which also breaks include cycles.
func (in *Interp) evalUse(u *syntax.UseDecl) error {
	v, err := in.evalExpr(u.Target, in.root)
	if err != nil {
		return err
	}
	name := v.Text()
	if in.included[name] {
		return nil
	}
	in.included[name] = true
	src, err := in.resolveHeader(name, u.Std)
	if err != nil {
		return err
	}
	return in.loadSource(src)
}

func (in *Interp) resolveHeader(name string, std bool) (string, error) {
	if in.resolver != nil {
		return in.resolver.Resolve(name, std)
	}
	return in.readFile(name)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// execStmt runs one statement. A non-nil value is a return unwinding
// out of the enclosing function.
func (in *Interp) execStmt(s syntax.Stmt, sc *scope) (*Value, error) {
	switch st := s.(type) {
	case *syntax.LetStmt:
		return nil, in.execLet(st, sc)
	case *syntax.AssignStmt:
		return nil, in.execAssign(st, sc)
	case *syntax.ExprStmt:
		_, err := in.callFunction(st.Call, sc)
		return nil, err
	case *syntax.IfStmt:
		ret, _, err := in.execIf(st, sc)
		return ret, err
	case *syntax.WhileStmt:
		return in.execWhile(st, sc)
	case *syntax.ForStmt:
		return in.execFor(st, sc)
	case *syntax.ReturnStmt:
		v, err := in.evalExpr(st.Value, sc)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, fmt.Errorf("Error interpreting statement")
}

func (in *Interp) execBlock(b *syntax.Block, sc *scope) (*Value, error) {
	for _, s := range b.Stmts {
		ret, err := in.execStmt(s, sc)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

func (in *Interp) execLet(let *syntax.LetStmt, sc *scope) error {
	var src *Value
	if let.Value != nil {
		v, err := in.evalExpr(let.Value, sc)
		if err != nil {
			return err
		}
		src = &v
	}
	v, err := FromDescriptor(let.Desc, src)
	if err != nil {
		return err
	}
	sc.define(let.Name, binding{value: &v})
	return nil
}

func (in *Interp) execAssign(as *syntax.AssignStmt, sc *scope) error {
	if !sc.hasRecursive(as.Name) {
		return fmt.Errorf("%s has not been defined", as.Name)
	}
	v, err := in.evalExpr(as.Value, sc)
	if err != nil {
		return err
	}
	return sc.set(as.Name, binding{value: &v})
}

// execIf runs an if chain. The condition and the taken branch share
// one fresh scope per if level; an else-if level parents on the level
// above it, so a declaration condition stays visible further down the
// chain. The bool reports whether any branch ran.
func (in *Interp) execIf(ifs *syntax.IfStmt, parent *scope) (*Value, bool, error) {
	sc := newScope(parent)
	ok, err := in.evalCond(ifs.Cond, sc)
	if err != nil {
		return nil, false, err
	}
	if ok {
		ret, err := in.execBlock(ifs.Body, sc)
		return ret, true, err
	}
	if ifs.ElseIf != nil {
		ret, handled, err := in.execIf(ifs.ElseIf, sc)
		if err != nil {
			return nil, false, err
		}
		if handled {
			return ret, true, nil
		}
	}
	if ifs.Else != nil {
		ret, err := in.execBlock(ifs.Else, sc)
		return ret, true, err
	}
	return nil, false, nil
}

// execWhile runs a while loop. One scope serves the condition and body
// across every iteration, so a declaration condition rebinds its name
// each time around.
func (in *Interp) execWhile(w *syntax.WhileStmt, parent *scope) (*Value, error) {
	sc := newScope(parent)
	for {
		ok, err := in.evalCond(w.Cond, sc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		ret, err := in.execBlock(w.Body, sc)
		if err != nil || ret != nil {
			return ret, err
		}
	}
}

// execFor evaluates the iterable once in the enclosing scope, then
// runs the body in a fresh scope per iteration with the element bound
// as a fixed one cell array.
func (in *Interp) execFor(f *syntax.ForStmt, parent *scope) (*Value, error) {
	iter, err := in.evalExpr(f.Iterable, parent)
	if err != nil {
		return nil, err
	}
	for _, cell := range iter.cells {
		sc := newScope(parent)
		elem := NewFixed([]int64{cell})
		sc.define(f.Var, binding{value: &elem})
		ret, err := in.execBlock(f.Body, sc)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

func (in *Interp) evalCond(c syntax.Cond, sc *scope) (bool, error) {
	switch cond := c.(type) {
	case *syntax.CompareCond:
		left, err := in.evalExpr(cond.Left, sc)
		if err != nil {
			return false, err
		}
		right, err := in.evalExpr(cond.Right, sc)
		if err != nil {
			return false, err
		}
		return left.Compare(cond.Op, right), nil
	case *syntax.DeclCond:
		return in.evalDeclCond(cond, sc)
	}
	return false, fmt.Errorf("Error interpreting condition")
}

// evalDeclCond evaluates a declaration condition. With an initializer,
// the condition holds when the value's length fits the descriptor, and
// the name binds only then. Without one, the declaration always runs
// and the condition holds.
func (in *Interp) evalDeclCond(c *syntax.DeclCond, sc *scope) (bool, error) {
	let := c.Decl
	if let.Value == nil {
		return true, in.execLet(let, sc)
	}
	v, err := in.evalExpr(let.Value, sc)
	if err != nil {
		return false, err
	}
	if !descriptorFits(let.Desc, v.Size()) {
		return false, nil
	}
	bound, err := FromDescriptor(let.Desc, &v)
	if err != nil {
		return false, err
	}
	sc.define(let.Name, binding{value: &bound})
	return true, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (in *Interp) evalExpr(e syntax.Expr, sc *scope) (Value, error) {
	switch ex := e.(type) {
	case *syntax.ArrayLit:
		return NewGrowable(ex.Elems), nil
	case *syntax.VarRef:
		b, err := sc.lookup(ex.Name)
		if err != nil {
			return Value{}, err
		}
		if b.fn != nil {
			return Value{}, fmt.Errorf("Cannot use %s as an array, as it is defined as a function", ex.Name)
		}
		return *b.value, nil
	case *syntax.CallExpr:
		return in.callFunction(ex, sc)
	case *syntax.BinaryExpr:
		left, err := in.evalExpr(ex.Left, sc)
		if err != nil {
			return Value{}, err
		}
		right, err := in.evalExpr(ex.Right, sc)
		if err != nil {
			return Value{}, err
		}
		return left.Apply(ex.Op, right)
	case *syntax.RangeExpr:
		return in.evalRange(ex, sc)
	case *syntax.MethodCall:
		return in.evalMethod(ex, sc)
	}
	return Value{}, fmt.Errorf("Error interpreting expression")
}

func (in *Interp) evalExprs(exprs []syntax.Expr, sc *scope) ([]Value, error) {
	vals := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := in.evalExpr(e, sc)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// evalRange slices the base array. Omitted bounds default to zero and
// the array's size. Both bounds evaluate before any check; the upper
// bound must not precede the lower and must stay within the array.
func (in *Interp) evalRange(r *syntax.RangeExpr, sc *scope) (Value, error) {
	v, err := in.evalExpr(r.X, sc)
	if err != nil {
		return Value{}, err
	}
	size := v.Size()
	var start, end int64
	if r.Low != nil {
		if start, err = in.evalRangeBound(r.Low, sc); err != nil {
			return Value{}, err
		}
	}
	end = size
	if r.High != nil {
		if end, err = in.evalRangeBound(r.High, sc); err != nil {
			return Value{}, err
		}
	}
	if end < start {
		return Value{}, fmt.Errorf("Array Range upper bound must be greater than or equal to the lower bound")
	}
	if end > size {
		return Value{}, fmt.Errorf("Array range bounds must be smaller than the length of the array")
	}
	return v.Slice(start, end), nil
}

func (in *Interp) evalRangeBound(e syntax.Expr, sc *scope) (int64, error) {
	v, err := in.evalExpr(e, sc)
	if err != nil {
		return 0, err
	}
	if v.Size() != 1 || v.cells[0] < 0 {
		return 0, fmt.Errorf("Array Bounds value must be an integer or evaluate to an array with 1 positive value")
	}
	return v.cells[0], nil
}

func (in *Interp) evalMethod(m *syntax.MethodCall, sc *scope) (Value, error) {
	v, err := in.evalExpr(m.X, sc)
	if err != nil {
		return Value{}, err
	}
	args, err := in.evalExprs(m.Args, sc)
	if err != nil {
		return Value{}, err
	}
	switch m.Name {
	case "append":
		return applyAppend(v, args)
	case "sqrt":
		return applySqrt(v, args)
	case "size":
		return applySize(v, args)
	}
	return Value{}, fmt.Errorf("Unknown method %s", m.Name)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// callFunction dispatches a call. A name bound anywhere in scope wins
// over the builtins, so programs may shadow print and friends with
// their own definitions. The call scope parents the calling scope, and
// arguments bind through their parameter descriptors. A function
// without an executed return yields an empty fixed array.
func (in *Interp) callFunction(call *syntax.CallExpr, sc *scope) (Value, error) {
	if !sc.hasRecursive(call.Name) {
		return in.callBuiltin(call, sc)
	}
	b, err := sc.lookup(call.Name)
	if err != nil {
		return Value{}, err
	}
	if b.fn == nil {
		return Value{}, fmt.Errorf("%s must be defined as a function.", call.Name)
	}
	args, err := in.evalExprs(call.Args, sc)
	if err != nil {
		return Value{}, err
	}
	if len(b.fn.Params) != len(args) {
		return Value{}, fmt.Errorf("Function %s expected %d argument(s) but received %d",
			b.fn.Name, len(b.fn.Params), len(args))
	}
	fnScope := newScope(sc)
	for i, p := range b.fn.Params {
		bound, err := FromDescriptor(p.Desc, &args[i])
		if err != nil {
			return Value{}, err
		}
		fnScope.define(p.Name, binding{value: &bound})
	}
	ret, err := in.execBlock(b.fn.Body, fnScope)
	if err != nil {
		return Value{}, err
	}
	if ret != nil {
		return *ret, nil
	}
	return NewFixed(nil), nil
}
