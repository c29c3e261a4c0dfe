package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Syntax tree
// ---------------------------------------------------------------------------

// Node is implemented by every syntax tree node. String renders the
// node back as canonical source.
type Node interface {
	String() string
}

// Item is a top-level program element.
type Item interface {
	Node
	item()
}

// Stmt is a statement inside a body.
type Stmt interface {
	Node
	stmt()
}

// Expr is an array-valued expression.
type Expr interface {
	Node
	expr()
}

// Cond is an if or while condition.
type Cond interface {
	Node
	cond()
}

// Program is a parsed source file.
type Program struct {
	Items []Item
}

func (p *Program) String() string {
	parts := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, "\n")
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinOp is a cellwise arithmetic operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return fmt.Sprintf("BinOp(%d)", int(op))
	}
}

// CompareOp is a whole-array comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Descriptor gives an array's size and growth constraints, as written
// between brackets: [3] fixed, [+] growable, [3+] growable with a
// minimum, [] fixed with the size taken from the value.
type Descriptor struct {
	Size    int64
	HasSize bool
	Grow    bool
}

func (d Descriptor) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if d.HasSize {
		sb.WriteString(strconv.FormatInt(d.Size, 10))
	}
	if d.Grow {
		sb.WriteByte('+')
	}
	sb.WriteByte(']')
	return sb.String()
}

// Param is a single function parameter.
type Param struct {
	Name string
	Desc Descriptor
}

func (p Param) String() string {
	return p.Name + ": " + p.Desc.String()
}

// FuncDecl is a named function definition.
type FuncDecl struct {
	Name   string
	Params []Param
	Result Descriptor
	Body   *Block
}

func (*FuncDecl) item() {}

func (d *FuncDecl) String() string {
	params := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, p.String())
	}
	return fmt.Sprintf("fn %s(%s) -> %s %s",
		d.Name, strings.Join(params, ", "), d.Result.String(), d.Body.String())
}

// UseDecl imports another source file. Std marks the angle-bracket form
// that resolves against the standard headers.
type UseDecl struct {
	Target Expr
	Std    bool
}

func (*UseDecl) item() {}

func (d *UseDecl) String() string {
	if lit, ok := d.Target.(*ArrayLit); ok {
		if d.Std {
			return "use <" + cellsString(lit.Elems) + ">"
		}
		return "use " + strconv.Quote(cellsString(lit.Elems))
	}
	return "use " + d.Target.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
}

func (b *Block) String() string {
	if len(b.Stmts) == 0 {
		return "{ }"
	}
	parts := make([]string, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		parts = append(parts, s.String())
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// LetStmt declares a variable. Value may be nil for a bare growable
// declaration.
type LetStmt struct {
	Name  string
	Desc  Descriptor
	Value Expr
}

func (*LetStmt) stmt() {}
func (*LetStmt) item() {}

func (s *LetStmt) String() string { return s.decl() + ";" }

// decl renders the declaration without a trailing semicolon, for reuse
// in condition position.
func (s *LetStmt) decl() string {
	if s.Value == nil {
		return fmt.Sprintf("let %s: %s", s.Name, s.Desc.String())
	}
	return fmt.Sprintf("let %s: %s = %s", s.Name, s.Desc.String(), s.Value.String())
}

// AssignStmt stores a new value in an existing variable.
type AssignStmt struct {
	Name  string
	Value Expr
}

func (*AssignStmt) stmt() {}
func (*AssignStmt) item() {}

func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s;", s.Name, s.Value.String())
}

// IfStmt is a conditional with optional else-if and else branches.
type IfStmt struct {
	Cond   Cond
	Body   *Block
	ElseIf *IfStmt
	Else   *Block
}

func (*IfStmt) stmt() {}

func (s *IfStmt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "if %s %s", s.Cond.String(), s.Body.String())
	if s.ElseIf != nil {
		sb.WriteString(" else ")
		sb.WriteString(s.ElseIf.String())
	}
	if s.Else != nil {
		sb.WriteString(" else ")
		sb.WriteString(s.Else.String())
	}
	return sb.String()
}

// WhileStmt loops while its condition holds.
type WhileStmt struct {
	Cond Cond
	Body *Block
}

func (*WhileStmt) stmt() {}

func (s *WhileStmt) String() string {
	return fmt.Sprintf("while %s %s", s.Cond.String(), s.Body.String())
}

// ForStmt iterates a fresh loop variable over the cells of an iterable.
type ForStmt struct {
	Var      string
	Iterable Expr
	Body     *Block
}

func (*ForStmt) stmt() {}

func (s *ForStmt) String() string {
	return fmt.Sprintf("for %s : %s %s", s.Var, s.Iterable.String(), s.Body.String())
}

// ReturnStmt leaves the enclosing function with a value.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmt() {}

func (s *ReturnStmt) String() string {
	return fmt.Sprintf("return %s;", s.Value.String())
}

// ExprStmt is a function call in statement position.
type ExprStmt struct {
	Call *CallExpr
}

func (*ExprStmt) stmt() {}
func (*ExprStmt) item() {}

func (s *ExprStmt) String() string { return s.Call.String() + ";" }

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

// CompareCond compares two arrays cell by cell.
type CompareCond struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (*CompareCond) cond() {}

func (c *CompareCond) String() string {
	return fmt.Sprintf("%s %s %s", c.Left.String(), c.Op.String(), c.Right.String())
}

// DeclCond is a let declaration used as a condition; it holds when the
// value fits the declared descriptor.
type DeclCond struct {
	Decl *LetStmt
}

func (*DeclCond) cond() {}

func (c *DeclCond) String() string { return c.Decl.decl() }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ArrayLit is a literal array of cells. String literals lower to the
// byte values of their characters.
type ArrayLit struct {
	Elems []int64
}

func (*ArrayLit) expr() {}

func (e *ArrayLit) String() string {
	parts := make([]string, 0, len(e.Elems))
	for _, v := range e.Elems {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// VarRef reads a variable.
type VarRef struct {
	Name string
}

func (*VarRef) expr() {}

func (e *VarRef) String() string { return e.Name }

// CallExpr invokes a function or builtin.
type CallExpr struct {
	Name string
	Args []Expr
}

func (*CallExpr) expr() {}

func (e *CallExpr) String() string {
	args := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

// BinaryExpr applies a cellwise arithmetic operator.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) expr() {}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Op.String(), e.Right.String())
}

// RangeExpr slices X from Low up to but excluding High. A nil bound
// defaults to the start or end of X.
type RangeExpr struct {
	X    Expr
	Low  Expr
	High Expr
}

func (*RangeExpr) expr() {}

func (e *RangeExpr) String() string {
	var sb strings.Builder
	sb.WriteString(e.X.String())
	sb.WriteByte('[')
	if e.Low != nil {
		sb.WriteString(e.Low.String())
	}
	sb.WriteByte(':')
	if e.High != nil {
		sb.WriteString(e.High.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// MethodCall invokes a postfix method on X.
type MethodCall struct {
	X    Expr
	Name string
	Args []Expr
}

func (*MethodCall) expr() {}

func (e *MethodCall) String() string {
	args := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	return e.X.String() + "." + e.Name + "(" + strings.Join(args, ", ") + ")"
}

// cellsString renders cells as the string whose bytes they hold.
func cellsString(cells []int64) string {
	b := make([]byte, len(cells))
	for i, c := range cells {
		b[i] = byte(c)
	}
	return string(b)
}

// stringCells is the inverse: one cell per byte of s.
func stringCells(s string) []int64 {
	cells := make([]int64, len(s))
	for i := 0; i < len(s); i++ {
		cells[i] = int64(s[i])
	}
	return cells
}
