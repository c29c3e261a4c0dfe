package syntax

import (
	"errors"
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parse lexes and parses a complete source file.
func Parse(input string) (*Program, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already lexed token stream.
func ParseTokens(tokens []Token) (*Program, error) {
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		if tok.Type != TokenIdent {
			return nil, fmt.Errorf("Unexpected value %s. Expected let, use, or fn", tok.Literal)
		}
		switch tok.Literal {
		case "fn":
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			prog.Items = append(prog.Items, fn)
		case "use":
			use, err := p.parseUseDecl()
			if err != nil {
				return nil, err
			}
			prog.Items = append(prog.Items, use)
		default:
			item, err := p.parseBindingOrCall()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol("Statement", ';'); err != nil {
				return nil, err
			}
			prog.Items = append(prog.Items, item)
		}
	}
	return prog, nil
}

// parseBindingOrCall parses a call, declaration, or assignment without
// its trailing semicolon. A name followed by ( is always a call, even
// when the name is let.
func (p *parser) parseBindingOrCall() (Item, error) {
	if p.nextIsSymbol('(') {
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Call: call}, nil
	}
	if p.tokens[p.pos].Literal == "let" {
		return p.parseLet()
	}
	return p.parseAssign()
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *parser) parseFuncDecl() (*FuncDecl, error) {
	if err := p.expectKeyword("Function Definition", "fn"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("Function Definition")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Function Definition", '('); err != nil {
		return nil, err
	}

	var params []Param
	for !p.atEnd() && !p.curIsSymbol(')') {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.curIsSymbol(',') {
			p.pos++
		}
	}
	if err := p.expectSymbol("Function Definition", ')'); err != nil {
		return nil, err
	}

	if err := p.expectSymbol("Function Definition", '-'); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Function Definition", '>'); err != nil {
		return nil, err
	}
	result, err := p.parseDescriptor()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: name, Params: params, Result: result, Body: body}, nil
}

func (p *parser) parseParam() (Param, error) {
	name, err := p.expectIdent("Function Parameter")
	if err != nil {
		return Param{}, err
	}
	if err := p.expectSymbol("Function Definition", ':'); err != nil {
		return Param{}, err
	}
	desc, err := p.parseDescriptor()
	if err != nil {
		return Param{}, err
	}
	return Param{Name: name, Desc: desc}, nil
}

func (p *parser) parseDescriptor() (Descriptor, error) {
	if err := p.expectSymbol("Array Descriptor", '['); err != nil {
		return Descriptor{}, err
	}

	var d Descriptor
	if !p.atEnd() && p.tokens[p.pos].Type == TokenInt {
		lit := p.tokens[p.pos].Literal
		size, err := strconv.ParseInt(lit, 10, 64)
		if err != nil || size < 0 {
			return Descriptor{}, &UnexpectedTokenError{
				Context: "Array Descriptor", Unexpected: lit, Expected: "array size",
			}
		}
		d.Size, d.HasSize = size, true
		p.pos++
	}

	tok, err := p.need("Array Descriptor", "token")
	if err != nil {
		return Descriptor{}, err
	}
	if tok.Type != TokenSymbol {
		return Descriptor{}, &UnexpectedTokenError{
			Context: "Array Descriptor", Unexpected: tok.Literal, Expected: "SYMBOL",
		}
	}
	if tok.IsSymbol('+') {
		d.Grow = true
		p.pos++
	}
	if err := p.expectSymbol("Array Descriptor", ']'); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (p *parser) parseUseDecl() (*UseDecl, error) {
	if err := p.expectKeyword("use", "use"); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{
			Context: "use", Expected: `"array literal" or <standard_header>`,
		}
	}
	if p.curIsSymbol('<') {
		p.pos++
		name, err := p.expectIdent("use")
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("use", '>'); err != nil {
			return nil, err
		}
		return &UseDecl{Target: &ArrayLit{Elems: stringCells(name)}, Std: true}, nil
	}
	target, err := p.parseArrayPrimary()
	if err != nil {
		return nil, err
	}
	return &UseDecl{Target: target}, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *parser) parseBlock() (*Block, error) {
	if err := p.expectSymbol("Body", '{'); err != nil {
		return nil, err
	}
	block := &Block{}
	for !p.atEnd() && !p.curIsSymbol('}') {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, s)
	}
	if err := p.expectSymbol("Body", '}'); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *parser) parseStatement() (Stmt, error) {
	if p.atEnd() {
		return nil, &UnexpectedEOFError{Context: "Statement", Expected: "token"}
	}
	tok := p.tokens[p.pos]
	if tok.Type != TokenIdent {
		prev := ""
		if p.pos > 0 {
			prev = p.tokens[p.pos-1].Literal
		}
		return nil, &UnexpectedTokenError{
			Context:    "Statement",
			Unexpected: tok.Literal,
			Expected:   "Identifier. Previous token: " + prev,
		}
	}

	switch tok.Literal {
	case "if":
		return p.parseIf()
	case "for":
		return p.parseFor()
	case "while":
		return p.parseWhile()
	case "return":
		return p.parseReturn()
	}

	item, err := p.parseBindingOrCall()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Statement", ';'); err != nil {
		return nil, err
	}
	return item.(Stmt), nil
}

func (p *parser) parseReturn() (*ReturnStmt, error) {
	if err := p.expectKeyword("Return", "return"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Return", ';'); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value}, nil
}

func (p *parser) parseIf() (*IfStmt, error) {
	if err := p.expectKeyword("If", "if"); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{Context: "If", Expected: "token"}
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	s := &IfStmt{Cond: cond, Body: body}
	if !p.atEnd() && p.tokens[p.pos].Type == TokenIdent && p.tokens[p.pos].Literal == "else" {
		p.pos++
		if p.atEnd() {
			return nil, &UnexpectedEOFError{Context: "If", Expected: "if or { after else"}
		}
		if p.curIsSymbol('{') {
			s.Else, err = p.parseBlock()
		} else {
			s.ElseIf, err = p.parseIf()
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) parseWhile() (*WhileStmt, error) {
	if err := p.expectKeyword("while", "while"); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{Context: "while", Expected: "token"}
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (*ForStmt, error) {
	if err := p.expectKeyword("For Loop", "for"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("For Loop")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("For Loop", ':'); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForStmt{Var: name, Iterable: iterable, Body: body}, nil
}

func (p *parser) parseLet() (*LetStmt, error) {
	if err := p.expectKeyword("Variable Declaration", "let"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("Variable Declaration")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Variable Declaration", ':'); err != nil {
		return nil, err
	}
	desc, err := p.parseDescriptor()
	if err != nil {
		return nil, err
	}

	s := &LetStmt{Name: name, Desc: desc}
	if p.curIsSymbol('=') {
		p.pos++
		if s.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) parseAssign() (*AssignStmt, error) {
	name, err := p.expectIdent("Variable Assignment")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Variable Assignment", '='); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &AssignStmt{Name: name, Value: value}, nil
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

func (p *parser) parseCond() (Cond, error) {
	if tok := p.tokens[p.pos]; tok.Type == TokenIdent && tok.Literal == "let" {
		decl, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		return &DeclCond{Decl: decl}, nil
	}
	return p.parseCompare()
}

// parseCompare parses "left OP right" where OP is assembled from one or
// two symbol tokens: < <= > >= == !=.
func (p *parser) parseCompare() (*CompareCond, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok, err := p.need("If Comparison", "token")
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenSymbol {
		return nil, &UnexpectedTokenError{
			Context: "If Comparison", Unexpected: tok.Literal, Expected: "SYMBOL",
		}
	}
	symbol := tok.Literal[0]
	p.pos++

	nextIsEq := p.curIsSymbol('=')
	if nextIsEq {
		p.pos++
	}

	var op CompareOp
	if nextIsEq {
		switch symbol {
		case '<':
			op = OpLe
		case '=':
			op = OpEq
		case '>':
			op = OpGe
		case '!':
			op = OpNe
		default:
			return nil, &UnexpectedTokenError{
				Context:    "If Comparison",
				Unexpected: "SYMBOL " + string(symbol),
				Expected:   "Comparison Operator",
			}
		}
	} else {
		switch symbol {
		case '<':
			op = OpLt
		case '>':
			op = OpGt
		default:
			followType := "SYMBOL"
			if !p.atEnd() {
				followType = p.tokens[p.pos].Type.String()
			}
			return nil, &UnexpectedTokenError{
				Context:    "If Comparison",
				Unexpected: followType + " " + string(symbol),
				Expected:   "Comparison Operator",
			}
		}
	}

	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &CompareCond{Op: op, Left: left, Right: right}, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

const (
	precParen = iota
	precAddSub
	precMulDiv
)

type pendingOp struct {
	op    BinOp
	prec  int
	paren bool
}

// parseExpression parses an arithmetic expression by the shunting-yard
// method. The expression ends at the first symbol that is not an
// operator or parenthesis, or at a closing parenthesis with no matching
// open one inside the expression.
func (p *parser) parseExpression() (Expr, error) {
	depth := 0
	var operands []Expr
	var operators []pendingOp

	reduce := func() error {
		if len(operands) < 2 {
			return errors.New("Invalid array expression")
		}
		op := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		right := operands[len(operands)-1]
		left := operands[len(operands)-2]
		operands = operands[:len(operands)-2]
		operands = append(operands, &BinaryExpr{Op: op.op, Left: left, Right: right})
		return nil
	}

loop:
	for !p.atEnd() && !(depth == 0 && p.curIsSymbol(')')) {
		tok := p.tokens[p.pos]
		switch tok.Type {
		case TokenIdent, TokenString:
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			operands = append(operands, e)
		case TokenInt:
			return nil, errors.New("Unexpected int literal in array expression.")
		case TokenSymbol:
			switch c := tok.Literal[0]; c {
			case '[':
				e, err := p.parsePrimary()
				if err != nil {
					return nil, err
				}
				operands = append(operands, e)
			case '(':
				operators = append(operators, pendingOp{prec: precParen, paren: true})
				depth++
				p.pos++
			case ')':
				for len(operators) > 0 && !operators[len(operators)-1].paren {
					if err := reduce(); err != nil {
						return nil, err
					}
				}
				if len(operators) == 0 {
					return nil, errors.New("More ) than ( in array expression.")
				}
				operators = operators[:len(operators)-1]
				depth--
				p.pos++
			case '+', '-', '*', '/':
				op, prec := binOpFor(c)
				for len(operators) > 0 && operators[len(operators)-1].prec >= prec {
					if err := reduce(); err != nil {
						return nil, err
					}
				}
				operators = append(operators, pendingOp{op: op, prec: prec})
				p.pos++
			default:
				break loop
			}
		}
	}

	for len(operators) > 0 {
		if operators[len(operators)-1].paren {
			return nil, errors.New("Invalid array expression")
		}
		if err := reduce(); err != nil {
			return nil, err
		}
	}
	switch len(operands) {
	case 0:
		return nil, errors.New("Empty expression.")
	case 1:
		return operands[0], nil
	default:
		return nil, errors.New("Invalid array expression.")
	}
}

func binOpFor(c byte) (BinOp, int) {
	switch c {
	case '+':
		return OpAdd, precAddSub
	case '-':
		return OpSub, precAddSub
	case '*':
		return OpMul, precMulDiv
	default:
		return OpDiv, precMulDiv
	}
}

// parsePrimary parses an array primary followed by its postfix chain.
func (p *parser) parsePrimary() (Expr, error) {
	base, err := p.parseArrayPrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(base)
}

// parseArrayPrimary parses a variable reference, function call, string
// literal, or bracketed array literal.
func (p *parser) parseArrayPrimary() (Expr, error) {
	if p.atEnd() {
		return p.parseArrayLit()
	}
	tok := p.tokens[p.pos]
	switch tok.Type {
	case TokenIdent:
		if p.nextIsSymbol('(') {
			return p.parseCall()
		}
		p.pos++
		return &VarRef{Name: tok.Literal}, nil
	case TokenString:
		p.pos++
		return &ArrayLit{Elems: stringCells(tok.Literal)}, nil
	default:
		return p.parseArrayLit()
	}
}

func (p *parser) parseArrayLit() (*ArrayLit, error) {
	if err := p.expectSymbol("Array", '['); err != nil {
		return nil, err
	}
	lit := &ArrayLit{}
	for !p.atEnd() && !p.curIsSymbol(']') {
		tok := p.tokens[p.pos]
		if tok.Type != TokenInt {
			return nil, &UnexpectedTokenError{
				Context: "Array", Unexpected: tok.Literal, Expected: "INT_LIT",
			}
		}
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, &UnexpectedTokenError{
				Context: "Array", Unexpected: tok.Literal, Expected: "INT_LIT",
			}
		}
		lit.Elems = append(lit.Elems, v)
		p.pos++
		if !p.atEnd() && !p.curIsSymbol(']') {
			if err := p.expectSymbol("Array", ','); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectSymbol("Array", ']'); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) parseCall() (*CallExpr, error) {
	name, err := p.expectIdent("Function Call")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Function Call", '('); err != nil {
		return nil, err
	}
	args, err := p.parseExpressions()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Function Call", ')'); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{
			Context: "Function Call", Expected: "; or . after function call",
		}
	}
	return &CallExpr{Name: name, Args: args}, nil
}

// parseExpressions parses a comma-separated argument list up to, but
// not including, the closing parenthesis.
func (p *parser) parseExpressions() ([]Expr, error) {
	var exprs []Expr
	for !p.atEnd() && !p.curIsSymbol(')') {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.atEnd() {
			return nil, &UnexpectedEOFError{Context: "Expression", Expected: ", or )"}
		}
		if p.curIsSymbol(',') {
			p.pos++
		}
	}
	return exprs, nil
}

// ---------------------------------------------------------------------------
// Postfix
// ---------------------------------------------------------------------------

func (p *parser) parsePostfix(base Expr) (Expr, error) {
	var err error
	for {
		switch {
		case p.curIsSymbol('['):
			base, err = p.parseRange(base)
		case p.curIsSymbol('.'):
			base, err = p.parseMethod(base)
		default:
			return base, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// parseRange parses a slice or a single index. A single index n is
// shorthand for the one-cell range [n:n+1].
func (p *parser) parseRange(base Expr) (*RangeExpr, error) {
	if err := p.expectSymbol("Array Range", '['); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{Context: "Array Range", Expected: "Lower bound or :"}
	}

	r := &RangeExpr{X: base}
	tok := p.tokens[p.pos]
	switch {
	case tok.Type == TokenInt:
		v, err := p.parseRangeBound(tok.Literal)
		if err != nil {
			return nil, err
		}
		p.pos++
		if p.curIsSymbol(']') {
			p.pos++
			r.Low = &ArrayLit{Elems: []int64{v}}
			r.High = &ArrayLit{Elems: []int64{v + 1}}
			return r, nil
		}
		r.Low = &ArrayLit{Elems: []int64{v}}
	case !tok.IsSymbol(':'):
		low, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.curIsSymbol(']') {
			p.pos++
			r.Low = low
			r.High = &BinaryExpr{Op: OpAdd, Left: low, Right: &ArrayLit{Elems: []int64{1}}}
			return r, nil
		}
		r.Low = low
	}

	if err := p.expectSymbol("Array Range", ':'); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, &UnexpectedEOFError{Context: "Array Range", Expected: "Upper bound or ]"}
	}
	tok = p.tokens[p.pos]
	switch {
	case tok.Type == TokenInt:
		v, err := p.parseRangeBound(tok.Literal)
		if err != nil {
			return nil, err
		}
		p.pos++
		r.High = &ArrayLit{Elems: []int64{v}}
	case !tok.IsSymbol(']'):
		high, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		r.High = high
	}
	if err := p.expectSymbol("Array Range", ']'); err != nil {
		return nil, err
	}
	return r, nil
}

// parseRangeBound rejects negative literal bounds outright; expression
// bounds are validated when evaluated.
func (p *parser) parseRangeBound(lit string) (int64, error) {
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil || v < 0 {
		return 0, &UnexpectedTokenError{
			Context: "Array Range", Unexpected: lit, Expected: "array bound",
		}
	}
	return v, nil
}

func (p *parser) parseMethod(base Expr) (*MethodCall, error) {
	if err := p.expectSymbol("Method", '.'); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("Method")
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Method", '('); err != nil {
		return nil, err
	}
	args, err := p.parseExpressions()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("Method", ')'); err != nil {
		return nil, err
	}
	return &MethodCall{X: base, Name: name, Args: args}, nil
}

// ---------------------------------------------------------------------------
// Token cursor
// ---------------------------------------------------------------------------

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) curIsSymbol(ch byte) bool {
	return !p.atEnd() && p.tokens[p.pos].IsSymbol(ch)
}

func (p *parser) nextIsSymbol(ch byte) bool {
	return p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].IsSymbol(ch)
}

// need returns the current token without consuming it.
func (p *parser) need(context, expected string) (Token, error) {
	if p.atEnd() {
		return Token{}, &UnexpectedEOFError{Context: context, Expected: expected}
	}
	return p.tokens[p.pos], nil
}

func (p *parser) expectSymbol(context string, ch byte) error {
	tok, err := p.need(context, string(ch))
	if err != nil {
		return err
	}
	if !tok.IsSymbol(ch) {
		return &UnexpectedTokenError{
			Context: context, Unexpected: tok.Literal, Expected: string(ch),
		}
	}
	p.pos++
	return nil
}

func (p *parser) expectIdent(context string) (string, error) {
	tok, err := p.need(context, "token")
	if err != nil {
		return "", err
	}
	if tok.Type != TokenIdent {
		return "", &UnexpectedTokenError{
			Context: context, Unexpected: tok.Literal, Expected: "IDENTIFIER",
		}
	}
	p.pos++
	return tok.Literal, nil
}

func (p *parser) expectKeyword(context, keyword string) error {
	tok, err := p.need(context, keyword)
	if err != nil {
		return err
	}
	if tok.Type != TokenIdent || tok.Literal != keyword {
		return &UnexpectedTokenError{
			Context: context, Unexpected: tok.Literal, Expected: keyword,
		}
	}
	p.pos++
	return nil
}
