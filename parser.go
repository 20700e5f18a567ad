// Completion: 100% - recursive-descent parser / one-pass IR builder complete
package main

import "fmt"

// Parser consumes a token stream and builds the SymbolTable and IRStream
// directly as it recognizes each construct -- a one-pass compiler shape
// matching the scale of the source language (spec §1: scalar types,
// functions, if/while, goto/label, one #stack directive). There is no
// statement AST, and expressions are lowered straight to Operands and
// temporaries without building an Expr tree (ast.go).
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token

	syms    *SymbolTable
	ir      *IRStream
	curFunc string
	tempN   int

	stackSize    uint16
	stackAtLeast bool
}

// ParseProgram parses a complete source file into a symbol table and IR
// stream, ready for the Emitter. Panics with a *CompileError (Syntax/
// Declaration/Statement) on any front-end failure; the driver recovers it.
func ParseProgram(src string) (*SymbolTable, *IRStream, uint16, bool) {
	p := &Parser{
		lex:  NewLexer(src),
		syms: NewSymbolTable(),
		ir:   NewIRStream(),
	}
	p.advance()
	p.advance()

	for p.cur.Type != TokEOF {
		switch p.cur.Type {
		case TokDirectiveStack:
			p.parseStackDirective()
		case TokKwFunc:
			p.parseFunctionDecl()
		case TokKwBool, TokKwUint8, TokKwUint16, TokKwUint32, TokKwString:
			p.parseGlobalVarDecl()
		default:
			panic(syntaxErrorAt(p.cur.Line, p.cur.Col, "expected a directive or declaration at top level, found %q", p.cur.Text))
		}
	}

	return p.syms, p.ir, p.stackSize, p.stackAtLeast
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) expect(tt TokenType, what string) Token {
	if p.cur.Type != tt {
		panic(syntaxErrorAt(p.cur.Line, p.cur.Col, "expected %s, found %q", what, p.cur.Text))
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) expectIdent() string {
	return p.expect(TokIdent, "identifier").Text
}

// parseStackDirective handles "#stack N" / "#stack ^N" (spec §6).
func (p *Parser) parseStackDirective() {
	text := p.cur.Text
	line, col := p.cur.Line, p.cur.Col
	p.advance()

	atLeast := false
	if len(text) > 0 && text[0] == '^' {
		atLeast = true
		text = text[1:]
	}
	var n int
	if _, err := fmt.Sscanf(text, "%d", &n); err != nil {
		panic(syntaxErrorAt(line, col, "malformed #stack directive %q", text))
	}
	// "^N" only ever raises the size set by an earlier directive.
	if !atLeast || uint16(n) > p.stackSize {
		p.stackSize = uint16(n)
	}
	p.stackAtLeast = atLeast
}

// parseType reads a scalar type keyword, with an optional leading '*' for
// a pointer-to-scalar.
func (p *Parser) parseType() (ScalarType, bool) {
	isPointer := false
	if p.cur.Type == TokStar {
		isPointer = true
		p.advance()
	}
	var t ScalarType
	switch p.cur.Type {
	case TokKwBool:
		t = TypeBool
	case TokKwUint8:
		t = TypeUint8
	case TokKwUint16:
		t = TypeUint16
	case TokKwUint32:
		t = TypeUint32
	case TokKwString:
		t = TypeString
	default:
		panic(syntaxErrorAt(p.cur.Line, p.cur.Col, "expected a type, found %q", p.cur.Text))
	}
	p.advance()
	return t, isPointer
}

func (p *Parser) parseGlobalVarDecl() {
	t, isPointer := p.parseType()
	name := p.expectIdent()
	p.expect(TokSemicolon, "';'")
	kind := SymScalarVar
	if t == TypeString {
		kind = SymStringVar
	}
	p.syms.Declare(&Symbol{Name: name, Kind: kind, ScalarType: t, IsPointer: isPointer})
}

type paramSpec struct {
	Name      string
	Type      ScalarType
	IsPointer bool
}

func (p *Parser) parseParamList() []paramSpec {
	var params []paramSpec
	p.expect(TokLParen, "'('")
	for p.cur.Type != TokRParen {
		if len(params) > 0 {
			p.expect(TokComma, "','")
		}
		t, isPtr := p.parseType()
		name := p.expectIdent()
		params = append(params, paramSpec{Name: name, Type: t, IsPointer: isPtr})
	}
	p.expect(TokRParen, "')'")
	return params
}

// parseFunctionDecl handles both full definitions and bare prototypes
// ("func name(...) type;").
func (p *Parser) parseFunctionDecl() {
	p.expect(TokKwFunc, "'func'")

	isMain := false
	var name string
	if p.cur.Type == TokKwMain {
		isMain = true
		name = "main"
		p.advance()
	} else {
		name = p.expectIdent()
	}

	params := p.parseParamList()

	hasReturnType := false
	var retType ScalarType
	switch p.cur.Type {
	case TokKwBool, TokKwUint8, TokKwUint16, TokKwUint32, TokKwString:
		retType, _ = p.parseType()
		hasReturnType = true
	}

	if p.cur.Type == TokSemicolon {
		p.advance()
		p.syms.Declare(&Symbol{Name: name, Kind: SymFunctionPrototype, ReturnType: retType, HasReturnType: hasReturnType})
		return
	}

	kind := SymFunction
	if isMain {
		kind = SymEntryPoint
	}
	fnSym := &Symbol{Name: name, Kind: kind, ReturnType: retType, HasReturnType: hasReturnType, IP: p.ir.Len()}
	p.syms.Declare(fnSym)

	prevFunc := p.curFunc
	p.curFunc = name
	for i, ps := range params {
		p.syms.Declare(&Symbol{
			Name: ps.Name, Kind: SymScalarVar, ScalarType: ps.Type, IsPointer: ps.IsPointer,
			ParameterIndex: i + 1, Parent: name, HasParent: true,
		})
	}

	p.expect(TokLBrace, "'{'")
	for p.cur.Type != TokRBrace {
		p.parseStatement()
	}
	p.expect(TokRBrace, "'}'")

	if p.ir.Len() == 0 || p.ir.At(p.ir.Len()-1).Kind != InstrReturn {
		p.ir.Append(Instr{Kind: InstrReturn, HasValue: false})
	}

	p.curFunc = prevFunc
}

func (p *Parser) newTemp(t ScalarType) string {
	name := fmt.Sprintf("$t%d", p.tempN)
	p.tempN++
	p.syms.Declare(&Symbol{Name: name, Kind: SymScalarVar, ScalarType: t, Parent: p.curFunc, HasParent: p.curFunc != "", IsTemp: true})
	return name
}

func (p *Parser) parseStatement() {
	switch p.cur.Type {
	case TokKwBool, TokKwUint8, TokKwUint16, TokKwUint32, TokKwString, TokStar:
		p.parseLocalVarDecl()
	case TokKwIf:
		p.parseIf()
	case TokKwWhile:
		p.parseWhile()
	case TokKwGoto:
		p.parseGoto()
	case TokKwReturn:
		p.parseReturn()
	case TokIdent:
		p.parseIdentStatement()
	default:
		panic(statementErrorAt(p.cur.Line, p.cur.Col, "unexpected token %q at start of statement", p.cur.Text))
	}
}

func (p *Parser) parseLocalVarDecl() {
	t, isPointer := p.parseType()
	name := p.expectIdent()
	p.syms.Declare(&Symbol{Name: name, Kind: SymScalarVar, ScalarType: t, IsPointer: isPointer, Parent: p.curFunc, HasParent: true})

	if p.cur.Type == TokAssign {
		p.advance()
		p.parseExprInto(name)
	}
	p.expect(TokSemicolon, "';'")
}

// parseIdentStatement disambiguates a label declaration ("name:"), an
// assignment ("name = expr;") and a call-as-statement ("name(...);"),
// all of which start with a bare identifier.
func (p *Parser) parseIdentStatement() {
	name := p.cur.Text
	line, col := p.cur.Line, p.cur.Col
	p.advance()

	switch p.cur.Type {
	case TokColon:
		p.advance()
		p.syms.Declare(&Symbol{Name: name, Kind: SymLabel, Parent: p.curFunc, HasParent: true, IP: p.ir.Len()})
	case TokAssign:
		p.advance()
		if _, ok := p.syms.TryLookupVariable(p.curFunc, name); !ok {
			panic(declarationErrorAt(line, col, "assignment to undeclared variable %q", name))
		}
		p.parseExprInto(name)
		p.expect(TokSemicolon, "';'")
	case TokLParen:
		p.emitCall(name, "")
		p.expect(TokSemicolon, "';'")
	default:
		panic(statementErrorAt(line, col, "expected ':', '=' or '(' after identifier %q", name))
	}
}

func (p *Parser) parseGoto() {
	p.expect(TokKwGoto, "'goto'")
	label := p.expectIdent()
	p.expect(TokSemicolon, "';'")
	p.ir.Append(Instr{Kind: InstrGotoLabel, Label: label})
}

func (p *Parser) parseReturn() {
	p.expect(TokKwReturn, "'return'")
	if p.cur.Type == TokSemicolon {
		p.advance()
		p.ir.Append(Instr{Kind: InstrReturn, HasValue: false})
		return
	}
	v := p.parseExprOperand()
	p.expect(TokSemicolon, "';'")
	p.ir.Append(Instr{Kind: InstrReturn, HasValue: true, Value: v})
}

// parseCondition parses "a CMP b" for an if/while header.
func (p *Parser) parseCondition() (Operand, Operand, CompareOp) {
	a := p.parsePrimaryOperand()
	cmp, ok := compareOpFor(p.cur.Type)
	if !ok {
		panic(syntaxErrorAt(p.cur.Line, p.cur.Col, "expected a comparison operator, found %q", p.cur.Text))
	}
	p.advance()
	b := p.parsePrimaryOperand()
	return a, b, cmp
}

func compareOpFor(tt TokenType) (CompareOp, bool) {
	switch tt {
	case TokEq:
		return CompareEq, true
	case TokNe:
		return CompareNe, true
	case TokGt:
		return CompareGt, true
	case TokLt:
		return CompareLt, true
	case TokGe:
		return CompareGe, true
	case TokLe:
		return CompareLe, true
	case TokAndAnd:
		return CompareLogAnd, true
	case TokOrOr:
		return CompareLogOr, true
	default:
		return 0, false
	}
}

// parseIf lowers "if (cond) { ... } [else { ... }]" by emitting the
// negated condition as an If whose TargetIP is patched to skip the block
// once its extent is known (and, with an else clause, a Goto patched to
// skip the else block from the end of the if-block).
func (p *Parser) parseIf() {
	p.expect(TokKwIf, "'if'")
	p.expect(TokLParen, "'('")
	a, b, cmp := p.parseCondition()
	p.expect(TokRParen, "')'")

	ifIP := p.ir.Append(Instr{Kind: InstrIf, Compare: cmp.Negated(), A: a, B: b})

	p.expect(TokLBrace, "'{'")
	for p.cur.Type != TokRBrace {
		p.parseStatement()
	}
	p.expect(TokRBrace, "'}'")

	if p.cur.Type == TokKwElse {
		p.advance()
		gotoIP := p.ir.Append(Instr{Kind: InstrGoto})
		p.ir.SetTarget(ifIP, p.ir.Len())

		p.expect(TokLBrace, "'{'")
		for p.cur.Type != TokRBrace {
			p.parseStatement()
		}
		p.expect(TokRBrace, "'}'")

		p.ir.SetTarget(gotoIP, p.ir.Len())
		return
	}

	p.ir.SetTarget(ifIP, p.ir.Len())
}

func (p *Parser) parseWhile() {
	p.expect(TokKwWhile, "'while'")
	start := p.ir.Len()
	p.expect(TokLParen, "'('")
	a, b, cmp := p.parseCondition()
	p.expect(TokRParen, "')'")

	ifIP := p.ir.Append(Instr{Kind: InstrIf, Compare: cmp.Negated(), A: a, B: b})

	p.expect(TokLBrace, "'{'")
	for p.cur.Type != TokRBrace {
		p.parseStatement()
	}
	p.expect(TokRBrace, "'}'")

	p.ir.Append(Instr{Kind: InstrGoto, TargetIP: start})
	p.ir.SetTarget(ifIP, p.ir.Len())
}

// parseExprInto parses an expression and lowers it directly into an Assign
// targeting dst, so the common "x = a op b" case emits exactly one
// instruction instead of routing through a throwaway temporary.
func (p *Parser) parseExprInto(dst string) {
	if p.cur.Type == TokMinus {
		p.advance()
		a := p.parsePrimaryOperand()
		p.ir.Append(Instr{Kind: InstrAssign, AssignOp: AssignNegate, Dst: dst, A: a})
		return
	}
	if p.cur.Type == TokIdent && p.peek.Type == TokLParen {
		name := p.cur.Text
		p.advance()
		p.emitCall(name, dst)
		return
	}

	a := p.parsePrimaryOperand()
	if op, ok := binaryOpFor(p.cur.Type); ok {
		p.advance()
		b := p.parsePrimaryOperand()
		p.ir.Append(Instr{Kind: InstrAssign, AssignOp: op, Dst: dst, A: a, B: b})
		return
	}
	p.ir.Append(Instr{Kind: InstrAssign, AssignOp: AssignNone, Dst: dst, A: a})
}

// parseExprOperand parses an expression and returns it as an Operand,
// introducing a compiler temporary when the expression is not already a
// bare constant or variable reference (spec's one-binary-op-per-Assign IR
// shape forces every compound expression through a temp).
func (p *Parser) parseExprOperand() Operand {
	if p.cur.Type == TokMinus {
		p.advance()
		a := p.parsePrimaryOperand()
		temp := p.newTemp(a.Type)
		p.ir.Append(Instr{Kind: InstrAssign, AssignOp: AssignNegate, Dst: temp, A: a})
		return VarOperand(temp, a.Type, false)
	}
	if p.cur.Type == TokIdent && p.peek.Type == TokLParen {
		name := p.cur.Text
		p.advance()
		retType := p.calleeReturnType(name)
		temp := p.newTemp(retType)
		p.emitCall(name, temp)
		return VarOperand(temp, retType, false)
	}

	a := p.parsePrimaryOperand()
	if op, ok := binaryOpFor(p.cur.Type); ok {
		p.advance()
		b := p.parsePrimaryOperand()
		temp := p.newTemp(a.Type)
		p.ir.Append(Instr{Kind: InstrAssign, AssignOp: op, Dst: temp, A: a, B: b})
		return VarOperand(temp, a.Type, false)
	}
	return a
}

func binaryOpFor(tt TokenType) (AssignOp, bool) {
	switch tt {
	case TokPlus:
		return AssignAdd, true
	case TokMinus:
		return AssignSub, true
	case TokStar:
		return AssignMul, true
	case TokSlash:
		return AssignDiv, true
	case TokPercent:
		return AssignRem, true
	case TokShl:
		return AssignShl, true
	case TokShr:
		return AssignShr, true
	default:
		return 0, false
	}
}

func (p *Parser) parsePrimaryOperand() Operand {
	switch p.cur.Type {
	case TokNumber:
		text := p.cur.Text
		p.advance()
		return ConstOperand(text, TypeUint32)
	case TokString:
		text := p.cur.Text
		p.advance()
		return ConstOperand(text, TypeString)
	case TokIdent:
		name := p.cur.Text
		line, col := p.cur.Line, p.cur.Col
		p.advance()
		sym, ok := p.syms.TryLookupVariable(p.curFunc, name)
		if !ok {
			panic(declarationErrorAt(line, col, "reference to undeclared variable %q", name))
		}
		return VarOperand(name, sym.ScalarType, sym.IsPointer)
	default:
		panic(syntaxErrorAt(p.cur.Line, p.cur.Col, "expected an operand, found %q", p.cur.Text))
	}
}

// calleeReturnType looks up (or lazily registers, for the builtin shared
// functions) a callee's return type.
func (p *Parser) calleeReturnType(name string) ScalarType {
	if sym, ok := p.syms.TryResolveFunction(name); ok {
		return sym.ReturnType
	}
	if IsSharedFunctionName(name) {
		p.declareSharedFunction(name)
		sym, _ := p.syms.TryResolveFunction(name)
		return sym.ReturnType
	}
	panic(declarationErrorAt(p.cur.Line, p.cur.Col, "call to undeclared function %q", name))
}

// declareSharedFunction lazily registers one of the six runtime helpers
// (spec §4.4.5) the first time it is referenced, with the fixed signature
// each one carries.
func (p *Parser) declareSharedFunction(name string) {
	if _, ok := p.syms.TryResolveFunction(name); ok {
		return
	}
	retType := TypeUint32
	hasReturn := true
	switch SharedFunctionName(name) {
	case SharedPrintString, SharedPrintNewLine:
		hasReturn = false
	case SharedGetCommandLine:
		retType = TypeString
	case SharedStringsEqual:
		retType = TypeBool
	}
	p.syms.Declare(&Symbol{Name: name, Kind: SymSharedFunction, ReturnType: retType, HasReturnType: hasReturn})
}

// emitCall parses a call's argument list and emits Push/Call IR, binding
// the result to returnDst (empty for a call used as a bare statement).
// Every argument is materialized into a named variable before the Push,
// since emitOnePush (emit_call.go) pushes by symbol.
func (p *Parser) emitCall(name, returnDst string) {
	if _, ok := p.syms.TryResolveFunction(name); !ok && IsSharedFunctionName(name) {
		p.declareSharedFunction(name)
	}

	p.expect(TokLParen, "'('")
	for p.cur.Type != TokRParen {
		arg := p.parseExprOperand()
		pushName := arg.Value
		if arg.IsConstant() {
			pushName = p.newTemp(arg.Type)
			p.ir.Append(Instr{Kind: InstrAssign, AssignOp: AssignNone, Dst: pushName, A: arg})
		}
		p.ir.Append(Instr{Kind: InstrPush, PushSym: pushName})
		if p.cur.Type == TokComma {
			p.advance()
			continue
		}
		break
	}
	p.expect(TokRParen, "')'")

	p.ir.Append(Instr{Kind: InstrCall, CallTarget: name, ReturnDst: returnDst})
}
