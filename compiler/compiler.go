// Package compiler implements a single-pass Pratt compiler: it walks a
// flat token stream exactly once, with no intermediate AST, emitting
// bytecode directly into a chunk.Chunk.
package compiler

import (
	"loxvm/chunk"
	"loxvm/heap"
	"loxvm/token"
	"loxvm/value"
)

// local tracks one declared-local-variable slot. depth is -1 between
// declare and define, the window used to detect a variable reading
// itself in its own initializer.
type local struct {
	name  string
	depth int
}

// Compiler holds all state for one compilation: the token cursor,
// the chunk being built, the locals stack, and the accumulated error
// list. A Compiler is single-use; call Compile to run it to completion.
type Compiler struct {
	tokens []token.Token
	pos    int

	chunk *chunk.Chunk
	heap  *heap.Manager

	locals     []local
	scopeDepth int

	errors    []error
	panicking bool
}

// Compile compiles the given token stream into a Chunk. On success it
// returns the Chunk and a nil error slice; on failure it returns a nil
// Chunk and every accumulated CompileError.
func Compile(tokens []token.Token, heapManager *heap.Manager) (*chunk.Chunk, []error) {
	c := &Compiler{
		tokens: tokens,
		chunk:  chunk.New(),
		heap:   heapManager,
	}

	for !c.check(token.EOF) {
		c.declaration()
	}

	line := c.previousLineOrOne()
	c.chunk.AddOpcode(chunk.OpReturn, line)

	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return c.chunk, nil
}

func (c *Compiler) previousLineOrOne() int {
	if c.pos == 0 {
		return 1
	}
	return c.previous().Line
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) current() token.Token {
	return c.tokens[c.pos]
}

func (c *Compiler) previous() token.Token {
	return c.tokens[c.pos-1]
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.current().Type == t
}

func (c *Compiler) advance() token.Token {
	tok := c.current()
	if tok.Type != token.EOF {
		c.pos++
	}
	return tok
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.check(t) {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting and recovery --------------------------------------

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicking {
		return
	}
	c.panicking = true
	if tok.Type == token.EOF {
		c.errors = append(c.errors, newErrorAtEnd(tok.Line, message))
	} else {
		c.errors = append(c.errors, newErrorAt(tok.Line, tok.Lexeme, message))
	}
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current(), message)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous(), message)
}

// synchronize skips tokens until a semicolon is consumed or the next
// token starts a new statement, recovering from panic mode so later
// errors in the same program are still reported.
func (c *Compiler) synchronize() {
	c.panicking = false

	for !c.check(token.EOF) {
		if c.previous().Type == token.SEMICOLON {
			return
		}
		switch c.current().Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- declarations and statements ----------------------------------------

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicking {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.IDENTIFIER, "Expect variable name.")
	nameTok := c.previous()

	if c.scopeDepth == 0 {
		idx, ok := c.identifierConstant(nameTok.Lexeme)
		if !ok {
			return
		}
		c.compileInitializer()
		c.consume(token.SEMICOLON, "Expect ';' after expression.")
		c.chunk.AddOpcodeAndOperand(chunk.OpDefineGlobal, idx, nameTok.Line)
		return
	}

	c.declareLocal(nameTok)
	c.compileInitializer()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.defineLocal()
}

// compileInitializer compiles `= expr`, or emits Nil if no initializer
// was given.
func (c *Compiler) compileInitializer() {
	if c.match(token.EQUAL) {
		c.expression()
		return
	}
	c.chunk.AddOpcode(chunk.OpNil, c.previous().Line)
}

func (c *Compiler) declareLocal(nameTok token.Token) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == nameTok.Lexeme {
			c.errorAtPrevious("Already a variable with this name in this scope.")
			return
		}
	}
	c.locals = append(c.locals, local{name: nameTok.Lexeme, depth: -1})
}

func (c *Compiler) defineLocal() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// identifierConstant interns name and adds it to the constant pool,
// reporting "Too many constants in one chunk." on overflow.
func (c *Compiler) identifierConstant(name string) (byte, bool) {
	obj := c.heap.InternString(name)
	idx, ok := c.chunk.AddConstant(value.NewObj(obj))
	if !ok {
		c.errorAtPrevious("Too many constants in one chunk.")
		return 0, false
	}
	return idx, true
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.chunk.AddOpcode(chunk.OpPrint, c.previous().Line)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.chunk.AddOpcode(chunk.OpPop, c.previous().Line)
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops every local declared at or beyond the scope being
// exited, emitting one Pop per local (locals live on the operand stack).
func (c *Compiler) endScope() {
	c.scopeDepth--
	line := c.previous().Line
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.chunk.AddOpcode(chunk.OpPop, line)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")
	line := c.previous().Line

	thenJump := c.chunk.EmitDummyJump(chunk.OpJumpIfFalse, line)
	c.chunk.AddOpcode(chunk.OpPop, line)
	c.statement()

	elseJump := c.chunk.EmitDummyJump(chunk.OpJump, line)
	if !c.chunk.PatchJump(thenJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
	c.chunk.AddOpcode(chunk.OpPop, line)

	if c.match(token.ELSE) {
		c.statement()
	}
	if !c.chunk.PatchJump(elseJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Len()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")
	line := c.previous().Line

	exitJump := c.chunk.EmitDummyJump(chunk.OpJumpIfFalse, line)
	c.chunk.AddOpcode(chunk.OpPop, line)
	c.statement()
	if !c.chunk.EmitLoop(loopStart, line) {
		c.errorAtPrevious("Loop body too large.")
	}

	if !c.chunk.PatchJump(exitJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
	c.chunk.AddOpcode(chunk.OpPop, line)
}

// forStatement desugars `for (init; cond; incr) body` into the equivalent
// while loop, wrapping the whole statement in its own scope so an
// init-clause `var` is block-scoped.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk.Len()
	exitJump := -1
	if !c.check(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after expression.")
		line := c.previous().Line
		exitJump = c.chunk.EmitDummyJump(chunk.OpJumpIfFalse, line)
		c.chunk.AddOpcode(chunk.OpPop, line)
	} else {
		c.advance() // the bare ';'
	}

	if !c.check(token.RIGHT_PAREN) {
		line := c.current().Line
		bodyJump := c.chunk.EmitDummyJump(chunk.OpJump, line)
		incrementStart := c.chunk.Len()
		c.expression()
		c.chunk.AddOpcode(chunk.OpPop, line)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		if !c.chunk.EmitLoop(loopStart, line) {
			c.errorAtPrevious("Loop body too large.")
		}
		loopStart = incrementStart
		if !c.chunk.PatchJump(bodyJump) {
			c.errorAtPrevious("Jump too long to patch.")
		}
	} else {
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")
	}

	c.statement()
	line := c.previous().Line
	if !c.chunk.EmitLoop(loopStart, line) {
		c.errorAtPrevious("Loop body too large.")
	}

	if exitJump != -1 {
		if !c.chunk.PatchJump(exitJump) {
			c.errorAtPrevious("Jump too long to patch.")
		}
		c.chunk.AddOpcode(chunk.OpPop, line)
	}

	c.endScope()
}

// --- expressions: Pratt parsing -----------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(minPrec Precedence) {
	tok := c.advance()
	rule := getRule(tok.Type)
	if rule.Prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := minPrec <= PrecAssignment
	rule.Prefix(c, canAssign)

	for {
		next := getRule(c.current().Type)
		if next.Precedence < minPrec {
			break
		}
		c.advance()
		next.Infix(c, canAssign)
	}

	if canAssign && c.check(token.EQUAL) {
		c.errorAtCurrent("Invalid assignment target.")
	}
}

// --- parselets -----------------------------------------------------------

type prefixFn func(c *Compiler, canAssign bool)
type infixFn func(c *Compiler, canAssign bool)

// ParseRule binds a token type to its prefix and infix parselets and the
// binding power used when this token appears as an infix operator.
type ParseRule struct {
	Prefix     prefixFn
	Infix      infixFn
	Precedence Precedence
}

var rules map[token.TokenType]ParseRule

func init() {
	rules = map[token.TokenType]ParseRule{
		token.LEFT_PAREN:    {Prefix: grouping},
		token.MINUS:         {Prefix: unary, Infix: binary, Precedence: PrecTerm},
		token.PLUS:          {Infix: binary, Precedence: PrecTerm},
		token.SLASH:         {Infix: binary, Precedence: PrecFactor},
		token.STAR:          {Infix: binary, Precedence: PrecFactor},
		token.BANG:          {Prefix: unary},
		token.BANG_EQUAL:    {Infix: binary, Precedence: PrecEquality},
		token.EQUAL_EQUAL:   {Infix: binary, Precedence: PrecEquality},
		token.GREATER:       {Infix: binary, Precedence: PrecComparison},
		token.GREATER_EQUAL: {Infix: binary, Precedence: PrecComparison},
		token.LESS:          {Infix: binary, Precedence: PrecComparison},
		token.LESS_EQUAL:    {Infix: binary, Precedence: PrecComparison},
		token.IDENTIFIER:    {Prefix: variable},
		token.STRING:        {Prefix: stringLiteral},
		token.NUMBER:        {Prefix: number},
		token.AND:           {Infix: compileAnd, Precedence: PrecAnd},
		token.OR:            {Infix: compileOr, Precedence: PrecOr},
		token.FALSE:         {Prefix: literalFalse},
		token.TRUE:          {Prefix: literalTrue},
		token.NIL:           {Prefix: literalNil},
	}
}

func getRule(t token.TokenType) ParseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return ParseRule{}
}

func number(c *Compiler, canAssign bool) {
	tok := c.previous()
	n := tok.Literal.(float64)
	idx, ok := c.chunk.AddConstant(value.NewNumber(n))
	if !ok {
		c.errorAtPrevious("Too many constants in one chunk.")
		return
	}
	c.chunk.AddOpcodeAndOperand(chunk.OpConstant, idx, tok.Line)
}

func stringLiteral(c *Compiler, canAssign bool) {
	tok := c.previous()
	s := tok.Literal.(string)
	obj := c.heap.InternString(s)
	idx, ok := c.chunk.AddConstant(value.NewObj(obj))
	if !ok {
		c.errorAtPrevious("Too many constants in one chunk.")
		return
	}
	c.chunk.AddOpcodeAndOperand(chunk.OpConstant, idx, tok.Line)
}

func literalTrue(c *Compiler, canAssign bool) {
	c.chunk.AddOpcode(chunk.OpTrue, c.previous().Line)
}

func literalFalse(c *Compiler, canAssign bool) {
	c.chunk.AddOpcode(chunk.OpFalse, c.previous().Line)
}

func literalNil(c *Compiler, canAssign bool) {
	c.chunk.AddOpcode(chunk.OpNil, c.previous().Line)
}

func grouping(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, canAssign bool) {
	opTok := c.previous()
	c.parsePrecedence(PrecUnary)
	switch opTok.Type {
	case token.MINUS:
		c.chunk.AddOpcode(chunk.OpNegate, opTok.Line)
	case token.BANG:
		c.chunk.AddOpcode(chunk.OpNot, opTok.Line)
	}
}

// binary compiles the right operand at one binding power above the
// operator's own (left-associative), then emits the operator, lowering
// `!=`/`<=`/`>=` to a two-opcode sequence built from their complements.
func binary(c *Compiler, canAssign bool) {
	opTok := c.previous()
	rule := getRule(opTok.Type)
	c.parsePrecedence(rule.Precedence + 1)

	switch opTok.Type {
	case token.PLUS:
		c.chunk.AddOpcode(chunk.OpAdd, opTok.Line)
	case token.MINUS:
		c.chunk.AddOpcode(chunk.OpSubtract, opTok.Line)
	case token.STAR:
		c.chunk.AddOpcode(chunk.OpMultiply, opTok.Line)
	case token.SLASH:
		c.chunk.AddOpcode(chunk.OpDivide, opTok.Line)
	case token.EQUAL_EQUAL:
		c.chunk.AddOpcode(chunk.OpEqual, opTok.Line)
	case token.BANG_EQUAL:
		c.chunk.AddOpcode(chunk.OpEqual, opTok.Line)
		c.chunk.AddOpcode(chunk.OpNot, opTok.Line)
	case token.LESS:
		c.chunk.AddOpcode(chunk.OpLess, opTok.Line)
	case token.LESS_EQUAL:
		c.chunk.AddOpcode(chunk.OpGreater, opTok.Line)
		c.chunk.AddOpcode(chunk.OpNot, opTok.Line)
	case token.GREATER:
		c.chunk.AddOpcode(chunk.OpGreater, opTok.Line)
	case token.GREATER_EQUAL:
		c.chunk.AddOpcode(chunk.OpLess, opTok.Line)
		c.chunk.AddOpcode(chunk.OpNot, opTok.Line)
	}
}

// compileAnd short-circuits: if the LHS already on the stack is falsey, skip
// the RHS entirely, leaving the falsey LHS as the result.
func compileAnd(c *Compiler, canAssign bool) {
	line := c.previous().Line
	endJump := c.chunk.EmitDummyJump(chunk.OpJumpIfFalse, line)
	c.chunk.AddOpcode(chunk.OpPop, line)
	c.parsePrecedence(PrecAnd)
	if !c.chunk.PatchJump(endJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
}

// compileOr short-circuits the other way: if the LHS is truthy, skip the RHS.
func compileOr(c *Compiler, canAssign bool) {
	line := c.previous().Line
	elseJump := c.chunk.EmitDummyJump(chunk.OpJumpIfFalse, line)
	endJump := c.chunk.EmitDummyJump(chunk.OpJump, line)

	if !c.chunk.PatchJump(elseJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
	c.chunk.AddOpcode(chunk.OpPop, line)
	c.parsePrecedence(PrecOr)
	if !c.chunk.PatchJump(endJump) {
		c.errorAtPrevious("Jump too long to patch.")
	}
}

// variable compiles an identifier's use: a local/global get, or an
// assignment if canAssign and an `=` immediately follows.
func variable(c *Compiler, canAssign bool) {
	nameTok := c.previous()

	getOp, setOp := chunk.OpGetLocal, chunk.OpSetLocal
	var arg byte

	slot, res := c.resolveLocal(nameTok.Lexeme)
	switch res {
	case localOwnInitializer:
		c.errorAtPrevious("Can't read local variable in its own initializer.")
		arg = byte(slot)
	case localResolved:
		arg = byte(slot)
	case localNotFound:
		idx, ok := c.identifierConstant(nameTok.Lexeme)
		if !ok {
			return
		}
		arg = idx
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.chunk.AddOpcodeAndOperand(setOp, arg, nameTok.Line)
	} else {
		c.chunk.AddOpcodeAndOperand(getOp, arg, nameTok.Line)
	}
}

type resolveResult int

const (
	localNotFound resolveResult = iota
	localOwnInitializer
	localResolved
)

// resolveLocal searches the locals stack top-to-bottom (innermost scope
// first) for name, reporting whether it is mid-declaration (depth == -1,
// meaning it is being read from within its own initializer).
func (c *Compiler) resolveLocal(name string) (int, resolveResult) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name != name {
			continue
		}
		if l.depth == -1 {
			return i, localOwnInitializer
		}
		return i, localResolved
	}
	return -1, localNotFound
}
