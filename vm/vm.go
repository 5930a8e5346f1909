// Package vm implements the fetch-decode-execute loop: a stack-based
// bytecode interpreter for chunk.Chunk.
package vm

import (
	"fmt"
	"io"

	"loxvm/chunk"
	"loxvm/hashtable"
	"loxvm/heap"
	"loxvm/value"
)

const stackMax = 256

// VM executes one chunk.Chunk at a time. It owns the operand stack and a
// reference to the globals table and heap manager; both outlive any
// single Run call within one interpret session.
type VM struct {
	stack   []value.Value
	globals *hashtable.Table
	heap    *heap.Manager
	out     io.Writer
	trace   io.Writer

	chunk *chunk.Chunk
	ip    int
}

// New returns a VM with an empty stack and globals table, writing Print
// output to out.
func New(heapManager *heap.Manager, out io.Writer) *VM {
	return &VM{
		globals: hashtable.New(),
		heap:    heapManager,
		out:     out,
	}
}

// SetTrace directs per-instruction disassembly to w; pass nil to disable
// tracing. Intended for debugging; no CLI command sets it.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = w
}

// Run executes c from ip 0 until Return or a VM error. A RuntimeError is
// a user-visible failure; an InternalError indicates the compiler
// produced an inconsistent Chunk.
func (vm *VM) Run(c *chunk.Chunk) error {
	vm.chunk = c
	vm.ip = 0

	for {
		if vm.ip >= len(c.Code) {
			return InternalError{Message: "instruction pointer ran off the end of the chunk"}
		}

		instructionStart := vm.ip
		opByte := c.Code[vm.ip]
		vm.ip++
		op := chunk.Opcode(opByte)

		if vm.trace != nil {
			fmt.Fprintf(vm.trace, "          %s\n", vm.stackString())
			_, instr := c.DisassembleInstructionAt(instructionStart)
			fmt.Fprint(vm.trace, instr)
		}

		switch op {
		case chunk.OpConstant:
			idx := vm.readByte()
			val, ok := c.GetConstant(idx)
			if !ok {
				return InternalError{Message: "constant index out of range"}
			}
			if err := vm.push(val); err != nil {
				return err
			}

		case chunk.OpNil:
			if err := vm.push(value.Nil); err != nil {
				return err
			}
		case chunk.OpTrue:
			if err := vm.push(value.NewBoolean(true)); err != nil {
				return err
			}
		case chunk.OpFalse:
			if err := vm.push(value.NewBoolean(false)); err != nil {
				return err
			}

		case chunk.OpPop:
			if _, err := vm.pop(); err != nil {
				return err
			}

		case chunk.OpGetLocal:
			slot := vm.readByte()
			if int(slot) >= len(vm.stack) {
				return InternalError{Message: "local slot out of range"}
			}
			if err := vm.push(vm.stack[slot]); err != nil {
				return err
			}
		case chunk.OpSetLocal:
			slot := vm.readByte()
			top, err := vm.peek(0)
			if err != nil {
				return err
			}
			if int(slot) >= len(vm.stack) {
				return InternalError{Message: "local slot out of range"}
			}
			vm.stack[slot] = top

		case chunk.OpDefineGlobal:
			name, err := vm.readStringConstant()
			if err != nil {
				return err
			}
			val, err := vm.pop()
			if err != nil {
				return err
			}
			vm.globals.Insert(name, val)

		case chunk.OpGetGlobal:
			name, err := vm.readStringConstant()
			if err != nil {
				return err
			}
			val, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(instructionStart, fmt.Sprintf("Undefined variable '%s'.", name.Chars()))
			}
			if err := vm.push(val); err != nil {
				return err
			}

		case chunk.OpSetGlobal:
			name, err := vm.readStringConstant()
			if err != nil {
				return err
			}
			top, err := vm.peek(0)
			if err != nil {
				return err
			}
			if vm.globals.Insert(name, top) {
				vm.globals.Delete(name)
				return vm.runtimeError(instructionStart, fmt.Sprintf("Undefined variable '%s'.", name.Chars()))
			}

		case chunk.OpEqual:
			b, err := vm.pop()
			if err != nil {
				return err
			}
			a, err := vm.pop()
			if err != nil {
				return err
			}
			if err := vm.push(value.NewBoolean(a.Equal(b))); err != nil {
				return err
			}

		case chunk.OpGreater:
			if err := vm.numericBinary(instructionStart, func(a, b float64) value.Value {
				return value.NewBoolean(a > b)
			}); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.numericBinary(instructionStart, func(a, b float64) value.Value {
				return value.NewBoolean(a < b)
			}); err != nil {
				return err
			}

		case chunk.OpAdd:
			if err := vm.add(instructionStart); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := vm.numericBinary(instructionStart, func(a, b float64) value.Value {
				return value.NewNumber(a - b)
			}); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.numericBinary(instructionStart, func(a, b float64) value.Value {
				return value.NewNumber(a * b)
			}); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.numericBinary(instructionStart, func(a, b float64) value.Value {
				return value.NewNumber(a / b)
			}); err != nil {
				return err
			}

		case chunk.OpNot:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			if err := vm.push(value.NewBoolean(v.IsFalsey())); err != nil {
				return err
			}

		case chunk.OpNegate:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			if v.Kind != value.KindNumber {
				return vm.runtimeTypeError(instructionStart, "Operand must be a number.")
			}
			if err := vm.push(value.NewNumber(-v.Number)); err != nil {
				return err
			}

		case chunk.OpPrint:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			fmt.Fprintf(vm.out, "%s\n", v.String())

		case chunk.OpJumpIfFalse:
			offset := vm.readShort()
			top, err := vm.peek(0)
			if err != nil {
				return err
			}
			if top.IsFalsey() {
				vm.ip += int(offset)
			}
		case chunk.OpJump:
			offset := vm.readShort()
			vm.ip += int(offset)
		case chunk.OpLoop:
			offset := vm.readShort()
			vm.ip -= int(offset)

		case chunk.OpReturn:
			return nil

		default:
			return InternalError{Message: fmt.Sprintf("unknown opcode byte %d", opByte)}
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	hi := vm.chunk.Code[vm.ip]
	lo := vm.chunk.Code[vm.ip+1]
	vm.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readStringConstant() (*heap.ObjString, error) {
	idx := vm.readByte()
	val, ok := vm.chunk.GetConstant(idx)
	if !ok {
		return nil, InternalError{Message: "constant index out of range"}
	}
	str, ok := val.Obj.(*heap.ObjString)
	if val.Kind != value.KindObj || !ok {
		return nil, InternalError{Message: "name constant is not a string"}
	}
	return str, nil
}

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= stackMax {
		return RuntimeError{Message: "stack overflow", Raw: true}
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Nil, InternalError{Message: "stack underflow"}
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) peek(distance int) (value.Value, error) {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		return value.Nil, InternalError{Message: "stack underflow"}
	}
	return vm.stack[idx], nil
}

func (vm *VM) runtimeError(ip int, message string) error {
	return RuntimeError{Line: vm.chunk.LineFor(ip), Message: message}
}

// runtimeTypeError reports a single-operand type mismatch (e.g. negating
// a string). It renders with no line suffix: `Invalid type: Operand must
// be a number.`
func (vm *VM) runtimeTypeError(ip int, message string) error {
	return RuntimeError{Line: vm.chunk.LineFor(ip), Message: message, Prefix: "Invalid type: ", NoLine: true}
}

// runtimeTypesError reports a two-operand type mismatch. It renders with
// the `[line N]` suffix: `Invalid types: Operands must be numbers. [line 3]`.
func (vm *VM) runtimeTypesError(ip int, message string) error {
	return RuntimeError{Line: vm.chunk.LineFor(ip), Message: message, Prefix: "Invalid types: "}
}

// add implements OpAdd's dual numeric/string semantics.
func (vm *VM) add(instructionStart int) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}

	if a.Kind == value.KindNumber && b.Kind == value.KindNumber {
		return vm.push(value.NewNumber(a.Number + b.Number))
	}

	aStr, aOK := a.Obj.(*heap.ObjString)
	bStr, bOK := b.Obj.(*heap.ObjString)
	if a.Kind == value.KindObj && b.Kind == value.KindObj && aOK && bOK {
		concat := vm.heap.ConcatStrings(aStr, bStr)
		return vm.push(value.NewObj(concat))
	}

	return vm.runtimeTypesError(instructionStart, "Operands must be two numbers or two strings.")
}

func (vm *VM) numericBinary(instructionStart int, op func(a, b float64) value.Value) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		return vm.runtimeTypesError(instructionStart, "Operands must be numbers.")
	}
	return vm.push(op(a.Number, b.Number))
}

func (vm *VM) stackString() string {
	s := "[ "
	for _, v := range vm.stack {
		s += v.String() + " "
	}
	return s + "]"
}
