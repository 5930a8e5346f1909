// Package chunk implements the bytecode container the compiler emits
// into and the VM executes from: three parallel arrays (code, constants,
// lines) plus the jump-patching helpers the single-pass compiler needs.
package chunk

import (
	"fmt"
	"strings"

	"loxvm/value"
)

// Opcode is a single-byte bytecode tag.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJumpIfFalse
	OpJump
	OpLoop
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpJump:         "OP_JUMP",
	OpLoop:         "OP_LOOP",
	OpReturn:       "OP_RETURN",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

const maxConstants = 256

// Chunk is a self-contained unit of compiled bytecode: the instruction
// stream, its constant pool, and a parallel line table for diagnostics.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Len reports the number of bytes emitted so far.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// AddOpcode appends a single opcode byte tagged with its source line.
func (c *Chunk) AddOpcode(op Opcode, line int) {
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
}

// AddOpcodeAndOperand appends an opcode followed by a one-byte operand,
// both tagged with the same source line.
func (c *Chunk) AddOpcodeAndOperand(op Opcode, operand byte, line int) {
	c.AddOpcode(op, line)
	c.Code = append(c.Code, operand)
	c.Lines = append(c.Lines, line)
}

// AddConstant deduplicates v by structural equality against the existing
// pool, returning its index either way. ok is false if the value is new
// and the pool already holds 256 distinct entries.
func (c *Chunk) AddConstant(v value.Value) (idx byte, ok bool) {
	for i, existing := range c.Constants {
		if constantsEqual(existing, v) {
			return byte(i), true
		}
	}
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return byte(len(c.Constants) - 1), true
}

// constantsEqual is value.Value.Equal plus NaN-is-never-equal-to-itself
// (so repeated NaN constants are not deduplicated), which Equal already
// gives us via Go's native float comparison.
func constantsEqual(a, b value.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	return a.Equal(b)
}

// GetConstant returns the constant at idx.
func (c *Chunk) GetConstant(idx byte) (value.Value, bool) {
	if int(idx) >= len(c.Constants) {
		return value.Nil, false
	}
	return c.Constants[idx], true
}

// LineFor returns the source line recorded for the byte at ip.
func (c *Chunk) LineFor(ip int) int {
	if ip < 0 || ip >= len(c.Lines) {
		return -1
	}
	return c.Lines[ip]
}

// EmitDummyJump appends op followed by two placeholder 0xFF bytes and
// returns the index of the first placeholder, to be passed to PatchJump
// once the jump target is known.
func (c *Chunk) EmitDummyJump(op Opcode, line int) int {
	c.AddOpcode(op, line)
	c.Code = append(c.Code, 0xFF, 0xFF)
	c.Lines = append(c.Lines, line, line)
	return len(c.Code) - 2
}

// PatchJump backfills the two-byte big-endian offset at `at` so that the
// jump lands at the current end of the chunk. It fails if the distance
// exceeds 65535.
func (c *Chunk) PatchJump(at int) bool {
	offset := len(c.Code) - at - 2
	if offset > 0xFFFF {
		return false
	}
	c.Code[at] = byte(offset >> 8)
	c.Code[at+1] = byte(offset)
	return true
}

// EmitLoop appends a Loop opcode followed by a big-endian backward offset
// from the current position to loopStart. It fails if the offset exceeds
// 65535.
func (c *Chunk) EmitLoop(loopStart int, line int) bool {
	c.AddOpcode(OpLoop, line)
	offset := len(c.Code) - loopStart + 2
	if offset > 0xFFFF {
		return false
	}
	c.Code = append(c.Code, byte(offset>>8), byte(offset))
	c.Lines = append(c.Lines, line, line)
	return true
}

// Disassemble renders every instruction in the chunk for debugging,
// labeled with the given name.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		offset, line = c.disassembleInstructionAt(offset)
		b.WriteString(line)
	}
	return b.String()
}

// DisassembleInstructionAt renders the single instruction at offset,
// returning the offset of the next instruction alongside it. Used by the
// VM's trace sink to print the instruction about to execute.
func (c *Chunk) DisassembleInstructionAt(offset int) (int, string) {
	return c.disassembleInstructionAt(offset)
}

func (c *Chunk) disassembleInstructionAt(offset int) (int, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := Opcode(c.Code[offset])
	switch op {
	case OpConstant, OpGetLocal, OpSetLocal, OpDefineGlobal, OpGetGlobal, OpSetGlobal:
		operand := c.Code[offset+1]
		if op == OpConstant || op == OpDefineGlobal || op == OpGetGlobal || op == OpSetGlobal {
			val, _ := c.GetConstant(operand)
			fmt.Fprintf(&b, "%-18s %4d '%s'\n", op, operand, val.String())
		} else {
			fmt.Fprintf(&b, "%-18s %4d\n", op, operand)
		}
		return offset + 2, b.String()
	case OpJumpIfFalse, OpJump, OpLoop:
		hi, lo := c.Code[offset+1], c.Code[offset+2]
		jumpOffset := int(hi)<<8 | int(lo)
		sign := 1
		if op == OpLoop {
			sign = -1
		}
		fmt.Fprintf(&b, "%-18s %4d -> %d\n", op, offset, offset+3+sign*jumpOffset)
		return offset + 3, b.String()
	default:
		fmt.Fprintf(&b, "%s\n", op)
		return offset + 1, b.String()
	}
}

// String implements fmt.Stringer, disassembling under the generic name
// "chunk". The constant pool is not listed separately.
func (c *Chunk) String() string {
	return c.Disassemble("chunk")
}
