// Package isa defines the teaching instruction set: opcodes, operands,
// instruction records, and the hex encoding shown to students.
package isa

import "fmt"

// An Opcode identifies one operation of the teaching instruction set. The
// encoding byte of an opcode is its value, so the set is closed over
// 0x01..0x0B.
type Opcode byte

const (
	OpLoad  Opcode = 0x01 // load a memory cell or a literal into a register
	OpStore Opcode = 0x02 // store a register value into a memory cell
	OpAdd   Opcode = 0x03 // dest = op1 + op2
	OpSub   Opcode = 0x04 // dest = op1 - op2
	OpMul   Opcode = 0x05 // dest = op1 * op2
	OpDiv   Opcode = 0x06 // dest = floor(op1 / op2), division by zero yields 0
	OpJmp   Opcode = 0x07 // unconditional jump, reserved
	OpJz    Opcode = 0x08 // jump if zero, reserved
	OpJnz   Opcode = 0x09 // jump if not zero, reserved
	OpHalt  Opcode = 0x0A // stop execution, reserved
	OpMov   Opcode = 0x0B // dest = op1 literal
)

var opcodeNames = map[Opcode]string{
	OpLoad:  "LOAD",
	OpStore: "STORE",
	OpAdd:   "ADD",
	OpSub:   "SUB",
	OpMul:   "MUL",
	OpDiv:   "DIV",
	OpJmp:   "JMP",
	OpJz:    "JZ",
	OpJnz:   "JNZ",
	OpHalt:  "HALT",
	OpMov:   "MOV",
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// cycleCosts is the per-opcode cost table shared by both front ends. The
// stepper uses it to report cost, the game driver charges it as budget.
var cycleCosts = map[Opcode]int{
	OpLoad:  3,
	OpStore: 3,
	OpAdd:   1,
	OpSub:   1,
	OpMul:   4,
	OpDiv:   6,
	OpJmp:   2,
	OpJz:    2,
	OpJnz:   2,
	OpHalt:  1,
	OpMov:   1,
}

// String returns the mnemonic of the opcode.
func (o Opcode) String() string {
	name, ok := opcodeNames[o]
	if !ok {
		return fmt.Sprintf("Opcode(0x%02X)", byte(o))
	}

	return name
}

// Valid tells if o is one of the eleven defined opcodes.
func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

// OpcodeByName resolves a mnemonic such as "LOAD" to its opcode.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// CycleCost returns the number of cycles the opcode is charged. Unknown
// opcodes are a programming error as the opcode set is closed.
func CycleCost(o Opcode) int {
	cost, ok := cycleCosts[o]
	if !ok {
		panic(fmt.Sprintf("isa: no cycle cost for %s", o))
	}

	return cost
}
