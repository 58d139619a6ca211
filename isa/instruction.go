package isa

import (
	"fmt"
	"strings"
)

type operandKind int

const (
	operandNone operandKind = iota
	operandLiteral
	operandRegister
)

// An Operand is either a signed integer literal or a reference to a named
// register. The zero value means the operand is absent.
type Operand struct {
	kind operandKind
	lit  int
	reg  string
}

// Lit creates a literal operand.
func Lit(v int) Operand {
	return Operand{kind: operandLiteral, lit: v}
}

// Reg creates an operand that refers to a register by name.
func Reg(name string) Operand {
	return Operand{kind: operandRegister, reg: name}
}

// IsSet tells if the operand is present.
func (o Operand) IsSet() bool {
	return o.kind != operandNone
}

// Literal returns the literal value. The second return value is false when
// the operand is absent or refers to a register.
func (o Operand) Literal() (int, bool) {
	return o.lit, o.kind == operandLiteral
}

// Register returns the referenced register name. The second return value is
// false when the operand is absent or a literal.
func (o Operand) Register() (string, bool) {
	return o.reg, o.kind == operandRegister
}

func (o Operand) String() string {
	switch o.kind {
	case operandLiteral:
		return fmt.Sprintf("%d", o.lit)
	case operandRegister:
		return o.reg
	default:
		return "_"
	}
}

// An Instruction is one immutable entry of a program. Dest names the
// destination register for opcodes that write one. Address is only
// meaningful when HasAddress is true.
type Instruction struct {
	Opcode      Opcode
	Op1         Operand
	Op2         Operand
	Dest        string
	Address     int
	HasAddress  bool
	Description string
}

func (i Instruction) String() string {
	parts := []string{i.Opcode.String()}

	if i.Op1.IsSet() {
		parts = append(parts, i.Op1.String())
	}
	if i.Op2.IsSet() {
		parts = append(parts, i.Op2.String())
	}
	if i.Dest != "" {
		parts = append(parts, "->", i.Dest)
	}
	if i.HasAddress {
		parts = append(parts, fmt.Sprintf("@0x%02X", i.Address))
	}

	return strings.Join(parts, " ")
}

// Encode renders the instruction as the hex token the visualization shows:
// a one-byte opcode, followed by a two-byte address field when the address
// is set, or by two one-byte operand fields when both operands are present.
// A register operand encodes as the placeholder 00. Encoding an unknown
// opcode panics, since the opcode set is closed.
func Encode(inst Instruction) string {
	if !inst.Opcode.Valid() {
		panic(fmt.Sprintf("isa: cannot encode unknown opcode 0x%02X",
			byte(inst.Opcode)))
	}

	token := fmt.Sprintf("%02x", byte(inst.Opcode))

	switch {
	case inst.HasAddress:
		token += fmt.Sprintf("%04x", uint16(inst.Address))
	case inst.Op1.IsSet() && inst.Op2.IsSet():
		token += encodeOperand(inst.Op1)
		token += encodeOperand(inst.Op2)
	}

	return token
}

func encodeOperand(o Operand) string {
	if v, ok := o.Literal(); ok {
		return fmt.Sprintf("%02x", uint8(v))
	}

	return "00"
}
