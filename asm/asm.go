// Package asm parses the assembly text format of the teaching CPU into
// instruction lists. The format mirrors how the visualization prints
// instructions:
//
//	; compute 5 + 3
//	LOAD 5 -> R1
//	LOAD 3 -> R2
//	ADD R1 R2 -> R3
//	STORE R3 @0x100
//
// Numbers are decimal or 0x-prefixed hex. A trailing comment on an
// instruction line becomes its description.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/minicpu/isa"
)

// Parse reads a whole program.
func Parse(r io.Reader) ([]isa.Instruction, error) {
	var program []isa.Instruction

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		inst, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if ok {
			program = append(program, inst)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return program, nil
}

// ParseLine parses a single instruction line. Blank lines and pure comment
// lines are rejected here; Parse skips them instead.
func ParseLine(line string) (isa.Instruction, error) {
	inst, ok, err := parseLine(line)
	if err != nil {
		return isa.Instruction{}, err
	}

	if !ok {
		return isa.Instruction{}, fmt.Errorf("no instruction on line %q", line)
	}

	return inst, nil
}

func parseLine(line string) (inst isa.Instruction, ok bool, err error) {
	line, description := splitComment(line)

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return isa.Instruction{}, false, nil
	}

	opcode, found := isa.OpcodeByName(strings.ToUpper(fields[0]))
	if !found {
		return isa.Instruction{}, false,
			fmt.Errorf("unknown mnemonic %q", fields[0])
	}

	inst = isa.Instruction{Opcode: opcode, Description: description}

	operands := 0
	rest := fields[1:]
	for i := 0; i < len(rest); i++ {
		token := rest[i]

		switch {
		case token == "->":
			if i+1 >= len(rest) {
				return isa.Instruction{}, false,
					fmt.Errorf("-> needs a destination register")
			}

			inst.Dest = rest[i+1]
			i++
		case strings.HasPrefix(token, "@"):
			addr, err := parseNumber(token[1:])
			if err != nil {
				return isa.Instruction{}, false,
					fmt.Errorf("bad address %q: %w", token, err)
			}

			inst.Address = addr
			inst.HasAddress = true
		default:
			operand, err := parseOperand(token)
			if err != nil {
				return isa.Instruction{}, false, err
			}

			switch operands {
			case 0:
				inst.Op1 = operand
			case 1:
				inst.Op2 = operand
			default:
				return isa.Instruction{}, false,
					fmt.Errorf("too many operands at %q", token)
			}
			operands++
		}
	}

	return inst, true, nil
}

func parseOperand(token string) (isa.Operand, error) {
	if isNumeric(token) {
		v, err := parseNumber(token)
		if err != nil {
			return isa.Operand{}, fmt.Errorf("bad literal %q: %w", token, err)
		}

		return isa.Lit(v), nil
	}

	return isa.Reg(token), nil
}

func parseNumber(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	return int(v), err
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}

	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func splitComment(line string) (code, comment string) {
	idx := strings.Index(line, ";")
	if idx < 0 {
		return line, ""
	}

	return line[:idx], strings.TrimSpace(line[idx+1:])
}
