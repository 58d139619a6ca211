package machine

import (
	"fmt"

	"github.com/sarchlab/minicpu/isa"
)

// AdditionProgram is the canonical four-instruction teaching program that
// computes 5 + 3 and stores the sum at address 0x100.
func AdditionProgram() []isa.Instruction {
	return []isa.Instruction{
		{
			Opcode:      isa.OpLoad,
			Op1:         isa.Lit(5),
			Dest:        "R1",
			Description: "load the literal 5 into R1",
		},
		{
			Opcode:      isa.OpLoad,
			Op1:         isa.Lit(3),
			Dest:        "R2",
			Description: "load the literal 3 into R2",
		},
		{
			Opcode:      isa.OpAdd,
			Op1:         isa.Reg("R1"),
			Op2:         isa.Reg("R2"),
			Dest:        "R3",
			Description: "add R1 and R2 into R3",
		},
		{
			Opcode:      isa.OpStore,
			Op1:         isa.Reg("R3"),
			Address:     0x100,
			HasAddress:  true,
			Description: "store R3 at address 0x100",
		},
	}
}

// CacheThrashProgram loads from more distinct addresses than L1 has lines,
// so students can watch eviction happen.
func CacheThrashProgram(l1Lines int) []isa.Instruction {
	program := make([]isa.Instruction, 0, l1Lines+2)

	for i := 0; i <= l1Lines+1; i++ {
		program = append(program, isa.Instruction{
			Opcode:      isa.OpLoad,
			Dest:        "R1",
			Address:     i * 4,
			HasAddress:  true,
			Description: fmt.Sprintf("load address 0x%02X into R1", i*4),
		})
	}

	return program
}
