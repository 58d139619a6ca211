package isa

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders an operand as a small tagged object so that machine
// snapshots serialize without exposing the internal representation.
func (o Operand) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case operandNone:
		return []byte("null"), nil
	case operandLiteral:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value int    `json:"value"`
		}{Kind: "literal", Value: o.lit})
	case operandRegister:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		}{Kind: "register", Name: o.reg})
	default:
		return nil, fmt.Errorf("operand has unknown kind %d", o.kind)
	}
}

// MarshalJSON renders an opcode by its mnemonic.
func (o Opcode) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}
