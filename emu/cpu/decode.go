package cpu

import "fmt"

// Op identifies one instruction encoding.
type Op uint8

const (
	// OpInvalid marks a word whose top nibble has no decoder.
	OpInvalid Op = iota
	// OpUnknown marks a word in a known group with an unknown variant.
	OpUnknown

	Op00E0 // CLS
	Op00EE // RET
	Op1NNN // JP addr
	Op2NNN // CALL addr
	Op3XNN // SE Vx, byte
	Op4XNN // SNE Vx, byte
	Op5XY0 // SE Vx, Vy
	Op6XNN // LD Vx, byte
	Op7XNN // ADD Vx, byte
	Op8XY0 // LD Vx, Vy
	Op8XY1 // OR Vx, Vy
	Op8XY2 // AND Vx, Vy
	Op8XY3 // XOR Vx, Vy
	Op8XY4 // ADD Vx, Vy
	Op8XY5 // SUB Vx, Vy
	Op8XY6 // SHR Vx
	Op8XY7 // SUBN Vx, Vy
	Op8XYE // SHL Vx
	Op9XY0 // SNE Vx, Vy
	OpANNN // LD I, addr
	OpBNNN // JP V0, addr
	OpCXNN // RND Vx, byte
	OpDXYN // DRW Vx, Vy, n
	OpEX9E // SKP Vx
	OpEXA1 // SKNP Vx
	OpFX07 // LD Vx, DT
	OpFX0A // LD Vx, K
	OpFX15 // LD DT, Vx
	OpFX18 // LD ST, Vx
	OpFX1E // ADD I, Vx
	OpFX29 // LD F, Vx
	OpFX33 // LD B, Vx
	OpFX55 // LD [I], Vx
	OpFX65 // LD Vx, [I]

	numOps
)

var opNames = [numOps]string{
	OpInvalid: "INVALID",
	OpUnknown: "UNKNOWN",
	Op00E0:    "CLS",
	Op00EE:    "RET",
	Op1NNN:    "JP",
	Op2NNN:    "CALL",
	Op3XNN:    "SE",
	Op4XNN:    "SNE",
	Op5XY0:    "SE",
	Op6XNN:    "LD",
	Op7XNN:    "ADD",
	Op8XY0:    "LD",
	Op8XY1:    "OR",
	Op8XY2:    "AND",
	Op8XY3:    "XOR",
	Op8XY4:    "ADD",
	Op8XY5:    "SUB",
	Op8XY6:    "SHR",
	Op8XY7:    "SUBN",
	Op8XYE:    "SHL",
	Op9XY0:    "SNE",
	OpANNN:    "LD",
	OpBNNN:    "JP",
	OpCXNN:    "RND",
	OpDXYN:    "DRW",
	OpEX9E:    "SKP",
	OpEXA1:    "SKNP",
	OpFX07:    "LD",
	OpFX0A:    "LD",
	OpFX15:    "LD",
	OpFX18:    "LD",
	OpFX1E:    "ADD",
	OpFX29:    "LD",
	OpFX33:    "LD",
	OpFX55:    "LD",
	OpFX65:    "LD",
}

// Mnemonic returns the assembler name of the operation.
func (op Op) Mnemonic() string {
	if op >= numOps {
		return opNames[OpInvalid]
	}
	return opNames[op]
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Word uint16
	Op   Op
}

func (in Instruction) X() uint8    { return uint8(in.Word>>8) & 0xF }
func (in Instruction) Y() uint8    { return uint8(in.Word>>4) & 0xF }
func (in Instruction) N() uint8    { return uint8(in.Word) & 0xF }
func (in Instruction) NN() uint8   { return uint8(in.Word) }
func (in Instruction) NNN() uint16 { return in.Word & 0x0FFF }

// String renders the instruction in assembler syntax, e.g. "LD V1, 0x2A".
func (in Instruction) String() string {
	m := in.Op.Mnemonic()
	x, y := in.X(), in.Y()

	switch in.Op {
	case Op00E0, Op00EE:
		return m
	case OpInvalid, OpUnknown:
		return fmt.Sprintf("%s 0x%04X", m, in.Word)
	case Op1NNN, Op2NNN:
		return fmt.Sprintf("%s 0x%03X", m, in.NNN())
	case Op3XNN, Op4XNN, Op6XNN, Op7XNN, OpCXNN:
		return fmt.Sprintf("%s V%X, 0x%02X", m, x, in.NN())
	case Op5XY0, Op8XY0, Op8XY1, Op8XY2, Op8XY3, Op8XY4, Op8XY5, Op8XY7, Op9XY0:
		return fmt.Sprintf("%s V%X, V%X", m, x, y)
	case Op8XY6, Op8XYE, OpEX9E, OpEXA1:
		return fmt.Sprintf("%s V%X", m, x)
	case OpANNN:
		return fmt.Sprintf("%s I, 0x%03X", m, in.NNN())
	case OpBNNN:
		return fmt.Sprintf("%s V0, 0x%03X", m, in.NNN())
	case OpDXYN:
		return fmt.Sprintf("%s V%X, V%X, %d", m, x, y, in.N())
	case OpFX07:
		return fmt.Sprintf("%s V%X, DT", m, x)
	case OpFX0A:
		return fmt.Sprintf("%s V%X, K", m, x)
	case OpFX15:
		return fmt.Sprintf("%s DT, V%X", m, x)
	case OpFX18:
		return fmt.Sprintf("%s ST, V%X", m, x)
	case OpFX1E:
		return fmt.Sprintf("%s I, V%X", m, x)
	case OpFX29:
		return fmt.Sprintf("%s F, V%X", m, x)
	case OpFX33:
		return fmt.Sprintf("%s B, V%X", m, x)
	case OpFX55:
		return fmt.Sprintf("%s [I], V%X", m, x)
	case OpFX65:
		return fmt.Sprintf("%s V%X, [I]", m, x)
	}
	return m
}

// groups decodes by the top nibble. Groups 0x0, 0x8, 0xE and 0xF look at
// the low nibble or low byte as well.
var groups = [16]func(word uint16) Op{
	0x0: decodeSystem,
	0x1: fixed(Op1NNN),
	0x2: fixed(Op2NNN),
	0x3: fixed(Op3XNN),
	0x4: fixed(Op4XNN),
	0x5: fixed(Op5XY0),
	0x6: fixed(Op6XNN),
	0x7: fixed(Op7XNN),
	0x8: decodeALU,
	0x9: fixed(Op9XY0),
	0xA: fixed(OpANNN),
	0xB: fixed(OpBNNN),
	0xC: fixed(OpCXNN),
	0xD: fixed(OpDXYN),
	0xE: decodeKeys,
	0xF: decodeMisc,
}

var aluOps = [16]Op{
	0x0: Op8XY0, 0x1: Op8XY1, 0x2: Op8XY2, 0x3: Op8XY3,
	0x4: Op8XY4, 0x5: Op8XY5, 0x6: Op8XY6, 0x7: Op8XY7,
	0xE: Op8XYE,
}

var keyOps = map[uint8]Op{
	0x9E: OpEX9E,
	0xA1: OpEXA1,
}

var miscOps = map[uint8]Op{
	0x07: OpFX07,
	0x0A: OpFX0A,
	0x15: OpFX15,
	0x18: OpFX18,
	0x1E: OpFX1E,
	0x29: OpFX29,
	0x33: OpFX33,
	0x55: OpFX55,
	0x65: OpFX65,
}

func fixed(op Op) func(uint16) Op {
	return func(uint16) Op { return op }
}

func decodeSystem(word uint16) Op {
	switch word {
	case 0x00E0:
		return Op00E0
	case 0x00EE:
		return Op00EE
	}
	// 0NNN machine-code calls are not supported
	return OpUnknown
}

func decodeALU(word uint16) Op {
	if op := aluOps[word&0xF]; op != OpInvalid {
		return op
	}
	return OpUnknown
}

func decodeKeys(word uint16) Op {
	if op, ok := keyOps[uint8(word)]; ok {
		return op
	}
	return OpUnknown
}

func decodeMisc(word uint16) Op {
	if op, ok := miscOps[uint8(word)]; ok {
		return op
	}
	return OpUnknown
}

// Decode maps an instruction word onto its operation.
func Decode(word uint16) Instruction {
	in := Instruction{Word: word, Op: OpInvalid}
	if dec := groups[word>>12]; dec != nil {
		in.Op = dec(word)
	}
	return in
}
