package cpu

import (
	"log/slog"
	"math/bits"
)

type opFunc func(emu *EMU, in Instruction) error

// handlers is indexed by Op. pc has already moved past the instruction
// when a handler runs.
var handlers = [numOps]opFunc{
	Op00E0: (*EMU).opCLS,
	Op00EE: (*EMU).opRET,
	Op1NNN: (*EMU).opJP,
	Op2NNN: (*EMU).opCALL,
	Op3XNN: (*EMU).opSEImm,
	Op4XNN: (*EMU).opSNEImm,
	Op5XY0: (*EMU).opSEReg,
	Op6XNN: (*EMU).opLDImm,
	Op7XNN: (*EMU).opADDImm,
	Op8XY0: (*EMU).opLDReg,
	Op8XY1: (*EMU).opOR,
	Op8XY2: (*EMU).opAND,
	Op8XY3: (*EMU).opXOR,
	Op8XY4: (*EMU).opADDReg,
	Op8XY5: (*EMU).opSUB,
	Op8XY6: (*EMU).opSHR,
	Op8XY7: (*EMU).opSUBN,
	Op8XYE: (*EMU).opSHL,
	Op9XY0: (*EMU).opSNEReg,
	OpANNN: (*EMU).opLDI,
	OpBNNN: (*EMU).opJPV0,
	OpCXNN: (*EMU).opRND,
	OpDXYN: (*EMU).opDRW,
	OpEX9E: (*EMU).opSKP,
	OpEXA1: (*EMU).opSKNP,
	OpFX07: (*EMU).opGetDelay,
	OpFX0A: (*EMU).opWaitKey,
	OpFX15: (*EMU).opSetDelay,
	OpFX18: (*EMU).opSetSound,
	OpFX1E: (*EMU).opADDI,
	OpFX29: (*EMU).opFont,
	OpFX33: (*EMU).opBCD,
	OpFX55: (*EMU).opStore,
	OpFX65: (*EMU).opLoad,
}

// execute returns an error only for faults that halt the machine.
func (emu *EMU) execute(in Instruction, pc uint16) error {
	switch in.Op {
	case OpInvalid:
		return emu.opCodeError(ErrUnrecoverableOpcode, in.Word, pc)
	case OpUnknown:
		emu.report(emu.opCodeError(ErrUnknownOpcode, in.Word, pc))
		return nil
	}
	h := handlers[in.Op]
	if h == nil {
		return emu.opCodeError(ErrUnrecoverableOpcode, in.Word, pc)
	}
	return h(emu, in)
}

func (emu *EMU) report(err error) {
	if emu.opts.Diagnostic != nil {
		emu.opts.Diagnostic(err)
		return
	}
	slog.Warn("unknown opcode", "error", err)
}

func (emu *EMU) skipIf(cond bool) {
	if cond {
		emu.pc += 2
	}
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (emu *EMU) opCLS(Instruction) error {
	emu.clearDisplay()
	return nil
}

func (emu *EMU) opRET(in Instruction) error {
	if emu.sp == 0 {
		return &StackError{Opcode: in.Word, PC: emu.pc - 2, SP: emu.sp, Err: ErrStackUnderflow}
	}
	emu.sp--
	emu.pc = emu.stack[emu.sp]
	return nil
}

func (emu *EMU) opJP(in Instruction) error {
	emu.pc = in.NNN()
	return nil
}

func (emu *EMU) opCALL(in Instruction) error {
	if emu.sp >= StackDepth {
		return &StackError{Opcode: in.Word, PC: emu.pc - 2, SP: emu.sp, Err: ErrStackOverflow}
	}
	emu.stack[emu.sp] = emu.pc
	emu.sp++
	emu.pc = in.NNN()
	return nil
}

func (emu *EMU) opSEImm(in Instruction) error {
	emu.skipIf(emu.V[in.X()] == in.NN())
	return nil
}

func (emu *EMU) opSNEImm(in Instruction) error {
	emu.skipIf(emu.V[in.X()] != in.NN())
	return nil
}

func (emu *EMU) opSEReg(in Instruction) error {
	emu.skipIf(emu.V[in.X()] == emu.V[in.Y()])
	return nil
}

func (emu *EMU) opSNEReg(in Instruction) error {
	emu.skipIf(emu.V[in.X()] != emu.V[in.Y()])
	return nil
}

func (emu *EMU) opLDImm(in Instruction) error {
	emu.V[in.X()] = in.NN()
	return nil
}

func (emu *EMU) opADDImm(in Instruction) error {
	emu.V[in.X()] += in.NN()
	return nil
}

func (emu *EMU) opLDReg(in Instruction) error {
	emu.V[in.X()] = emu.V[in.Y()]
	return nil
}

func (emu *EMU) opOR(in Instruction) error {
	emu.V[in.X()] |= emu.V[in.Y()]
	return nil
}

func (emu *EMU) opAND(in Instruction) error {
	emu.V[in.X()] &= emu.V[in.Y()]
	return nil
}

func (emu *EMU) opXOR(in Instruction) error {
	emu.V[in.X()] ^= emu.V[in.Y()]
	return nil
}

// The ALU ops below write VF last, so with X == F the flag wins.

func (emu *EMU) opADDReg(in Instruction) error {
	sum := uint16(emu.V[in.X()]) + uint16(emu.V[in.Y()])
	emu.V[in.X()] = uint8(sum)
	emu.V[flag] = boolToFlag(sum > 0xFF)
	return nil
}

func (emu *EMU) opSUB(in Instruction) error {
	vx, vy := emu.V[in.X()], emu.V[in.Y()]
	emu.V[in.X()] = vx - vy
	emu.V[flag] = boolToFlag(vx >= vy)
	return nil
}

func (emu *EMU) opSUBN(in Instruction) error {
	vx, vy := emu.V[in.X()], emu.V[in.Y()]
	emu.V[in.X()] = vy - vx
	emu.V[flag] = boolToFlag(vy >= vx)
	return nil
}

func (emu *EMU) opSHR(in Instruction) error {
	vx := emu.V[in.X()]
	emu.V[in.X()] = vx >> 1
	emu.V[flag] = vx & 0x01
	return nil
}

func (emu *EMU) opSHL(in Instruction) error {
	vx := emu.V[in.X()]
	emu.V[in.X()] = vx << 1
	emu.V[flag] = vx >> 7
	return nil
}

func (emu *EMU) opLDI(in Instruction) error {
	emu.I = in.NNN()
	return nil
}

func (emu *EMU) opJPV0(in Instruction) error {
	emu.pc = in.NNN() + uint16(emu.V[0])
	return nil
}

func (emu *EMU) opRND(in Instruction) error {
	emu.V[in.X()] = uint8(emu.rand.Intn(256)) & in.NN()
	return nil
}

// opDRW XORs an 8xN sprite from memory[I] onto the display. Columns that
// run off the right edge wrap to the start of the same row; rows that run
// off the bottom wrap to the top.
func (emu *EMU) opDRW(in Instruction) error {
	x0 := int(emu.V[in.X()])
	y0 := int(emu.V[in.Y()])
	on, off := emu.opts.OnColor, emu.opts.OffColor

	var collision bool
	for row := 0; row < int(in.N()); row++ {
		sprite := emu.read(emu.I + uint16(row))
		y := (y0 + row) % DisplayHeight
		for col := 0; col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			idx := y*DisplayWidth + (x0+col)%DisplayWidth
			if emu.display[idx] == on {
				emu.display[idx] = off
				collision = true
			} else {
				emu.display[idx] = on
			}
		}
	}
	emu.V[flag] = boolToFlag(collision)
	emu.drawFlag = true
	return nil
}

func (emu *EMU) keyHeld(key uint8) bool {
	return emu.keyState&(1<<(key&0xF)) != 0
}

func (emu *EMU) opSKP(in Instruction) error {
	emu.skipIf(emu.keyHeld(emu.V[in.X()]))
	return nil
}

func (emu *EMU) opSKNP(in Instruction) error {
	emu.skipIf(!emu.keyHeld(emu.V[in.X()]))
	return nil
}

func (emu *EMU) opGetDelay(in Instruction) error {
	emu.V[in.X()] = emu.delayTimer
	return nil
}

// opWaitKey re-executes itself until a key is held, then stores the lowest
// held key.
func (emu *EMU) opWaitKey(in Instruction) error {
	if emu.keyState == 0 {
		emu.pc -= 2
		return nil
	}
	emu.V[in.X()] = uint8(bits.TrailingZeros16(emu.keyState))
	return nil
}

func (emu *EMU) opSetDelay(in Instruction) error {
	emu.delayTimer = emu.V[in.X()]
	return nil
}

func (emu *EMU) opSetSound(in Instruction) error {
	emu.soundTimer = emu.V[in.X()]
	return nil
}

// opADDI sets VF when I+Vx leaves the 12-bit range. Some programs rely on it.
func (emu *EMU) opADDI(in Instruction) error {
	sum := uint32(emu.I) + uint32(emu.V[in.X()])
	emu.I = uint16(sum)
	emu.V[flag] = boolToFlag(sum > 0x0FFF)
	return nil
}

func (emu *EMU) opFont(in Instruction) error {
	emu.I = uint16(emu.V[in.X()]) * 5
	return nil
}

func (emu *EMU) opBCD(in Instruction) error {
	v := emu.V[in.X()]
	emu.write(emu.I, v/100)
	emu.write(emu.I+1, (v/10)%10)
	emu.write(emu.I+2, v%10)
	return nil
}

func (emu *EMU) opStore(in Instruction) error {
	x := uint16(in.X())
	for i := uint16(0); i <= x; i++ {
		emu.write(emu.I+i, emu.V[i])
	}
	emu.I += x + 1
	return nil
}

func (emu *EMU) opLoad(in Instruction) error {
	x := uint16(in.X())
	for i := uint16(0); i <= x; i++ {
		emu.V[i] = emu.read(emu.I + i)
	}
	emu.I += x + 1
	return nil
}
