package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrImageTooLarge       = errors.New("program image too large")
	ErrUnknownOpcode       = errors.New("unknown opcode")
	ErrUnrecoverableOpcode = errors.New("unrecoverable opcode")
	ErrStackOverflow       = errors.New("stack overflow")
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrHalted              = errors.New("machine halted, reset required")
)

// LoadError reports a program image that could not be read or placed in
// memory. Machine state is untouched when one is returned.
type LoadError struct {
	Path string // empty for in-memory images
	Size int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load program (%d bytes): %v", e.Size, e.Err)
	}
	return fmt.Sprintf("load program %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StackError is raised by a call past StackDepth or a return with an empty
// stack. It halts the machine.
type StackError struct {
	Opcode uint16
	PC     uint16
	SP     uint8
	Err    error
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%v at %s (opcode %s, sp %d)", e.Err, hex16(e.PC), hex16(e.Opcode), e.SP)
}

func (e *StackError) Unwrap() error { return e.Err }

func (emu *EMU) opCodeError(sentinel error, opcode, pc uint16) error {
	return fmt.Errorf("%w: %s at %s", sentinel, hex16(opcode), hex16(pc))
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}
