package cpu

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

const (
	MemorySize    = 4096
	ProgramStart  = 0x200
	MaxProgramLen = MemorySize - ProgramStart

	DisplayWidth  = 64
	DisplayHeight = 32
	DisplaySize   = DisplayWidth * DisplayHeight

	StackDepth = 16
	flag       = 0xF

	// default colours, packed r<<24 | g<<16 | b<<8 | a
	DefaultOnColor  uint32 = 0xFFFFFFFF
	DefaultOffColor uint32 = 0x000000FF
)

var FontSet = [80]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// TimerMode selects who decays the delay and sound timers.
type TimerMode int

const (
	// TimersCoupled decays both timers at the end of every Step.
	TimersCoupled TimerMode = iota
	// TimersDecoupled leaves decay to the host, which calls TickTimers at 60Hz.
	TimersDecoupled
)

// Status is the outcome of a single Step.
type Status int

const (
	Continue Status = iota
	Halt
)

func (s Status) String() string {
	if s == Halt {
		return "halt"
	}
	return "continue"
}

// Options tune an EMU. The zero value is usable.
type Options struct {
	Timers   TimerMode
	OnColor  uint32
	OffColor uint32

	// Rand feeds CXNN. nil seeds a source from the clock.
	Rand *rand.Rand

	// Beep is called when the sound timer decays onto 1.
	Beep func()

	// Diagnostic receives non-fatal decode failures (ErrUnknownOpcode).
	// nil logs them.
	Diagnostic func(error)
}

// Frame is an owned copy of the display, row-major, 64 cells wide.
type Frame [DisplaySize]uint32

// At returns the colour of the cell at (x, y).
func (f *Frame) At(x, y int) uint32 {
	return f[y*DisplayWidth+x]
}

// State is a copy of the register file taken between steps.
type State struct {
	V          [16]uint8
	I          uint16
	PC         uint16
	SP         uint8
	Stack      [StackDepth]uint16
	DelayTimer uint8
	SoundTimer uint8
	Keys       uint16
	Halted     bool
}

// EMU is one CHIP-8 machine. It is not safe for concurrent use; the owner
// must serialize Step with every other call.
type EMU struct {
	opcode     uint16
	memory     [MemorySize]uint8
	V          [16]uint8
	I          uint16 //address register
	pc         uint16
	display    Frame
	delayTimer uint8 //counts down at 60Hz
	soundTimer uint8 //same as above
	stack      [StackDepth]uint16
	sp         uint8
	keyState   uint16 //bit i set while key i is held
	drawFlag   bool
	halted     bool
	cycles     uint64

	opts Options
	rand *rand.Rand
}

// NewEMU returns a reset machine with no program loaded.
func NewEMU(opts Options) *EMU {
	// the display needs two distinct values
	if opts.OnColor == opts.OffColor {
		opts.OnColor = DefaultOnColor
		opts.OffColor = DefaultOffColor
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	emu := &EMU{opts: opts, rand: rnd}
	emu.Reset()
	return emu
}

// Reset zeroes registers, stack, timers and display, reloads the font and
// points pc at the program start. Program memory is left alone.
func (emu *EMU) Reset() {
	emu.opcode = 0
	emu.V = [16]uint8{}
	emu.I = 0
	emu.pc = ProgramStart
	emu.stack = [StackDepth]uint16{}
	emu.sp = 0
	emu.delayTimer = 0
	emu.soundTimer = 0
	emu.keyState = 0
	emu.halted = false
	emu.cycles = 0
	emu.clearDisplay()
	emu.loadFont()
}

// ResetMemory clears all 4096 bytes, program included, then resets.
func (emu *EMU) ResetMemory() {
	emu.memory = [MemorySize]uint8{}
	emu.Reset()
}

func (emu *EMU) loadFont() {
	copy(emu.memory[:len(FontSet)], FontSet[:])
}

func (emu *EMU) clearDisplay() {
	for i := range emu.display {
		emu.display[i] = emu.opts.OffColor
	}
	emu.drawFlag = true
}

// Step runs one fetch-decode-execute cycle, then decays the timers when
// they are coupled to the instruction rate.
func (emu *EMU) Step() (Status, error) {
	if emu.halted {
		return Halt, ErrHalted
	}

	pc := emu.pc
	emu.opcode = uint16(emu.read(pc))<<8 | uint16(emu.read(pc+1))
	emu.pc += 2

	instr := Decode(emu.opcode)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("exec", "pc", hex16(pc), "opcode", hex16(emu.opcode), "instr", instr.String())
	}

	if err := emu.execute(instr, pc); err != nil {
		emu.halted = true
		slog.Error("machine halted", "pc", hex16(pc), "error", err)
		return Halt, err
	}
	emu.cycles++

	if emu.opts.Timers == TimersCoupled {
		emu.TickTimers()
	}
	return Continue, nil
}

// read masks addr into the 12-bit address space.
func (emu *EMU) read(addr uint16) uint8 {
	return emu.memory[addr&0x0FFF]
}

func (emu *EMU) write(addr uint16, v uint8) {
	emu.memory[addr&0x0FFF] = v
}

// Frame exports a copy of the display.
func (emu *EMU) Frame() Frame {
	return emu.display
}

// Colors returns the on and off cell values used by this machine.
func (emu *EMU) Colors() (on, off uint32) {
	return emu.opts.OnColor, emu.opts.OffColor
}

func (emu *EMU) DrawFlag() bool { return emu.drawFlag }

func (emu *EMU) ClearDrawFlag() { emu.drawFlag = false }

// SetKeys replaces the keypad state; bit i is logical key i.
func (emu *EMU) SetKeys(mask uint16) { emu.keyState = mask }

func (emu *EMU) Keys() uint16 { return emu.keyState }

func (emu *EMU) Halted() bool { return emu.halted }

// Cycles counts the instructions executed since the last reset.
func (emu *EMU) Cycles() uint64 { return emu.cycles }

// Memory returns a copy of the address space.
func (emu *EMU) Memory() [MemorySize]uint8 {
	return emu.memory
}

// State snapshots the register file, stack, timers and keypad.
func (emu *EMU) State() State {
	return State{
		V:          emu.V,
		I:          emu.I,
		PC:         emu.pc,
		SP:         emu.sp,
		Stack:      emu.stack,
		DelayTimer: emu.delayTimer,
		SoundTimer: emu.soundTimer,
		Keys:       emu.keyState,
		Halted:     emu.halted,
	}
}
