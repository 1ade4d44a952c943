package cpu

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOp_loadThenAddWraps(t *testing.T) {
	testCases := []struct {
		nn, k uint8
	}{
		{0x10, 0x20},
		{0xFF, 0x01},
		{0x80, 0x80},
		{0xF0, 0xFF},
	}
	for _, tc := range testCases {
		emu := newTestEMU(t, 0x6300|uint16(tc.nn), 0x7300|uint16(tc.k))
		step(t, emu, 2)
		assert.Equal(t, tc.nn+tc.k, emu.V[3])
		// ADD Vx, byte never touches the flag
		assert.Equal(t, uint8(0), emu.V[0xF])
	}
}

func TestOp_alu(t *testing.T) {
	testCases := []struct {
		desc   string
		op     uint16
		vx, vy uint8
		want   uint8
		vf     uint8
	}{
		{desc: "LD", op: 0x8120, vx: 0x01, vy: 0x99, want: 0x99},
		{desc: "OR", op: 0x8121, vx: 0xF0, vy: 0x0F, want: 0xFF},
		{desc: "AND", op: 0x8122, vx: 0xF3, vy: 0x3F, want: 0x33},
		{desc: "XOR", op: 0x8123, vx: 0xFF, vy: 0x0F, want: 0xF0},
		{desc: "ADD no carry", op: 0x8124, vx: 0x10, vy: 0xEF, want: 0xFF, vf: 0},
		{desc: "ADD carry", op: 0x8124, vx: 0x10, vy: 0xF0, want: 0x00, vf: 1},
		{desc: "ADD carry wraps", op: 0x8124, vx: 0xFF, vy: 0xFF, want: 0xFE, vf: 1},
		{desc: "SUB no borrow", op: 0x8125, vx: 0x30, vy: 0x10, want: 0x20, vf: 1},
		{desc: "SUB equal is no borrow", op: 0x8125, vx: 0x30, vy: 0x30, want: 0x00, vf: 1},
		{desc: "SUB borrow", op: 0x8125, vx: 0x10, vy: 0x30, want: 0xE0, vf: 0},
		{desc: "SHR odd", op: 0x8126, vx: 0x05, vy: 0xFF, want: 0x02, vf: 1},
		{desc: "SHR even", op: 0x8126, vx: 0x04, vy: 0xFF, want: 0x02, vf: 0},
		{desc: "SUBN no borrow", op: 0x8127, vx: 0x10, vy: 0x30, want: 0x20, vf: 1},
		{desc: "SUBN borrow", op: 0x8127, vx: 0x30, vy: 0x10, want: 0xE0, vf: 0},
		{desc: "SHL high bit", op: 0x812E, vx: 0x81, vy: 0x00, want: 0x02, vf: 1},
		{desc: "SHL low bits", op: 0x812E, vx: 0x41, vy: 0x00, want: 0x82, vf: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			emu := newTestEMU(t, tc.op)
			emu.V[1] = tc.vx
			emu.V[2] = tc.vy
			emu.V[0xF] = 0x55

			step(t, emu, 1)

			assert.Equal(t, tc.want, emu.V[1])
			if tc.op&0xF >= 4 {
				assert.Equal(t, tc.vf, emu.V[0xF])
			} else {
				assert.Equal(t, uint8(0x55), emu.V[0xF])
			}
		})
	}
}

func TestOp_flagWinsOverResultInVF(t *testing.T) {
	emu := newTestEMU(t, 0x8F14)
	emu.V[0xF] = 0x10
	emu.V[1] = 0x02
	step(t, emu, 1)
	assert.Equal(t, uint8(0), emu.V[0xF])
}

func TestOp_skips(t *testing.T) {
	testCases := []struct {
		desc   string
		op     uint16
		vx, vy uint8
		skip   bool
	}{
		{desc: "SE imm equal", op: 0x3142, vx: 0x42, skip: true},
		{desc: "SE imm differ", op: 0x3142, vx: 0x41},
		{desc: "SNE imm equal", op: 0x4142, vx: 0x42},
		{desc: "SNE imm differ", op: 0x4142, vx: 0x41, skip: true},
		{desc: "SE reg equal", op: 0x5120, vx: 7, vy: 7, skip: true},
		{desc: "SE reg differ", op: 0x5120, vx: 7, vy: 8},
		{desc: "SNE reg equal", op: 0x9120, vx: 7, vy: 7},
		{desc: "SNE reg differ", op: 0x9120, vx: 7, vy: 8, skip: true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			emu := newTestEMU(t, tc.op)
			emu.V[1] = tc.vx
			emu.V[2] = tc.vy
			step(t, emu, 1)

			want := uint16(0x202)
			if tc.skip {
				want = 0x204
			}
			assert.Equal(t, want, emu.State().PC)
		})
	}
}

func TestOp_jumps(t *testing.T) {
	t.Run("JP", func(t *testing.T) {
		emu := newTestEMU(t, 0x1ABC)
		step(t, emu, 1)
		assert.Equal(t, uint16(0xABC), emu.State().PC)
	})

	t.Run("JP V0", func(t *testing.T) {
		emu := newTestEMU(t, 0xB300)
		emu.V[0] = 0x22
		step(t, emu, 1)
		assert.Equal(t, uint16(0x322), emu.State().PC)
	})
}

func TestOp_callReturnRoundTrip(t *testing.T) {
	// 0x200 CALL 0x206, 0x202 LD V0 1, 0x204 JP 0x204, 0x206 RET
	emu := newTestEMU(t, 0x2206, 0x6001, 0x1204, 0x00EE)

	step(t, emu, 1)
	s := emu.State()
	assert.Equal(t, uint16(0x206), s.PC)
	assert.Equal(t, uint8(1), s.SP)
	assert.Equal(t, uint16(0x202), s.Stack[0])

	step(t, emu, 1)
	s = emu.State()
	assert.Equal(t, uint16(0x202), s.PC)
	assert.Equal(t, uint8(0), s.SP)
}

func TestOp_stackOverflow(t *testing.T) {
	// 0x200 CALL 0x200 recurses forever
	emu := newTestEMU(t, 0x2200)
	step(t, emu, StackDepth)

	status, err := emu.Step()
	assert.Equal(t, Halt, status)

	var se *StackError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, uint8(StackDepth), se.SP)
	assert.Equal(t, uint16(0x200), se.PC)
}

func TestOp_index(t *testing.T) {
	t.Run("LD I", func(t *testing.T) {
		emu := newTestEMU(t, 0xA2F0)
		step(t, emu, 1)
		assert.Equal(t, uint16(0x2F0), emu.I)
	})

	t.Run("ADD I in range", func(t *testing.T) {
		emu := newTestEMU(t, 0xAFF0, 0xF11E)
		emu.V[1] = 0x0F
		emu.V[0xF] = 1
		step(t, emu, 2)
		assert.Equal(t, uint16(0xFFF), emu.I)
		assert.Equal(t, uint8(0), emu.V[0xF])
	})

	t.Run("ADD I overflows range", func(t *testing.T) {
		emu := newTestEMU(t, 0xAFF0, 0xF11E)
		emu.V[1] = 0x10
		step(t, emu, 2)
		assert.Equal(t, uint16(0x1000), emu.I)
		assert.Equal(t, uint8(1), emu.V[0xF])
	})

	t.Run("font glyph", func(t *testing.T) {
		emu := newTestEMU(t, 0xF529)
		emu.V[5] = 0xB
		step(t, emu, 1)
		assert.Equal(t, uint16(0xB*5), emu.I)
		mem := emu.Memory()
		assert.Equal(t, FontSet[55:60], mem[emu.I:emu.I+5])
	})
}

func TestOp_random(t *testing.T) {
	emu := newTestEMU(t, 0xC10F, 0xC200)
	step(t, emu, 2)

	want := uint8(rand.New(rand.NewSource(1)).Intn(256)) & 0x0F
	assert.Equal(t, want, emu.V[1])
	assert.Equal(t, uint8(0), emu.V[2])
}

func TestOp_bcd(t *testing.T) {
	emu := newTestEMU(t, 0xA300, 0xF733)
	emu.V[7] = 254
	step(t, emu, 2)

	mem := emu.Memory()
	assert.Equal(t, []byte{2, 5, 4}, mem[0x300:0x303])
	assert.Equal(t, uint16(0x300), emu.I)
}

func TestOp_storeLoadRegisters(t *testing.T) {
	emu := newTestEMU(t, 0xA400, 0xF355, 0xA400, 0xF265)
	emu.V = [16]uint8{1, 2, 3, 4, 5}

	step(t, emu, 2)
	mem := emu.Memory()
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, mem[0x400:0x405])
	assert.Equal(t, uint16(0x404), emu.I)

	emu.V = [16]uint8{}
	step(t, emu, 2)
	assert.Equal(t, [16]uint8{1, 2, 3}, emu.V)
	assert.Equal(t, uint16(0x403), emu.I)
}

func TestOp_timerRegisters(t *testing.T) {
	emu := NewEMU(Options{Timers: TimersDecoupled})
	require.NoError(t, emu.LoadProgram([]byte{
		0x60, 0x30, // LD V0, 0x30
		0xF0, 0x15, // LD DT, V0
		0xF0, 0x18, // LD ST, V0
		0xF1, 0x07, // LD V1, DT
	}))
	for i := 0; i < 3; i++ {
		_, err := emu.Step()
		require.NoError(t, err)
	}
	emu.TickTimers()
	_, err := emu.Step()
	require.NoError(t, err)

	s := emu.State()
	assert.Equal(t, uint8(0x2F), s.V[1])
	assert.Equal(t, uint8(0x2F), s.SoundTimer)
}

func TestOp_keys(t *testing.T) {
	testCases := []struct {
		desc string
		op   uint16
		keys uint16
		skip bool
	}{
		{desc: "SKP held", op: 0xE19E, keys: 1 << 0xA, skip: true},
		{desc: "SKP not held", op: 0xE19E, keys: 1 << 0xB},
		{desc: "SKNP held", op: 0xE1A1, keys: 1 << 0xA},
		{desc: "SKNP not held", op: 0xE1A1, keys: 0, skip: true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			emu := newTestEMU(t, tc.op)
			emu.V[1] = 0xA
			emu.SetKeys(tc.keys)
			step(t, emu, 1)

			want := uint16(0x202)
			if tc.skip {
				want = 0x204
			}
			assert.Equal(t, want, emu.State().PC)
		})
	}
}

func TestOp_waitKey(t *testing.T) {
	emu := newTestEMU(t, 0xF40A, 0x6501)

	for i := 0; i < 5; i++ {
		step(t, emu, 1)
		assert.Equal(t, uint16(0x200), emu.State().PC)
	}

	emu.SetKeys(1<<0x9 | 1<<0x3)
	step(t, emu, 1)
	assert.Equal(t, uint8(0x3), emu.V[4])
	assert.Equal(t, uint16(0x202), emu.State().PC)

	step(t, emu, 1)
	assert.Equal(t, uint8(1), emu.V[5])
}

func TestOp_clearScreen(t *testing.T) {
	emu := newTestEMU(t, 0xA000, 0xD015, 0x00E0)
	step(t, emu, 2)
	emu.ClearDrawFlag()

	step(t, emu, 1)
	frame := emu.Frame()
	for i, c := range frame {
		require.Equal(t, DefaultOffColor, c, "cell %d", i)
	}
	assert.True(t, emu.DrawFlag())
}

func TestOp_draw(t *testing.T) {
	t.Run("font glyph and collision", func(t *testing.T) {
		// I = glyph 0, draw at (V0, V1) = (0, 0) twice
		emu := newTestEMU(t, 0xA000, 0xD015, 0xD015)
		step(t, emu, 2)

		frame := emu.Frame()
		// top row of "0" is 0xF0
		for x := 0; x < 8; x++ {
			want := DefaultOffColor
			if x < 4 {
				want = DefaultOnColor
			}
			assert.Equal(t, want, frame.At(x, 0), "x=%d", x)
		}
		assert.Equal(t, uint8(0), emu.V[0xF])
		assert.True(t, emu.DrawFlag())

		step(t, emu, 1)
		frame = emu.Frame()
		for i, c := range frame {
			require.Equal(t, DefaultOffColor, c, "cell %d", i)
		}
		assert.Equal(t, uint8(1), emu.V[0xF])
	})

	t.Run("wraps within the row", func(t *testing.T) {
		emu := newTestEMU(t, 0xA300, 0xD121)
		emu.write(0x300, 0xFF)
		emu.V[1] = 60
		emu.V[2] = 0
		step(t, emu, 2)

		frame := emu.Frame()
		for x := 0; x < DisplayWidth; x++ {
			want := DefaultOffColor
			if x >= 60 || x < 4 {
				want = DefaultOnColor
			}
			assert.Equal(t, want, frame.At(x, 0), "x=%d", x)
			assert.Equal(t, DefaultOffColor, frame.At(x, 1), "row 1 x=%d", x)
		}
	})

	t.Run("wraps to the top", func(t *testing.T) {
		emu := newTestEMU(t, 0xA300, 0xD122)
		emu.write(0x300, 0x80)
		emu.write(0x301, 0x80)
		emu.V[1] = 5
		emu.V[2] = 31
		step(t, emu, 2)

		frame := emu.Frame()
		assert.Equal(t, DefaultOnColor, frame.At(5, 31))
		assert.Equal(t, DefaultOnColor, frame.At(5, 0))
	})

	t.Run("flag only counts on to off", func(t *testing.T) {
		emu := newTestEMU(t, 0xA300, 0xD011, 0xA301, 0xD011)
		emu.write(0x300, 0xF0)
		emu.write(0x301, 0x0F)
		step(t, emu, 4)

		frame := emu.Frame()
		for x := 0; x < 8; x++ {
			assert.Equal(t, DefaultOnColor, frame.At(x, 0), "x=%d", x)
		}
		assert.Equal(t, uint8(0), emu.V[0xF])
	})
}

func TestOp_unknownIsReported(t *testing.T) {
	var reports []error
	emu := NewEMU(Options{Diagnostic: func(err error) { reports = append(reports, err) }})
	require.NoError(t, emu.LoadProgram([]byte{
		0x81, 0x28, // 8XY8
		0xE1, 0x00, // EX00
		0xF1, 0xFF, // FXFF
		0x01, 0x23, // 0NNN
		0x60, 0x07,
	}))

	for i := 0; i < 5; i++ {
		status, err := emu.Step()
		require.NoError(t, err)
		require.Equal(t, Continue, status)
	}

	require.Len(t, reports, 4)
	for _, err := range reports {
		assert.True(t, errors.Is(err, ErrUnknownOpcode))
	}
	assert.Contains(t, reports[0].Error(), "0x8128")
	assert.Equal(t, uint8(7), emu.V[0])
	assert.Equal(t, uint16(0x20A), emu.State().PC)
}

func TestOp_missingGroupHalts(t *testing.T) {
	saved := groups[0x5]
	groups[0x5] = nil
	defer func() { groups[0x5] = saved }()

	emu := newTestEMU(t, 0x5120)
	status, err := emu.Step()
	assert.Equal(t, Halt, status)
	assert.ErrorIs(t, err, ErrUnrecoverableOpcode)
	assert.True(t, emu.Halted())
}

func TestOp_addressesStayInMemory(t *testing.T) {
	emu := newTestEMU(t, 0xAFFE, 0xF255, 0x1FFF)
	emu.V = [16]uint8{0xA, 0xB, 0xC}
	step(t, emu, 3)

	mem := emu.Memory()
	assert.Equal(t, uint8(0xA), mem[0xFFE])
	assert.Equal(t, uint8(0xB), mem[0xFFF])
	assert.Equal(t, uint8(0xC), mem[0x000])

	// fetch at 0xFFF reads 0xFFF and 0x000
	_, err := emu.Step()
	require.NoError(t, err)
}
