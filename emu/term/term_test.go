package term

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanboi7/chyp8/emu/cpu"
)

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term, err := newTerminal(sim, cpu.DefaultOnColor, cpu.DefaultOffColor)
	require.NoError(t, err)
	t.Cleanup(term.Close)
	return term, sim
}

func TestTerminal_keysExpire(t *testing.T) {
	term, _ := newSimTerminal(t)
	clock := time.Unix(0, 0)
	term.now = func() time.Time { return clock }

	term.handle(tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModNone))
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'v', tcell.ModNone))
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	assert.Equal(t, uint16(1<<0x4|1<<0xF), term.mask())

	clock = clock.Add(keyTimeout / 2)
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'v', tcell.ModNone))

	clock = clock.Add(keyTimeout/2 + time.Millisecond)
	assert.Equal(t, uint16(1<<0xF), term.mask())

	clock = clock.Add(keyTimeout)
	assert.Equal(t, uint16(0), term.mask())
}

func TestTerminal_escapeCloses(t *testing.T) {
	term, _ := newSimTerminal(t)
	assert.False(t, term.Closed())
	term.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.True(t, term.Closed())
}

func TestTerminal_draw(t *testing.T) {
	term, sim := newSimTerminal(t)

	var frame cpu.Frame
	for i := range frame {
		frame[i] = cpu.DefaultOffColor
	}
	frame[0*cpu.DisplayWidth+0] = cpu.DefaultOnColor // (0,0) top half
	frame[1*cpu.DisplayWidth+1] = cpu.DefaultOnColor // (1,1) bottom half

	require.NoError(t, term.Draw(&frame))

	cells, width, _ := sim.GetContents()
	on, off := tcellColor(cpu.DefaultOnColor), tcellColor(cpu.DefaultOffColor)

	fg, bg, _ := cells[0].Style.Decompose()
	assert.Equal(t, []rune{halfBlock}, cells[0].Runes)
	assert.Equal(t, on, fg)
	assert.Equal(t, off, bg)

	fg, bg, _ = cells[1].Style.Decompose()
	assert.Equal(t, off, fg)
	assert.Equal(t, on, bg)

	fg, bg, _ = cells[width+2].Style.Decompose()
	assert.Equal(t, off, fg)
	assert.Equal(t, off, bg)
}
