// Package term is a terminal frontend built on tcell. Two display rows
// share one character cell through the upper half block glyph.
package term

import (
	"fmt"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/host"
)

// Terminals report key presses but never releases, so a press counts as
// held for keyTimeout, slightly longer than a typical repeat interval.
const keyTimeout = 100 * time.Millisecond

const halfBlock = '▀'

// DefaultLayout is the QWERTY left-hand block, as runes.
var DefaultLayout = [16]rune{
	0x1: '1', 0x2: '2', 0x3: '3', 0xC: '4',
	0x4: 'q', 0x5: 'w', 0x6: 'e', 0xD: 'r',
	0x7: 'a', 0x8: 's', 0x9: 'd', 0xE: 'f',
	0xA: 'z', 0x0: 'x', 0xB: 'c', 0xF: 'v',
}

type Terminal struct {
	screen  tcell.Screen
	keys    *host.Keymap[rune]
	events  chan tcell.Event
	expiry  [16]time.Time
	closed  bool
	now     func() time.Time
	onCell  uint32
	on, off tcell.Color
}

// New takes over the controlling terminal.
func New(onColor, offColor uint32) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	return newTerminal(screen, onColor, offColor)
}

func newTerminal(screen tcell.Screen, onColor, offColor uint32) (*Terminal, error) {
	keys, err := host.NewKeymap(DefaultLayout)
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		keys:   keys,
		events: make(chan tcell.Event, 64),
		now:    time.Now,
		onCell: onColor,
		on:     tcellColor(onColor),
		off:    tcellColor(offColor),
	}
	go t.pump()
	return t, nil
}

// pump forwards screen events until Fini makes PollEvent return nil.
func (t *Terminal) pump() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			close(t.events)
			return
		}
		t.events <- ev
	}
}

func tcellColor(c uint32) tcell.Color {
	rgba := host.RGBA(c)
	return tcell.NewRGBColor(int32(rgba.R), int32(rgba.G), int32(rgba.B))
}

// Poll drains pending events and returns the keys pressed within the last
// keyTimeout.
func (t *Terminal) Poll() uint16 {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				t.closed = true
				return 0
			}
			t.handle(ev)
		default:
			return t.mask()
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			t.closed = true
		case tcell.KeyRune:
			if key, ok := t.keys.Logical(unicode.ToLower(ev.Rune())); ok {
				t.expiry[key] = t.now().Add(keyTimeout)
			}
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Terminal) mask() uint16 {
	now := t.now()
	var mask uint16
	for key, until := range t.expiry {
		if now.Before(until) {
			mask |= 1 << key
		}
	}
	return mask
}

func (t *Terminal) Draw(frame *cpu.Frame) error {
	for row := 0; row < cpu.DisplayHeight/2; row++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			fg, bg := t.off, t.off
			if frame.At(x, row*2) == t.onCell {
				fg = t.on
			}
			if frame.At(x, row*2+1) == t.onCell {
				bg = t.on
			}
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			t.screen.SetContent(x, row, halfBlock, nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Closed() bool { return t.closed }

// Close gives the terminal back.
func (t *Terminal) Close() {
	t.screen.Fini()
}
