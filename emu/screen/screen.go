// Package screen is the desktop frontend: a pixelgl window that shows the
// display and reads the keypad from the keyboard.
package screen

import (
	"fmt"
	"image/color"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/host"
)

// DefaultLayout lays the hex keypad over the left-hand block of a QWERTY
// keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var DefaultLayout = [16]pixelgl.Button{
	0x1: pixelgl.Key1, 0x2: pixelgl.Key2, 0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
	0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW, 0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
	0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS, 0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
	0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX, 0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
}

type Window struct {
	*pixelgl.Window
	keys    *host.Keymap[pixelgl.Button]
	imd     *imdraw.IMDraw
	scale   float64
	onCell  uint32
	on, off color.RGBA
}

// Run hands the calling goroutine over to pixelgl, which needs the main
// thread, and calls run from there. Windows may only be made inside run.
func Run(run func()) {
	pixelgl.Run(run)
}

// NewWindow opens a 64x32 display scaled by scale, drawing cells equal to
// onColor lit and everything else with offColor.
func NewWindow(title string, scale int, onColor, offColor uint32) (*Window, error) {
	keys, err := host.NewKeymap(DefaultLayout)
	if err != nil {
		return nil, err
	}

	cfg := pixelgl.WindowConfig{
		Title:  title,
		Bounds: pixel.R(0, 0, float64(cpu.DisplayWidth*scale), float64(cpu.DisplayHeight*scale)),
		VSync:  true,
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	w := &Window{
		Window: win,
		keys:   keys,
		imd:    imdraw.New(nil),
		scale:  float64(scale),
		onCell: onColor,
		on:     host.RGBA(onColor),
		off:    host.RGBA(offColor),
	}
	w.Clear(w.off)
	w.Update()
	return w, nil
}

// Poll reads window events without swapping buffers. Escape closes.
func (w *Window) Poll() uint16 {
	w.UpdateInput()
	if w.JustPressed(pixelgl.KeyEscape) {
		w.SetClosed(true)
	}
	return w.keys.Mask(w.Pressed)
}

func (w *Window) Draw(frame *cpu.Frame) error {
	w.imd.Clear()
	w.imd.Color = w.on
	for y := 0; y < cpu.DisplayHeight; y++ {
		// pixel's origin is the bottom left corner
		top := float64(cpu.DisplayHeight-y) * w.scale
		for x := 0; x < cpu.DisplayWidth; x++ {
			if frame.At(x, y) != w.onCell {
				continue
			}
			left := float64(x) * w.scale
			w.imd.Push(pixel.V(left, top-w.scale), pixel.V(left+w.scale, top))
			w.imd.Rectangle(0)
		}
	}

	w.Clear(w.off)
	w.imd.Draw(w)
	w.Update()
	return nil
}

// Keymap exposes the key table, e.g. for printing help.
func (w *Window) Keymap() *host.Keymap[pixelgl.Button] { return w.keys }
