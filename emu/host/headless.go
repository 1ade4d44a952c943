package host

import (
	"bufio"
	"io"

	"github.com/beanboi7/chyp8/emu/cpu"
)

// Headless is a Frontend with no output device. It closes after a fixed
// number of polls and keeps the last drawn frame.
type Headless struct {
	keys   uint16
	max    int
	polled int
	draws  int
	last   cpu.Frame
}

// NewHeadless returns a frontend that closes after maxFrames polls.
func NewHeadless(maxFrames int) *Headless {
	return &Headless{max: maxFrames}
}

// SetKeys scripts the keypad mask returned by later polls.
func (h *Headless) SetKeys(mask uint16) { h.keys = mask }

func (h *Headless) Poll() uint16 {
	h.polled++
	return h.keys
}

func (h *Headless) Draw(frame *cpu.Frame) error {
	h.last = *frame
	h.draws++
	return nil
}

func (h *Headless) Closed() bool {
	return h.max > 0 && h.polled >= h.max
}

// Draws counts the frames presented so far.
func (h *Headless) Draws() int { return h.draws }

// Last returns the most recently drawn frame.
func (h *Headless) Last() cpu.Frame { return h.last }

// WriteSnapshot dumps frame as text, one line per row, '█' for cells
// equal to on and '.' for the rest.
func WriteSnapshot(w io.Writer, frame *cpu.Frame, on uint32) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# chyp8 frame snapshot\n")
	bw.WriteString("# 64x32, █=on .=off\n")
	for y := 0; y < cpu.DisplayHeight; y++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			if frame.At(x, y) == on {
				bw.WriteRune('█')
			} else {
				bw.WriteByte('.')
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
