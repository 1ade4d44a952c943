// Package host drives a cpu.EMU the way a real machine would: instructions
// at a fixed clock, timers and screen refresh at the frame rate.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beanboi7/chyp8/emu/cpu"
)

// timerHz is the fixed decay rate of the delay and sound timers.
const timerHz = 60

// Frontend is the platform side of a session: a window, a terminal or
// nothing at all.
type Frontend interface {
	// Poll processes pending platform events and returns the keypad mask,
	// bit i set while logical key i is held.
	Poll() uint16
	// Draw presents a frame. It is only called when the display changed.
	Draw(frame *cpu.Frame) error
	// Closed reports whether the user asked to quit.
	Closed() bool
}

// Config sets the host rates.
type Config struct {
	Clock   int // instructions per second
	Refresh int // frames per second
	// DecoupledTimers makes the host tick the timers at 60Hz. Leave it
	// false when the engine decays them on every step.
	DecoupledTimers bool
}

// Host owns the engine and the frontend for one run.
type Host struct {
	emu      *cpu.EMU
	frontend Frontend
	cfg      Config

	stepBudget int
	tickBudget int
	frames     uint64
}

func New(emu *cpu.EMU, frontend Frontend, cfg Config) *Host {
	if cfg.Clock <= 0 {
		cfg.Clock = 700
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = 60
	}
	return &Host{emu: emu, frontend: frontend, cfg: cfg}
}

// Frames returns the number of host frames run so far.
func (h *Host) Frames() uint64 { return h.frames }

// Frame runs one host frame: refresh keys, execute this frame's share of
// instructions, tick timers if the host owns them, draw if needed.
func (h *Host) Frame() error {
	h.emu.SetKeys(h.frontend.Poll())

	// carry the remainder so the long-run rate matches Clock exactly
	h.stepBudget += h.cfg.Clock
	steps := h.stepBudget / h.cfg.Refresh
	h.stepBudget %= h.cfg.Refresh

	for i := 0; i < steps; i++ {
		if _, err := h.emu.Step(); err != nil {
			return fmt.Errorf("frame %d: %w", h.frames, err)
		}
	}

	if h.cfg.DecoupledTimers {
		h.tickBudget += timerHz
		for ; h.tickBudget >= h.cfg.Refresh; h.tickBudget -= h.cfg.Refresh {
			h.emu.TickTimers()
		}
	}

	if h.emu.DrawFlag() {
		frame := h.emu.Frame()
		if err := h.frontend.Draw(&frame); err != nil {
			return fmt.Errorf("drawing frame %d: %w", h.frames, err)
		}
		h.emu.ClearDrawFlag()
	}

	h.frames++
	return nil
}

// RunFrames runs up to n frames back to back, without pacing.
func (h *Host) RunFrames(n int) error {
	for i := 0; i < n && !h.frontend.Closed(); i++ {
		if err := h.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Run paces frames at the refresh rate until the frontend closes, ctx is
// done or the engine halts.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.Refresh))
	defer ticker.Stop()

	slog.Info("running", "clock", h.cfg.Clock, "refresh", h.cfg.Refresh, "decoupled_timers", h.cfg.DecoupledTimers)
	for !h.frontend.Closed() {
		if err := h.Frame(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			slog.Info("stopped", "frames", h.frames, "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
	slog.Info("frontend closed", "frames", h.frames, "cycles", h.emu.Cycles())
	return nil
}
