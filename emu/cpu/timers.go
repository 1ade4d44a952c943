package cpu

// TickTimers decays the delay and sound timers by one, holding at zero. It
// reports whether this tick beeped: the beep fires when the sound timer is
// left at exactly 1.
func (emu *EMU) TickTimers() bool {
	emu.delayTimerHandler()
	return emu.soundTimerHandler()
}

func (emu *EMU) delayTimerHandler() {
	if emu.delayTimer > 0 {
		emu.delayTimer--
	}
}

func (emu *EMU) soundTimerHandler() bool {
	if emu.soundTimer == 0 {
		return false
	}
	emu.soundTimer--
	if emu.soundTimer != 1 {
		return false
	}
	if emu.opts.Beep != nil {
		emu.opts.Beep()
	}
	return true
}
