package logic

// Advance returns the next blink state for a function given its input flag.
// The activation tick is captured once on the rising edge and kept for as
// long as the input stays on. Dropping the input discards the phase.
func Advance(prev BlinkState, on bool, now Tick) BlinkState {
	if !on {
		return Inactive
	}
	if prev.active {
		return prev
	}
	return Active(now)
}

// IsOn reports whether a blinking function is in the ON half of its cycle.
// The phase depends only on ticks elapsed since activation, so a wrapped
// counter does not disturb the waveform. onTicks+offTicks must be nonzero;
// callers validate the cycle length at startup (see clock.OneSecondTicks).
func IsOn(s BlinkState, now Tick, onTicks, offTicks uint32) bool {
	if !s.active {
		return false
	}
	phase := now.Since(s.since) % (onTicks + offTicks)
	return phase < onTicks
}
