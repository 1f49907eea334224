package logic

// Step runs one tick of the engine: it advances every blink state from the
// sampled input and synthesizes the output to apply for this tick. The
// returned state replaces the one passed in.
func Step(prev SystemState, in DriverInput, now Tick, oneSecondTicks uint32) (SystemState, PowerOutput) {
	next := SystemState{
		TurnLeft:  Advance(prev.TurnLeft, in.TurnLeft, now),
		TurnRight: Advance(prev.TurnRight, in.TurnRight, now),
		Hazard:    Advance(prev.Hazard, in.Hazard, now),
	}
	return next, Synthesize(next, in, now, oneSecondTicks)
}
