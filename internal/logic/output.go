package logic

// Synthesize maps the current blink state and driver input to a full output vector.
//
// Turn indicators, in order of precedence:
//   - Hazard: while active, all four indicators blink together and the turn
//     signal inputs are ignored.
//   - Left/Right: the indicators on that side blink, the other side is off.
//     Left wins if both are active.
//
// Lights depend on ignition:
//   - Ignition on: light on enables low beam and rear light, and full beam
//     follows its switch. Light off turns every head and rear light off.
//   - Ignition off: light on enables parking and rear light only.
//
// Brake light and horn mirror their inputs.
func Synthesize(state SystemState, in DriverInput, now Tick, oneSecondTicks uint32) PowerOutput {
	out := PowerOutput{
		BrakeLight: in.BrakeFront || in.BrakeRear,
		Horn:       in.Horn,
	}
	switchTurnSignals(&out, state, now, oneSecondTicks)
	switchLights(&out, in)
	return out
}

func switchTurnSignals(out *PowerOutput, state SystemState, now Tick, period uint32) {
	switch {
	case state.Hazard.IsActive():
		on := IsOn(state.Hazard, now, period, period)
		out.TurnLeftFront, out.TurnLeftRear = on, on
		out.TurnRightFront, out.TurnRightRear = on, on
	case state.TurnLeft.IsActive():
		on := IsOn(state.TurnLeft, now, period, period)
		out.TurnLeftFront, out.TurnLeftRear = on, on
		out.TurnRightFront, out.TurnRightRear = false, false
	case state.TurnRight.IsActive():
		on := IsOn(state.TurnRight, now, period, period)
		out.TurnRightFront, out.TurnRightRear = on, on
		out.TurnLeftFront, out.TurnLeftRear = false, false
	default:
		out.TurnLeftFront, out.TurnLeftRear = false, false
		out.TurnRightFront, out.TurnRightRear = false, false
	}
}

func switchLights(out *PowerOutput, in DriverInput) {
	// Parking light is only ever lit with ignition off.
	out.HeadLightParking = !in.Ignition && in.LightOn
	out.HeadLightLowBeam = in.Ignition && in.LightOn
	out.HeadLightFullBeam = in.Ignition && in.LightOn && in.FullBeam
	out.RearLight = in.LightOn
}
