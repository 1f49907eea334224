package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const oneSecond = 1000

func turnChannels(o PowerOutput) [4]bool {
	return [4]bool{o.TurnLeftFront, o.TurnLeftRear, o.TurnRightFront, o.TurnRightRear}
}

func TestSynthesizeHazardOverridesTurnSignals(t *testing.T) {
	state := SystemState{
		TurnLeft:  Active(0),
		TurnRight: Active(300),
		Hazard:    Active(500),
	}
	in := DriverInput{Hazard: true, TurnLeft: true, TurnRight: true}

	// On half of the hazard cycle.
	out := Synthesize(state, in, 600, oneSecond)
	assert.Equal(t, [4]bool{true, true, true, true}, turnChannels(out))

	// Off half: hazard still owns every indicator even though the left
	// blinker alone would be on at this tick.
	assert.True(t, IsOn(state.TurnLeft, 2100, oneSecond, oneSecond))
	out = Synthesize(state, in, 2100, oneSecond)
	assert.Equal(t, [4]bool{false, false, false, false}, turnChannels(out))
	out = Synthesize(state, in, 2500, oneSecond)
	assert.Equal(t, [4]bool{true, true, true, true}, turnChannels(out))
}

func TestSynthesizeLeftTurn(t *testing.T) {
	state := SystemState{TurnLeft: Active(10)}
	in := DriverInput{TurnLeft: true}

	out := Synthesize(state, in, 10, oneSecond)
	assert.Equal(t, [4]bool{true, true, false, false}, turnChannels(out))

	out = Synthesize(state, in, 1010, oneSecond)
	assert.Equal(t, [4]bool{false, false, false, false}, turnChannels(out))
}

func TestSynthesizeRightTurn(t *testing.T) {
	state := SystemState{TurnRight: Active(0)}
	in := DriverInput{TurnRight: true}

	out := Synthesize(state, in, 999, oneSecond)
	assert.Equal(t, [4]bool{false, false, true, true}, turnChannels(out))

	out = Synthesize(state, in, 1999, oneSecond)
	assert.Equal(t, [4]bool{false, false, false, false}, turnChannels(out))
}

func TestSynthesizeLeftWinsOverRight(t *testing.T) {
	state := SystemState{TurnLeft: Active(0), TurnRight: Active(0)}
	out := Synthesize(state, DriverInput{TurnLeft: true, TurnRight: true}, 0, oneSecond)
	assert.Equal(t, [4]bool{true, true, false, false}, turnChannels(out))
}

func TestSynthesizeNoSignals(t *testing.T) {
	out := Synthesize(SystemState{}, DriverInput{TurnLeft: true, Hazard: true}, 0, oneSecond)
	assert.Equal(t, [4]bool{false, false, false, false}, turnChannels(out))
}

func TestSynthesizeLightModes(t *testing.T) {
	type lights struct {
		Parking, LowBeam, FullBeam, Rear bool
	}
	tests := []struct {
		ignition, lightOn, fullBeam bool
		want                        lights
	}{
		{true, true, false, lights{LowBeam: true, Rear: true}},
		{true, true, true, lights{LowBeam: true, FullBeam: true, Rear: true}},
		{true, false, false, lights{}},
		{true, false, true, lights{}},
		{false, true, false, lights{Parking: true, Rear: true}},
		{false, true, true, lights{Parking: true, Rear: true}},
		{false, false, false, lights{}},
		{false, false, true, lights{}},
	}

	// Unrelated inputs and blink state must not change the light channels.
	noise := []struct {
		state SystemState
		in    DriverInput
	}{
		{SystemState{}, DriverInput{}},
		{SystemState{Hazard: Active(0)}, DriverInput{Hazard: true, BrakeFront: true, Horn: true}},
		{SystemState{TurnLeft: Active(0)}, DriverInput{TurnLeft: true, BrakeRear: true, KillSwitch: true, SideStand: true}},
	}

	for _, tt := range tests {
		for i, n := range noise {
			name := fmt.Sprintf("ign=%v/light=%v/full=%v/noise=%d", tt.ignition, tt.lightOn, tt.fullBeam, i)
			t.Run(name, func(t *testing.T) {
				in := n.in
				in.Ignition = tt.ignition
				in.LightOn = tt.lightOn
				in.FullBeam = tt.fullBeam

				out := Synthesize(n.state, in, 0, oneSecond)
				got := lights{
					Parking:  out.HeadLightParking,
					LowBeam:  out.HeadLightLowBeam,
					FullBeam: out.HeadLightFullBeam,
					Rear:     out.RearLight,
				}
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestSynthesizeStatelessChannels(t *testing.T) {
	states := []SystemState{{}, {Hazard: Active(0)}, {TurnRight: Active(42)}}
	for _, front := range []bool{false, true} {
		for _, rear := range []bool{false, true} {
			for _, horn := range []bool{false, true} {
				for _, s := range states {
					for _, now := range []Tick{0, 777, 1500, 0xFFFFFFFF} {
						in := DriverInput{BrakeFront: front, BrakeRear: rear, Horn: horn}
						out := Synthesize(s, in, now, oneSecond)
						assert.Equal(t, front || rear, out.BrakeLight)
						assert.Equal(t, horn, out.Horn)
					}
				}
			}
		}
	}
}
