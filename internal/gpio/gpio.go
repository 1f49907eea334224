// Package gpio provides driver input sampling and power channel switching
// with hardware abstraction.
// The real implementations use the Linux GPIO character device for inputs
// and memory-mapped BCM pins for outputs.
// The fake implementations allow testing without hardware.
package gpio

import "github.com/sweeney/aux-power/internal/logic"

// Reader samples the driver controls.
type Reader interface {
	// Read returns one fresh sample of every control.
	Read() (logic.DriverInput, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer switches the power channels.
type Writer interface {
	// Apply drives every channel to the state given in out.
	Apply(out logic.PowerOutput) error

	// Close switches every channel off and releases GPIO resources.
	Close() error
}

// Input identifies a driver control line.
type Input int

const (
	InIgnition Input = iota
	InBrakeFront
	InBrakeRear
	InTurnLeft
	InTurnRight
	InHazard
	InLightOn
	InFullBeam
	InHorn
	InKillSwitch
	InSideStand

	NumInputs
)

// InputPins holds the line offset of each control, indexed by Input.
type InputPins [NumInputs]int

// ChannelPins holds the BCM pin of each power channel, indexed by logic.Channel.
type ChannelPins [logic.NumChannels]int

// DecodeInput builds a DriverInput from logical line levels indexed by Input.
func DecodeInput(v [NumInputs]bool) logic.DriverInput {
	return logic.DriverInput{
		Ignition:   v[InIgnition],
		BrakeFront: v[InBrakeFront],
		BrakeRear:  v[InBrakeRear],
		TurnLeft:   v[InTurnLeft],
		TurnRight:  v[InTurnRight],
		Hazard:     v[InHazard],
		LightOn:    v[InLightOn],
		FullBeam:   v[InFullBeam],
		Horn:       v[InHorn],
		KillSwitch: v[InKillSwitch],
		SideStand:  v[InSideStand],
	}
}
