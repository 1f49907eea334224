// Package logic contains the pure decision engine of the auxiliary power controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time package).
// Time is always injectable as a Tick parameter.
package logic

// Tick is a reading of the hardware's wrapping 32-bit tick counter.
type Tick uint32

// Since returns the ticks elapsed from earlier to t. Unsigned subtraction
// wraps, so the result stays correct after the counter overflows.
func (t Tick) Since(earlier Tick) uint32 {
	return uint32(t) - uint32(earlier)
}

// BlinkState records whether a blinking function is active and since when.
// The zero value is inactive.
type BlinkState struct {
	active bool
	since  Tick
}

// Inactive is the state of a blinking function whose input is off.
var Inactive = BlinkState{}

// Active returns the state of a blinking function activated at tick t.
func Active(t Tick) BlinkState {
	return BlinkState{active: true, since: t}
}

// IsActive reports whether the function is active.
func (s BlinkState) IsActive() bool {
	return s.active
}

// ActivatedAt returns the activation tick and true, or (0, false) when inactive.
func (s BlinkState) ActivatedAt() (Tick, bool) {
	if !s.active {
		return 0, false
	}
	return s.since, true
}

// SystemState is the timing state carried from one tick to the next.
type SystemState struct {
	TurnLeft  BlinkState
	TurnRight BlinkState
	Hazard    BlinkState
}

// DriverInput is a single sample of the driver controls.
type DriverInput struct {
	Ignition   bool
	BrakeFront bool
	BrakeRear  bool
	TurnLeft   bool
	TurnRight  bool
	Hazard     bool
	LightOn    bool
	FullBeam   bool
	Horn       bool
	KillSwitch bool // sampled only
	SideStand  bool // sampled only
}

// Channel identifies a physical power channel by its hardware index.
type Channel int

const (
	TurnLeftFront Channel = iota
	TurnLeftRear
	TurnRightFront
	TurnRightRear
	HeadLightParking
	HeadLightLowBeam
	HeadLightFullBeam
	RearLight
	BrakeLight
	Horn

	NumChannels
)

var channelNames = [NumChannels]string{
	"turn_left_front",
	"turn_left_rear",
	"turn_right_front",
	"turn_right_rear",
	"head_light_parking",
	"head_light_lowbeam",
	"head_light_fullbeam",
	"rear_light",
	"brake_light",
	"horn",
}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return "unknown"
	}
	return channelNames[c]
}

// ParseChannel returns the channel with the given name.
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// PowerOutput is the desired ON/OFF state of every power channel.
type PowerOutput struct {
	TurnLeftFront     bool
	TurnLeftRear      bool
	TurnRightFront    bool
	TurnRightRear     bool
	HeadLightParking  bool
	HeadLightLowBeam  bool
	HeadLightFullBeam bool
	RearLight         bool
	BrakeLight        bool
	Horn              bool
}

// Channels returns the output vector indexed by Channel.
func (o PowerOutput) Channels() [NumChannels]bool {
	return [NumChannels]bool{
		TurnLeftFront:     o.TurnLeftFront,
		TurnLeftRear:      o.TurnLeftRear,
		TurnRightFront:    o.TurnRightFront,
		TurnRightRear:     o.TurnRightRear,
		HeadLightParking:  o.HeadLightParking,
		HeadLightLowBeam:  o.HeadLightLowBeam,
		HeadLightFullBeam: o.HeadLightFullBeam,
		RearLight:         o.RearLight,
		BrakeLight:        o.BrakeLight,
		Horn:              o.Horn,
	}
}

// Get returns the state of a single channel.
func (o PowerOutput) Get(c Channel) bool {
	if c < 0 || c >= NumChannels {
		return false
	}
	return o.Channels()[c]
}

// OnChannels lists the channels that are ON, in hardware order.
func (o PowerOutput) OnChannels() []Channel {
	var on []Channel
	for i, v := range o.Channels() {
		if v {
			on = append(on, Channel(i))
		}
	}
	return on
}
