// Package mqtt provides driver input received from a remote switch unit over MQTT.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/aux-power/internal/logic"
)

// DefaultTopic is the MQTT topic the switch unit publishes control samples to.
const DefaultTopic = "vehicle/controls/input"

var (
	// ErrNoSample is returned by Read before the first sample arrives.
	ErrNoSample = errors.New("mqtt: no input sample received")
	// ErrStale is returned by Read when the last sample is too old to trust.
	ErrStale = errors.New("mqtt: input sample is stale")
)

// Payload is the JSON message published by the switch unit.
type Payload struct {
	Ignition   bool `json:"ignition"`
	BrakeFront bool `json:"brake_front"`
	BrakeRear  bool `json:"brake_rear"`
	TurnLeft   bool `json:"turn_left"`
	TurnRight  bool `json:"turn_right"`
	Hazard     bool `json:"hazard_light"`
	LightOn    bool `json:"light_on"`
	FullBeam   bool `json:"full_beam"`
	Horn       bool `json:"horn"`
	KillSwitch bool `json:"kill_switch"`
	SideStand  bool `json:"side_stand"`
}

// ParsePayload decodes a switch unit message. Missing fields read as off.
func ParsePayload(data []byte) (logic.DriverInput, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return logic.DriverInput{}, fmt.Errorf("decode payload: %w", err)
	}
	return logic.DriverInput{
		Ignition:   p.Ignition,
		BrakeFront: p.BrakeFront,
		BrakeRear:  p.BrakeRear,
		TurnLeft:   p.TurnLeft,
		TurnRight:  p.TurnRight,
		Hazard:     p.Hazard,
		LightOn:    p.LightOn,
		FullBeam:   p.FullBeam,
		Horn:       p.Horn,
		KillSwitch: p.KillSwitch,
		SideStand:  p.SideStand,
	}, nil
}

// FormatPayload encodes a sample the way the switch unit does.
func FormatPayload(in logic.DriverInput) ([]byte, error) {
	return json.Marshal(Payload{
		Ignition:   in.Ignition,
		BrakeFront: in.BrakeFront,
		BrakeRear:  in.BrakeRear,
		TurnLeft:   in.TurnLeft,
		TurnRight:  in.TurnRight,
		Hazard:     in.Hazard,
		LightOn:    in.LightOn,
		FullBeam:   in.FullBeam,
		Horn:       in.Horn,
		KillSwitch: in.KillSwitch,
		SideStand:  in.SideStand,
	})
}

// latest holds the most recent sample. Messages arrive on the client's
// goroutine while Read runs on the control loop, so access is locked.
type latest struct {
	mu       sync.Mutex
	input    logic.DriverInput
	received time.Time
	ok       bool
	stale    time.Duration
	now      func() time.Time
	// ready is closed when the first sample arrives.
	ready chan struct{}
}

func newLatest(stale time.Duration, now func() time.Time) *latest {
	return &latest{stale: stale, now: now, ready: make(chan struct{})}
}

// handle stores a raw message. Malformed messages leave the previous sample in place.
func (l *latest) handle(payload []byte) error {
	in, err := ParsePayload(payload)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.input = in
	l.received = l.now()
	if !l.ok {
		close(l.ready)
	}
	l.ok = true
	l.mu.Unlock()
	return nil
}

func (l *latest) read() (logic.DriverInput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ok {
		return logic.DriverInput{}, ErrNoSample
	}
	if l.stale > 0 && l.now().Sub(l.received) > l.stale {
		return logic.DriverInput{}, ErrStale
	}
	return l.input, nil
}
