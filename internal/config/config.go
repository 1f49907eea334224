// Package config loads the controller's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/sweeney/aux-power/internal/clock"
	"github.com/sweeney/aux-power/internal/logic"
)

// Input sources.
const (
	SourceGPIO = "gpio"
	SourceMQTT = "mqtt"
)

// Config is the full daemon configuration.
type Config struct {
	Clock  ClockConfig  `toml:"clock"`
	Input  InputConfig  `toml:"input"`
	Output OutputConfig `toml:"output"`
	MQTT   MQTTConfig   `toml:"mqtt"`
}

// ClockConfig sets the tick rate and loop cadence.
type ClockConfig struct {
	TicksPerSecond uint32 `toml:"ticks_per_second"`
	PollMs         uint32 `toml:"poll_ms"`
	// StartTick offsets the counter at boot, e.g. to exercise wraparound.
	StartTick uint32 `toml:"start_tick"`
}

// InputConfig selects where driver controls are sampled from.
type InputConfig struct {
	Source    string    `toml:"source"`
	Chip      string    `toml:"chip"`
	ActiveLow bool      `toml:"active_low"`
	Pins      InputPins `toml:"pins"`
}

// InputPins maps each driver control to a line offset.
type InputPins struct {
	Ignition   int `toml:"ignition"`
	BrakeFront int `toml:"brake_front"`
	BrakeRear  int `toml:"brake_rear"`
	TurnLeft   int `toml:"turn_left"`
	TurnRight  int `toml:"turn_right"`
	Hazard     int `toml:"hazard_light"`
	LightOn    int `toml:"light_on"`
	FullBeam   int `toml:"full_beam"`
	Horn       int `toml:"horn"`
	KillSwitch int `toml:"kill_switch"`
	SideStand  int `toml:"side_stand"`
}

// OutputConfig maps power channel names to BCM pins.
type OutputConfig struct {
	Pins map[string]int `toml:"pins"`
}

// MQTTConfig configures the remote switch unit input.
type MQTTConfig struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
	StaleMs  uint32 `toml:"stale_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Clock: ClockConfig{
			TicksPerSecond: 1000,
			PollMs:         10,
		},
		Input: InputConfig{
			Source: SourceGPIO,
			Chip:   "gpiochip0",
			Pins: InputPins{
				Ignition:   2,
				BrakeFront: 3,
				BrakeRear:  4,
				TurnLeft:   17,
				TurnRight:  27,
				Hazard:     22,
				LightOn:    10,
				FullBeam:   9,
				Horn:       11,
				KillSwitch: 0,
				SideStand:  1,
			},
		},
		Output: OutputConfig{
			Pins: map[string]int{
				logic.TurnLeftFront.String():     5,
				logic.TurnLeftRear.String():      6,
				logic.TurnRightFront.String():    13,
				logic.TurnRightRear.String():     19,
				logic.HeadLightParking.String():  26,
				logic.HeadLightLowBeam.String():  14,
				logic.HeadLightFullBeam.String(): 15,
				logic.RearLight.String():         18,
				logic.BrakeLight.String():        23,
				logic.Horn.String():              24,
			},
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://127.0.0.1:1883",
			Topic:    "vehicle/controls/input",
			ClientID: "aux-power",
			StaleMs:  500,
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML into cfg. Keys missing from data keep their current values,
// except that an [output.pins] table replaces the whole pin map.
func Parse(data []byte, cfg *Config) error {
	pins := cfg.Output.Pins
	cfg.Output.Pins = nil
	defer func() {
		if cfg.Output.Pins == nil {
			cfg.Output.Pins = pins
		}
	}()

	if err := toml.Unmarshal(data, cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("parse config at %d:%d: %w", row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports the first configuration fault.
func (c Config) Validate() error {
	if c.Clock.TicksPerSecond == 0 {
		return errors.New("config: clock.ticks_per_second must be > 0")
	}
	if c.Clock.TicksPerSecond > clock.MaxTicksPerSecond {
		return fmt.Errorf("config: clock.ticks_per_second must be <= %d", clock.MaxTicksPerSecond)
	}
	if c.Clock.PollMs == 0 {
		return errors.New("config: clock.poll_ms must be > 0")
	}

	switch c.Input.Source {
	case SourceGPIO:
		if c.Input.Chip == "" {
			return errors.New("config: input.chip is required for gpio input")
		}
	case SourceMQTT:
		if c.MQTT.Broker == "" || c.MQTT.Topic == "" {
			return errors.New("config: mqtt.broker and mqtt.topic are required for mqtt input")
		}
	default:
		return fmt.Errorf("config: unknown input.source %q", c.Input.Source)
	}

	if _, err := c.Output.ChannelPins(); err != nil {
		return err
	}
	return nil
}

// ChannelPins resolves the output pin map into hardware channel order.
// Every channel needs its own pin.
func (o OutputConfig) ChannelPins() ([logic.NumChannels]int, error) {
	var pins [logic.NumChannels]int
	var seen [logic.NumChannels]bool
	used := make(map[int]string, len(o.Pins))

	for name, pin := range o.Pins {
		ch, ok := logic.ParseChannel(name)
		if !ok {
			return pins, fmt.Errorf("config: unknown output channel %q", name)
		}
		if other, dup := used[pin]; dup {
			return pins, fmt.Errorf("config: output pin %d used by both %s and %s", pin, other, name)
		}
		used[pin] = name
		pins[ch] = pin
		seen[ch] = true
	}

	for c, ok := range seen {
		if !ok {
			return pins, fmt.Errorf("config: no output pin for %s", logic.Channel(c))
		}
	}
	return pins, nil
}
