// Command aux-power samples the driver controls and switches the vehicle's
// auxiliary power channels (indicators, lights, brake light, horn).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/aux-power/internal/clock"
	"github.com/sweeney/aux-power/internal/config"
	"github.com/sweeney/aux-power/internal/gpio"
	"github.com/sweeney/aux-power/internal/logging"
	"github.com/sweeney/aux-power/internal/logic"
	"github.com/sweeney/aux-power/internal/mqtt"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (empty for defaults)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	printInput := flag.Bool("print-input", false, "Print one driver input sample and exit")

	flag.Parse()

	logging.Init(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config initialization failed")
	}

	if err := run(cfg, *printInput); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config, printInput bool) error {
	oneSecond, err := clock.OneSecondTicks(cfg.Clock.TicksPerSecond)
	if err != nil {
		return err
	}
	src, err := clock.NewRealClock(cfg.Clock.TicksPerSecond, logic.Tick(cfg.Clock.StartTick))
	if err != nil {
		return err
	}

	reader, err := openReader(cfg)
	if err != nil {
		return fmt.Errorf("init input: %w", err)
	}
	defer reader.Close()

	if printInput {
		return printInputSample(os.Stdout, reader, printInputWait)
	}

	pins, err := cfg.Output.ChannelPins()
	if err != nil {
		return err
	}
	// All channels start low and are driven low again on Close.
	writer, err := gpio.NewRealWriter(gpio.ChannelPins(pins))
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}
	defer writer.Close()

	poll := time.Duration(cfg.Clock.PollMs) * time.Millisecond
	log.Info().
		Str("input", cfg.Input.Source).
		Uint32("ticks_per_second", cfg.Clock.TicksPerSecond).
		Uint32("blink_half_period_ticks", oneSecond).
		Dur("poll", poll).
		Msg("started")

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, writer, src, oneSecond, ticker.C, sigCh)
}

func openReader(cfg config.Config) (gpio.Reader, error) {
	switch cfg.Input.Source {
	case config.SourceMQTT:
		r, err := mqtt.NewRemoteReader(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Stale:    time.Duration(cfg.MQTT.StaleMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		r, err := gpio.NewRealReader(cfg.Input.Chip, inputPins(cfg.Input.Pins), cfg.Input.ActiveLow)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// printInputWait bounds how long -print-input waits for a remote sample.
const printInputWait = 5 * time.Second

// sampleWaiter is implemented by readers whose first sample arrives asynchronously.
type sampleWaiter interface {
	WaitSample(ctx context.Context) error
}

// connectionStatus is implemented by readers backed by a network connection.
type connectionStatus interface {
	IsConnected() bool
}

func printInputSample(w io.Writer, reader gpio.Reader, wait time.Duration) error {
	if sw, ok := reader.(sampleWaiter); ok {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		if err := sw.WaitSample(ctx); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}

	in, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(w, formatInput(in))
	return nil
}

func inputPins(p config.InputPins) gpio.InputPins {
	var pins gpio.InputPins
	pins[gpio.InIgnition] = p.Ignition
	pins[gpio.InBrakeFront] = p.BrakeFront
	pins[gpio.InBrakeRear] = p.BrakeRear
	pins[gpio.InTurnLeft] = p.TurnLeft
	pins[gpio.InTurnRight] = p.TurnRight
	pins[gpio.InHazard] = p.Hazard
	pins[gpio.InLightOn] = p.LightOn
	pins[gpio.InFullBeam] = p.FullBeam
	pins[gpio.InHorn] = p.Horn
	pins[gpio.InKillSwitch] = p.KillSwitch
	pins[gpio.InSideStand] = p.SideStand
	return pins
}

// runLoop runs one engine tick per poll: sample input, step the engine,
// apply the output. It returns when a signal arrives.
func runLoop(reader gpio.Reader, writer gpio.Writer, src clock.Source, oneSecond uint32, tick <-chan time.Time, sig <-chan os.Signal) error {
	var (
		state       logic.SystemState
		last        logic.PowerOutput
		applied     bool
		readFailed  bool
		applyFailed bool
	)

	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			return nil

		case <-tick:
			now := src.CurrentTicks()

			in, err := reader.Read()
			if err != nil {
				// Fail safe: an unreadable sample counts as every control off.
				if !readFailed {
					ev := log.Warn().Err(err)
					if cs, ok := reader.(connectionStatus); ok {
						ev = ev.Bool("connected", cs.IsConnected())
					}
					ev.Msg("input read failed, switching to safe input")
					readFailed = true
				}
				in = logic.DriverInput{}
			} else if readFailed {
				log.Info().Msg("input read recovered")
				readFailed = false
			}

			var out logic.PowerOutput
			state, out = logic.Step(state, in, now, oneSecond)

			if err := writer.Apply(out); err != nil {
				if !applyFailed {
					log.Warn().Err(err).Msg("apply power output failed")
					applyFailed = true
				}
			} else {
				applyFailed = false
			}

			if !applied || out != last {
				log.Debug().
					Uint32("tick", uint32(now)).
					Str("on", formatChannels(out.OnChannels())).
					Msg("output changed")
				last = out
				applied = true
			}
		}
	}
}

func formatChannels(chs []logic.Channel) string {
	if len(chs) == 0 {
		return "-"
	}
	names := make([]string, len(chs))
	for i, c := range chs {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

func formatInput(in logic.DriverInput) string {
	return fmt.Sprintf("ignition=%s brake_front=%s brake_rear=%s turn_left=%s turn_right=%s hazard=%s light=%s full_beam=%s horn=%s kill_switch=%s side_stand=%s",
		stateString(in.Ignition), stateString(in.BrakeFront), stateString(in.BrakeRear),
		stateString(in.TurnLeft), stateString(in.TurnRight), stateString(in.Hazard),
		stateString(in.LightOn), stateString(in.FullBeam), stateString(in.Horn),
		stateString(in.KillSwitch), stateString(in.SideStand))
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
