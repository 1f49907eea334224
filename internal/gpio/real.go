//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/aux-power/internal/logic"
)

// RealReader reads driver controls from the Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealReader requests every input line on the named chip.
// With activeLow set, a low line reads as an active control.
func NewRealReader(chipName string, pins InputPins, activeLow bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if activeLow {
		opts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow}
	}

	lines, err := chip.RequestLines(pins[:], opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input lines %v: %w", pins, err)
	}

	return &RealReader{chip: chip, lines: lines}, nil
}

// Read samples all control lines in a single request.
func (r *RealReader) Read() (logic.DriverInput, error) {
	raw := make([]int, NumInputs)
	if err := r.lines.Values(raw); err != nil {
		return logic.DriverInput{}, fmt.Errorf("read input lines: %w", err)
	}

	var v [NumInputs]bool
	for i, level := range raw {
		v[i] = level != 0
	}
	return DecodeInput(v), nil
}

// releaseOptions is the line state left behind on Close: input with
// pull-down, the Raspberry Pi boot default.
func releaseOptions() []gpiocdev.LineConfigOption {
	return []gpiocdev.LineConfigOption{gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.AsActiveHigh}
}

// Close returns the lines to their boot defaults, then releases them and the chip.
// A pull-up left on a control line can hold it active through the next boot.
func (r *RealReader) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Reconfigure(releaseOptions()...); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure lines: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives power channel pins through /dev/gpiomem.
type RealWriter struct {
	pins [logic.NumChannels]rpio.Pin
}

// NewRealWriter maps the GPIO registers and sets every channel pin as a low output.
func NewRealWriter(pins ChannelPins) (*RealWriter, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}

	w := &RealWriter{}
	for i, p := range pins {
		pin := rpio.Pin(p)
		pin.Output()
		pin.Low()
		w.pins[i] = pin
	}
	return w, nil
}

// Apply writes every channel once.
func (w *RealWriter) Apply(out logic.PowerOutput) error {
	for i, on := range out.Channels() {
		if on {
			w.pins[i].High()
		} else {
			w.pins[i].Low()
		}
	}
	return nil
}

// Close switches every channel off and unmaps the registers.
func (w *RealWriter) Close() error {
	w.Apply(logic.PowerOutput{})
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio memory: %w", err)
	}
	return nil
}
