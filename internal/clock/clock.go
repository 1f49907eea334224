// Package clock provides the tick source the engine uses as its only time base.
package clock

import (
	"errors"
	"time"

	"github.com/sweeney/aux-power/internal/logic"
)

// ErrZeroCycle is returned when the configured tick rate yields no ticks per second.
var ErrZeroCycle = errors.New("clock: one second is zero ticks")

// Source supplies the current value of the wrapping tick counter.
type Source interface {
	CurrentTicks() logic.Tick
}

// MsToTicks converts milliseconds to ticks at the given rate, rounding down.
func MsToTicks(ticksPerSecond, ms uint32) uint32 {
	return uint32(uint64(ms) * uint64(ticksPerSecond) / 1000)
}

// OneSecondTicks returns the blink half-period in ticks. A zero result would
// make the blink cycle empty and is a fatal configuration error.
func OneSecondTicks(ticksPerSecond uint32) (uint32, error) {
	n := MsToTicks(ticksPerSecond, 1000)
	if n == 0 {
		return 0, ErrZeroCycle
	}
	return n, nil
}

// MaxTicksPerSecond is the highest rate the monotonic clock can resolve.
const MaxTicksPerSecond = uint32(time.Second)

// RealClock derives ticks from the monotonic clock.
type RealClock struct {
	start  time.Time
	rate   uint64
	offset logic.Tick
	now    func() time.Time
}

// NewRealClock returns a clock counting ticksPerSecond from now, starting at offset.
func NewRealClock(ticksPerSecond uint32, offset logic.Tick) (*RealClock, error) {
	return newRealClock(ticksPerSecond, offset, time.Now)
}

func newRealClock(ticksPerSecond uint32, offset logic.Tick, now func() time.Time) (*RealClock, error) {
	if ticksPerSecond == 0 {
		return nil, ErrZeroCycle
	}
	return &RealClock{
		start:  now(),
		rate:   uint64(ticksPerSecond),
		offset: offset,
		now:    now,
	}, nil
}

// CurrentTicks returns the tick count, truncated to 32 bits.
func (c *RealClock) CurrentTicks() logic.Tick {
	elapsed := c.now().Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}
	// Whole seconds and the remainder are scaled separately so neither
	// product overflows 64 bits.
	secs := uint64(elapsed / time.Second)
	rem := uint64(elapsed % time.Second)
	n := secs*c.rate + rem*c.rate/uint64(time.Second)
	return c.offset + logic.Tick(uint32(n))
}

// FakeClock is a test double with a manually advanced counter.
type FakeClock struct {
	Now logic.Tick
}

// CurrentTicks returns Now.
func (f *FakeClock) CurrentTicks() logic.Tick {
	return f.Now
}

// Advance moves the counter forward by n ticks, wrapping.
func (f *FakeClock) Advance(n uint32) {
	f.Now += logic.Tick(n)
}
