package main

import (
	"bytes"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/aux-power/internal/config"
	"github.com/sweeney/aux-power/internal/gpio"
	"github.com/sweeney/aux-power/internal/logging"
	"github.com/sweeney/aux-power/internal/logic"
	"github.com/sweeney/aux-power/internal/mqtt"
)

// steppingClock yields start, start+step, start+2*step, ... on successive
// calls. Not safe for concurrent use (only called from runLoop's goroutine).
type steppingClock struct {
	next logic.Tick
	step uint32
}

func (c *steppingClock) CurrentTicks() logic.Tick {
	t := c.next
	c.next += logic.Tick(c.step)
	return t
}

// repeat returns n copies of sample.
func repeat(sample logic.DriverInput, n int) []logic.DriverInput {
	out := make([]logic.DriverInput, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (logic.DriverInput, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		// Keep the scripted sequence aligned with tick numbers.
		r.inner.Read()
		return logic.DriverInput{}, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// runRunLoop drives runLoop for nTicks and then delivers signal.
func runRunLoop(t *testing.T, reader gpio.Reader, writer gpio.Writer, clk *steppingClock, oneSecond uint32, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(reader, writer, clk, oneSecond, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func TestRunLoopAppliesOncePerTick(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(logic.DriverInput{Ignition: true, LightOn: true}, 5))
	writer := gpio.NewFakeWriter()
	clk := &steppingClock{step: 10}

	err := runRunLoop(t, reader, writer, clk, 1000, 5, syscall.SIGTERM)
	require.NoError(t, err)

	require.Len(t, writer.Applied, 5)
	for _, out := range writer.Applied {
		assert.Equal(t, logic.PowerOutput{HeadLightLowBeam: true, RearLight: true}, out)
	}
}

func TestRunLoopHazardBlinks(t *testing.T) {
	// 10 ticks per poll, 50 ticks per half period: 5 polls on, 5 off.
	reader := gpio.NewFakeReader(repeat(logic.DriverInput{Hazard: true, TurnLeft: true}, 20))
	writer := gpio.NewFakeWriter()
	clk := &steppingClock{step: 10}

	require.NoError(t, runRunLoop(t, reader, writer, clk, 50, 20, syscall.SIGINT))
	require.Len(t, writer.Applied, 20)

	for i, out := range writer.Applied {
		want := (i/5)%2 == 0
		assert.Equal(t, want, out.TurnLeftFront, "poll %d", i)
		assert.Equal(t, want, out.TurnLeftRear, "poll %d", i)
		assert.Equal(t, want, out.TurnRightFront, "poll %d", i)
		assert.Equal(t, want, out.TurnRightRear, "poll %d", i)
	}
}

func TestRunLoopBlinkSurvivesCounterWrap(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(logic.DriverInput{TurnRight: true}, 12))
	writer := gpio.NewFakeWriter()
	clk := &steppingClock{next: 0xFFFFFFE0, step: 8}

	require.NoError(t, runRunLoop(t, reader, writer, clk, 16, 12, syscall.SIGTERM))

	// Two polls on, two off, straight across the wrap at poll 4.
	for i, out := range writer.Applied {
		want := (i/2)%2 == 0
		assert.Equal(t, want, out.TurnRightFront, "poll %d", i)
		assert.False(t, out.TurnLeftFront)
	}
}

func TestRunLoopReadErrorFailsSafe(t *testing.T) {
	samples := repeat(logic.DriverInput{TurnLeft: true, BrakeFront: true}, 8)
	reader := &faultReader{inner: gpio.NewFakeReader(samples), faultStart: 3, faultEnd: 5}
	writer := gpio.NewFakeWriter()
	clk := &steppingClock{step: 100}

	require.NoError(t, runRunLoop(t, reader, writer, clk, 1000, 8, syscall.SIGTERM))
	require.Len(t, writer.Applied, 8)

	// Ticks 0-2: blinking from activation at tick 0.
	assert.True(t, writer.Applied[0].TurnLeftFront)
	assert.True(t, writer.Applied[0].BrakeLight)

	// Faulted ticks apply an all-off vector.
	assert.Equal(t, logic.PowerOutput{}, writer.Applied[3])
	assert.Equal(t, logic.PowerOutput{}, writer.Applied[4])

	// Recovery re-activates the blinker at tick 500, so it starts in the on phase.
	assert.True(t, writer.Applied[5].TurnLeftFront)
	assert.True(t, writer.Applied[5].BrakeLight)
}

func TestRunLoopApplyErrorContinues(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(logic.DriverInput{Horn: true}, 3))
	writer := gpio.NewFakeWriter()
	writer.ApplyError = errors.New("bus fault")
	clk := &steppingClock{step: 1}

	require.NoError(t, runRunLoop(t, reader, writer, clk, 1000, 3, syscall.SIGTERM))
	assert.Len(t, writer.Applied, 3)
}

func TestRunLoopShutdownWithoutTicks(t *testing.T) {
	reader := gpio.NewFakeReader(nil)
	writer := gpio.NewFakeWriter()

	require.NoError(t, runRunLoop(t, reader, writer, &steppingClock{}, 1000, 0, syscall.SIGTERM))
	assert.Empty(t, writer.Applied)
}

// offlineReader fails every read and reports a dropped connection.
type offlineReader struct {
	statusCalls int
}

func (r *offlineReader) Read() (logic.DriverInput, error) {
	return logic.DriverInput{}, mqtt.ErrStale
}

func (r *offlineReader) IsConnected() bool {
	r.statusCalls++
	return false
}

func (r *offlineReader) Close() error { return nil }

func TestRunLoopLogsConnectionStateOnReadFailure(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	var buf bytes.Buffer
	logging.Setup(&buf, true, false)

	reader := &offlineReader{}
	writer := gpio.NewFakeWriter()
	require.NoError(t, runRunLoop(t, reader, writer, &steppingClock{step: 1}, 1000, 3, syscall.SIGTERM))

	// Logged once per failure episode, not per tick.
	assert.Equal(t, 1, reader.statusCalls)
	assert.Contains(t, buf.String(), "connected=false")
	assert.Contains(t, buf.String(), "input read failed")
}

func TestPrintInputSampleWaitsForRemoteSample(t *testing.T) {
	fc := mqtt.NewFakeClient()
	reader, err := mqtt.NewRemoteReaderWithClient(fc, mqtt.Options{Stale: time.Second})
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		fc.Deliver(mqtt.DefaultTopic, []byte(`{"ignition":true,"hazard_light":true}`))
	}()

	var out bytes.Buffer
	require.NoError(t, printInputSample(&out, reader, 5*time.Second))
	assert.Contains(t, out.String(), "ignition=ON")
	assert.Contains(t, out.String(), "hazard=ON")
	assert.Contains(t, out.String(), "horn=OFF")
}

func TestPrintInputSampleRemoteTimeout(t *testing.T) {
	reader, err := mqtt.NewRemoteReaderWithClient(mqtt.NewFakeClient(), mqtt.Options{})
	require.NoError(t, err)

	var out bytes.Buffer
	err = printInputSample(&out, reader, 20*time.Millisecond)
	assert.ErrorIs(t, err, mqtt.ErrNoSample)
	assert.Empty(t, out.String())
}

func TestPrintInputSampleGPIO(t *testing.T) {
	reader := gpio.NewFakeReader([]logic.DriverInput{{BrakeRear: true}})

	var out bytes.Buffer
	require.NoError(t, printInputSample(&out, reader, time.Millisecond))
	assert.Contains(t, out.String(), "brake_rear=ON")
}

func TestInputPinsMapping(t *testing.T) {
	pins := inputPins(config.Default().Input.Pins)
	assert.Equal(t, 2, pins[gpio.InIgnition])
	assert.Equal(t, 22, pins[gpio.InHazard])
	assert.Equal(t, 1, pins[gpio.InSideStand])

	seen := map[int]bool{}
	for _, p := range pins {
		assert.False(t, seen[p], "pin %d mapped twice", p)
		seen[p] = true
	}
}

func TestFormatChannels(t *testing.T) {
	assert.Equal(t, "-", formatChannels(nil))
	assert.Equal(t, "turn_left_front,horn", formatChannels([]logic.Channel{logic.TurnLeftFront, logic.Horn}))
}

func TestFormatInput(t *testing.T) {
	s := formatInput(logic.DriverInput{Ignition: true, SideStand: true})
	assert.Contains(t, s, "ignition=ON")
	assert.Contains(t, s, "side_stand=ON")
	assert.Contains(t, s, "horn=OFF")
}
