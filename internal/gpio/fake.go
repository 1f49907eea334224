package gpio

import (
	"errors"

	"github.com/sweeney/aux-power/internal/logic"
)

// FakeReader is a test double that returns scripted driver input.
type FakeReader struct {
	// Samples contains scripted inputs to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.DriverInput

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.DriverInput) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (logic.DriverInput, error) {
	if f.ReadError != nil {
		return logic.DriverInput{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.DriverInput{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records applied outputs for test assertions.
type FakeWriter struct {
	// Applied contains every output passed to Apply, in order.
	Applied []logic.PowerOutput

	// ApplyError, if set, will be returned by Apply after recording.
	ApplyError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Apply records the output.
func (f *FakeWriter) Apply(out logic.PowerOutput) error {
	f.Applied = append(f.Applied, out)
	return f.ApplyError
}

// Last returns the most recently applied output.
func (f *FakeWriter) Last() (logic.PowerOutput, bool) {
	if len(f.Applied) == 0 {
		return logic.PowerOutput{}, false
	}
	return f.Applied[len(f.Applied)-1], true
}

// Close records an all-off output and marks the writer closed.
func (f *FakeWriter) Close() error {
	f.Applied = append(f.Applied, logic.PowerOutput{})
	f.Closed = true
	return nil
}
