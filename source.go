package obp

// SampleSource is the acquisition channel the engine pulls cuff-pressure
// samples from. Implementations wrap real hardware, a recorded trace, or a
// simulator; see the internal/source package for the latter two.
//
// The engine calls a SampleSource only from its acquisition goroutine, so
// implementations need not be safe for concurrent use.
type SampleSource interface {
	// SamplingRate returns the sampling rate in Hz. It is fixed for the
	// lifetime of the engine and paces the acquisition loop.
	SamplingRate() float64

	// Buffered returns the number of samples ready to be read without
	// stalling. The engine sleeps one sample period when it returns 0.
	Buffered() int

	// ReadVoltage pulls exactly one sample, converted to volts. A non-nil
	// error is unrecoverable (end of acquisition): the engine terminates
	// its loop and surfaces the failure, wrapped in ErrHardwareRead.
	ReadVoltage() (float64, error)
}
