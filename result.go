package obp

// Result holds the outcome of one completed measurement cycle, in mmHg.
// A Result is computed once per cycle and retained until the next cycle
// overwrites it.
type Result struct {
	// MAP is the mean arterial pressure: the cuff pressure at the point of
	// maximum oscillation amplitude.
	MAP float64

	// SBP is the systolic blood pressure, estimated where the amplitude
	// envelope crosses the systolic ratio on the high-pressure side of MAP.
	SBP float64

	// DBP is the diastolic blood pressure, estimated where the envelope
	// crosses the diastolic ratio on the low-pressure side of MAP.
	DBP float64

	// HeartRate is the average heart rate over the deflation run in
	// beats per minute, or 0 if no beat was detected.
	HeartRate float64
}

// Reading is a consistent snapshot of the engine's observable state,
// copied out under a short-held lock by [Engine.Snapshot].
type Reading struct {
	// LowPass is the latest low-pass filtered cuff pressure in mmHg.
	LowPass float64

	// HighPass is the latest high-pass filtered oscillation value in mmHg.
	HighPass float64

	// Phase is the current measurement phase.
	Phase Phase

	// HeartRate is the most recent instantaneous heart rate in beats per
	// minute, or 0 before the first confirmed beat.
	HeartRate float64

	// Result is the outcome of the last completed cycle, or nil if no
	// cycle has produced a numeric result yet.
	Result *Result
}
