// Package pulse detects discrete pulse events in the high-pass filtered
// oscillation stream and derives heart rate from their spacing.
package pulse

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Detector tuning constants.
const (
	// baselineCutoffHz tracks the slow residual offset of the high-pass
	// stream (a steady deflation slope leaks through a single-pole
	// high-pass as a constant offset). Crossings are detected against this
	// baseline rather than against zero.
	baselineCutoffHz = 0.2

	// DefaultMinAmplitude is the smallest peak-to-trough swing in mmHg
	// accepted as a pulse. Swings below it are treated as noise.
	DefaultMinAmplitude = 0.1

	// Plausible instantaneous heart-rate band in beats per minute. Beats
	// spaced outside this band are still confirmed, but their rate is not
	// reported.
	minPlausibleBPM = 25.0
	maxPlausibleBPM = 220.0

	secondsPerMinute = 60.0
)

// Beat is one confirmed pulse event.
type Beat struct {
	// Amplitude is the peak-to-trough swing of the oscillation in mmHg.
	// It is computed identically for the heart-rate path and the envelope
	// path.
	Amplitude float64

	// Pressure is the low-pass cuff pressure at the moment the peak was
	// recorded.
	Pressure float64

	// BPM is the instantaneous heart rate derived from the spacing to the
	// previous confirmed beat, or 0 when unknown (first beat, or spacing
	// outside the plausible band).
	BPM float64
}

// Detector finds local pulse peaks in the high-pass stream. A peak is
// confirmed only after the signal has swung below the baseline and crossed
// back up through it, preventing double-counting within one pulse.
type Detector struct {
	rate         float64
	minAmplitude float64

	baseline       float64
	baselineAlpha  float64
	primed         bool
	prev           float64
	max, min       float64
	pressureAtPeak float64

	n           int64 // samples consumed
	lastBeatIdx int64 // sample index of the last confirmed beat, -1 if none
}

// NewDetector creates a detector for a stream sampled at rateHz.
func NewDetector(rateHz float64) *Detector {
	dt := 1.0 / rateHz
	rc := 1.0 / (2.0 * math.Pi * baselineCutoffHz)
	d := &Detector{
		rate:          rateHz,
		minAmplitude:  DefaultMinAmplitude,
		baselineAlpha: dt / (rc + dt),
	}
	d.Reset()
	return d
}

// SetMinAmplitude overrides the noise floor. Values at or below zero
// disable the floor entirely.
func (d *Detector) SetMinAmplitude(v float64) {
	d.minAmplitude = v
}

// Process consumes one high-pass sample together with the concurrent
// low-pass cuff pressure. It returns a confirmed Beat and true when the
// sample completes a full oscillation swing.
func (d *Detector) Process(highPass, lowPass float64) (Beat, bool) {
	d.n++

	if !d.primed {
		d.primed = true
		d.baseline = highPass
		d.prev = 0
		return Beat{}, false
	}

	d.baseline += d.baselineAlpha * (highPass - d.baseline)
	ac := highPass - d.baseline

	confirmed := false
	var beat Beat

	// Rising baseline crossing: the previous swing is complete.
	if d.prev < 0 && ac >= 0 {
		swing := d.max - d.min
		if swing >= d.minAmplitude && d.max > 0 && d.min < 0 {
			beat = Beat{
				Amplitude: swing,
				Pressure:  d.pressureAtPeak,
				BPM:       d.instantBPM(),
			}
			d.lastBeatIdx = d.n
			confirmed = true
		}
		d.max = 0
	}

	// Falling baseline crossing: start tracking the trough.
	if d.prev > 0 && ac <= 0 {
		d.min = 0
	}

	if ac > d.max {
		d.max = ac
		d.pressureAtPeak = lowPass
	}
	if ac < d.min {
		d.min = ac
	}

	d.prev = ac
	return beat, confirmed
}

// instantBPM converts the spacing to the previous confirmed beat into a
// rate, or 0 when no plausible rate can be derived.
func (d *Detector) instantBPM() float64 {
	if d.lastBeatIdx < 0 {
		return 0
	}
	dt := float64(d.n-d.lastBeatIdx) / d.rate
	if dt <= 0 {
		return 0
	}
	bpm := secondsPerMinute / dt
	if bpm < minPlausibleBPM || bpm > maxPlausibleBPM {
		return 0
	}
	return bpm
}

// Reset clears all detector state. The next sample primes the baseline.
func (d *Detector) Reset() {
	d.primed = false
	d.baseline = 0
	d.prev = 0
	d.max = 0
	d.min = 0
	d.pressureAtPeak = 0
	d.n = 0
	d.lastBeatIdx = -1
}

// RateAverager accumulates instantaneous heart-rate values over one
// deflation run and reports their arithmetic mean.
type RateAverager struct {
	bpms []float64
}

// Add records one instantaneous value. Zero values (unknown rate) are
// ignored.
func (a *RateAverager) Add(bpm float64) {
	if bpm <= 0 {
		return
	}
	a.bpms = append(a.bpms, bpm)
}

// Count returns the number of recorded values.
func (a *RateAverager) Count() int {
	return len(a.bpms)
}

// Average returns the mean of all recorded values, or 0 if none were
// recorded.
func (a *RateAverager) Average() float64 {
	if len(a.bpms) == 0 {
		return 0
	}
	return stat.Mean(a.bpms, nil)
}

// Reset discards all recorded values.
func (a *RateAverager) Reset() {
	a.bpms = a.bpms[:0]
}
