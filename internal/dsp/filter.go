// Package dsp provides the streaming filters of the measurement pipeline.
//
// The filter bank splits each raw cuff-pressure sample into a low-pass
// component (the pressure the cuff currently holds) and a high-pass
// component (the arterial pulsation riding on it). Both filters are causal
// single-pole recursive filters with O(1) state, so the pipeline is
// single-pass and real-time.
package dsp

import "math"

// Default filter-bank cutoffs in Hz. The low-pass cutoff is high enough to
// follow a quick pump-up without visible lag; the high-pass cutoff sits
// below the slowest physiological pulse rate so pulsations pass while the
// deflation trend is rejected.
const (
	// DefaultLowPassCutoffHz smooths the cuff-pressure trend.
	DefaultLowPassCutoffHz = 10.0

	// DefaultHighPassCutoffHz isolates the pulsatile oscillations.
	DefaultHighPassCutoffHz = 0.5
)

// timeConstant returns the RC time constant for a cutoff frequency.
func timeConstant(cutoffHz float64) float64 {
	return 1.0 / (2.0 * math.Pi * cutoffHz)
}

// LowPass is a single-pole recursive low-pass filter:
//
//	y[n] = y[n-1] + alpha * (x[n] - y[n-1])
//
// The first sample after construction or Reset primes the filter state, so
// there is no startup transient.
type LowPass struct {
	alpha  float64
	y      float64
	primed bool
}

// NewLowPass creates a low-pass filter with the given cutoff, scaled to the
// sampling rate so behavior is invariant to hardware rate changes.
func NewLowPass(cutoffHz, rateHz float64) *LowPass {
	dt := 1.0 / rateHz
	rc := timeConstant(cutoffHz)
	return &LowPass{alpha: dt / (rc + dt)}
}

// Filter consumes one sample and returns the filtered value, updating the
// filter state in place.
func (f *LowPass) Filter(x float64) float64 {
	if !f.primed {
		f.y = x
		f.primed = true
		return x
	}
	f.y += f.alpha * (x - f.y)
	return f.y
}

// Reset clears the filter state. The next sample primes it again.
func (f *LowPass) Reset() {
	f.y = 0
	f.primed = false
}

// HighPass is a single-pole recursive high-pass filter:
//
//	y[n] = a * (y[n-1] + x[n] - x[n-1])
//
// Like LowPass, the first sample primes the state so a large initial input
// does not produce a spike.
type HighPass struct {
	a      float64
	prevX  float64
	y      float64
	primed bool
}

// NewHighPass creates a high-pass filter with the given cutoff at the given
// sampling rate.
func NewHighPass(cutoffHz, rateHz float64) *HighPass {
	dt := 1.0 / rateHz
	rc := timeConstant(cutoffHz)
	return &HighPass{a: rc / (rc + dt)}
}

// Filter consumes one sample and returns the filtered value.
func (f *HighPass) Filter(x float64) float64 {
	if !f.primed {
		f.prevX = x
		f.y = 0
		f.primed = true
		return 0
	}
	f.y = f.a * (f.y + x - f.prevX)
	f.prevX = x
	return f.y
}

// Reset clears the filter state.
func (f *HighPass) Reset() {
	f.prevX = 0
	f.y = 0
	f.primed = false
}

// Bank runs the two filters of the measurement pipeline over the same input
// stream. The filters are independent and never share state.
type Bank struct {
	lp *LowPass
	hp *HighPass
}

// NewBank creates a filter bank with the default cutoffs at the given
// sampling rate.
func NewBank(rateHz float64) *Bank {
	return &Bank{
		lp: NewLowPass(DefaultLowPassCutoffHz, rateHz),
		hp: NewHighPass(DefaultHighPassCutoffHz, rateHz),
	}
}

// Process consumes one raw sample and returns the low-pass and high-pass
// components.
func (b *Bank) Process(x float64) (lowPass, highPass float64) {
	return b.lp.Filter(x), b.hp.Filter(x)
}

// Reset clears both filters.
func (b *Bank) Reset() {
	b.lp.Reset()
	b.hp.Reset()
}
