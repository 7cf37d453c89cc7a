package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRateHz = 500.0

func TestLowPassPrimesOnFirstSample(t *testing.T) {
	f := NewLowPass(DefaultLowPassCutoffHz, testRateHz)

	// The first sample must pass through unchanged, even when it is far
	// from zero. A filter starting from zero state would ramp up slowly.
	got := f.Filter(180.0)
	assert.Equal(t, 180.0, got)
}

func TestLowPassUnityDCGain(t *testing.T) {
	f := NewLowPass(DefaultLowPassCutoffHz, testRateHz)

	var y float64
	for i := 0; i < int(testRateHz); i++ {
		y = f.Filter(100.0)
	}
	assert.InDelta(t, 100.0, y, 1e-9, "constant input must be preserved")
}

func TestLowPassStepResponse(t *testing.T) {
	f := NewLowPass(DefaultLowPassCutoffHz, testRateHz)
	f.Filter(0)

	// The step response must rise monotonically toward the input without
	// overshoot.
	prev := 0.0
	for i := 0; i < 2000; i++ {
		y := f.Filter(1.0)
		require.GreaterOrEqual(t, y, prev, "step response must not oscillate")
		require.LessOrEqual(t, y, 1.0, "step response must not overshoot")
		prev = y
	}
	assert.InDelta(t, 1.0, prev, 1e-6)
}

func TestLowPassCutoffIsRateInvariant(t *testing.T) {
	// The same cutoff at different sampling rates must produce the same
	// step response at the same wall-clock time.
	const (
		cutoffHz = 10.0
		atSec    = 0.05
	)

	stepAt := func(rateHz float64) float64 {
		f := NewLowPass(cutoffHz, rateHz)
		f.Filter(0)
		var y float64
		for i := 0; i < int(atSec*rateHz); i++ {
			y = f.Filter(1.0)
		}
		return y
	}

	slow := stepAt(100.0)
	fast := stepAt(1000.0)
	assert.InDelta(t, slow, fast, 0.02)
}

func TestHighPassRejectsDC(t *testing.T) {
	f := NewHighPass(DefaultHighPassCutoffHz, testRateHz)

	// A constant input after priming carries no information; the output
	// must stay at zero exactly.
	for i := 0; i < 100; i++ {
		y := f.Filter(42.0)
		require.InDelta(t, 0.0, y, 1e-12)
	}
}

func TestHighPassPassesStepThenDecays(t *testing.T) {
	f := NewHighPass(DefaultHighPassCutoffHz, testRateHz)
	f.Filter(0)

	// A step passes through almost fully and then decays back to zero
	// with the filter time constant.
	y := f.Filter(1.0)
	assert.Greater(t, y, 0.9)

	// Five time constants later the step has been forgotten.
	var settleF float64 = 5.0 * testRateHz / (2.0 * math.Pi * DefaultHighPassCutoffHz)
	settle := int(settleF)
	for i := 0; i < settle; i++ {
		y = f.Filter(1.0)
	}
	assert.InDelta(t, 0.0, y, 0.05)
}

func TestHighPassPassesPulseBand(t *testing.T) {
	// A 1.5 Hz tone sits well above the 0.5 Hz cutoff and must come
	// through with most of its amplitude.
	const (
		freqHz = 1.5
		ampIn  = 2.0
	)
	f := NewHighPass(DefaultHighPassCutoffHz, testRateHz)

	var maxOut float64
	onePeriod := float64(testRateHz) / freqHz
	n := int(4.0 * testRateHz)
	for i := 0; i < n; i++ {
		x := ampIn * math.Sin(2.0*math.Pi*freqHz*float64(i)/testRateHz)
		y := f.Filter(x)
		// Skip the first period while the filter settles.
		if i > int(onePeriod) && y > maxOut {
			maxOut = y
		}
	}
	assert.Greater(t, maxOut, 0.9*ampIn)
}

func TestFilterReset(t *testing.T) {
	lp := NewLowPass(DefaultLowPassCutoffHz, testRateHz)
	hp := NewHighPass(DefaultHighPassCutoffHz, testRateHz)
	for i := 0; i < 50; i++ {
		lp.Filter(100.0)
		hp.Filter(float64(i))
	}

	lp.Reset()
	hp.Reset()

	// After a reset the next sample primes the state again.
	assert.Equal(t, 7.0, lp.Filter(7.0))
	assert.Equal(t, 0.0, hp.Filter(7.0))
}

func TestBankSplitsTrendAndPulse(t *testing.T) {
	// A slow ramp with a pulse tone on top: the low-pass output follows
	// the ramp, the high-pass output follows the tone.
	const (
		pulseHz  = 1.5
		pulseAmp = 1.0
		rampTo   = 150.0
		duration = 10.0
	)
	b := NewBank(testRateHz)

	n := int(duration * testRateHz)
	lastLP := 0.0
	maxHP := math.Inf(-1)
	minHP := math.Inf(1)
	for i := 0; i < n; i++ {
		ts := float64(i) / testRateHz
		x := rampTo*ts/duration + pulseAmp*math.Sin(2.0*math.Pi*pulseHz*ts)
		lp, hp := b.Process(x)
		lastLP = lp
		// The ramp leaks a constant offset of slope*RC through the
		// high-pass; the tone swing around it is what matters.
		if ts > 2.0 {
			maxHP = math.Max(maxHP, hp)
			minHP = math.Min(minHP, hp)
		}
	}

	assert.InDelta(t, rampTo, lastLP, 3.0, "low-pass must track the ramp")
	assert.InDelta(t, 2.0*pulseAmp, maxHP-minHP, 0.4, "high-pass must keep the tone swing")
}
