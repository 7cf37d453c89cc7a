package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsBelinda/obp"
)

var _ obp.SampleSource = (*Simulator)(nil)
var _ obp.SampleSource = (*WAV)(nil)

// pressureOf converts a simulator voltage sample back to mmHg using the
// default calibration the simulator encodes with.
func pressureOf(t *testing.T, s *Simulator) float64 {
	t.Helper()
	v, err := s.ReadVoltage()
	require.NoError(t, err)
	return (v - obp.DefaultOffsetVolts) * obp.DefaultMMHgPerVolt
}

func drain(s *Simulator, n int) {
	for i := 0; i < n; i++ {
		s.ReadVoltage() //nolint:errcheck // the simulator never fails
	}
}

func TestSimulatorEmptyCuff(t *testing.T) {
	s := NewSimulator(SimulatorConfig{Noise: -1})

	// Pump off, valve closed: the cuff stays empty and the voltage is
	// the calibration offset.
	for i := 0; i < 100; i++ {
		assert.InDelta(t, 0.0, pressureOf(t, s), 1e-6)
	}
	assert.Zero(t, s.Pressure())
}

func TestSimulatorPumpAndVent(t *testing.T) {
	const rate = 500.0
	s := NewSimulator(SimulatorConfig{SampleRate: rate, PumpRate: 60.0, Noise: -1})

	// Two seconds of pumping at 60 mmHg/s.
	s.StartPumping()
	drain(s, int(2*rate))
	require.InDelta(t, 120.0, s.Pressure(), 1.0)

	// Holding: pump off, valve closed.
	s.StopPumping()
	drain(s, int(rate))
	require.InDelta(t, 120.0, s.Pressure(), 1.0)

	// Venting at 40 mmHg/s for one second.
	s.SetValve(40.0)
	drain(s, int(rate))
	require.InDelta(t, 80.0, s.Pressure(), 1.0)

	// The cuff never goes below empty.
	drain(s, int(10*rate))
	assert.Zero(t, s.Pressure())
}

func TestSimulatorOscillationEnvelope(t *testing.T) {
	const rate = 500.0
	s := NewSimulator(SimulatorConfig{
		SampleRate:   rate,
		MAP:          100.0,
		MaxAmplitude: 4.0,
		Noise:        -1,
	})

	// swingAt holds the cuff near a pressure and measures the
	// peak-to-trough swing of the samples around it over two seconds.
	swingAt := func(target float64) float64 {
		s.StartPumping()
		for s.Pressure() < target {
			drain(s, 1)
		}
		s.StopPumping()

		lo, hi := target+1000, target-1000
		for i := 0; i < int(2*rate); i++ {
			p := pressureOf(t, s)
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		return hi - lo
	}

	// At MAP the full configured amplitude shows; far above it the
	// gaussian envelope has decayed.
	atMAP := swingAt(100.0)
	farAbove := swingAt(175.0)
	assert.InDelta(t, 4.0, atMAP, 0.5)
	assert.Less(t, farAbove, atMAP/4)
}

func TestSimulatorSilentWhenNearlyEmpty(t *testing.T) {
	s := NewSimulator(SimulatorConfig{Noise: -1})
	s.StartPumping()
	for s.Pressure() < 10.0 {
		drain(s, 1)
	}
	s.StopPumping()

	// Below the unloading threshold the artery does not oscillate.
	p0 := s.Pressure()
	for i := 0; i < 500; i++ {
		assert.InDelta(t, p0, pressureOf(t, s), 1e-6)
	}
}

func TestSimulatorBufferedNonRealtime(t *testing.T) {
	s := NewSimulator(SimulatorConfig{})
	// Without realtime pacing a sample is always available.
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, s.Buffered())
		drain(s, 1)
	}
}
