// Package testutil provides reusable helpers for measurement-engine tests:
// synthetic waveform builders, a scripted sample source and a recording
// observer.
package testutil

import (
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/itsBelinda/obp"
)

// Default tolerances for signal assertions.
const (
	DefaultTolerance  = 1e-9
	PressureTolerance = 8.0 // mmHg, end-to-end estimates
	RateTolerance     = 3.0 // beats per minute
)

// PressureToVolts converts a pressure in mmHg to the voltage a
// default-calibrated engine expects.
func PressureToVolts(mmHg float64) float64 {
	return mmHg/obp.DefaultMMHgPerVolt + obp.DefaultOffsetVolts
}

// Sine returns n samples of a sinusoid with the given frequency, sampling
// rate and peak amplitude.
func Sine(n int, freqHz, rateHz, amplitude float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/rateHz)
	}
	return s
}

// TraceSpec describes a synthetic measurement: a flat lead-in, a pump-up
// ramp, a hold at the top, a slow deflation with arterial oscillations and
// a flat tail at zero. The oscillation amplitude follows a triangular
// envelope over cuff pressure.
type TraceSpec struct {
	Rate float64 // Hz

	LeadInSec float64 // flat at 0 mmHg
	PumpTo    float64 // mmHg
	PumpRate  float64 // mmHg/s
	HoldSec   float64 // at the top, valve closed
	LeakRate  float64 // mmHg/s during deflation
	TailSec   float64 // flat at 0 mmHg after deflation

	PulseHz      float64 // arterial pulse frequency
	MaxAmplitude float64 // peak-to-trough at PeakPressure, mmHg
	PeakPressure float64 // envelope maximum, mmHg
	HalfWidth    float64 // triangular envelope half-width, mmHg
}

// Amplitude returns the envelope's peak-to-trough amplitude at a cuff
// pressure.
func (s TraceSpec) Amplitude(pressure float64) float64 {
	if s.HalfWidth <= 0 {
		return 0
	}
	a := s.MaxAmplitude * (1 - math.Abs(pressure-s.PeakPressure)/s.HalfWidth)
	if a < 0 {
		return 0
	}
	return a
}

// BuildVolts renders the trace as voltage samples for a default-calibrated
// engine.
func (s TraceSpec) BuildVolts() []float64 {
	dt := 1.0 / s.Rate
	var out []float64
	t := 0.0

	emit := func(pressure float64, oscillate bool) {
		p := pressure
		if oscillate {
			p += s.Amplitude(pressure) / 2 * math.Sin(2*math.Pi*s.PulseHz*t)
		}
		out = append(out, PressureToVolts(p))
		t += dt
	}

	for i := 0; i < int(s.LeadInSec*s.Rate); i++ {
		emit(0, false)
	}

	for p := 0.0; p < s.PumpTo; p += s.PumpRate * dt {
		emit(p, false)
	}

	for i := 0; i < int(s.HoldSec*s.Rate); i++ {
		emit(s.PumpTo, true)
	}

	for p := s.PumpTo; p > 0; p -= s.LeakRate * dt {
		emit(p, true)
	}

	for i := 0; i < int(s.TailSec*s.Rate); i++ {
		emit(0, false)
	}

	return out
}

// ExhaustPolicy controls what a SliceSource does once its samples run out.
type ExhaustPolicy int

const (
	// HoldEmpty reports no buffered samples forever, like a device that has
	// simply gone quiet.
	HoldEmpty ExhaustPolicy = iota

	// FailEOF fails the next read, like a device that ended acquisition.
	FailEOF
)

// SliceSource is a scripted sample source playing back a prepared voltage
// trace as fast as the engine will take it.
type SliceSource struct {
	Samples   []float64
	Rate      float64
	OnExhaust ExhaustPolicy

	pos int
}

// SamplingRate implements obp.SampleSource.
func (s *SliceSource) SamplingRate() float64 { return s.Rate }

// Buffered implements obp.SampleSource.
func (s *SliceSource) Buffered() int {
	remaining := len(s.Samples) - s.pos
	if remaining > 0 {
		return remaining
	}
	if s.OnExhaust == FailEOF {
		return 1
	}
	return 0
}

// ReadVoltage implements obp.SampleSource.
func (s *SliceSource) ReadVoltage() (float64, error) {
	if s.pos >= len(s.Samples) {
		return 0, io.EOF
	}
	v := s.Samples[s.pos]
	s.pos++
	return v, nil
}

// RecordingObserver records every notification and lets tests wait for
// specific events with a timeout.
type RecordingObserver struct {
	mu          sync.Mutex
	phases      []obp.Phase
	rates       []float64
	results     []obp.Result
	errors      []error
	sampleCount int
	readyCount  int

	phaseCh  chan obp.Phase
	resultCh chan obp.Result
	errCh    chan error
}

// NewRecordingObserver creates an empty recording observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{
		phaseCh:  make(chan obp.Phase, 64),
		resultCh: make(chan obp.Result, 8),
		errCh:    make(chan error, 8),
	}
}

func (r *RecordingObserver) OnNewSample(lowPass, highPass float64) {
	r.mu.Lock()
	r.sampleCount++
	r.mu.Unlock()
}

func (r *RecordingObserver) OnPhaseChange(phase obp.Phase) {
	r.mu.Lock()
	r.phases = append(r.phases, phase)
	r.mu.Unlock()
	select {
	case r.phaseCh <- phase:
	default:
	}
}

func (r *RecordingObserver) OnResult(result obp.Result) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	select {
	case r.resultCh <- result:
	default:
	}
}

func (r *RecordingObserver) OnHeartRate(bpm float64) {
	r.mu.Lock()
	r.rates = append(r.rates, bpm)
	r.mu.Unlock()
}

func (r *RecordingObserver) OnReady() {
	r.mu.Lock()
	r.readyCount++
	r.mu.Unlock()
}

func (r *RecordingObserver) OnError(err error) {
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
	select {
	case r.errCh <- err:
	default:
	}
}

// WaitForPhase blocks until the given phase change is observed.
func (r *RecordingObserver) WaitForPhase(t *testing.T, want obp.Phase, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case p := <-r.phaseCh:
			if p == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v; saw %v", want, r.Phases())
		}
	}
}

// WaitForResult blocks until a result is observed and returns it.
func (r *RecordingObserver) WaitForResult(t *testing.T, timeout time.Duration) obp.Result {
	t.Helper()
	select {
	case res := <-r.resultCh:
		return res
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for a result; errors: %v", r.Errors())
		return obp.Result{}
	}
}

// WaitForError blocks until an error notification is observed.
func (r *RecordingObserver) WaitForError(t *testing.T, timeout time.Duration) error {
	t.Helper()
	select {
	case err := <-r.errCh:
		return err
	case <-time.After(timeout):
		t.Fatal("timed out waiting for an error notification")
		return nil
	}
}

// Phases returns a copy of the observed phase sequence.
func (r *RecordingObserver) Phases() []obp.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]obp.Phase, len(r.phases))
	copy(out, r.phases)
	return out
}

// Rates returns a copy of the observed heart-rate values.
func (r *RecordingObserver) Rates() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.rates))
	copy(out, r.rates)
	return out
}

// Results returns a copy of the observed results.
func (r *RecordingObserver) Results() []obp.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]obp.Result, len(r.results))
	copy(out, r.results)
	return out
}

// Errors returns a copy of the observed error notifications.
func (r *RecordingObserver) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// SampleCount returns the number of OnNewSample notifications seen.
func (r *RecordingObserver) SampleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleCount
}

// ReadyCount returns the number of OnReady notifications seen.
func (r *RecordingObserver) ReadyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readyCount
}

// CountPhase returns how often a phase appears in the observed sequence.
func (r *RecordingObserver) CountPhase(p obp.Phase) int {
	n := 0
	for _, q := range r.Phases() {
		if q == p {
			n++
		}
	}
	return n
}
