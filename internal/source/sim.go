// Package source provides SampleSource implementations for the measurement
// engine: a synthetic cuff simulator and a replay source for recorded
// pressure traces.
package source

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/itsBelinda/obp"
)

// Simulator defaults.
const (
	defaultSimRate       = 500.0 // Hz
	defaultSimHeartRate  = 72.0  // beats per minute
	defaultSimMAP        = 100.0 // mmHg, center of the oscillation envelope
	defaultSimAmplitude  = 3.0   // mmHg, peak-to-trough at the envelope maximum
	defaultSimSigma      = 25.0  // mmHg, gaussian envelope width
	defaultSimPumpRate   = 30.0  // mmHg/s while pumping
	defaultSimMaxMmHg    = 300.0 // mmHg, cuff burst-protection ceiling
	defaultSimNoise      = 0.05  // mmHg, uniform noise amplitude
	minOscillationMmHg   = 15.0  // below this cuff pressure the artery is unloaded
	secondsPerMinuteSim  = 60.0
	fullCircle           = 2.0 * math.Pi
	defaultSimulatorSeed = 1
)

// SimulatorConfig parameterizes the synthetic cuff. Zero fields take the
// defaults above.
type SimulatorConfig struct {
	// SampleRate in Hz.
	SampleRate float64

	// HeartRateBPM of the simulated subject.
	HeartRateBPM float64

	// MAP is the cuff pressure at which the oscillation amplitude peaks.
	MAP float64

	// MaxAmplitude is the peak-to-trough oscillation amplitude at MAP,
	// in mmHg.
	MaxAmplitude float64

	// EnvelopeSigma is the gaussian width of the amplitude envelope over
	// cuff pressure, in mmHg.
	EnvelopeSigma float64

	// PumpRate is the inflation speed while pumping, in mmHg/s.
	PumpRate float64

	// MaxPressure is the cuff's pressure ceiling in mmHg; pumping beyond
	// it has no effect.
	MaxPressure float64

	// Noise is the uniform measurement-noise amplitude in mmHg. Zero
	// takes the default; a negative value disables noise entirely.
	Noise float64

	// Realtime paces Buffered against the wall clock. When false, a sample
	// is always available, which is what tests want.
	Realtime bool

	// Seed for the deterministic noise generator.
	Seed int64
}

// Simulator is a synthetic pressure cuff with a pump and a valve. The pump
// and valve are driven by the presentation side (or a script) through
// StartPumping, StopPumping and SetValve, mimicking the manually operated
// hardware.
//
// Samples come out as volts using the engine's default calibration, so a
// default-configured engine reads back the simulated pressure in mmHg.
type Simulator struct {
	cfg SimulatorConfig

	mu       sync.Mutex
	pressure float64 // cuff pressure, mmHg
	pumping  bool
	leak     float64 // valve leak rate, mmHg/s

	phase   float64
	rng     *rand.Rand
	start   time.Time
	emitted int64
}

// NewSimulator creates a simulator with an empty cuff, pump off and valve
// closed.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSimRate
	}
	if cfg.HeartRateBPM <= 0 {
		cfg.HeartRateBPM = defaultSimHeartRate
	}
	if cfg.MAP <= 0 {
		cfg.MAP = defaultSimMAP
	}
	if cfg.MaxAmplitude <= 0 {
		cfg.MaxAmplitude = defaultSimAmplitude
	}
	if cfg.EnvelopeSigma <= 0 {
		cfg.EnvelopeSigma = defaultSimSigma
	}
	if cfg.PumpRate <= 0 {
		cfg.PumpRate = defaultSimPumpRate
	}
	if cfg.MaxPressure <= 0 {
		cfg.MaxPressure = defaultSimMaxMmHg
	}
	if cfg.Noise == 0 {
		cfg.Noise = defaultSimNoise
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultSimulatorSeed
	}

	return &Simulator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		start: time.Now(),
	}
}

// StartPumping closes the valve and starts inflating the cuff.
func (s *Simulator) StartPumping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumping = true
	s.leak = 0
}

// StopPumping stops inflating. The valve state is unchanged.
func (s *Simulator) StopPumping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumping = false
}

// SetValve sets the valve leak rate in mmHg/s. 0 closes the valve; a small
// value models the slow release of a measurement; a large value vents the
// cuff.
func (s *Simulator) SetValve(leakMmHgPerSec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leak = leakMmHgPerSec
}

// Pressure returns the current true cuff pressure in mmHg.
func (s *Simulator) Pressure() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressure
}

// SamplingRate implements obp.SampleSource.
func (s *Simulator) SamplingRate() float64 {
	return s.cfg.SampleRate
}

// Buffered implements obp.SampleSource. In realtime mode it reports how
// many samples the wall clock has made due; otherwise a sample is always
// available.
func (s *Simulator) Buffered() int {
	if !s.cfg.Realtime {
		return 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	due := int64(time.Since(s.start).Seconds() * s.cfg.SampleRate)
	if due <= s.emitted {
		return 0
	}
	return int(due - s.emitted)
}

// ReadVoltage implements obp.SampleSource. The simulator never fails.
func (s *Simulator) ReadVoltage() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 1.0 / s.cfg.SampleRate

	if s.pumping {
		s.pressure += s.cfg.PumpRate * dt
		if s.pressure > s.cfg.MaxPressure {
			s.pressure = s.cfg.MaxPressure
		}
	}
	s.pressure -= s.leak * dt
	if s.pressure < 0 {
		s.pressure = 0
	}

	s.phase += s.cfg.HeartRateBPM / secondsPerMinuteSim * dt
	if s.phase >= 1 {
		s.phase -= 1
	}

	p := s.pressure + s.oscillation() + s.noise()
	s.emitted++

	return p/obp.DefaultMMHgPerVolt + obp.DefaultOffsetVolts, nil
}

// oscillation returns the arterial pulsation riding on the cuff pressure.
// Its peak-to-trough amplitude follows a gaussian envelope over cuff
// pressure, centered on the configured MAP.
func (s *Simulator) oscillation() float64 {
	if s.pressure < minOscillationMmHg {
		return 0
	}
	z := (s.pressure - s.cfg.MAP) / s.cfg.EnvelopeSigma
	amp := s.cfg.MaxAmplitude * math.Exp(-0.5*z*z)
	return amp / 2 * math.Sin(fullCircle*s.phase)
}

func (s *Simulator) noise() float64 {
	if s.cfg.Noise <= 0 {
		return 0
	}
	return s.cfg.Noise * (2*s.rng.Float64() - 1)
}
