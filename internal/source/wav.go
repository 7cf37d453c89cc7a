package source

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"
)

// ErrEndOfRecording is returned by a replay source once the recorded trace
// is exhausted. The engine treats it as the end of acquisition.
var ErrEndOfRecording = errors.New("end of recording")

// defaultFullScaleVolts is the ADC reference: a full-scale PCM sample maps
// to this voltage.
const defaultFullScaleVolts = 4.096

// WAVConfig parameterizes a recorded-trace source.
type WAVConfig struct {
	// FullScaleVolts maps full-scale PCM to volts. Zero takes the default
	// ADC reference.
	FullScaleVolts float64

	// Realtime paces Buffered at the recorded rate instead of making the
	// whole trace available at once.
	Realtime bool
}

// WAV replays a recorded cuff-pressure trace from a mono WAV file at its
// recorded sample rate. Once the trace is exhausted every read fails with
// ErrEndOfRecording, which the engine surfaces as a hardware read failure —
// a recording that ran out mid-measurement is indistinguishable from a
// device that stopped producing samples.
type WAV struct {
	samples []float64 // volts
	raw     []int
	rate    float64
	pos     int

	realtime bool
	start    time.Time
}

// OpenWAV decodes the whole trace into memory. Recorded measurements are a
// few minutes of single-channel audio-rate data, small enough to hold.
func OpenWAV(path string, cfg WAVConfig) (*WAV, error) {
	if cfg.FullScaleVolts <= 0 {
		cfg.FullScaleVolts = defaultFullScaleVolts
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return nil, fmt.Errorf("decode recording %s: expected a mono pressure trace", path)
	}
	if len(buf.Data) == 0 {
		return nil, fmt.Errorf("decode recording %s: no samples", path)
	}

	// Full-scale PCM for the recorded bit depth.
	maxPCM := float64(int64(1)<<(dec.BitDepth-1)) - 1

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v)
	}
	f64.Scale(samples, samples, cfg.FullScaleVolts/maxPCM)

	return &WAV{
		samples:  samples,
		raw:      buf.Data,
		rate:     float64(buf.Format.SampleRate),
		realtime: cfg.Realtime,
		start:    time.Now(),
	}, nil
}

// SamplingRate implements obp.SampleSource.
func (w *WAV) SamplingRate() float64 {
	return w.rate
}

// Len returns the total number of samples in the trace.
func (w *WAV) Len() int {
	return len(w.samples)
}

// Buffered implements obp.SampleSource.
func (w *WAV) Buffered() int {
	remaining := len(w.samples) - w.pos
	if remaining <= 0 {
		// Exhausted: report one so the engine performs the read and
		// observes the end of the recording instead of idling forever.
		return 1
	}
	if !w.realtime {
		return remaining
	}
	due := int(time.Since(w.start).Seconds()*w.rate) - w.pos
	if due > remaining {
		due = remaining
	}
	if due < 0 {
		due = 0
	}
	return due
}

// ReadVoltage implements obp.SampleSource.
func (w *WAV) ReadVoltage() (float64, error) {
	if w.pos >= len(w.samples) {
		return 0, ErrEndOfRecording
	}
	v := w.samples[w.pos]
	w.pos++
	return v, nil
}

// ReadRaw pulls the next sample as the raw PCM value.
func (w *WAV) ReadRaw() (int, error) {
	if w.pos >= len(w.raw) {
		return 0, ErrEndOfRecording
	}
	v := w.raw[w.pos]
	w.pos++
	return v, nil
}
