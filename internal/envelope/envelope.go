// Package envelope collects the (cuff pressure, oscillation amplitude)
// points traced out by confirmed pulses during one deflation run and
// extracts the blood-pressure estimate with the fixed-ratio oscillometric
// method: amplitude peaks at the mean arterial pressure and decays on both
// sides; the systolic and diastolic pressures are where the decaying
// envelope crosses a fixed fraction of its peak.
package envelope

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// Estimation failure modes. Both are recoverable: the user empties the
// cuff and retries.
var (
	// ErrInsufficientData indicates the deflation run contained fewer
	// oscillations than required.
	ErrInsufficientData = errors.New("insufficient oscillation data")

	// ErrRatioCrossingNotFound indicates the envelope never decayed to a
	// ratio target on one side of its peak.
	ErrRatioCrossingNotFound = errors.New("envelope never reached ratio target")
)

// Point is one envelope sample: the cuff pressure at a confirmed pulse
// peak and the pulse's peak-to-trough amplitude.
type Point struct {
	Pressure  float64
	Amplitude float64
}

// Recorder accumulates envelope points over one deflation run. Deflation
// is monotonically falling, so points arrive ordered by decreasing
// pressure.
type Recorder struct {
	points []Point
}

// Add appends one point.
func (r *Recorder) Add(pressure, amplitude float64) {
	r.points = append(r.points, Point{Pressure: pressure, Amplitude: amplitude})
}

// Len returns the number of recorded points.
func (r *Recorder) Len() int {
	return len(r.points)
}

// Points returns the recorded sequence. The slice is owned by the
// recorder; callers must not retain it across a Reset.
func (r *Recorder) Points() []Point {
	return r.points
}

// Reset discards all points. Called at the start of each deflation run.
func (r *Recorder) Reset() {
	r.points = r.points[:0]
}

// Estimate holds the pressures read off the envelope, in mmHg.
type Estimate struct {
	MAP float64
	SBP float64
	DBP float64
}

// Compute runs the fixed-ratio method over one deflation run's points.
//
// MAP is the pressure at the point of maximum amplitude; on ties the first
// occurrence (highest pressure) wins. SBP is the pressure of the first
// point, scanning from MAP toward higher pressure, whose amplitude is at
// or below ratioSBP times the maximum; DBP likewise toward lower pressure
// with ratioDBP. A side with no such crossing fails with
// ErrRatioCrossingNotFound rather than extrapolating.
func Compute(points []Point, ratioSBP, ratioDBP float64, minPeaks int) (Estimate, error) {
	if len(points) < minPeaks {
		return Estimate{}, ErrInsufficientData
	}

	amps := make([]float64, len(points))
	for i, p := range points {
		amps[i] = p.Amplitude
	}

	// floats.MaxIdx returns the first maximal index, which is the
	// highest-pressure occurrence in a deflation-ordered sequence.
	maxIdx := floats.MaxIdx(amps)
	maxAmp := amps[maxIdx]
	if maxAmp <= 0 {
		return Estimate{}, ErrInsufficientData
	}

	est := Estimate{MAP: points[maxIdx].Pressure}

	sbp, ok := scanOutward(points, maxIdx, -1, ratioSBP*maxAmp)
	if !ok {
		return Estimate{}, ErrRatioCrossingNotFound
	}
	est.SBP = sbp

	dbp, ok := scanOutward(points, maxIdx, +1, ratioDBP*maxAmp)
	if !ok {
		return Estimate{}, ErrRatioCrossingNotFound
	}
	est.DBP = dbp

	return est, nil
}

// scanOutward walks from the peak index in the given direction and returns
// the pressure of the first point whose amplitude has fallen to or below
// target.
func scanOutward(points []Point, from, step int, target float64) (float64, bool) {
	for i := from; i >= 0 && i < len(points); i += step {
		if points[i].Amplitude <= target {
			return points[i].Pressure, true
		}
	}
	return 0, false
}
