package obp

import (
	"go.uber.org/zap"

	"github.com/itsBelinda/obp/internal/envelope"
	"github.com/itsBelinda/obp/internal/pulse"
)

// step advances the measurement state machine by one sample. Transitions
// are driven solely by the low-pass trend and the commands consumed in
// consumeCommands, never by the high-pass stream directly, which keeps
// threshold detection robust to pulsation noise.
func (e *Engine) step(lowPass float64, beat pulse.Beat, gotBeat bool) {
	switch e.phase {
	case PhaseWaitInflate:
		if lowPass >= e.runCfg.PumpUpTarget {
			// Envelope and heart-rate buffers cover exactly one deflation
			// run.
			e.env.Reset()
			e.hr.Reset()
			e.transition(PhaseDeflating)
		}

	case PhaseDeflating:
		if gotBeat {
			e.env.Add(beat.Pressure, beat.Amplitude)
			e.hr.Add(beat.BPM)
		}
		if lowPass <= e.runCfg.NearEmptyThreshold {
			e.transition(PhaseWaitEmptyCuff)
		}

	case PhaseWaitEmptyCuff:
		if lowPass <= e.runCfg.CuffEmptyThreshold {
			e.finishMeasurement()
		}
	}
}

// transition moves to a new phase and notifies observers exactly once.
func (e *Engine) transition(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.reading.Phase = p
	e.mu.Unlock()

	e.log.Debug("phase change", zap.Stringer("phase", p))
	e.disp.push(func(o Observer) { o.OnPhaseChange(p) })
}

// finishMeasurement runs the estimation over the collected envelope,
// reports the outcome and enters the Result phase. A failed estimation is
// reported through OnError instead of fabricating numbers; the average
// heart rate is still reported when beats were seen, since the two outputs
// are independent measurements.
func (e *Engine) finishMeasurement() {
	est, err := envelope.Compute(e.env.Points(),
		e.runCfg.RatioSBP, e.runCfg.RatioDBP, e.runCfg.MinNbrPeaks)
	avgBPM := e.hr.Average()

	e.transition(PhaseResult)

	if err != nil {
		e.log.Warn("estimation failed",
			zap.Error(err),
			zap.Int("peaks", e.env.Len()))
		e.mu.Lock()
		e.reading.Result = nil
		e.mu.Unlock()
		e.disp.push(func(o Observer) { o.OnError(err) })
	} else {
		result := Result{MAP: est.MAP, SBP: est.SBP, DBP: est.DBP, HeartRate: avgBPM}
		e.log.Info("measurement complete",
			zap.Float64("map", result.MAP),
			zap.Float64("sbp", result.SBP),
			zap.Float64("dbp", result.DBP),
			zap.Float64("heart_rate", avgBPM))
		e.mu.Lock()
		stored := result
		e.reading.Result = &stored
		e.mu.Unlock()
		e.disp.push(func(o Observer) { o.OnResult(result) })
	}

	if avgBPM > 0 {
		e.disp.push(func(o Observer) { o.OnHeartRate(avgBPM) })
	}
}
