package obp

import "fmt"

// Configuration accessors. By contract, mutation is only permitted while
// the engine is Idle; a cycle runs on a frozen copy of the configuration
// regardless. Invalid values are rejected at the setter boundary with the
// engine state unaffected.

// RatioSBP returns the systolic amplitude ratio.
func (e *Engine) RatioSBP() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.RatioSBP
}

// SetRatioSBP sets the systolic amplitude ratio. Must be in (0, 1).
func (e *Engine) SetRatioSBP(v float64) error {
	if v <= 0 || v >= 1 {
		return fmt.Errorf("%w: ratioSBP must be in (0, 1), got %v", ErrInvalidConfig, v)
	}
	return e.setConfig(func(c *Config) { c.RatioSBP = v })
}

// RatioDBP returns the diastolic amplitude ratio.
func (e *Engine) RatioDBP() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.RatioDBP
}

// SetRatioDBP sets the diastolic amplitude ratio. Must be in (0, 1).
func (e *Engine) SetRatioDBP(v float64) error {
	if v <= 0 || v >= 1 {
		return fmt.Errorf("%w: ratioDBP must be in (0, 1), got %v", ErrInvalidConfig, v)
	}
	return e.setConfig(func(c *Config) { c.RatioDBP = v })
}

// MinNbrPeaks returns the minimum number of oscillations required for an
// estimate.
func (e *Engine) MinNbrPeaks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.MinNbrPeaks
}

// SetMinNbrPeaks sets the minimum number of oscillations. Must be at
// least 1.
func (e *Engine) SetMinNbrPeaks(v int) error {
	if v < 1 {
		return fmt.Errorf("%w: minNbrPeaks must be at least 1, got %d", ErrInvalidConfig, v)
	}
	return e.setConfig(func(c *Config) { c.MinNbrPeaks = v })
}

// PumpUpTarget returns the inflation target in mmHg.
func (e *Engine) PumpUpTarget() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.PumpUpTarget
}

// SetPumpUpTarget sets the inflation target in mmHg. Must be above the
// near-empty threshold.
func (e *Engine) SetPumpUpTarget(v float64) error {
	e.mu.Lock()
	nearEmpty := e.cfg.NearEmptyThreshold
	e.mu.Unlock()
	if v <= nearEmpty {
		return fmt.Errorf("%w: pump-up target must be above %v mmHg, got %v", ErrInvalidConfig, nearEmpty, v)
	}
	return e.setConfig(func(c *Config) { c.PumpUpTarget = v })
}

// ResetToDefaults restores the built-in defaults for the clinical
// parameters. Like the setters, it is only permitted while Idle.
func (e *Engine) ResetToDefaults() error {
	return e.setConfig(func(c *Config) {
		c.RatioSBP = DefaultRatioSBP
		c.RatioDBP = DefaultRatioDBP
		c.MinNbrPeaks = DefaultMinNbrPeaks
		c.PumpUpTarget = DefaultPumpUpTarget
	})
}

// setConfig applies a mutation under the Idle-only contract.
func (e *Engine) setConfig(mutate func(*Config)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return ErrMeasurementActive
	}
	mutate(&e.cfg)
	return nil
}
