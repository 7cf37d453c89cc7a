package obp

import (
	"fmt"

	"go.uber.org/zap"
)

// Built-in defaults for the clinical parameters. The ratio defaults follow
// the commonly published fixed-ratio characteristic points; the pump-up
// target is the conventional starting pressure for an adult upper-arm cuff.
const (
	// DefaultRatioSBP is the systolic amplitude ratio.
	DefaultRatioSBP = 0.55

	// DefaultRatioDBP is the diastolic amplitude ratio.
	DefaultRatioDBP = 0.75

	// DefaultMinNbrPeaks is the minimum number of oscillations a deflation
	// run must contain before an estimate is attempted.
	DefaultMinNbrPeaks = 10

	// DefaultPumpUpTarget is the cuff pressure in mmHg the user is asked to
	// pump up to.
	DefaultPumpUpTarget = 180.0

	// DefaultNearEmptyThreshold ends the deflation phase: below this
	// pressure no further clinically useful oscillations are expected.
	DefaultNearEmptyThreshold = 40.0

	// DefaultCuffEmptyThreshold is the pressure below which the cuff is
	// considered fully vented and the results are presented.
	DefaultCuffEmptyThreshold = 2.0
)

// Default calibration of the acquisition channel: the pressure sensor and
// amplifier map cuff pressure linearly onto the sampled voltage.
const (
	// DefaultMMHgPerVolt converts sampled volts to mmHg.
	DefaultMMHgPerVolt = 142.23

	// DefaultOffsetVolts is the sensor output at zero cuff pressure.
	DefaultOffsetVolts = 0.675
)

// Config holds the engine configuration. The zero value is not usable;
// start from [DefaultConfig].
type Config struct {
	// RatioSBP is the fraction of the maximum oscillation amplitude at
	// which the systolic pressure is read off the envelope. Must be in
	// (0, 1).
	RatioSBP float64

	// RatioDBP is the diastolic amplitude ratio. Must be in (0, 1).
	RatioDBP float64

	// MinNbrPeaks is the minimum number of detected oscillations required
	// for an estimate. Must be at least 1.
	MinNbrPeaks int

	// PumpUpTarget is the inflation target in mmHg. Reaching it moves the
	// measurement from WaitInflate to Deflating.
	PumpUpTarget float64

	// NearEmptyThreshold is the pressure in mmHg below which the deflation
	// phase ends. Must be positive and below PumpUpTarget.
	NearEmptyThreshold float64

	// CuffEmptyThreshold is the pressure in mmHg below which the cuff
	// counts as empty and the estimate is computed. Must be non-negative
	// and below NearEmptyThreshold.
	CuffEmptyThreshold float64

	// MMHgPerVolt converts sampled volts into cuff pressure. Fixed for the
	// lifetime of the engine.
	MMHgPerVolt float64

	// OffsetVolts is subtracted from each sample before conversion.
	OffsetVolts float64

	// Logger receives operational log output. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the built-in default configuration.
func DefaultConfig() Config {
	return Config{
		RatioSBP:           DefaultRatioSBP,
		RatioDBP:           DefaultRatioDBP,
		MinNbrPeaks:        DefaultMinNbrPeaks,
		PumpUpTarget:       DefaultPumpUpTarget,
		NearEmptyThreshold: DefaultNearEmptyThreshold,
		CuffEmptyThreshold: DefaultCuffEmptyThreshold,
		MMHgPerVolt:        DefaultMMHgPerVolt,
		OffsetVolts:        DefaultOffsetVolts,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RatioSBP <= 0 || c.RatioSBP >= 1 {
		return fmt.Errorf("%w: ratioSBP must be in (0, 1), got %v", ErrInvalidConfig, c.RatioSBP)
	}

	if c.RatioDBP <= 0 || c.RatioDBP >= 1 {
		return fmt.Errorf("%w: ratioDBP must be in (0, 1), got %v", ErrInvalidConfig, c.RatioDBP)
	}

	if c.MinNbrPeaks < 1 {
		return fmt.Errorf("%w: minNbrPeaks must be at least 1, got %d", ErrInvalidConfig, c.MinNbrPeaks)
	}

	if c.PumpUpTarget <= 0 {
		return fmt.Errorf("%w: pump-up target must be positive, got %v", ErrInvalidConfig, c.PumpUpTarget)
	}

	if c.NearEmptyThreshold <= 0 || c.NearEmptyThreshold >= c.PumpUpTarget {
		return fmt.Errorf("%w: near-empty threshold must be in (0, pump-up target)", ErrInvalidConfig)
	}

	if c.CuffEmptyThreshold < 0 || c.CuffEmptyThreshold >= c.NearEmptyThreshold {
		return fmt.Errorf("%w: cuff-empty threshold must be in [0, near-empty threshold)", ErrInvalidConfig)
	}

	if c.MMHgPerVolt <= 0 {
		return fmt.Errorf("%w: mmHg-per-volt gain must be positive, got %v", ErrInvalidConfig, c.MMHgPerVolt)
	}

	return nil
}
