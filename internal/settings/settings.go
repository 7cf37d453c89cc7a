// Package settings persists the user-adjustable measurement parameters
// between sessions. The engine itself only exposes get/set accessors; this
// layer stores the values on disk and applies them at startup, while the
// engine is still Idle.
package settings

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/itsBelinda/obp"
)

// Keys in the settings file.
const (
	keyRatioSBP     = "ratio_sbp"
	keyRatioDBP     = "ratio_dbp"
	keyMinNbrPeaks  = "min_nbr_peaks"
	keyPumpUpTarget = "pump_up_target"
)

// Settings holds the persisted measurement parameters.
type Settings struct {
	RatioSBP     float64
	RatioDBP     float64
	MinNbrPeaks  int
	PumpUpTarget float64
}

// Defaults returns the engine's built-in defaults.
func Defaults() Settings {
	return Settings{
		RatioSBP:     obp.DefaultRatioSBP,
		RatioDBP:     obp.DefaultRatioDBP,
		MinNbrPeaks:  obp.DefaultMinNbrPeaks,
		PumpUpTarget: obp.DefaultPumpUpTarget,
	}
}

// newViper returns a viper instance with the defaults registered, bound to
// the given file path.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	d := Defaults()
	v.SetDefault(keyRatioSBP, d.RatioSBP)
	v.SetDefault(keyRatioDBP, d.RatioDBP)
	v.SetDefault(keyMinNbrPeaks, d.MinNbrPeaks)
	v.SetDefault(keyPumpUpTarget, d.PumpUpTarget)

	return v
}

// Load reads the settings file at path. A missing file is not an error;
// the defaults are returned.
func Load(path string) (Settings, error) {
	v := newViper(path)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	return Settings{
		RatioSBP:     v.GetFloat64(keyRatioSBP),
		RatioDBP:     v.GetFloat64(keyRatioDBP),
		MinNbrPeaks:  v.GetInt(keyMinNbrPeaks),
		PumpUpTarget: v.GetFloat64(keyPumpUpTarget),
	}, nil
}

// Save writes the settings file at path, creating it if necessary.
func (s Settings) Save(path string) error {
	v := newViper(path)
	v.Set(keyRatioSBP, s.RatioSBP)
	v.Set(keyRatioDBP, s.RatioDBP)
	v.Set(keyMinNbrPeaks, s.MinNbrPeaks)
	v.Set(keyPumpUpTarget, s.PumpUpTarget)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// Apply pushes the settings into an idle engine through its accessors.
func (s Settings) Apply(e *obp.Engine) error {
	if err := e.SetRatioSBP(s.RatioSBP); err != nil {
		return err
	}
	if err := e.SetRatioDBP(s.RatioDBP); err != nil {
		return err
	}
	if err := e.SetMinNbrPeaks(s.MinNbrPeaks); err != nil {
		return err
	}
	return e.SetPumpUpTarget(s.PumpUpTarget)
}

// FromEngine captures an engine's current parameters, for example after a
// reset to defaults.
func FromEngine(e *obp.Engine) Settings {
	return Settings{
		RatioSBP:     e.RatioSBP(),
		RatioDBP:     e.RatioDBP(),
		MinNbrPeaks:  e.MinNbrPeaks(),
		PumpUpTarget: e.PumpUpTarget(),
	}
}
