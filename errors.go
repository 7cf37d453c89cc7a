package obp

import (
	"errors"

	"github.com/itsBelinda/obp/internal/envelope"
)

// Errors reported by the engine. Fatal errors terminate the acquisition
// loop and are returned by [Engine.Join]; recoverable estimation errors are
// reported once through [Observer.OnError] and the user may retry.
var (
	// ErrInvalidConfig indicates a configuration value outside its valid
	// range. It is returned at the setter boundary; engine state is
	// unaffected.
	ErrInvalidConfig = errors.New("invalid measurement configuration")

	// ErrMeasurementActive indicates a configuration change was attempted
	// while a measurement cycle is in progress. Parameters are frozen for
	// the duration of one cycle.
	ErrMeasurementActive = errors.New("measurement in progress")

	// ErrHardwareRead indicates the sample source can no longer produce
	// samples. The acquisition loop terminates; the process must not
	// continue pretending to measure.
	ErrHardwareRead = errors.New("hardware read failure")

	// ErrInsufficientData indicates fewer oscillations were detected during
	// the deflation run than the configured minimum. No numeric result is
	// fabricated from sparse data.
	ErrInsufficientData = envelope.ErrInsufficientData

	// ErrRatioCrossingNotFound indicates the amplitude envelope never
	// decayed to a configured ratio target, for example when the deflation
	// run ended too early. No extrapolation is attempted.
	ErrRatioCrossingNotFound = envelope.ErrRatioCrossingNotFound
)
