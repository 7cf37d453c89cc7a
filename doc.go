// Package obp implements the measurement engine of an oscillometric
// blood-pressure monitor in pure Go.
//
// The engine converts a raw cuff-pressure waveform into a Mean/Systolic/
// Diastolic blood-pressure estimate and a heart rate, while sequencing the
// user through the inflate and deflate phases of a manual measurement.
//
// # Pipeline
//
// Samples flow in one direction through the engine:
//
//	SampleSource -> filter bank -> {oscillation detector, state machine}
//	             -> envelope estimator -> Observer callbacks
//
// Each raw sample is split by two independent single-pole recursive filters
// into a low-pass component (the slowly changing pressure the cuff currently
// holds) and a high-pass component (the arterial pulsation riding on it).
// Confirmed pulses during the deflation phase trace out an amplitude
// envelope over cuff pressure; the standard fixed-ratio oscillometric
// method then reads MAP, SBP and DBP off that envelope.
//
// # Measurement cycle
//
// The measurement state machine is driven solely by the low-pass pressure
// trend and explicit user commands:
//
//	Idle -> WaitInflate -> Deflating -> WaitEmptyCuff -> Result -> Idle
//
// [Engine.StartMeasurement] arms a cycle, [Engine.CancelMeasurement]
// returns to Idle from any active phase, and the configuration setters are
// only accepted while Idle.
//
// # Concurrency
//
// All filtering, detection and state-machine logic runs on a single
// dedicated acquisition goroutine owned by the [Engine]. Observers receive
// push notifications through an asynchronous dispatcher, so a slow observer
// can never stall acquisition, and notification order is preserved. Polling
// consumers use [Engine.Snapshot], which copies the latest values out under
// a short-held lock.
//
// # Quick start
//
//	eng, err := obp.New(mySource, myObserver, obp.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng.Start()
//	defer eng.Close()
//
//	eng.StartMeasurement()
//	// ... pump up the cuff, release slowly, read results from the observer.
package obp
