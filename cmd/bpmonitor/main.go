// Command bpmonitor runs the oscillometric blood-pressure measurement
// engine from the terminal, guiding the user through the inflate and
// deflate phases of a measurement.
//
// Usage:
//
//	bpmonitor                                  # simulated cuff, scripted pump/valve
//	bpmonitor -source wav -wav trace.wav       # replay a recorded pressure trace
//	bpmonitor -nats nats://localhost:4222      # mirror the measurement over NATS
//	bpmonitor -settings ~/.config/bpmonitor.yaml -debug
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/itsBelinda/obp"
	"github.com/itsBelinda/obp/internal/settings"
	"github.com/itsBelinda/obp/internal/source"
	"github.com/itsBelinda/obp/internal/stream"
)

const (
	// Pump script parameters for the simulated cuff.
	pumpOvershoot   = 10.0 // mmHg above the target before the pump stops
	measureLeakRate = 3.0  // mmHg/s, the release rate the instructions ask for
	ventLeakRate    = 60.0 // mmHg/s once the measurement data is collected
	scriptPollEvery = 50 * time.Millisecond

	// Meter refresh period for the console display.
	meterEvery = time.Second

	defaultSettingsPath = "bpmonitor.yaml"
)

func main() {
	var (
		sourceKind   = flag.String("source", "sim", "sample source: sim or wav")
		wavPath      = flag.String("wav", "", "recorded pressure trace (for -source wav)")
		settingsPath = flag.String("settings", defaultSettingsPath, "settings file")
		natsURL      = flag.String("nats", "", "NATS server URL to mirror the measurement to (optional)")
		realtime     = flag.Bool("realtime", true, "pace samples against the wall clock")
		debug        = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, *sourceKind, *wavPath, *settingsPath, *natsURL, *realtime); err != nil {
		log.Error("monitor failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

func run(log *zap.Logger, sourceKind, wavPath, settingsPath, natsURL string, realtime bool) error {
	var (
		src obp.SampleSource
		sim *source.Simulator
	)
	switch sourceKind {
	case "sim":
		sim = source.NewSimulator(source.SimulatorConfig{Realtime: realtime})
		src = sim
	case "wav":
		if wavPath == "" {
			return fmt.Errorf("-source wav requires -wav")
		}
		w, err := source.OpenWAV(wavPath, source.WAVConfig{Realtime: realtime})
		if err != nil {
			return err
		}
		src = w
	default:
		return fmt.Errorf("unknown source %q", sourceKind)
	}

	stored, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}

	cfg := obp.DefaultConfig()
	cfg.Logger = log

	console := newConsole()
	var obs obp.Observer = console
	if natsURL != "" {
		conn, err := stream.Connect(natsURL)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		defer conn.Close()
		obs = fanOut{console, stream.NewObserver(conn, stream.DefaultSubjectPrefix, log)}
	}

	eng, err := obp.New(src, obs, cfg)
	if err != nil {
		return err
	}

	eng.Start()
	defer eng.Close()

	if err := stored.Apply(eng); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	defer func() {
		if err := settings.FromEngine(eng).Save(settingsPath); err != nil {
			log.Warn("save settings", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if sim != nil {
		waitForEnter("Press Enter to start a simulated measurement (Ctrl-C to quit)...")
		eng.StartMeasurement()
		go pumpScript(sim, eng.PumpUpTarget(), console.done)
	}

	select {
	case <-sigCh:
		fmt.Println("\nshutting down")
		return nil
	case <-console.done:
		// Leave a moment for the final notifications to render.
		time.Sleep(meterEvery)
		return eng.Err()
	}
}

// pumpScript operates the simulated pump and valve the way the on-screen
// instructions ask a user to: pump briskly past the target, release at
// ~3 mmHg/s, then vent completely.
func pumpScript(sim *source.Simulator, target float64, done <-chan struct{}) {
	sim.StartPumping()
	for sim.Pressure() < target+pumpOvershoot {
		select {
		case <-done:
			return
		case <-time.After(scriptPollEvery):
		}
	}
	sim.StopPumping()
	sim.SetValve(measureLeakRate)

	for sim.Pressure() > obp.DefaultNearEmptyThreshold {
		select {
		case <-done:
			return
		case <-time.After(scriptPollEvery):
		}
	}
	sim.SetValve(ventLeakRate)
}

func waitForEnter(prompt string) {
	fmt.Println(prompt)
	bufio.NewReader(os.Stdin).ReadString('\n')
}

// console renders engine notifications as terminal output, the console
// analogue of the instruction pages of a device display.
type console struct {
	lastMeter time.Time
	pressure  float64
	done      chan struct{}
}

func newConsole() *console {
	return &console{done: make(chan struct{})}
}

func (c *console) OnNewSample(lowPass, highPass float64) {
	c.pressure = lowPass
	if time.Since(c.lastMeter) < meterEvery {
		return
	}
	c.lastMeter = time.Now()
	fmt.Printf("\rcuff pressure: %6.1f mmHg   oscillation: %+5.2f mmHg  ", lowPass, highPass)
}

func (c *console) OnPhaseChange(phase obp.Phase) {
	fmt.Println()
	switch phase {
	case obp.PhaseIdle:
		fmt.Println("-- idle: measurement cancelled or reset")
	case obp.PhaseWaitInflate:
		fmt.Println("-- pump up the cuff quickly, valve fully closed")
	case obp.PhaseDeflating:
		fmt.Println("-- open the valve slightly: release at about 3 mmHg/s and keep still")
	case obp.PhaseWaitEmptyCuff:
		fmt.Println("-- open the valve completely and wait for 0 mmHg")
	case obp.PhaseResult:
		fmt.Println("-- measurement finished")
	}
}

func (c *console) OnResult(result obp.Result) {
	fmt.Printf("\nresults:\n  MAP: %3.0f mmHg\n  SBP: %3.0f mmHg (estimated)\n  DBP: %3.0f mmHg (estimated)\n",
		result.MAP, result.SBP, result.DBP)
	if result.HeartRate > 0 {
		fmt.Printf("  heart rate: %3.0f beats/min\n", result.HeartRate)
	}
	c.finish()
}

// finish marks the measurement as over, tolerating repeated calls.
func (c *console) finish() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *console) OnHeartRate(bpm float64) {
	fmt.Printf("\rheart rate: %3.0f beats/min%40s\n", bpm, "")
}

func (c *console) OnReady() {
	fmt.Println("engine ready")
}

func (c *console) OnError(err error) {
	fmt.Println("\nmeasurement failed:", err)
	c.finish()
}

// fanOut forwards every notification to each observer in order.
type fanOut []obp.Observer

func (f fanOut) OnNewSample(lowPass, highPass float64) {
	for _, o := range f {
		o.OnNewSample(lowPass, highPass)
	}
}

func (f fanOut) OnPhaseChange(phase obp.Phase) {
	for _, o := range f {
		o.OnPhaseChange(phase)
	}
}

func (f fanOut) OnResult(result obp.Result) {
	for _, o := range f {
		o.OnResult(result)
	}
}

func (f fanOut) OnHeartRate(bpm float64) {
	for _, o := range f {
		o.OnHeartRate(bpm)
	}
}

func (f fanOut) OnReady() {
	for _, o := range f {
		o.OnReady()
	}
}

func (f fanOut) OnError(err error) {
	for _, o := range f {
		o.OnError(err)
	}
}
