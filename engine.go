package obp

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/itsBelinda/obp/internal/dsp"
	"github.com/itsBelinda/obp/internal/envelope"
	"github.com/itsBelinda/obp/internal/pulse"
)

// Engine is the oscillometric measurement engine. It owns a dedicated
// acquisition goroutine that pulls one sample per iteration from its
// SampleSource and drives the filter bank, oscillation detector and
// measurement state machine synchronously within that iteration.
//
// All exported methods are safe for concurrent use from other goroutines;
// user commands are recorded as flags and consumed by the acquisition loop
// at the top of its next iteration.
type Engine struct {
	src  SampleSource
	disp *dispatcher
	log  *zap.Logger

	rate   float64
	period time.Duration
	gain   float64 // mmHg per volt
	offset float64 // volts at zero pressure

	// Pipeline state, owned by the acquisition goroutine.
	bank   *dsp.Bank
	det    *pulse.Detector
	hr     *pulse.RateAverager
	env    *envelope.Recorder
	phase  Phase
	runCfg Config // frozen copy for the active cycle

	mu            sync.Mutex
	cfg           Config
	reading       Reading
	pendingStart  bool
	pendingCancel bool
	started       bool
	running       bool
	done          chan struct{}
	err           error

	stopFlag atomic.Bool
}

// New creates an engine reading from src and notifying obs. A nil obs is
// allowed; notifications are then discarded. The engine does not start
// acquiring until Start is called.
func New(src SampleSource, obs Observer, cfg Config) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: sample source is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rate := src.SamplingRate()
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sampling rate must be positive, got %v", ErrInvalidConfig, rate)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if obs == nil {
		obs = NopObserver{}
	}

	return &Engine{
		src:    src,
		disp:   newDispatcher(obs),
		log:    log,
		rate:   rate,
		period: time.Duration(float64(time.Second) / rate),
		gain:   cfg.MMHgPerVolt,
		offset: cfg.OffsetVolts,
		bank:   dsp.NewBank(rate),
		det:    pulse.NewDetector(rate),
		hr:     &pulse.RateAverager{},
		env:    &envelope.Recorder{},
		cfg:    cfg,
	}, nil
}

// SamplingRate returns the acquisition rate in Hz.
func (e *Engine) SamplingRate() float64 {
	return e.rate
}

// Start spawns the acquisition goroutine. Calling Start while the engine is
// already running has no effect. OnReady fires once the loop is running and
// StartMeasurement will be accepted.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.started = true
	e.stopFlag.Store(false)
	e.done = make(chan struct{})
	go e.run(e.done)
}

// Stop signals the acquisition loop to exit at its next iteration boundary.
// It does not block and is safe to call repeatedly.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Join blocks until the acquisition goroutine has fully exited and returns
// the fatal error that terminated it, if any. Join returns immediately if
// the engine was never started or has already exited.
func (e *Engine) Join() error {
	e.mu.Lock()
	started := e.started
	done := e.done
	e.mu.Unlock()

	if !started {
		return nil
	}
	<-done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Close stops the engine, waits for the acquisition goroutine to exit and
// shuts down notification dispatch after delivering pending notifications.
func (e *Engine) Close() error {
	e.Stop()
	err := e.Join()
	e.disp.close()
	return err
}

// Err returns the fatal error that terminated the acquisition loop, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Snapshot copies the latest observable state out under a short-held lock.
func (e *Engine) Snapshot() Reading {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.reading
	if e.reading.Result != nil {
		res := *e.reading.Result
		r.Result = &res
	}
	return r
}

// StartMeasurement arms a measurement cycle. The command is consumed by
// the acquisition loop at the top of its next iteration and ignored there
// unless the engine is Idle.
func (e *Engine) StartMeasurement() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingStart = true
}

// CancelMeasurement aborts the active cycle and returns to Idle. From the
// Result phase it acts as the reset command. Ignored while Idle.
func (e *Engine) CancelMeasurement() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingCancel = true
}

// run is the acquisition loop. It exits on Stop or on a fatal source error.
func (e *Engine) run(done chan struct{}) {
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(done)
	}()

	e.log.Info("acquisition started", zap.Float64("rate_hz", e.rate))
	e.disp.push(func(o Observer) { o.OnReady() })

	for !e.stopFlag.Load() {
		e.consumeCommands()

		if e.src.Buffered() == 0 {
			time.Sleep(e.period)
			continue
		}

		v, err := e.src.ReadVoltage()
		if err != nil {
			e.fail(fmt.Errorf("%w: %v", ErrHardwareRead, err))
			return
		}
		e.tick(v)
	}

	e.log.Info("acquisition stopped")
}

// consumeCommands applies pending user commands at the top of an iteration.
func (e *Engine) consumeCommands() {
	e.mu.Lock()
	start, cancel := e.pendingStart, e.pendingCancel
	e.pendingStart, e.pendingCancel = false, false
	cfg := e.cfg
	e.mu.Unlock()

	switch {
	case cancel && e.phase != PhaseIdle:
		e.log.Info("measurement cancelled", zap.Stringer("phase", e.phase))
		e.env.Reset()
		e.hr.Reset()
		e.transition(PhaseIdle)

	case start && e.phase == PhaseIdle:
		e.runCfg = cfg
		e.log.Info("measurement armed",
			zap.Float64("pump_up_target", cfg.PumpUpTarget),
			zap.Float64("ratio_sbp", cfg.RatioSBP),
			zap.Float64("ratio_dbp", cfg.RatioDBP))
		e.transition(PhaseWaitInflate)
	}
}

// tick processes one acquired sample through the whole pipeline.
func (e *Engine) tick(volts float64) {
	pressure := (volts - e.offset) * e.gain
	lowPass, highPass := e.bank.Process(pressure)
	beat, gotBeat := e.det.Process(highPass, lowPass)

	e.mu.Lock()
	e.reading.LowPass = lowPass
	e.reading.HighPass = highPass
	if gotBeat && beat.BPM > 0 {
		e.reading.HeartRate = beat.BPM
	}
	e.mu.Unlock()

	e.disp.push(func(o Observer) { o.OnNewSample(lowPass, highPass) })
	if gotBeat && beat.BPM > 0 {
		bpm := beat.BPM
		e.disp.push(func(o Observer) { o.OnHeartRate(bpm) })
	}

	e.step(lowPass, beat, gotBeat)
}

// fail records a fatal acquisition error and reports it once.
func (e *Engine) fail(err error) {
	e.log.Error("acquisition failed", zap.Error(err))
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.disp.push(func(o Observer) { o.OnError(err) })
}
