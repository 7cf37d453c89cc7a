package obp

import "sync"

// Observer receives push notifications from the engine. All callbacks fire
// on a single dispatch goroutine, in the order the engine produced them, so
// a phase change is always seen before the result it precedes.
//
// Callbacks must not call back into the engine's configuration setters;
// commands such as [Engine.StartMeasurement] are safe.
type Observer interface {
	// OnNewSample delivers the latest filtered pair, once per acquired
	// sample. This is the high-frequency callback.
	OnNewSample(lowPass, highPass float64)

	// OnPhaseChange fires on every state-machine transition.
	OnPhaseChange(phase Phase)

	// OnResult fires once on entering the Result phase with a numeric
	// outcome.
	OnResult(result Result)

	// OnHeartRate delivers the instantaneous heart rate on each confirmed
	// beat, and once more with the run average when a cycle completes.
	OnHeartRate(bpm float64)

	// OnReady fires once per engine start, after the acquisition loop is
	// running and StartMeasurement will be accepted.
	OnReady()

	// OnError reports a failed estimation (ErrInsufficientData,
	// ErrRatioCrossingNotFound) or the fatal ErrHardwareRead. Each
	// occurrence is reported exactly once.
	OnError(err error)
}

// NopObserver is an Observer that ignores all notifications. Embed it to
// implement only the callbacks of interest.
type NopObserver struct{}

func (NopObserver) OnNewSample(lowPass, highPass float64) {}
func (NopObserver) OnPhaseChange(phase Phase)             {}
func (NopObserver) OnResult(result Result)                {}
func (NopObserver) OnHeartRate(bpm float64)               {}
func (NopObserver) OnReady()                              {}
func (NopObserver) OnError(err error)                     {}

// dispatcher decouples the acquisition goroutine from the observer. The
// acquisition side appends to an unbounded FIFO and never blocks; a single
// dispatch goroutine drains the queue in order.
type dispatcher struct {
	obs Observer

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func(Observer)
	closed bool
	done   chan struct{}
}

func newDispatcher(obs Observer) *dispatcher {
	d := &dispatcher{
		obs:  obs,
		done: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// push enqueues one notification. Safe to call from any goroutine; never
// blocks on the observer.
func (d *dispatcher) push(fn func(Observer)) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.cond.Signal()
}

// run delivers queued notifications until close, then drains what is left.
func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			fn(d.obs)
		}
	}
}

// close stops the dispatcher after delivering all pending notifications and
// waits for the dispatch goroutine to exit.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Signal()
	<-d.done
}
