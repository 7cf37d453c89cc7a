package obp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Observer = NopObserver{}

// orderObserver records heart-rate values as delivery order markers.
type orderObserver struct {
	NopObserver
	mu   sync.Mutex
	seen []float64
}

func (o *orderObserver) OnHeartRate(bpm float64) {
	o.mu.Lock()
	o.seen = append(o.seen, bpm)
	o.mu.Unlock()
}

func (o *orderObserver) values() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]float64, len(o.seen))
	copy(out, o.seen)
	return out
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	obs := &orderObserver{}
	d := newDispatcher(obs)

	const n = 1000
	for i := 0; i < n; i++ {
		v := float64(i)
		d.push(func(o Observer) { o.OnHeartRate(v) })
	}
	d.close()

	got := obs.values()
	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, float64(i), v, "notifications reordered at %d", i)
	}
}

func TestDispatcherCloseDrainsPending(t *testing.T) {
	obs := &orderObserver{}
	d := newDispatcher(obs)

	for i := 0; i < 100; i++ {
		d.push(func(o Observer) { o.OnHeartRate(1) })
	}

	// close must not return before every queued notification is out.
	d.close()
	assert.Len(t, obs.values(), 100)

	// Pushes after close are discarded, and a second close is safe.
	d.push(func(o Observer) { o.OnHeartRate(2) })
	d.close()
	assert.Len(t, obs.values(), 100)
}

// slowObserver blocks every callback until released.
type slowObserver struct {
	NopObserver
	release chan struct{}
}

func (o *slowObserver) OnHeartRate(float64) { <-o.release }

func TestDispatcherPushNeverBlocks(t *testing.T) {
	obs := &slowObserver{release: make(chan struct{})}
	d := newDispatcher(obs)

	// With the observer stuck in its first callback, further pushes must
	// still return promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10_000; i++ {
			d.push(func(o Observer) { o.OnHeartRate(0) })
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("push blocked behind a slow observer")
	}

	close(obs.release)
	d.close()
}
