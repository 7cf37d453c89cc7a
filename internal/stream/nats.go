// Package stream publishes engine notifications over NATS so a remote
// display or recorder can follow a measurement live.
package stream

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/itsBelinda/obp"
)

// Connection defaults.
const (
	connectTimeout = 3 * time.Second
	reconnectWait  = 500 * time.Millisecond

	// DefaultSubjectPrefix is the root of the published subject hierarchy.
	DefaultSubjectPrefix = "obp"
)

// Subject suffixes, one per notification kind.
const (
	subjectSample    = ".sample"
	subjectPhase     = ".phase"
	subjectResult    = ".result"
	subjectHeartRate = ".rate"
	subjectReady     = ".ready"
	subjectError     = ".error"
)

// Connect dials a NATS server with the client options used throughout this
// project.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("obp-monitor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
	)
}

// Publisher is the subset of *nats.Conn the observer needs; narrowed for
// testability.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// sampleEvent is the wire form of a filtered pair.
type sampleEvent struct {
	LowPass  float64 `json:"low_pass"`
	HighPass float64 `json:"high_pass"`
}

// resultEvent is the wire form of a completed measurement.
type resultEvent struct {
	MAP       float64 `json:"map"`
	SBP       float64 `json:"sbp"`
	DBP       float64 `json:"dbp"`
	HeartRate float64 `json:"heart_rate,omitempty"`
}

// Observer publishes engine notifications as JSON on subjects below a
// common prefix. Publish failures are logged and dropped; streaming is a
// best-effort mirror of the local display, never a reason to stall a
// measurement.
type Observer struct {
	pub    Publisher
	prefix string
	log    *zap.Logger
}

// NewObserver creates a publishing observer. An empty prefix takes
// DefaultSubjectPrefix; a nil logger disables logging.
func NewObserver(pub Publisher, prefix string, log *zap.Logger) *Observer {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{pub: pub, prefix: prefix, log: log}
}

func (o *Observer) publish(suffix string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		o.log.Error("marshal stream event", zap.Error(err))
		return
	}
	if err := o.pub.Publish(o.prefix+suffix, data); err != nil {
		o.log.Warn("publish stream event", zap.String("subject", o.prefix+suffix), zap.Error(err))
	}
}

// OnNewSample implements obp.Observer.
func (o *Observer) OnNewSample(lowPass, highPass float64) {
	o.publish(subjectSample, sampleEvent{LowPass: lowPass, HighPass: highPass})
}

// OnPhaseChange implements obp.Observer.
func (o *Observer) OnPhaseChange(phase obp.Phase) {
	o.publish(subjectPhase, map[string]string{"phase": phase.String()})
}

// OnResult implements obp.Observer.
func (o *Observer) OnResult(result obp.Result) {
	o.publish(subjectResult, resultEvent{
		MAP:       result.MAP,
		SBP:       result.SBP,
		DBP:       result.DBP,
		HeartRate: result.HeartRate,
	})
}

// OnHeartRate implements obp.Observer.
func (o *Observer) OnHeartRate(bpm float64) {
	o.publish(subjectHeartRate, map[string]float64{"bpm": bpm})
}

// OnReady implements obp.Observer.
func (o *Observer) OnReady() {
	o.publish(subjectReady, map[string]bool{"ready": true})
}

// OnError implements obp.Observer.
func (o *Observer) OnError(err error) {
	o.publish(subjectError, map[string]string{"error": err.Error()})
}
