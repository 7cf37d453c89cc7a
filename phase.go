package obp

// Phase identifies the current stage of the measurement cycle.
// Exactly one phase is active at a time; transitions are performed only by
// the acquisition goroutine, driven by the low-pass pressure trend and user
// commands.
type Phase int

const (
	// PhaseIdle is the initial state. The acquisition loop is running for
	// display purposes only; no measurement is active.
	PhaseIdle Phase = iota

	// PhaseWaitInflate waits for the user to pump the cuff up to the
	// configured target pressure.
	PhaseWaitInflate

	// PhaseDeflating is the data-collection phase: every confirmed pulse
	// appends one point to the amplitude envelope while the cuff slowly
	// deflates.
	PhaseDeflating

	// PhaseWaitEmptyCuff waits for the cuff to be vented completely before
	// the estimate is computed.
	PhaseWaitEmptyCuff

	// PhaseResult is the terminal display state. A reset command returns
	// the engine to PhaseIdle.
	PhaseResult
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaitInflate:
		return "wait-inflate"
	case PhaseDeflating:
		return "deflating"
	case PhaseWaitEmptyCuff:
		return "wait-empty-cuff"
	case PhaseResult:
		return "result"
	default:
		return "unknown"
	}
}
