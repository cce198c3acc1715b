package harness

// Trace event types.
const (
	EventABI    = "abi"
	EventEngine = "engine"
)

// TraceEvent is one ABI call or one engine call made while serving it.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`

	// Call is the selector name for ABI events and the call log line for
	// engine events.
	Call string `json:"call"`

	In      []float64 `json:"in,omitempty"`
	Out     []float64 `json:"out,omitempty"`
	Status  *int      `json:"status,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds ABI calls and engine calls in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds the final session and engine state.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddABITrace records an ABI call.
func (r *Result) AddABITrace(seq int64, call string, in, out []float64, status int, message string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Type:    EventABI,
		Call:    call,
		In:      in,
		Out:     out,
		Status:  &status,
		Message: message,
	})
}

// AddEngineTrace records an engine call.
func (r *Result) AddEngineTrace(seq int64, call string) {
	r.Trace = append(r.Trace, TraceEvent{Seq: seq, Type: EventEngine, Call: call})
}

// EngineCalls returns the engine call lines of the trace in order.
func (r *Result) EngineCalls() []string {
	var calls []string
	for _, e := range r.Trace {
		if e.Type == EventEngine {
			calls = append(calls, e.Call)
		}
	}
	return calls
}
