package engine

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/hydrobridge/internal/inp"
)

// Result codes returned by Scripted.
const (
	CodeAlreadyOpen = 1
	CodeNotOpen     = 2
	CodeNotStarted  = 3
	CodeModel       = 200
	CodeFault       = -1
)

// DefaultStepSeconds is the routing step Scripted uses when the script
// does not set one.
const DefaultStepSeconds = 300

// Target names one element property in script terms, e.g.
// {Property: "NODE_VOLUME", Name: "POND"}.
type Target struct {
	Property string `yaml:"property"`
	Name     string `yaml:"name"`
}

func (t Target) String() string {
	return t.Property + " " + t.Name
}

// InitialValue seeds a property when the model is opened.
type InitialValue struct {
	Target `yaml:",inline"`
	Value  float64 `yaml:"value"`
}

// Response moves value between properties on every continuing step:
// to += gain * from, or to += gain when From is empty.
type Response struct {
	From *Target `yaml:"from,omitempty"`
	To   Target  `yaml:"to"`
	Gain float64 `yaml:"gain"`
}

// Script drives a Scripted engine.
type Script struct {
	// Missing names elements the model declares but GetIndex must not find.
	Missing []string `yaml:"missing,omitempty"`

	Initial   []InitialValue `yaml:"initial,omitempty"`
	Responses []Response     `yaml:"responses,omitempty"`

	// EndAfter makes the Nth step report the end of the run. Zero never
	// ends.
	EndAfter int `yaml:"end_after,omitempty"`

	// FaultAfter makes the Nth step fail with FaultMessage.
	FaultAfter   int    `yaml:"fault_after,omitempty"`
	FaultMessage string `yaml:"fault_message,omitempty"`

	// OpenCode and StartCode force Open or Start to fail.
	OpenCode  int `yaml:"open_code,omitempty"`
	StartCode int `yaml:"start_code,omitempty"`

	StepSeconds float64 `yaml:"step_seconds,omitempty"`
}

type valueKey struct {
	prop   Property
	handle int
}

// Scripted is an in-memory Engine driven by a Script.
//
// Open scans the model file and registers every declared element under its
// kind, in declaration order; an element's handle is its position. Every
// call is appended to a call log that tests and the harness inspect.
type Scripted struct {
	mu     sync.Mutex
	script Script

	open    bool
	started bool
	steps   int
	lastErr string

	elements map[ObjectKind][]string
	values   map[valueKey]float64
	calls    []string
}

// kindSections lists the model sections declaring each kind.
var kindSections = map[ObjectKind][]string{
	KindGage:     {"RAINGAGES"},
	KindSubcatch: {"SUBCATCHMENTS"},
	KindNode:     inp.NodeSections,
	KindLink:     inp.LinkSections,
}

// NewScripted returns a closed engine that will follow script.
func NewScripted(script Script) *Scripted {
	if script.StepSeconds <= 0 {
		script.StepSeconds = DefaultStepSeconds
	}
	return &Scripted{
		script:   script,
		elements: make(map[ObjectKind][]string),
		values:   make(map[valueKey]float64),
	}
}

func (s *Scripted) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Scripted) fail(code int, format string, args ...any) int {
	s.lastErr = fmt.Sprintf(format, args...)
	return code
}

// Open implements Engine.
func (s *Scripted) Open(model, report, output string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("open %s", model)

	if s.open {
		return s.fail(CodeAlreadyOpen, "ERROR %d: model already open", CodeAlreadyOpen)
	}
	if s.script.OpenCode != 0 {
		return s.fail(s.script.OpenCode, "ERROR %d: cannot open model %s", s.script.OpenCode, model)
	}

	f, err := os.Open(model)
	if err != nil {
		return s.fail(CodeModel, "ERROR %d: cannot open input file %s", CodeModel, model)
	}
	defer f.Close()
	table, err := inp.Scan(f)
	if err != nil {
		return s.fail(CodeModel, "ERROR %d: %v", CodeModel, err)
	}

	s.elements = make(map[ObjectKind][]string)
	for kind, sections := range kindSections {
		for _, section := range sections {
			s.elements[kind] = append(s.elements[kind], table.Names(section)...)
		}
	}
	s.values = make(map[valueKey]float64)
	for _, iv := range s.script.Initial {
		if key, ok := s.resolve(iv.Target); ok {
			s.values[key] = iv.Value
		}
	}
	s.open = true
	s.steps = 0
	s.lastErr = ""
	return 0
}

// Start implements Engine.
func (s *Scripted) Start(saveResults bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("start %t", saveResults)

	if !s.open {
		return s.fail(CodeNotOpen, "ERROR %d: model not open", CodeNotOpen)
	}
	if s.script.StartCode != 0 {
		return s.fail(s.script.StartCode, "ERROR %d: cannot start run", s.script.StartCode)
	}
	s.started = true
	return 0
}

// Step implements Engine.
func (s *Scripted) Step() (float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("step")

	if !s.started {
		return 0, -s.fail(CodeNotStarted, "ERROR %d: run not started", CodeNotStarted)
	}
	s.steps++
	if s.script.FaultAfter > 0 && s.steps == s.script.FaultAfter {
		msg := s.script.FaultMessage
		if msg == "" {
			msg = "engine fault"
		}
		return 0, s.fail(CodeFault, "%s", msg)
	}
	if s.script.EndAfter > 0 && s.steps >= s.script.EndAfter {
		return 0, 1
	}

	// Deltas are computed against the pre-step state so that responses do
	// not depend on their order.
	deltas := make(map[valueKey]float64)
	for _, r := range s.script.Responses {
		to, ok := s.resolve(r.To)
		if !ok {
			continue
		}
		if r.From == nil {
			deltas[to] += r.Gain
			continue
		}
		if from, ok := s.resolve(*r.From); ok {
			deltas[to] += r.Gain * s.values[from]
		}
	}
	for k, d := range deltas {
		s.values[k] += d
	}
	return float64(s.steps) * s.script.StepSeconds / 86400, 0
}

// End implements Engine.
func (s *Scripted) End() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("end")

	if !s.started {
		return s.fail(CodeNotStarted, "ERROR %d: run not started", CodeNotStarted)
	}
	s.started = false
	return 0
}

// Close implements Engine.
func (s *Scripted) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("close")

	if !s.open {
		return s.fail(CodeNotOpen, "ERROR %d: model not open", CodeNotOpen)
	}
	s.open = false
	s.started = false
	return 0
}

// GetValue implements Engine.
func (s *Scripted) GetValue(p Property, handle int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.values[valueKey{p, handle}]
	s.record("getValue %s %d -> %s", p, handle, FormatValue(v))
	return v
}

// SetValue implements Engine.
func (s *Scripted) SetValue(p Property, handle int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("setValue %s %d %s", p, handle, FormatValue(value))
	s.values[valueKey{p, handle}] = value
}

// GetIndex implements Engine.
func (s *Scripted) GetIndex(kind ObjectKind, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(kind, name)
	s.record("getIndex %s %s -> %d", kind, name, idx)
	return idx
}

func (s *Scripted) index(kind ObjectKind, name string) int {
	if !s.open || slices.Contains(s.script.Missing, name) {
		return -1
	}
	return slices.Index(s.elements[kind], name)
}

func (s *Scripted) resolve(t Target) (valueKey, bool) {
	p, ok := ParseProperty(t.Property)
	if !ok {
		return valueKey{}, false
	}
	h := s.index(p.Kind(), t.Name)
	if h < 0 {
		return valueKey{}, false
	}
	return valueKey{p, h}, true
}

// GetError implements Engine.
func (s *Scripted) GetError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Calls returns a copy of the call log.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallCount counts logged calls to op ("open", "step", "getValue", ...).
func (s *Scripted) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (s *Scripted) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// IsOpen reports whether a model is open.
func (s *Scripted) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Steps returns the number of steps taken since the model was opened.
func (s *Scripted) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// Value reads a property by element name without logging the call.
func (s *Scripted) Value(t Target) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.resolve(t)
	if !ok {
		return 0
	}
	return s.values[key]
}

// FormatValue renders a value the way the call log does.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
