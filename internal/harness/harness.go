package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/hydrobridge/internal/abi"
	"github.com/roach88/hydrobridge/internal/bridge"
	"github.com/roach88/hydrobridge/internal/config"
	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/engine"
	"github.com/roach88/hydrobridge/internal/mapping"
	"github.com/roach88/hydrobridge/internal/store"
	"github.com/roach88/hydrobridge/internal/testutil"
)

// WorkDirToken replaces the scenario's temporary directory in traces.
const WorkDirToken = "$WORK"

// outTolerance is the absolute tolerance for expected outputs.
const outTolerance = 1e-9

// Harness is the scenario execution engine. It runs one scenario in an
// isolated working directory with an in-memory journal and a
// deterministic clock.
type Harness struct {
	dir     string
	engine  *engine.Scripted
	abi     *abi.Dispatcher
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
	outputs int
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger logs bridge activity during the run. The default discards it.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Copy the model into a fresh working directory
// 2. Copy or generate the mapping next to it
// 3. Wire a scripted engine, a session and a dispatcher
// 4. Execute flow steps with expect validation
// 5. Evaluate assertions and return the result
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	dir, err := os.MkdirTemp("", "hydrobridge-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := config.Defaults()
	if scenario.Marker != "" {
		cfg.Marker = scenario.Marker
	}
	cfg.VerifyFingerprint = scenario.VerifyFingerprint
	cfg.ResolvePaths(dir)

	outputs, err := prepare(scenario, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	eng := engine.NewScripted(scenario.Engine)
	sess := bridge.New(eng, cfg,
		bridge.WithLogger(o.logger),
		bridge.WithJournal(st),
		bridge.WithIDGenerator(bridge.NewSequenceGenerator("session")),
	)
	h := &Harness{
		dir:     dir,
		engine:  eng,
		abi:     abi.NewDispatcher(sess, abi.WithLogger(o.logger)),
		clock:   testutil.NewDeterministicClock(),
		logger:  o.logger,
		outputs: outputs,
	}

	ctx := context.Background()
	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	result.State["session"] = sess.State().String()
	result.State["steps"] = eng.Steps()

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Engine:  eng,
		Session: sess,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// prepare writes the model and mapping into the working directory and
// returns the mapping's output count.
func prepare(scenario *Scenario, cfg *config.Config) (int, error) {
	src, err := os.ReadFile(scenario.Model)
	if err != nil {
		return 0, fmt.Errorf("failed to read model: %w", err)
	}
	if err := os.WriteFile(cfg.Model, src, 0o644); err != nil {
		return 0, fmt.Errorf("failed to copy model: %w", err)
	}

	if scenario.Mapping != "" {
		data, err := os.ReadFile(scenario.Mapping)
		if err != nil {
			return 0, fmt.Errorf("failed to read mapping: %w", err)
		}
		if err := os.WriteFile(cfg.Mapping, data, 0o644); err != nil {
			return 0, fmt.Errorf("failed to copy mapping: %w", err)
		}
		// A deliberately broken mapping still runs; its failure is part of
		// the scenario.
		if m, err := mapping.Deserialize(data); err == nil {
			return m.OutputCount, nil
		}
		return 0, nil
	}

	m, _, err := mapping.FromSource(src, discovery.Options{Marker: cfg.Marker})
	if err != nil {
		return 0, fmt.Errorf("failed to generate mapping: %w", err)
	}
	if err := mapping.WriteFile(cfg.Mapping, m); err != nil {
		return 0, fmt.Errorf("failed to write mapping: %w", err)
	}
	return m.OutputCount, nil
}

// executeFlow runs all flow steps and validates expect clauses. Each ABI
// call is traced before the engine calls it caused.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		sel, name := h.selector(step)

		slots := step.OutSlots
		if slots == 0 {
			slots = max(2, h.outputs)
		}
		in := append([]float64(nil), step.In...)
		out := make([]float64, slots)

		mark := len(h.engine.Calls())
		seq := h.clock.Next()
		status := h.abi.Dispatch(ctx, sel, in, out)

		var message string
		traceOut := out
		if status == abi.StatusFailureWithMessage {
			message = h.scrub(h.abi.Message())
			traceOut = nil
		}
		result.AddABITrace(seq, name, step.In, traceOut, status, message)
		for _, call := range h.engine.Calls()[mark:] {
			result.AddEngineTrace(h.clock.Next(), h.scrub(call))
		}

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, status, out, message) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, name, msg))
			}
		}

		h.logger.Info("flow step completed", "step", i, "call", name, "status", status)
	}
}

func (h *Harness) selector(step FlowStep) (abi.Selector, string) {
	if step.Selector != nil {
		sel := abi.Selector(*step.Selector)
		return sel, sel.String()
	}
	sel, _ := abi.ParseSelector(step.Call)
	return sel, step.Call
}

// scrub replaces the working directory so traces are reproducible.
func (h *Harness) scrub(s string) string {
	return strings.ReplaceAll(s, h.dir+string(filepath.Separator), WorkDirToken+"/")
}

func checkExpect(e *ExpectClause, status int, out []float64, message string) []string {
	var errs []string
	if status != e.Status {
		detail := ""
		if message != "" {
			detail = fmt.Sprintf(" (message %q)", message)
		}
		errs = append(errs, fmt.Sprintf("status %d, expected %d%s", status, e.Status, detail))
	}
	if len(e.Out) > 0 && status != abi.StatusFailureWithMessage {
		if len(out) < len(e.Out) {
			errs = append(errs, fmt.Sprintf("expected %d outputs, array has %d slots", len(e.Out), len(out)))
		} else {
			for j, want := range e.Out {
				if math.Abs(out[j]-want) > outTolerance {
					errs = append(errs, fmt.Sprintf("out[%d] = %v, expected %v", j, out[j], want))
				}
			}
		}
	}
	if e.Message != "" && !strings.Contains(message, e.Message) {
		errs = append(errs, fmt.Sprintf("message %q does not contain %q", message, e.Message))
	}
	return errs
}
