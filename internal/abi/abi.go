package abi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/hydrobridge/internal/bridge"
)

// Selector chooses the operation of a call.
type Selector int

const (
	SelectorInitialize     Selector = 0
	SelectorCalculate      Selector = 1
	SelectorReportVersion  Selector = 2
	SelectorReportArgCount Selector = 3
	SelectorCleanup        Selector = 99
)

func (s Selector) String() string {
	switch s {
	case SelectorInitialize:
		return "initialize"
	case SelectorCalculate:
		return "calculate"
	case SelectorReportVersion:
		return "report_version"
	case SelectorReportArgCount:
		return "report_arg_counts"
	case SelectorCleanup:
		return "cleanup"
	}
	return fmt.Sprintf("selector(%d)", int(s))
}

// ParseSelector maps a selector name as printed by String to its value.
func ParseSelector(name string) (Selector, bool) {
	for _, s := range []Selector{SelectorInitialize, SelectorCalculate, SelectorReportVersion, SelectorReportArgCount, SelectorCleanup} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Call status values.
const (
	StatusSuccess            = 0
	StatusFailure            = 1
	StatusFailureWithMessage = -1
)

// Bridge is the session surface a Dispatcher drives. *bridge.Session
// implements it.
type Bridge interface {
	Initialize(ctx context.Context) error
	Calculate(ctx context.Context, in, out []float64) error
	ArgumentCounts() (inputs, outputs int, err error)
	Cleanup(ctx context.Context) error
}

// Dispatcher turns selector calls into Bridge operations and errors into
// status codes.
type Dispatcher struct {
	mu     sync.Mutex
	bridge Bridge
	logger *slog.Logger
	msg    messageBuffer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher for b.
func NewDispatcher(b Bridge, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bridge: b,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one call and returns its status. Calls are serialized.
func (d *Dispatcher) Dispatch(ctx context.Context, sel Selector, in, out []float64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := d.dispatch(ctx, sel, in, out)
	d.logger.Debug("abi call", "selector", sel, "status", status)
	return status
}

func (d *Dispatcher) dispatch(ctx context.Context, sel Selector, in, out []float64) int {
	switch sel {
	case SelectorInitialize:
		return d.result(out, d.bridge.Initialize(ctx))

	case SelectorCalculate:
		return d.result(out, d.bridge.Calculate(ctx, in, out))

	case SelectorReportVersion:
		if len(out) < 1 {
			return StatusFailure
		}
		out[0] = bridge.Version
		return StatusSuccess

	case SelectorReportArgCount:
		if len(out) < 2 {
			return d.result(out, fmt.Errorf("report argument counts needs 2 output slots, got %d", len(out)))
		}
		inputs, outputs, err := d.bridge.ArgumentCounts()
		if err != nil {
			return d.result(out, err)
		}
		out[0], out[1] = float64(inputs), float64(outputs)
		return StatusSuccess

	case SelectorCleanup:
		return d.result(out, d.bridge.Cleanup(ctx))
	}

	d.logger.Warn("unknown selector", "selector", int(sel))
	return StatusFailure
}

func (d *Dispatcher) result(out []float64, err error) int {
	if err == nil {
		return StatusSuccess
	}
	d.logger.Error("abi call failed", "error", err)
	if len(out) == 0 {
		return StatusFailure
	}
	out[0] = d.msg.set(err.Error())
	return StatusFailureWithMessage
}

// Message returns the text of the last failure message.
func (d *Dispatcher) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.msg.String()
}

// MessageSlot returns the out[0] value that refers to the message buffer.
func (d *Dispatcher) MessageSlot() float64 {
	return d.msg.slot()
}
