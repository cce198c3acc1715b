package bridge

import (
	"context"

	"github.com/roach88/hydrobridge/internal/store"
)

// Calculate performs one exchange. in holds the caller's inputs by
// interface index and out receives the outputs.
//
// The first call after Initialize reads the initial outputs and buffers
// in without stepping. Later calls apply the buffered inputs, step the
// engine once, read outputs and buffer in. When the engine reports the end
// of the run, the outputs are zeroed, the session is cleaned up and nil is
// returned. An engine fault is returned with the session still Running.
func (s *Session) Calculate(ctx context.Context, in, out []float64) error {
	if s.state != Running {
		return sequencingError(StageCalculate, "calculate called while uninitialized; initialize must succeed first")
	}
	if len(in) < len(s.inputs) {
		return configurationError(StageCalculate, "input array has %d slots but the mapping has %d inputs", len(in), len(s.inputs))
	}
	if len(out) < len(s.outputs) {
		return configurationError(StageCalculate, "output array has %d slots but the mapping has %d outputs", len(out), len(s.outputs))
	}

	if s.phase == phaseFirst {
		s.readOutputs(out)
		s.buffer(in)
		s.phase = phaseSteady
		s.logger.Debug("first exchange", "session", s.id, "inputs", in[:len(s.inputs)], "outputs", out[:len(s.outputs)])
		s.journalStep(ctx, PhaseFirst, 0, in, out)
		return nil
	}

	s.applyPending()
	elapsed, code := s.eng.Step()
	switch {
	case code < 0:
		err := s.engineFault(StageStep, code)
		s.logger.Error("engine step failed", "session", s.id, "code", code, "error", err)
		return err
	case code > 0:
		clear(out[:len(s.outputs)])
		s.journalStep(ctx, PhaseEnded, elapsed, in, out)
		s.logger.Info("engine reported end of run", "session", s.id)
		if err := s.teardown(ctx, store.EndEngine); err != nil {
			s.logger.Warn("cleanup after end of run failed", "error", err)
		}
		return nil
	}

	s.readOutputs(out)
	s.buffer(in)
	s.logger.Debug("exchange", "session", s.id, "elapsed", elapsed, "inputs", in[:len(s.inputs)], "outputs", out[:len(s.outputs)])
	s.journalStep(ctx, PhaseSteady, elapsed, in, out)
	return nil
}

func (s *Session) readOutputs(out []float64) {
	for _, b := range s.outputs {
		out[b.Index] = s.eng.GetValue(b.Property, b.Handle)
	}
}

func (s *Session) applyPending() {
	for _, b := range s.inputs {
		if b.System {
			continue
		}
		s.eng.SetValue(b.Property, b.Handle, s.pending[b.Index])
	}
}

func (s *Session) buffer(in []float64) {
	copy(s.pending, in[:len(s.inputs)])
}
