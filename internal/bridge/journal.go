package bridge

import (
	"context"

	"github.com/roach88/hydrobridge/internal/store"
)

// Journal records sessions and exchanges. *store.Store implements it.
//
// Journal failures are logged and never fail an exchange.
type Journal interface {
	BeginSession(ctx context.Context, sess store.Session) error
	RecordStep(ctx context.Context, step store.Step) error
	EndSession(ctx context.Context, id, reason string) error
}

// Exchange phases as recorded in the journal.
const (
	PhaseFirst  = "first"
	PhaseSteady = "steady"
	PhaseEnded  = "ended"
)

func (s *Session) journalBegin(ctx context.Context) {
	if s.journal == nil {
		return
	}
	err := s.journal.BeginSession(ctx, store.Session{
		ID:          s.id,
		Fingerprint: s.mapping.Fingerprint,
		ModelPath:   s.cfg.Model,
		InputCount:  len(s.inputs),
		OutputCount: len(s.outputs),
	})
	if err != nil {
		s.logger.Warn("journal write failed", "op", "begin", "session", s.id, "error", err)
	}
}

func (s *Session) journalStep(ctx context.Context, phase string, elapsed float64, in, out []float64) {
	if s.journal == nil {
		return
	}
	err := s.journal.RecordStep(ctx, store.Step{
		SessionID: s.id,
		Step:      s.clock.Next(),
		Phase:     phase,
		Elapsed:   elapsed,
		Inputs:    append([]float64(nil), in[:len(s.inputs)]...),
		Outputs:   append([]float64(nil), out[:len(s.outputs)]...),
	})
	if err != nil {
		s.logger.Warn("journal write failed", "op", "step", "session", s.id, "error", err)
	}
}

func (s *Session) journalEnd(ctx context.Context, reason string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.EndSession(ctx, s.id, reason); err != nil {
		s.logger.Warn("journal write failed", "op", "end", "session", s.id, "error", err)
	}
}
