package store

import (
	"context"
	"fmt"
)

// BeginSession inserts a running session. Its seq is assigned here, one
// past the highest seq in the journal.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, seq, fingerprint, model_path, input_count, output_count)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions), ?, ?, ?, ?)
	`,
		sess.ID,
		sess.Fingerprint,
		sess.ModelPath,
		sess.InputCount,
		sess.OutputCount,
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// RecordStep appends one exchange to a session.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting a step number is
// silently ignored.
func (s *Store) RecordStep(ctx context.Context, step Step) error {
	inputs, err := marshalValues(step.Inputs)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	outputs, err := marshalValues(step.Outputs)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO steps
		(session_id, step, phase, elapsed, inputs, outputs)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		step.SessionID,
		step.Step,
		step.Phase,
		step.Elapsed,
		inputs,
		outputs,
	)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// EndSession closes a running session with a reason. Ending an unknown
// session returns ErrNotFound.
func (s *Store) EndSession(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET end_reason = ? WHERE id = ?
	`, reason, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrNotFound)
	}
	return nil
}
