package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sessionColumns = `
	s.id, s.seq, s.fingerprint, s.model_path, s.input_count, s.output_count, s.end_reason,
	(SELECT COUNT(*) FROM steps st WHERE st.session_id = s.id)`

// ListSessions returns every session ordered by seq.
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+sessionColumns+`
		FROM sessions s
		ORDER BY s.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session, or ErrNotFound.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+sessionColumns+`
		FROM sessions s
		WHERE s.id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// LatestSession returns the session with the highest seq, or ErrNotFound
// for an empty journal.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+sessionColumns+`
		FROM sessions s
		ORDER BY s.seq DESC
		LIMIT 1
	`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("latest session: %w", ErrNotFound)
	}
	return sess, err
}

// ReadSteps returns a session's steps ordered by step number.
// Returns an empty slice (not nil) if the session has no steps.
func (s *Store) ReadSteps(ctx context.Context, sessionID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, step, phase, elapsed, inputs, outputs
		FROM steps
		WHERE session_id = ?
		ORDER BY step ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		var (
			st              Step
			inputs, outputs string
		)
		if err := rows.Scan(&st.SessionID, &st.Step, &st.Phase, &st.Elapsed, &inputs, &outputs); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if st.Inputs, err = unmarshalValues(inputs); err != nil {
			return nil, err
		}
		if st.Outputs, err = unmarshalValues(outputs); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var sess Session
	err := row.Scan(
		&sess.ID,
		&sess.Seq,
		&sess.Fingerprint,
		&sess.ModelPath,
		&sess.InputCount,
		&sess.OutputCount,
		&sess.EndReason,
		&sess.StepCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	return sess, nil
}
