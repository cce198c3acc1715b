package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/hydrobridge/internal/config"
	"github.com/roach88/hydrobridge/internal/engine"
	"github.com/roach88/hydrobridge/internal/inp"
	"github.com/roach88/hydrobridge/internal/mapping"
	"github.com/roach88/hydrobridge/internal/store"
)

// Version is reported to the Orchestrator by the version query.
const Version = 1.04

// State is the session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "Running"
	}
	return "Uninitialized"
}

type phase int

const (
	phaseFirst phase = iota
	phaseSteady
)

// Session holds all state of one coupling between the Orchestrator and the
// engine. Methods must not be called concurrently.
type Session struct {
	eng     engine.Engine
	cfg     config.Config
	logger  *slog.Logger
	journal Journal
	ids     IDGenerator
	clock   *StepClock

	state   State
	id      string
	mapping *mapping.Mapping
	inputs  []Binding
	outputs []Binding
	pending []float64
	phase   phase
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithJournal records sessions and exchanges to j.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithIDGenerator sets the session id source. The default is UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// New creates an uninitialized session driving eng with cfg.
func New(eng engine.Engine, cfg *config.Config, opts ...Option) *Session {
	s := &Session{
		eng:    eng,
		cfg:    *cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    UUIDv7Generator{},
		clock:  NewStepClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a session and opens the journal when cfg names
// one. The returned function closes the journal.
func NewFromConfig(eng engine.Engine, cfg *config.Config, opts ...Option) (*Session, func() error, error) {
	if cfg.Journal == "" {
		return New(eng, cfg, opts...), func() error { return nil }, nil
	}
	st, err := store.Open(cfg.Journal)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	opts = append([]Option{WithJournal(st)}, opts...)
	return New(eng, cfg, opts...), st.Close, nil
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// ID returns the id of the running session, or of the last one.
func (s *Session) ID() string { return s.id }

// Mapping returns the loaded mapping, or nil.
func (s *Session) Mapping() *mapping.Mapping { return s.mapping }

// Initialize opens and starts the engine, reloads the mapping and resolves
// it. A running session is cleaned up first. On failure the session stays
// Uninitialized and the engine is left closed.
func (s *Session) Initialize(ctx context.Context) error {
	if s.state == Running {
		s.logger.Info("initialize while running; cleaning up first", "session", s.id)
		if err := s.teardown(ctx, store.EndReinitialized); err != nil {
			s.logger.Warn("implicit cleanup failed", "error", err)
		}
	}

	if err := checkModelFile(s.cfg.Model); err != nil {
		return s.fail(err)
	}

	s.logger.Info("opening model", "model", s.cfg.Model, "report", s.cfg.Report, "output", s.cfg.Output)
	if code := s.eng.Open(s.cfg.Model, s.cfg.Report, s.cfg.Output); code != 0 {
		return s.fail(s.engineFault(StageOpen, code))
	}
	if code := s.eng.Start(s.cfg.SaveResults); code != 0 {
		err := s.engineFault(StageStart, code)
		s.eng.Close()
		return s.fail(err)
	}

	m, err := s.loadMapping()
	if err == nil && s.cfg.VerifyFingerprint {
		err = s.verifyFingerprint(m)
	}
	var inputs, outputs []Binding
	if err == nil {
		inputs, outputs, err = Resolve(s.eng, m)
	}
	if err != nil {
		s.eng.End()
		s.eng.Close()
		return s.fail(err)
	}

	s.inputs, s.outputs = inputs, outputs
	s.pending = make([]float64, len(inputs))
	s.phase = phaseFirst
	s.clock.Reset()
	s.id = s.ids.Generate()
	s.state = Running

	s.logger.Info("session initialized",
		"session", s.id, "inputs", len(inputs), "outputs", len(outputs), "fingerprint", m.Fingerprint)
	s.journalBegin(ctx)
	return nil
}

func (s *Session) fail(err error) error {
	s.logger.Error("initialize failed", "error", err)
	return err
}

func checkModelFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return configurationError(StageOpen, "model file %q does not exist", path)
	case err != nil:
		return configurationError(StageOpen, "model file %q: %v", path, err)
	case info.IsDir():
		return configurationError(StageOpen, "model path %q is a directory", path)
	}
	return nil
}

func (s *Session) engineFault(stage Stage, code int) *Error {
	msg := s.eng.GetError()
	if msg == "" {
		msg = fmt.Sprintf("engine error %d during %s", code, stage)
	}
	return &Error{Kind: KindEngineFault, Stage: stage, Message: msg, Code: code}
}

// loadMapping always rereads the artifact so that regenerating it between
// realizations takes effect.
func (s *Session) loadMapping() (*mapping.Mapping, error) {
	m, err := mapping.LoadFile(s.cfg.Mapping)
	if err != nil {
		kind := KindConfiguration
		if mapping.IsParseError(err) {
			kind = KindParse
		}
		return nil, &Error{Kind: kind, Stage: StageMapping, Message: err.Error(), Err: err}
	}
	s.mapping = m
	s.logger.Debug("mapping loaded", "path", s.cfg.Mapping, "inputs", m.InputCount, "outputs", m.OutputCount)
	return m, nil
}

func (s *Session) verifyFingerprint(m *mapping.Mapping) error {
	src, err := os.ReadFile(s.cfg.Model)
	if err != nil {
		return configurationError(StageVerify, "read model %q: %v", s.cfg.Model, err)
	}
	if _, err := inp.ScanBytes(src); err != nil {
		return &Error{Kind: KindStructural, Stage: StageVerify, Message: err.Error(), Err: err}
	}
	if got := inp.Fingerprint(src); got != m.Fingerprint {
		return configurationError(StageVerify,
			"mapping %q is stale: fingerprint %s does not match model fingerprint %s",
			s.cfg.Mapping, m.Fingerprint, got)
	}
	return nil
}

// Cleanup ends and closes the engine. It is a no-op while Uninitialized.
// The session is Uninitialized afterwards even when the engine reports a
// failure.
func (s *Session) Cleanup(ctx context.Context) error {
	if s.state != Running {
		return nil
	}
	return s.teardown(ctx, store.EndCleanup)
}

func (s *Session) teardown(ctx context.Context, reason string) error {
	endCode := s.eng.End()
	var endErr *Error
	if endCode != 0 {
		endErr = s.engineFault(StageCleanup, endCode)
	}
	closeCode := s.eng.Close()

	s.state = Uninitialized
	s.inputs, s.outputs, s.pending = nil, nil, nil
	s.journalEnd(ctx, reason)
	s.logger.Info("session closed", "session", s.id, "reason", reason, "steps", s.clock.Current())

	if endErr != nil {
		return endErr
	}
	if closeCode != 0 {
		return s.engineFault(StageCleanup, closeCode)
	}
	return nil
}

// ArgumentCounts returns the mapping's input and output counts, loading
// the mapping if no session has loaded it yet. Legal in either state.
func (s *Session) ArgumentCounts() (inputs, outputs int, err error) {
	if s.mapping == nil {
		if _, err := s.loadMapping(); err != nil {
			return 0, 0, err
		}
	}
	return s.mapping.InputCount, s.mapping.OutputCount, nil
}
