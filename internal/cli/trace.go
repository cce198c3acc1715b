package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrobridge/internal/store"
)

// LatestSession selects the most recent session for --session.
const LatestSession = "latest"

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // session id or "latest"; empty lists sessions
}

// SessionSummary is one journaled session.
type SessionSummary struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Fingerprint string `json:"inp_file_hash"`
	Model       string `json:"model"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Steps       int    `json:"steps"`
	EndReason   string `json:"end_reason,omitempty"`
}

// StepRecord is one journaled exchange.
type StepRecord struct {
	Step    int64    `json:"step"`
	Phase   string   `json:"phase"`
	Elapsed number   `json:"elapsed"`
	Inputs  []number `json:"inputs"`
	Outputs []number `json:"outputs"`
}

// number encodes non-finite values as strings, as the journal stores them.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(formatValue(f))
	}
	return json.Marshal(f)
}

func numbers(vs []float64) []number {
	out := make([]number, len(vs))
	for i, v := range vs {
		out[i] = number(v)
	}
	return out
}

// SessionList holds the output of trace without --session.
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

func (l SessionList) renderText(w io.Writer) {
	if len(l.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	fmt.Fprintf(w, "%-4s %-40s %-7s %-7s %-6s %s\n", "SEQ", "SESSION", "INPUTS", "OUTPUTS", "STEPS", "END")
	for _, s := range l.Sessions {
		fmt.Fprintf(w, "%-4d %-40s %-7d %-7d %-6d %s\n",
			s.Seq, s.ID, s.InputCount, s.OutputCount, s.Steps, endReason(s.EndReason))
	}
}

// SessionTrace holds the output of trace --session.
type SessionTrace struct {
	Session SessionSummary `json:"session"`
	Steps   []StepRecord   `json:"steps"`
}

func (t SessionTrace) renderText(w io.Writer) {
	s := t.Session
	fmt.Fprintf(w, "Session: %s (#%d)\n", s.ID, s.Seq)
	fmt.Fprintf(w, "Model:   %s\n", s.Model)
	fmt.Fprintf(w, "Hash:    %s\n", s.Fingerprint)
	fmt.Fprintf(w, "Counts:  %d input(s), %d output(s)\n", s.InputCount, s.OutputCount)
	fmt.Fprintf(w, "End:     %s\n", endReason(s.EndReason))

	if len(t.Steps) == 0 {
		fmt.Fprintln(w, "\nNo steps recorded.")
		return
	}
	fmt.Fprintln(w, "\nSteps:")
	for _, st := range t.Steps {
		fmt.Fprintf(w, "  [%d] %-6s t=%s in=%s out=%s\n",
			st.Step, st.Phase, formatValue(float64(st.Elapsed)), formatValues(st.Inputs), formatValues(st.Outputs))
	}
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the exchange journal",
		Long: `Print the exchange journal written by the bridge when journaling is
enabled in its configuration.

Without --session, lists every recorded session. With --session, prints
one session and each of its exchanges: phase, elapsed time, the inputs
received from the orchestrator and the outputs returned.

Examples:
  hydrobridge trace --db ./journal.db
  hydrobridge trace --db ./journal.db --session latest
  hydrobridge trace --db ./journal.db --session 0190c3a2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", `session id to print, or "latest"`)

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening creates missing files; a journal that does not exist is an error here.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("failed to open database: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		list := SessionList{Sessions: make([]SessionSummary, 0, len(sessions))}
		for _, s := range sessions {
			list.Sessions = append(list.Sessions, summarize(s))
		}
		return formatter.Success(list)
	}

	var sess store.Session
	if opts.Session == LatestSession {
		sess, err = st.LatestSession(ctx)
	} else {
		sess, err = st.ReadSession(ctx, opts.Session)
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("session not found: %s", opts.Session), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	steps, err := st.ReadSteps(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}
	formatter.VerboseLog("Read %d step(s) for session %s", len(steps), sess.ID)

	trace := SessionTrace{Session: summarize(sess), Steps: make([]StepRecord, 0, len(steps))}
	for _, s := range steps {
		trace.Steps = append(trace.Steps, StepRecord{
			Step:    s.Step,
			Phase:   s.Phase,
			Elapsed: number(s.Elapsed),
			Inputs:  numbers(s.Inputs),
			Outputs: numbers(s.Outputs),
		})
	}
	return formatter.Success(trace)
}

func summarize(s store.Session) SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		Seq:         s.Seq,
		Fingerprint: s.Fingerprint,
		Model:       s.ModelPath,
		InputCount:  s.InputCount,
		OutputCount: s.OutputCount,
		Steps:       s.StepCount,
		EndReason:   s.EndReason,
	}
}

func endReason(r string) string {
	if r == "" {
		return "running"
	}
	return r
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatValues(vs []number) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(float64(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
