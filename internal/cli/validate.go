package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrobridge/internal/inp"
	"github.com/roach88/hydrobridge/internal/mapping"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config  string
	Mapping string // artifact to check for staleness; empty skips the check
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool        `json:"valid"`
	Model       string      `json:"model"`
	Fingerprint string      `json:"inp_file_hash"`
	Issues      []inp.Issue `json:"issues,omitempty"`
	Mapping     string      `json:"mapping,omitempty"`
}

func (r ValidationResult) renderText(w io.Writer) {
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}
	fmt.Fprintln(w, "✓ Model valid")
	if r.Mapping != "" {
		fmt.Fprintf(w, "✓ Mapping %s matches model\n", r.Mapping)
	}
}

// staleReport is the error detail for a mapping built from other model text.
type staleReport struct {
	Mapping  string `json:"mapping"`
	Expected string `json:"mapping_hash"`
	Actual   string `json:"model_hash"`
}

func (r staleReport) renderText(w io.Writer) {
	fmt.Fprintf(w, "  mapping hash: %s\n", r.Expected)
	fmt.Fprintf(w, "  model hash:   %s\n", r.Actual)
	fmt.Fprintln(w, "  run 'hydrobridge generate' to rebuild it")
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [model.inp]",
		Short: "Lint a model and check its mapping",
		Long: `Scan and lint a model without writing anything.

With --mapping, also load the artifact and compare its fingerprint with
the model text. A mapping generated from a different model revision is
reported as stale.

Exit codes:
  0 - Model valid (and mapping current)
  1 - Lint errors, malformed model or stale mapping
  2 - Command error (model or mapping not found, etc.)

Examples:
  hydrobridge validate ./model.inp
  hydrobridge validate ./model.inp --mapping ./SwmmGoldSimBridge.json
  hydrobridge validate --config ./hydrobridge.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, modelArg(args), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to bridge configuration file")
	cmd.Flags().StringVar(&opts.Mapping, "mapping", "", "mapping artifact to check against the model")

	return cmd
}

func runValidate(opts *ValidateOptions, model string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.Config, model)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	src, table, err := scanModel(cfg.Model, formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Scanned %s: %d section(s)", cfg.Model, len(table.Sections()))

	issues := inp.Lint(table)
	if inp.HasErrors(issues) {
		return formatter.fail(ExitFailure, ErrCodeLintFailed,
			fmt.Sprintf("model %s has lint errors", cfg.Model), lintReport(issues))
	}

	result := ValidationResult{
		Valid:       true,
		Model:       cfg.Model,
		Fingerprint: inp.Fingerprint(src),
		Issues:      issues,
	}

	if opts.Mapping != "" {
		if err := checkMapping(opts.Mapping, src, formatter); err != nil {
			return err
		}
		result.Mapping = opts.Mapping
	}

	return formatter.Success(result)
}

// checkMapping loads the artifact at path and fails when it was generated
// from different model text.
func checkMapping(path string, src []byte, formatter *OutputFormatter) error {
	m, err := mapping.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("mapping file not found: %s", path), nil)
	}
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeLoadFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %s: %d input(s), %d output(s)", path, m.InputCount, m.OutputCount)

	if m.Stale(src) {
		return formatter.fail(ExitFailure, ErrCodeStale,
			fmt.Sprintf("mapping %s is stale", path),
			staleReport{Mapping: path, Expected: m.Fingerprint, Actual: inp.Fingerprint(src)})
	}
	return nil
}
