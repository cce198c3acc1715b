package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrobridge/internal/config"
	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/inp"
	"github.com/roach88/hydrobridge/internal/mapping"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Config string // bridge configuration file
	Output string // mapping path, overrides the configured one
	Marker string // marker literal, overrides the configured one
	Force  bool   // write the mapping even when lint reports errors
}

// GenerateResult describes a written mapping.
type GenerateResult struct {
	Model       string          `json:"model"`
	Mapping     string          `json:"mapping"`
	Fingerprint string          `json:"inp_file_hash"`
	InputCount  int             `json:"input_count"`
	OutputCount int             `json:"output_count"`
	Inputs      []mapping.Entry `json:"inputs"`
	Outputs     []mapping.Entry `json:"outputs"`
	Warnings    []string        `json:"warnings,omitempty"`
	Issues      []inp.Issue     `json:"issues,omitempty"`
}

func (r GenerateResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Model:   %s\n", r.Model)
	fmt.Fprintf(w, "Mapping: %s\n", r.Mapping)
	fmt.Fprintf(w, "Hash:    %s\n", r.Fingerprint)
	fmt.Fprintf(w, "\nInputs (%d):\n", r.InputCount)
	for _, e := range r.Inputs {
		fmt.Fprintf(w, "  [%d] %s %s.%s\n", e.Index, e.Name, e.Category, e.Property)
	}
	fmt.Fprintf(w, "\nOutputs (%d):\n", r.OutputCount)
	for _, e := range r.Outputs {
		fmt.Fprintf(w, "  [%d] %s %s.%s\n", e.Index, e.Name, e.Category, e.Property)
	}
	if len(r.Warnings) > 0 || len(r.Issues) > 0 {
		fmt.Fprintln(w)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✓ Mapping generated")
}

// lintReport is the error detail for a model that failed lint.
type lintReport []inp.Issue

func (r lintReport) renderText(w io.Writer) {
	for _, issue := range r {
		fmt.Fprintf(w, "  %s\n", issue)
	}
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [model.inp]",
		Short: "Discover marked elements and write the mapping",
		Long: `Scan a model, discover the elements flagged with the marker literal and
write the mapping artifact the bridge loads on initialize.

The model and mapping paths come from the bridge configuration
(hydrobridge.yaml next to the model, or --config). A model argument
overrides the configured model.

The model is linted first. Lint errors abort generation unless --force
is given; lint warnings and discovery warnings are reported but never
block.

Examples:
  hydrobridge generate ./model.inp
  hydrobridge generate --config ./hydrobridge.yaml
  hydrobridge generate ./model.inp --out ./bridge.json --marker EXTERNAL`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, modelArg(args), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to bridge configuration file")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "mapping output path (default: configured mapping)")
	cmd.Flags().StringVar(&opts.Marker, "marker", "", "marker literal (default: configured marker)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "write the mapping despite lint errors")

	return cmd
}

func runGenerate(opts *GenerateOptions, model string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.Config, model)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if opts.Marker != "" {
		cfg.Marker = opts.Marker
		if err := cfg.Validate(); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	}
	out := cfg.Mapping
	if opts.Output != "" {
		out = opts.Output
	}

	src, table, err := scanModel(cfg.Model, formatter)
	if err != nil {
		return err
	}
	logger.Debug("model scanned", "path", cfg.Model, "sections", len(table.Sections()))

	issues := inp.Lint(table)
	if inp.HasErrors(issues) {
		if !opts.Force {
			return formatter.fail(ExitFailure, ErrCodeLintFailed,
				fmt.Sprintf("model %s has lint errors", cfg.Model), lintReport(issues))
		}
		logger.Warn("writing mapping despite lint errors", "model", cfg.Model)
	}

	res := discovery.Discover(table, cfg.DiscoveryOptions())
	m := mapping.New(res, inp.Fingerprint(src))
	logger.Debug("elements discovered", "inputs", m.InputCount, "outputs", m.OutputCount, "warnings", len(res.Warnings))

	if err := mapping.WriteFile(out, m); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	logger.Info("mapping written", "path", out)

	result := GenerateResult{
		Model:       cfg.Model,
		Mapping:     out,
		Fingerprint: m.Fingerprint,
		InputCount:  m.InputCount,
		OutputCount: m.OutputCount,
		Inputs:      m.Inputs,
		Outputs:     m.Outputs,
		Issues:      issues,
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	return formatter.Success(result)
}

// modelArg returns the optional model argument.
func modelArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadConfig resolves the bridge configuration for a command. An explicit
// config file wins; otherwise hydrobridge.yaml is looked up next to the
// model (or in the working directory). A model argument overrides the
// configured model path.
func loadConfig(configPath, model string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configPath != "":
		cfg, err = config.Load(configPath)
	case model != "":
		cfg, err = config.LoadDir(filepath.Dir(model))
	default:
		cfg, err = config.LoadDir(".")
	}
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model = model
	}
	return cfg, nil
}

// scanModel reads and scans the model file, reporting failures through
// the formatter.
func scanModel(path string, formatter *OutputFormatter) ([]byte, *inp.Table, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, formatter.fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("model file not found: %s", path), nil)
	}
	if err != nil {
		return nil, nil, formatter.fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("failed to read model: %v", err), nil)
	}

	table, err := inp.ScanBytes(src)
	if err != nil {
		var structErr *inp.StructuralError
		if errors.As(err, &structErr) {
			return nil, nil, formatter.fail(ExitFailure, ErrCodeScanError,
				fmt.Sprintf("%s: %v", path, err), map[string]any{"line": structErr.Line, "text": structErr.Text})
		}
		return nil, nil, formatter.fail(ExitFailure, ErrCodeScanError, err.Error(), nil)
	}
	return src, table, nil
}
