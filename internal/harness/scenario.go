package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hydrobridge/internal/abi"
	"github.com/roach88/hydrobridge/internal/engine"
)

// Scenario is one scripted realization: a model, engine behaviour, a
// sequence of ABI calls and assertions over the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the model file path, relative to the scenario file.
	Model string `yaml:"model"`

	// Mapping is an optional mapping artifact, relative to the scenario
	// file. When empty the mapping is generated from Model.
	Mapping string `yaml:"mapping,omitempty"`

	// Marker overrides the discovery marker.
	Marker string `yaml:"marker,omitempty"`

	// VerifyFingerprint turns on the stale-mapping check at initialize.
	VerifyFingerprint bool `yaml:"verify_fingerprint,omitempty"`

	// Engine scripts the in-memory engine.
	Engine engine.Script `yaml:"engine"`

	// Flow is the ABI call sequence.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one ABI call.
type FlowStep struct {
	// Call is a selector name: initialize, calculate, report_version,
	// report_arg_counts or cleanup.
	Call string `yaml:"call"`

	// Selector overrides Call with a raw selector value, for exercising
	// unknown selectors.
	Selector *int `yaml:"selector,omitempty"`

	In []float64 `yaml:"in,omitempty"`

	// OutSlots sizes the output array. Defaults to the larger of 2 and the
	// mapping's output count.
	OutSlots int `yaml:"out_slots,omitempty"`

	// Expect validates the call. If nil the call is not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a call.
type ExpectClause struct {
	Status int `yaml:"status"`

	// Out is compared against the leading output slots.
	Out []float64 `yaml:"out,omitempty"`

	// Message must be contained in the failure message.
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Call is an exact engine call line (engine_call).
	Call string `yaml:"call,omitempty"`

	// Calls are engine operations in expected order (call_order).
	Calls []string `yaml:"calls,omitempty"`

	// Op and Count check how often an engine operation ran (call_count).
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// State is the expected session state (session_state).
	State string `yaml:"state,omitempty"`

	// Target and Value check an engine property (engine_value).
	Target *engine.Target `yaml:"target,omitempty"`
	Value  float64        `yaml:"value,omitempty"`

	// Table, Where and Expect query the journal (final_state).
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEngineCall   = "engine_call"
	AssertCallOrder    = "call_order"
	AssertCallCount    = "call_count"
	AssertSessionState = "session_state"
	AssertEngineValue  = "engine_value"
	AssertFinalState   = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Model and mapping
// paths are resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Model = resolve(base, scenario.Model)
	scenario.Mapping = resolve(base, scenario.Mapping)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}
	if s.Mapping != "" {
		if _, err := os.Stat(s.Mapping); os.IsNotExist(err) {
			return fmt.Errorf("mapping file not found: %s", s.Mapping)
		}
	}

	for i, step := range s.Flow {
		if step.Selector != nil {
			continue
		}
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}
		if _, ok := abi.ParseSelector(step.Call); !ok {
			return fmt.Errorf("flow[%d]: unknown call %q", i, step.Call)
		}
		if step.OutSlots < 0 {
			return fmt.Errorf("flow[%d]: out_slots must be non-negative", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEngineCall:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for engine_call", index)
		}
	case AssertCallOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for call_order", index)
		}
	case AssertCallCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertSessionState:
		if a.State != "Running" && a.State != "Uninitialized" {
			return fmt.Errorf("assertions[%d]: state must be Running or Uninitialized", index)
		}
	case AssertEngineValue:
		if a.Target == nil {
			return fmt.Errorf("assertions[%d]: target is required for engine_value", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
