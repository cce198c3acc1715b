package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrobridge/internal/engine"
)

// scenarioDir holds the shared scenario files at the module root.
const scenarioDir = "../../testdata/scenarios"

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{
		"pond_deferral",
		"engine_end",
		"missing_element",
		"engine_fault",
		"version_and_counts",
		"reinitialize",
		"stale_mapping",
		"bad_mapping",
		"full_model",
	} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceInterleavesEngineCalls(t *testing.T) {
	result, err := Run(loadScenario(t, "pond_deferral"))
	require.NoError(t, err)

	require.NotEmpty(t, result.Trace)
	first := result.Trace[0]
	assert.Equal(t, EventABI, first.Type)
	assert.Equal(t, "initialize", first.Call)
	require.NotNil(t, first.Status)
	assert.Equal(t, 0, *first.Status)

	assert.Equal(t, "open $WORK/model.inp", result.Trace[1].Call)
	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, "Uninitialized", result.State["session"])
	assert.Equal(t, 2, result.State["steps"])
}

func TestRun_FailedExpectationsAreReported(t *testing.T) {
	s := loadScenario(t, "pond_deferral")
	s.Flow[1].Expect.Out = []float64{11}
	s.Flow[4].Expect.Status = -1

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "flow[1] calculate: out[0] = 10, expected 11", result.Errors[0])
	assert.Equal(t, "flow[4] cleanup: status 0, expected -1", result.Errors[1])
}

func TestRun_FailureMessageReplacesOutputs(t *testing.T) {
	result, err := Run(loadScenario(t, "missing_element"))
	require.NoError(t, err)

	init := result.Trace[0]
	assert.Nil(t, init.Out)
	assert.Equal(t, `output 0: STORAGE "POND" not found in model`, init.Message)
	require.NotNil(t, init.Status)
	assert.Equal(t, -1, *init.Status)
}

func TestRun_ScrubsWorkDirInMessages(t *testing.T) {
	s := loadScenario(t, "bad_mapping")
	result, err := Run(s)
	require.NoError(t, err)

	msg := result.Trace[1].Message
	assert.Contains(t, msg, "$WORK/SwmmGoldSimBridge.json")
}

func TestRun_CustomMarker(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "marked.inp")
	writeFile(t, model, `[RAINGAGES]
R1  INTENSITY  0:05  1.0  TIMESERIES  EXTERNAL
R2  INTENSITY  0:05  1.0  TIMESERIES  DUMMY
`)
	s := &Scenario{
		Name:        "marker",
		Description: "custom marker",
		Model:       model,
		Marker:      "EXTERNAL",
		Engine:      engine.Script{},
		Flow:        []FlowStep{{Call: "report_arg_counts", Expect: &ExpectClause{Out: []float64{2, 0}}}},
		Assertions:  []Assertion{{Type: AssertCallCount, Op: "open", Count: 0}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnscannableModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "broken.inp")
	writeFile(t, model, "[JUNCTIONS\nJ1 100\n")
	s := &Scenario{
		Name:       "broken",
		Model:      model,
		Flow:       []FlowStep{{Call: "initialize"}},
		Assertions: []Assertion{{Type: AssertCallCount, Op: "open", Count: 0}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate mapping")
}
