package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/inp"
	"github.com/roach88/hydrobridge/internal/mapping"
	"github.com/roach88/hydrobridge/internal/testutil"
)

// writeMapping generates the mapping of src into dir and returns its path.
func writeMapping(t *testing.T, dir, src string) string {
	t.Helper()
	m, _, err := mapping.FromSource([]byte(src), discovery.Options{})
	require.NoError(t, err)
	path := filepath.Join(dir, "bridge.json")
	require.NoError(t, mapping.WriteFile(path, m))
	return path
}

func TestValidateValidModel(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), model)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ Model valid")
	assert.NotContains(t, out, "Mapping")
}

func TestValidateValidModelJSON(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), model)
	require.NoError(t, err)

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, inp.Fingerprint([]byte(testutil.FullModel)), data["inp_file_hash"])
}

func TestValidateLintErrors(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.PondModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), model)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
	assert.Contains(t, out, "ERROR: no outfalls defined")
	assert.Contains(t, out, "WARNING: missing or empty [OPTIONS] section")
}

func TestValidateNonExistentModel(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/model.inp")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
	assert.Contains(t, out, "not found")
}

func TestValidateCurrentMapping(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)
	mappingPath := writeMapping(t, dir, testutil.FullModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), model, "--mapping", mappingPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ Mapping "+mappingPath+" matches model")
}

func TestValidateStaleMapping(t *testing.T) {
	dir := t.TempDir()
	mappingPath := writeMapping(t, dir, testutil.FullModel)
	edited := strings.Replace(testutil.FullModel, "C1  J1  J2  400", "C1  J1  J2  450", 1)
	require.NotEqual(t, testutil.FullModel, edited)
	model := testutil.WriteFile(t, dir, "model.inp", edited)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), model, "--mapping", mappingPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
	assert.Contains(t, out, "mapping hash: "+inp.Fingerprint([]byte(testutil.FullModel)))
	assert.Contains(t, out, "model hash:   "+inp.Fingerprint([]byte(edited)))
}

func TestValidateStaleMappingJSON(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)
	mappingPath := filepath.Join(mappingsDir, "pond_stale.json")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), model, "--mapping", mappingPath)
	require.Error(t, err)

	resp, _ := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStale, resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", details["mapping_hash"])
}

func TestValidateMissingMapping(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}),
		model, "--mapping", filepath.Join(dir, "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: mapping file not found")
}

func TestValidateMalformedMapping(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}),
		model, "--mapping", filepath.Join(mappingsDir, "bad_version.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
	assert.Contains(t, out, "version")
}

func TestValidateVerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	model := testutil.WriteFile(t, dir, "model.inp", testutil.FullModel)

	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	errBuf := &strings.Builder{}
	outBuf := &strings.Builder{}
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{model})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errBuf.String(), "Scanned "+model)
	decodeResponse(t, outBuf.String())
}
