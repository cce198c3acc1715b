package config

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrobridge/internal/testutil"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "model.inp", cfg.Model)
	assert.Equal(t, "SwmmGoldSimBridge.json", cfg.Mapping)
	assert.Equal(t, "DUMMY", cfg.Marker)
	assert.True(t, cfg.SaveResults)
	assert.False(t, cfg.VerifyFingerprint)
	assert.Empty(t, cfg.Journal)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, DefaultFileName, `
model: models/pond.inp
marker: EXTERNAL
verify_fingerprint: true
journal: journal.db
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "models", "pond.inp"), cfg.Model)
	assert.Equal(t, filepath.Join(dir, "model.rpt"), cfg.Report)
	assert.Equal(t, filepath.Join(dir, "SwmmGoldSimBridge.json"), cfg.Mapping)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Journal)
	assert.Equal(t, "EXTERNAL", cfg.DiscoveryOptions().Marker)
	assert.True(t, cfg.SaveResults)
	assert.True(t, cfg.VerifyFingerprint)
}

func TestLoadKeepsAbsolutePaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "elsewhere.inp")
	path := testutil.WriteFile(t, t.TempDir(), "cfg.yaml", "model: "+abs+"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Model)
}

func TestLoadEmptyFileIsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(testutil.WriteFile(t, dir, DefaultFileName, ""))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model.inp"), cfg.Model)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), DefaultFileName, "modle: typo.inp\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"empty marker", "marker: \"\"\n", "marker"},
		{"marker with space", "marker: \"A B\"\n", "marker"},
		{"bad level", "log_level: loud\n", "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), DefaultFileName, tt.yaml)
			_, err := Load(path)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateEmptyPath(t *testing.T) {
	cfg := Defaults()
	cfg.Mapping = " "
	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	assert.Equal(t, "mapping", ve.Field)
}

func TestLoadDirFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model.inp"), cfg.Model)

	testutil.WriteFile(t, dir, DefaultFileName, "model: other.inp\n")
	cfg, err = LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "other.inp"), cfg.Model)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := Defaults()
	cfg.LogLevel = "warn"
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
