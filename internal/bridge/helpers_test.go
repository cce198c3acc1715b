package bridge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrobridge/internal/config"
	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/engine"
	"github.com/roach88/hydrobridge/internal/mapping"
	"github.com/roach88/hydrobridge/internal/testutil"
)

var (
	rainR1   = engine.Target{Property: "GAGE_RAINFALL", Name: "R1"}
	pondVol  = engine.Target{Property: "NODE_VOLUME", Name: "POND"}
	pondRain = engine.Script{
		Initial:   []engine.InitialValue{{Target: pondVol, Value: 10}},
		Responses: []engine.Response{{From: &rainR1, To: pondVol, Gain: 2}},
	}
)

type fixture struct {
	dir  string
	cfg  *config.Config
	eng  *engine.Scripted
	sess *Session
}

// newFixture writes model and its generated mapping to a temp dir and
// returns an uninitialized session over a scripted engine.
func newFixture(t *testing.T, model string, script engine.Script, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.ResolvePaths(dir)

	testutil.WriteFile(t, dir, filepath.Base(cfg.Model), model)
	m, _, err := mapping.FromSource([]byte(model), discovery.Options{})
	require.NoError(t, err)
	require.NoError(t, mapping.WriteFile(cfg.Mapping, m))

	eng := engine.NewScripted(script)
	opts = append([]Option{WithIDGenerator(NewSequenceGenerator("test-session"))}, opts...)
	return &fixture{dir: dir, cfg: cfg, eng: eng, sess: New(eng, cfg, opts...)}
}

// rewriteMapping replaces the mapping file with a modified copy.
func (f *fixture) rewriteMapping(t *testing.T, edit func(m *mapping.Mapping)) {
	t.Helper()
	m, err := mapping.LoadFile(f.cfg.Mapping)
	require.NoError(t, err)
	edit(m)
	require.NoError(t, mapping.WriteFile(f.cfg.Mapping, m))
}
