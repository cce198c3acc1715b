package mapping

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/inp"
	"github.com/roach88/hydrobridge/internal/testutil"
)

const testHash = "5d41402abc4b2a76b9719d911017c592"

func pondMapping() *Mapping {
	return &Mapping{
		Version:     FormatVersion,
		Fingerprint: testHash,
		InputCount:  2,
		OutputCount: 1,
		Inputs: []Entry{
			{Index: 0, Name: "ElapsedTime", Category: discovery.CategorySystem, Property: discovery.PropertyElapsedTime},
			{Index: 1, Name: "R1", Category: discovery.CategoryGage, Property: discovery.PropertyRainfall},
		},
		Outputs: []Entry{
			{Index: 0, Name: "POND", Category: discovery.CategoryStorage, Property: discovery.PropertyVolume},
		},
	}
}

func TestSerializeGolden(t *testing.T) {
	data, err := Serialize(pondMapping())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "pond_mapping", data)
}

func TestSerializeIsDeterministic(t *testing.T) {
	m := pondMapping()
	shuffled := pondMapping()
	shuffled.Inputs[0], shuffled.Inputs[1] = shuffled.Inputs[1], shuffled.Inputs[0]

	a, err := Serialize(m)
	require.NoError(t, err)
	b, err := Serialize(shuffled)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	// Serialize must not reorder the caller's slice.
	assert.Equal(t, "R1", shuffled.Inputs[0].Name)
}

func TestRoundTrip(t *testing.T) {
	for _, src := range []string{testutil.PondModel, testutil.FullModel} {
		m, _, err := FromSource([]byte(src), discovery.Options{})
		require.NoError(t, err)

		data, err := Serialize(m)
		require.NoError(t, err)
		back, err := Deserialize(data)
		require.NoError(t, err)

		if diff := cmp.Diff(m, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestFromSourcePondModel(t *testing.T) {
	m, res, err := FromSource([]byte(testutil.PondModel), discovery.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, m.InputCount)
	assert.Equal(t, 1, m.OutputCount)
	assert.Equal(t, Entry{Index: 1, Name: "R1", Category: discovery.CategoryGage, Property: discovery.PropertyRainfall}, m.Inputs[1])
	assert.Equal(t, Entry{Index: 0, Name: "POND", Category: discovery.CategoryStorage, Property: discovery.PropertyVolume}, m.Outputs[0])
	assert.Equal(t, inp.Fingerprint([]byte(testutil.PondModel)), m.Fingerprint)
}

func TestFromSourceStructuralError(t *testing.T) {
	_, _, err := FromSource([]byte("[STORAGE\n"), discovery.Options{})
	var se *inp.StructuralError
	assert.ErrorAs(t, err, &se)
}

func TestStale(t *testing.T) {
	m, _, err := FromSource([]byte(testutil.PondModel), discovery.Options{})
	require.NoError(t, err)

	assert.False(t, m.Stale([]byte(testutil.PondModel+"\n;; a new comment\n")))
	assert.True(t, m.Stale([]byte(strings.Replace(testutil.PondModel, "POND    100", "POND    101", 1))))
}

func TestDeserializeToleratesUnknownKeys(t *testing.T) {
	doc := `{
  "version": "1.0",
  "inp_file_hash": "` + testHash + `",
  "generator": "other",
  "input_count": 1,
  "output_count": 1,
  "inputs": [{"index": 0, "name": "ElapsedTime", "object_type": "SYSTEM", "property": "ELAPSEDTIME", "swmm_index": -1}],
  "outputs": [{"index": 0, "name": "POND", "object_type": "STORAGE", "property": "VOLUME", "swmm_index": 0}]
}`
	m, err := Deserialize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "POND", m.Outputs[0].Name)
}

func TestDeserializeAcceptsAnyHexFingerprint(t *testing.T) {
	for _, hash := range []string{testHash, "ABCDEF01", inp.Fingerprint([]byte(testutil.PondModel))} {
		doc := `{"version":"1.0","inp_file_hash":"` + hash + `","input_count":1,"output_count":0,
			"inputs":[{"index":0,"name":"ElapsedTime","object_type":"SYSTEM","property":"ELAPSEDTIME"}],"outputs":[]}`
		m, err := Deserialize([]byte(doc))
		require.NoError(t, err, hash)
		assert.Equal(t, hash, m.Fingerprint)
	}
}

func TestDeserializeSortsByIndex(t *testing.T) {
	doc := `{"version":"1.0","inp_file_hash":"ab","input_count":2,"output_count":0,
"inputs":[{"index":1,"name":"R1","object_type":"GAGE","property":"RAINFALL"},
{"index":0,"name":"ElapsedTime","object_type":"SYSTEM","property":"ELAPSEDTIME"}],"outputs":[]}`
	m, err := Deserialize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "ElapsedTime", m.Inputs[0].Name)
	assert.Equal(t, "R1", m.Inputs[1].Name)
	assert.NotNil(t, m.Outputs)
}

func TestDeserializeErrors(t *testing.T) {
	elapsed := `{"index":0,"name":"ElapsedTime","object_type":"SYSTEM","property":"ELAPSEDTIME"}`
	gage := func(i int) string {
		return `{"index":` + string(rune('0'+i)) + `,"name":"R1","object_type":"GAGE","property":"RAINFALL"}`
	}

	tests := []struct {
		name    string
		doc     string
		field   string
		message string
	}{
		{
			name:    "not json",
			doc:     `{"version":`,
			message: "invalid JSON",
		},
		{
			name:  "missing version",
			doc:   `{"inp_file_hash":"ab","input_count":1,"output_count":0,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "version", message: "missing",
		},
		{
			name:  "wrong version",
			doc:   `{"version":"2.0","inp_file_hash":"ab","input_count":1,"output_count":0,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "version", message: "unsupported version",
		},
		{
			name:  "missing hash",
			doc:   `{"version":"1.0","input_count":1,"output_count":0,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "inp_file_hash", message: "missing",
		},
		{
			name:  "missing output count",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":1,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "output_count", message: "missing",
		},
		{
			name:  "missing outputs",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":1,"output_count":0,"inputs":[` + elapsed + `]}`,
			field: "outputs", message: "missing",
		},
		{
			name:  "missing entry name",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":2,"output_count":0,"inputs":[` + elapsed + `,{"index":1,"object_type":"GAGE","property":"RAINFALL"}],"outputs":[]}`,
			field: "inputs[1].name", message: "missing",
		},
		{
			name:  "count mismatch",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":3,"output_count":0,"inputs":[` + elapsed + `,` + gage(1) + `],"outputs":[]}`,
			field: "input_count", message: "declares 3 inputs but 2 are listed",
		},
		{
			name:  "duplicate index",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":3,"output_count":0,"inputs":[` + elapsed + `,` + gage(1) + `,` + gage(1) + `],"outputs":[]}`,
			field: "inputs[2].index", message: "duplicate index 1",
		},
		{
			name:  "index gap",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":2,"output_count":0,"inputs":[` + elapsed + `,` + gage(5) + `],"outputs":[]}`,
			field: "inputs[1].index", message: "out of range",
		},
		{
			name:  "no elapsed time",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":1,"output_count":0,"inputs":[{"index":0,"name":"R1","object_type":"GAGE","property":"RAINFALL"}],"outputs":[]}`,
			field: "inputs", message: "index 0 must be the SYSTEM",
		},
		{
			name:  "empty name rejected by schema",
			doc:   `{"version":"1.0","inp_file_hash":"ab","input_count":1,"output_count":1,"inputs":[` + elapsed + `],"outputs":[{"index":0,"name":"","object_type":"STORAGE","property":"VOLUME"}]}`,
			field: "schema",
		},
		{
			name:  "empty fingerprint rejected by schema",
			doc:   `{"version":"1.0","inp_file_hash":"","input_count":1,"output_count":0,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "schema",
		},
		{
			name:  "non-hex fingerprint rejected by schema",
			doc:   `{"version":"1.0","inp_file_hash":"not a hash","input_count":1,"output_count":0,"inputs":[` + elapsed + `],"outputs":[]}`,
			field: "schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsParseError(err))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
			assert.Contains(t, pe.Message, tt.message)
		})
	}
}

func TestWriteAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, WriteFile(path, pondMapping()))

	m, err := LoadFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(pondMapping(), m); diff != "" {
		t.Errorf("loaded mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.False(t, IsParseError(err))
	assert.Contains(t, err.Error(), "read mapping")
}

func TestLoadFileWrapsParseError(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.json", `{"version":"0.9"}`)
	_, err := LoadFile(path)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), path)
}
