package mapping

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roach88/hydrobridge/internal/discovery"
)

// The raw forms use pointers so that a missing field can be told apart
// from a zero value.
type rawEntry struct {
	Index    *int    `json:"index"`
	Name     *string `json:"name"`
	Category *string `json:"object_type"`
	Property *string `json:"property"`
}

type rawMapping struct {
	Version     *string     `json:"version"`
	Fingerprint *string     `json:"inp_file_hash"`
	InputCount  *int        `json:"input_count"`
	OutputCount *int        `json:"output_count"`
	Inputs      *[]rawEntry `json:"inputs"`
	Outputs     *[]rawEntry `json:"outputs"`
}

// Deserialize decodes and checks an artifact. The first problem found is
// returned as a *ParseError, in this order: unreadable JSON, version,
// fingerprint, counts, entry fields, count/length mismatch, duplicate
// indices, index range, the elapsed-time entry, and finally the CUE shape
// schema.
func Deserialize(data []byte) (*Mapping, error) {
	var raw rawMapping
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Message: "invalid JSON: " + err.Error()}
	}

	if raw.Version == nil {
		return nil, parseErrorf("version", "missing")
	}
	if *raw.Version != FormatVersion {
		return nil, parseErrorf("version", "unsupported version %q (expected %q)", *raw.Version, FormatVersion)
	}
	if raw.Fingerprint == nil {
		return nil, parseErrorf("inp_file_hash", "missing")
	}
	if raw.InputCount == nil {
		return nil, parseErrorf("input_count", "missing")
	}
	if raw.OutputCount == nil {
		return nil, parseErrorf("output_count", "missing")
	}
	if raw.Inputs == nil {
		return nil, parseErrorf("inputs", "missing")
	}
	if raw.Outputs == nil {
		return nil, parseErrorf("outputs", "missing")
	}

	inputs, err := convertEntries("inputs", *raw.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := convertEntries("outputs", *raw.Outputs)
	if err != nil {
		return nil, err
	}

	if *raw.InputCount != len(inputs) {
		return nil, parseErrorf("input_count", "declares %d inputs but %d are listed", *raw.InputCount, len(inputs))
	}
	if *raw.OutputCount != len(outputs) {
		return nil, parseErrorf("output_count", "declares %d outputs but %d are listed", *raw.OutputCount, len(outputs))
	}
	if err := checkIndices("inputs", inputs); err != nil {
		return nil, err
	}
	if err := checkIndices("outputs", outputs); err != nil {
		return nil, err
	}

	m := &Mapping{
		Version:     *raw.Version,
		Fingerprint: *raw.Fingerprint,
		InputCount:  *raw.InputCount,
		OutputCount: *raw.OutputCount,
		Inputs:      sortEntries(inputs),
		Outputs:     sortEntries(outputs),
	}
	if len(m.Inputs) == 0 || m.Inputs[0].Category != discovery.CategorySystem {
		return nil, parseErrorf("inputs", "index 0 must be the %s elapsed-time entry", discovery.CategorySystem)
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}
	return m, nil
}

func convertEntries(list string, raws []rawEntry) ([]Entry, error) {
	out := make([]Entry, len(raws))
	for i, r := range raws {
		field := func(name string) string { return fmt.Sprintf("%s[%d].%s", list, i, name) }
		switch {
		case r.Index == nil:
			return nil, parseErrorf(field("index"), "missing")
		case r.Name == nil:
			return nil, parseErrorf(field("name"), "missing")
		case r.Category == nil:
			return nil, parseErrorf(field("object_type"), "missing")
		case r.Property == nil:
			return nil, parseErrorf(field("property"), "missing")
		}
		out[i] = Entry{
			Index:    *r.Index,
			Name:     *r.Name,
			Category: discovery.Category(*r.Category),
			Property: discovery.Property(*r.Property),
		}
	}
	return out, nil
}

func checkIndices(list string, es []Entry) error {
	seen := make(map[int]int, len(es))
	for i, e := range es {
		if prev, ok := seen[e.Index]; ok {
			return parseErrorf(fmt.Sprintf("%s[%d].index", list, i),
				"duplicate index %d (also used by %s[%d])", e.Index, list, prev)
		}
		seen[e.Index] = i
	}
	for i, e := range es {
		if e.Index < 0 || e.Index >= len(es) {
			return parseErrorf(fmt.Sprintf("%s[%d].index", list, i),
				"index %d out of range [0,%d)", e.Index, len(es))
		}
	}
	return nil
}

// LoadFile reads and deserializes the artifact at path.
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	m, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
