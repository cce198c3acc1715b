package mapping

import (
	"encoding/json"
	"fmt"
	"os"
)

// Serialize encodes m as indented JSON with entries in index order. Counts
// are written from the list lengths, so the output is always
// self-consistent. Identical mappings serialize to identical bytes.
func Serialize(m *Mapping) ([]byte, error) {
	out := Mapping{
		Version:     m.Version,
		Fingerprint: m.Fingerprint,
		Inputs:      sortEntries(m.Inputs),
		Outputs:     sortEntries(m.Outputs),
	}
	out.InputCount = len(out.Inputs)
	out.OutputCount = len(out.Outputs)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile serializes m to path.
func WriteFile(path string, m *Mapping) error {
	data, err := Serialize(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	return nil
}
