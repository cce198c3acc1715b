package mapping

import (
	"slices"

	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/inp"
)

// FormatVersion is the only artifact version this package reads or writes.
const FormatVersion = "1.0"

// DefaultFileName is the artifact name the bridge looks for next to the
// model when nothing else is configured.
const DefaultFileName = "SwmmGoldSimBridge.json"

// Entry is one indexed input or output.
type Entry struct {
	Index    int                `json:"index"`
	Name     string             `json:"name"`
	Category discovery.Category `json:"object_type"`
	Property discovery.Property `json:"property"`
}

// Mapping is the decoded artifact. It is not modified once a session has
// loaded it.
type Mapping struct {
	Version     string  `json:"version"`
	Fingerprint string  `json:"inp_file_hash"`
	InputCount  int     `json:"input_count"`
	OutputCount int     `json:"output_count"`
	Inputs      []Entry `json:"inputs"`
	Outputs     []Entry `json:"outputs"`
}

// New builds a mapping from a discovery result.
func New(res *discovery.Result, fingerprint string) *Mapping {
	m := &Mapping{
		Version:     FormatVersion,
		Fingerprint: fingerprint,
		Inputs:      entries(res.Inputs),
		Outputs:     entries(res.Outputs),
	}
	m.InputCount = len(m.Inputs)
	m.OutputCount = len(m.Outputs)
	return m
}

func entries(ds []discovery.Descriptor) []Entry {
	out := make([]Entry, len(ds))
	for i, d := range ds {
		out[i] = Entry{Index: d.Index, Name: d.Name, Category: d.Category, Property: d.Property}
	}
	return out
}

// FromSource scans model text, discovers it and builds the mapping. The
// discovery result is returned alongside so callers can report warnings.
func FromSource(src []byte, opts discovery.Options) (*Mapping, *discovery.Result, error) {
	table, err := inp.ScanBytes(src)
	if err != nil {
		return nil, nil, err
	}
	res := discovery.Discover(table, opts)
	return New(res, inp.Fingerprint(src)), res, nil
}

// Stale reports whether the mapping was generated from different model
// text than src.
func (m *Mapping) Stale(src []byte) bool {
	return m.Fingerprint != inp.Fingerprint(src)
}

func sortEntries(es []Entry) []Entry {
	out := slices.Clone(es)
	if out == nil {
		out = []Entry{}
	}
	slices.SortStableFunc(out, func(a, b Entry) int { return a.Index - b.Index })
	return out
}
