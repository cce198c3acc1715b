package discovery

import "github.com/roach88/hydrobridge/internal/inp"

// Discover runs every input tier in priority order and then the output
// pass. Input index 0 is always the elapsed time.
func Discover(t *inp.Table, opts Options) *Result {
	marker := opts.marker()
	res := &Result{}

	tiers := []Descriptor{{Name: ElapsedTimeName, Category: CategorySystem, Property: PropertyElapsedTime}}
	tiers = append(tiers, Gages(t, marker)...)
	tiers = append(tiers, Pumps(t, marker)...)

	orifices, w := Orifices(t, marker)
	tiers = append(tiers, orifices...)
	res.Warnings = append(res.Warnings, w...)

	weirs, w := Weirs(t, marker)
	tiers = append(tiers, weirs...)
	res.Warnings = append(res.Warnings, w...)

	nodes, w := Nodes(t, marker)
	tiers = append(tiers, nodes...)
	res.Warnings = append(res.Warnings, w...)

	for i := range tiers {
		tiers[i].Index = i
	}
	res.Inputs = tiers
	res.Outputs = Outputs(t)
	return res
}

// DiscoverBytes scans src and discovers it.
func DiscoverBytes(src []byte, opts Options) (*Result, error) {
	t, err := inp.ScanBytes(src)
	if err != nil {
		return nil, err
	}
	return Discover(t, opts), nil
}
