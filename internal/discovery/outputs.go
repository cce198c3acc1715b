package discovery

import "github.com/roach88/hydrobridge/internal/inp"

// outputClasses fixes the output order: one block per class, each in
// declaration order.
var outputClasses = []struct {
	section  string
	category Category
}{
	{"STORAGE", CategoryStorage},
	{"OUTFALLS", CategoryOutfall},
	{"PUMPS", CategoryPump},
	{"ORIFICES", CategoryOrifice},
	{"WEIRS", CategoryWeir},
	{"SUBCATCHMENTS", CategorySubcatch},
}

// Outputs lists every observable element and numbers them from 0.
func Outputs(t *inp.Table) []Descriptor {
	var out []Descriptor
	for _, class := range outputClasses {
		for _, name := range t.Names(class.section) {
			out = append(out, Descriptor{
				Index:    len(out),
				Name:     name,
				Category: class.category,
				Property: OutputProperty(class.category),
			})
		}
	}
	return out
}
