package discovery

import (
	"slices"

	"github.com/roach88/hydrobridge/internal/inp"
)

// The tier rules below return descriptors with Index unset; Discover
// numbers them.

// Gages returns rain gages whose data source is TIMESERIES <marker>.
//
//	Name  Format  Interval  SCF  TIMESERIES  <series>
func Gages(t *inp.Table, marker string) []Descriptor {
	var out []Descriptor
	for _, row := range t.Rows("RAINGAGES") {
		if len(row.Fields) < 6 {
			continue
		}
		if row.Fields[4] == "TIMESERIES" && row.Fields[5] == marker {
			out = append(out, Descriptor{Name: row.Name(), Category: CategoryGage, Property: PropertyRainfall})
		}
	}
	return out
}

// Pumps returns pumps whose curve field is the marker.
//
//	Name  FromNode  ToNode  <curve>  ...
func Pumps(t *inp.Table, marker string) []Descriptor {
	var out []Descriptor
	for _, row := range t.Rows("PUMPS") {
		if len(row.Fields) < 4 {
			continue
		}
		if row.Fields[3] == marker {
			out = append(out, Descriptor{Name: row.Name(), Category: CategoryPump, Property: PropertySetting})
		}
	}
	return out
}

// Orifices returns orifices that a control line names together with the
// marker, in [ORIFICES] declaration order.
func Orifices(t *inp.Table, marker string) ([]Descriptor, []Warning) {
	return controlled(t, marker, "ORIFICE", "ORIFICES", CategoryOrifice)
}

// Weirs is Orifices for weirs.
func Weirs(t *inp.Table, marker string) ([]Descriptor, []Warning) {
	return controlled(t, marker, "WEIR", "WEIRS", CategoryWeir)
}

// controlled scans [CONTROLS] for lines holding both the marker and the
// keyword and takes the token after the keyword as the element name:
//
//	THEN ORIFICE OR1 SETTING = CURVE DUMMY
//
// Control rules have no fixed grammar, so a line where the keyword has no
// following name, or names more than one element, is reported instead of
// guessed at.
func controlled(t *inp.Table, marker, keyword, section string, cat Category) ([]Descriptor, []Warning) {
	declared := t.NameSet(section)
	referenced := make(map[string]bool)
	var warnings []Warning

	for _, row := range t.Rows("CONTROLS") {
		if !slices.Contains(row.Fields, marker) {
			continue
		}
		var names []string
		dangling := false
		for i, tok := range row.Fields {
			if tok != keyword {
				continue
			}
			if i+1 >= len(row.Fields) {
				dangling = true
				continue
			}
			if name := row.Fields[i+1]; !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		switch {
		case len(names) == 0 && !dangling:
			continue
		case dangling && len(names) == 0:
			warnings = append(warnings, Warning{
				Category: cat,
				Reason:   "control line has no element name after " + keyword,
			})
			continue
		case len(names) > 1:
			for _, n := range names {
				warnings = append(warnings, Warning{
					Category: cat,
					Name:     n,
					Reason:   "control line names more than one " + keyword + "; skipped as ambiguous",
				})
			}
			continue
		}

		name := names[0]
		if !declared[name] {
			warnings = append(warnings, Warning{
				Category: cat,
				Name:     name,
				Reason:   "marker reference in [CONTROLS] but not declared in [" + section + "]",
			})
			continue
		}
		referenced[name] = true
	}

	var out []Descriptor
	for _, name := range t.Names(section) {
		if referenced[name] {
			out = append(out, Descriptor{Name: name, Category: cat, Property: PropertySetting})
			delete(referenced, name)
		}
	}
	return out, warnings
}

// Nodes returns nodes with a marker among the four pattern fields of a
// [DWF] row. A node matched by several rows is reported once.
//
//	Node  Constituent  Baseline  Pat1  Pat2  Pat3  Pat4
func Nodes(t *inp.Table, marker string) ([]Descriptor, []Warning) {
	declared := t.NameSet("JUNCTIONS", "STORAGE", "OUTFALLS", "DIVIDERS")
	seen := make(map[string]bool)
	var (
		out      []Descriptor
		warnings []Warning
	)
	for _, row := range t.Rows("DWF") {
		if len(row.Fields) < 4 {
			continue
		}
		end := min(len(row.Fields), 7)
		if !slices.Contains(row.Fields[3:end], marker) {
			continue
		}
		name := row.Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		if !declared[name] {
			warnings = append(warnings, Warning{
				Category: CategoryNode,
				Name:     name,
				Reason:   "marker pattern in [DWF] but node not declared",
			})
			continue
		}
		out = append(out, Descriptor{Name: name, Category: CategoryNode, Property: PropertyLatFlow})
	}
	return out, warnings
}
