package discovery

import "fmt"

// DefaultMarker is the literal that flags an element as externally driven.
const DefaultMarker = "DUMMY"

// ElapsedTimeName names the implicit input at index 0.
const ElapsedTimeName = "ElapsedTime"

// Category is the element class of a descriptor.
type Category string

const (
	CategorySystem   Category = "SYSTEM"
	CategoryGage     Category = "GAGE"
	CategoryPump     Category = "PUMP"
	CategoryOrifice  Category = "ORIFICE"
	CategoryWeir     Category = "WEIR"
	CategoryNode     Category = "NODE"
	CategoryStorage  Category = "STORAGE"
	CategoryOutfall  Category = "OUTFALL"
	CategorySubcatch Category = "SUBCATCH"
)

// Property is the exchanged quantity of a descriptor.
type Property string

const (
	PropertyElapsedTime Property = "ELAPSEDTIME"
	PropertyRainfall    Property = "RAINFALL"
	PropertySetting     Property = "SETTING"
	PropertyLatFlow     Property = "LATFLOW"
	PropertyVolume      Property = "VOLUME"
	PropertyFlow        Property = "FLOW"
	PropertyRunoff      Property = "RUNOFF"
)

// OutputProperty returns the property reported for an output category.
func OutputProperty(c Category) Property {
	switch c {
	case CategoryStorage:
		return PropertyVolume
	case CategorySubcatch:
		return PropertyRunoff
	default:
		return PropertyFlow
	}
}

// Descriptor is one discovered input or output.
type Descriptor struct {
	Index    int
	Name     string
	Category Category
	Property Property
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%d %s %s.%s", d.Index, d.Name, d.Category, d.Property)
}

// Warning reports a marker reference that was skipped.
type Warning struct {
	Category Category
	Name     string
	Reason   string
}

func (w Warning) String() string {
	if w.Name == "" {
		return fmt.Sprintf("%s: %s", w.Category, w.Reason)
	}
	return fmt.Sprintf("%s %q: %s", w.Category, w.Name, w.Reason)
}

// Result is the outcome of a discovery pass.
type Result struct {
	Inputs   []Descriptor
	Outputs  []Descriptor
	Warnings []Warning
}

// Options tunes discovery.
type Options struct {
	// Marker is the flag literal; empty means DefaultMarker.
	Marker string
}

func (o Options) marker() string {
	if o.Marker == "" {
		return DefaultMarker
	}
	return o.Marker
}
