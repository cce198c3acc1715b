package bridge

import (
	"fmt"

	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/engine"
	"github.com/roach88/hydrobridge/internal/mapping"
)

// Binding is a mapping entry bound to a live engine handle.
type Binding struct {
	Index    int
	Name     string
	Category discovery.Category
	Property engine.Property

	// Handle is the engine index of the element; -1 for the system slot.
	Handle int

	// System marks the elapsed-time slot, which is never applied.
	System bool
}

type pair struct {
	category discovery.Category
	property discovery.Property
}

// systemSlot marks the one input pair that has no engine property.
const systemSlot engine.Property = 0

var inputProperties = map[pair]engine.Property{
	{discovery.CategorySystem, discovery.PropertyElapsedTime}: systemSlot,
	{discovery.CategoryGage, discovery.PropertyRainfall}:      engine.GageRainfall,
	{discovery.CategoryPump, discovery.PropertySetting}:       engine.LinkSetting,
	{discovery.CategoryOrifice, discovery.PropertySetting}:    engine.LinkSetting,
	{discovery.CategoryWeir, discovery.PropertySetting}:       engine.LinkSetting,
	{discovery.CategoryNode, discovery.PropertyLatFlow}:       engine.NodeLatFlow,
}

var outputProperties = map[pair]engine.Property{
	{discovery.CategoryStorage, discovery.PropertyVolume}:  engine.NodeVolume,
	{discovery.CategoryOutfall, discovery.PropertyFlow}:    engine.NodeInflow,
	{discovery.CategoryPump, discovery.PropertyFlow}:       engine.LinkFlow,
	{discovery.CategoryOrifice, discovery.PropertyFlow}:    engine.LinkFlow,
	{discovery.CategoryWeir, discovery.PropertyFlow}:       engine.LinkFlow,
	{discovery.CategorySubcatch, discovery.PropertyRunoff}: engine.SubcatchRunoff,
}

// InputProperty returns the engine property an input pair sets. system is
// true for the elapsed-time slot; ok is false for an unsupported pair.
func InputProperty(c discovery.Category, p discovery.Property) (prop engine.Property, system, ok bool) {
	prop, ok = inputProperties[pair{c, p}]
	return prop, ok && prop == systemSlot, ok
}

// OutputProperty returns the engine property an output pair reads.
func OutputProperty(c discovery.Category, p discovery.Property) (engine.Property, bool) {
	prop, ok := outputProperties[pair{c, p}]
	return prop, ok
}

// Resolve binds every mapping entry to an engine handle. The engine must
// have the model open. The first unsupported pair is a Configuration error
// and the first missing element a NotFound error; nothing is returned
// unless every entry resolves.
func Resolve(eng engine.Engine, m *mapping.Mapping) (inputs, outputs []Binding, err error) {
	inputs = make([]Binding, 0, len(m.Inputs))
	for _, e := range m.Inputs {
		prop, system, ok := InputProperty(e.Category, e.Property)
		if !ok {
			return nil, nil, unsupportedPair("input", e)
		}
		b := Binding{Index: e.Index, Name: e.Name, Category: e.Category, Property: prop, Handle: -1, System: system}
		if !system {
			if b.Handle, err = lookup(eng, "input", e, prop.Kind()); err != nil {
				return nil, nil, err
			}
		}
		inputs = append(inputs, b)
	}

	outputs = make([]Binding, 0, len(m.Outputs))
	for _, e := range m.Outputs {
		prop, ok := OutputProperty(e.Category, e.Property)
		if !ok {
			return nil, nil, unsupportedPair("output", e)
		}
		b := Binding{Index: e.Index, Name: e.Name, Category: e.Category, Property: prop}
		if b.Handle, err = lookup(eng, "output", e, prop.Kind()); err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, b)
	}
	return inputs, outputs, nil
}

func lookup(eng engine.Engine, dir string, e mapping.Entry, kind engine.ObjectKind) (int, error) {
	h := eng.GetIndex(kind, e.Name)
	if h < 0 {
		return -1, &Error{
			Kind:     KindNotFound,
			Stage:    StageResolve,
			Message:  fmt.Sprintf("%s %d: %s %q not found in model", dir, e.Index, e.Category, e.Name),
			Element:  e.Name,
			Category: string(e.Category),
			Property: string(e.Property),
		}
	}
	return h, nil
}

func unsupportedPair(dir string, e mapping.Entry) *Error {
	return &Error{
		Kind:     KindConfiguration,
		Stage:    StageResolve,
		Message:  fmt.Sprintf("%s %d %q: unsupported category/property pair %s/%s", dir, e.Index, e.Name, e.Category, e.Property),
		Element:  e.Name,
		Category: string(e.Category),
		Property: string(e.Property),
	}
}
