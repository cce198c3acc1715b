package engine

import "fmt"

// ObjectKind is the engine's element class.
type ObjectKind int

const (
	KindGage     ObjectKind = 0
	KindSubcatch ObjectKind = 1
	KindNode     ObjectKind = 2
	KindLink     ObjectKind = 3
)

var kindNames = map[ObjectKind]string{
	KindGage:     "GAGE",
	KindSubcatch: "SUBCATCH",
	KindNode:     "NODE",
	KindLink:     "LINK",
}

func (k ObjectKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// ParseKind maps a kind name back to its value.
func ParseKind(s string) (ObjectKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Property is an engine property code.
type Property int

const (
	GageRainfall   Property = 101
	SubcatchRunoff Property = 205
	NodeVolume     Property = 305
	NodeLatFlow    Property = 306
	NodeInflow     Property = 307
	LinkSetting    Property = 407
	LinkFlow       Property = 410
)

var propertyNames = map[Property]string{
	GageRainfall:   "GAGE_RAINFALL",
	SubcatchRunoff: "SUBCATCH_RUNOFF",
	NodeVolume:     "NODE_VOLUME",
	NodeLatFlow:    "NODE_LATFLOW",
	NodeInflow:     "NODE_INFLOW",
	LinkSetting:    "LINK_SETTING",
	LinkFlow:       "LINK_FLOW",
}

// Kind returns the object kind the property belongs to.
func (p Property) Kind() ObjectKind {
	return ObjectKind(int(p)/100 - 1)
}

func (p Property) String() string {
	if s, ok := propertyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PROPERTY(%d)", int(p))
}

// ParseProperty maps a property name such as "NODE_VOLUME" to its code.
func ParseProperty(s string) (Property, bool) {
	for p, name := range propertyNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}
