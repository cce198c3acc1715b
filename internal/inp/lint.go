package inp

import "fmt"

// Severity grades a lint finding.
type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Issue is one lint finding about a scanned model.
type Issue struct {
	Severity Severity `json:"severity"`
	Section  string   `json:"section,omitempty"`
	Element  string   `json:"element,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Sections the engine needs before a model can run at all.
var requiredSections = []string{"OPTIONS", "RAINGAGES", "SUBCATCHMENTS", "SUBAREAS", "INFILTRATION"}

// NodeSections declare nodes; LinkSections declare links.
var (
	NodeSections = []string{"JUNCTIONS", "OUTFALLS", "DIVIDERS", "STORAGE"}
	LinkSections = []string{"CONDUITS", "PUMPS", "ORIFICES", "WEIRS", "OUTLETS"}
)

// Lint runs the model checks that catch models the engine would refuse to
// open. Findings come back in check order; none of them stop the scan.
func Lint(t *Table) []Issue {
	var issues []Issue
	issues = append(issues, lintRequiredSections(t)...)
	issues = append(issues, lintNodeReferences(t)...)
	issues = append(issues, lintCrossSections(t)...)
	return issues
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func lintRequiredSections(t *Table) []Issue {
	var issues []Issue
	for _, s := range requiredSections {
		if len(t.Rows(s)) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Section:  s,
				Message:  fmt.Sprintf("missing or empty [%s] section - model may not run", s),
			})
		}
	}
	if len(t.Rows("OUTFALLS")) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Section:  "OUTFALLS",
			Message:  "no outfalls defined - the engine requires at least one outlet node",
		})
	}
	return issues
}

func lintNodeReferences(t *Table) []Issue {
	nodes := t.NameSet(NodeSections...)
	if len(nodes) == 0 {
		return []Issue{{Severity: SeverityWarning, Message: "no nodes defined in model"}}
	}

	var issues []Issue
	for _, section := range LinkSections {
		for _, row := range t.Rows(section) {
			if len(row.Fields) < 3 {
				continue
			}
			for _, end := range []struct{ label, node string }{
				{"from-node", row.Fields[1]},
				{"to-node", row.Fields[2]},
			} {
				if !nodes[end.node] {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Section:  section,
						Element:  row.Name(),
						Message: fmt.Sprintf("%s %q references non-existent %s %q",
							linkNoun(section), row.Name(), end.label, end.node),
					})
				}
			}
		}
	}
	return issues
}

func lintCrossSections(t *Table) []Issue {
	conduits := t.NameSet("CONDUITS")
	orifices := t.NameSet("ORIFICES")
	weirs := t.NameSet("WEIRS")
	links := t.NameSet(LinkSections...)

	var issues []Issue
	for _, row := range t.Rows("XSECTIONS") {
		if len(row.Fields) < 2 {
			continue
		}
		link, shape := row.Fields[0], row.Fields[1]
		params := len(row.Fields) - 2

		if !links[link] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Section:  "XSECTIONS",
				Element:  link,
				Message:  fmt.Sprintf("XSECTION for %q but link not declared", link),
			})
			continue
		}

		bad := func(msg string, args ...any) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Section:  "XSECTIONS",
				Element:  link,
				Message:  fmt.Sprintf(msg, args...),
			})
		}
		switch {
		case weirs[link] && shape == "RECT_OPEN" && params < 2:
			bad("weir %q with RECT_OPEN needs at least 2 parameters (height, width), found %d", link, params)
		case weirs[link] && shape == "RECT_OPEN" && params == 3:
			bad("weir %q with RECT_OPEN has 3 parameters, expected 2 or 4", link)
		case orifices[link] && shape == "CIRCULAR" && params < 1:
			bad("orifice %q with CIRCULAR needs at least 1 parameter (diameter), found %d", link, params)
		case conduits[link] && shape == "CIRCULAR" && params < 1:
			bad("conduit %q with CIRCULAR needs at least 1 parameter (diameter), found %d", link, params)
		case conduits[link] && shape == "RECT_OPEN" && params < 2:
			bad("conduit %q with RECT_OPEN needs at least 2 parameters, found %d", link, params)
		}
	}
	return issues
}

func linkNoun(section string) string {
	switch section {
	case "CONDUITS":
		return "conduit"
	case "PUMPS":
		return "pump"
	case "ORIFICES":
		return "orifice"
	case "WEIRS":
		return "weir"
	default:
		return "outlet"
	}
}
