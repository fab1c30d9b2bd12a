package templates

import (
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
	"github.com/rime13-coder/azure-diagram-generator/pkg/layout"
)

// Diagram type names accepted on the CLI and API.
const (
	TypeNetwork     = "network"
	TypeApplication = "application"
	TypeHighLevel   = "high-level"
	TypeDataFlow    = "data-flow"
	TypeSecurity    = "security"
)

// BuildFunc turns a snapshot into one unpositioned diagram page.
type BuildFunc func(snap *discovery.Snapshot, lib *icons.Library) graph.Page

// Template pairs a page builder with the layout strategy its output
// is designed for.
type Template struct {
	Name     string
	Title    string
	Strategy layout.Strategy
	Build    BuildFunc
}

// All returns every template in canonical page order.
func All() []Template {
	return []Template{
		{TypeHighLevel, "High-Level Architecture Overview", layout.StrategyGrid, HighLevelPage},
		{TypeNetwork, "Network Topology", layout.StrategyHierarchical, NetworkPage},
		{TypeApplication, "Application Architecture", layout.StrategyLeftToRight, ApplicationPage},
		{TypeDataFlow, "Data Flow Diagram", layout.StrategyLeftToRight, DataFlowPage},
		{TypeSecurity, "Security Posture", layout.StrategyHierarchical, SecurityPage},
	}
}

// ByName returns the template with the given name.
func ByName(name string) (Template, bool) {
	for _, t := range All() {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Names returns the known diagram type names in page order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}
