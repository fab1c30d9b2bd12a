package templates

import (
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// Swim lane titles per flow type, in lane order.
var flowLanes = []struct {
	flowType string
	title    string
}{
	{discovery.FlowNetwork, "Network Flows"},
	{discovery.FlowPrivateLink, "Private Link"},
	{discovery.FlowServiceEndpoint, "Service Endpoints"},
	{discovery.FlowDiagnostic, "Diagnostics"},
}

// DataFlowPage builds the data flow page: one node per flow endpoint,
// grouped into swim lanes by flow type, with a directed edge per flow.
// Endpoints that match a discovered resource by name pick up its type
// metadata and icon.
func DataFlowPage(snap *discovery.Snapshot, lib *icons.Library) graph.Page {
	page := graph.Page{ID: "data-flow", Title: "Data Flow Diagram"}

	// Resource lookup by lower-cased name for endpoint enrichment.
	byName := make(map[string]azure.Resource)
	for _, r := range snap.Resources {
		byName[strings.ToLower(r.Name())] = r
	}

	// Endpoints per flow type, preserving first-seen order. An endpoint
	// appearing under multiple flow types stays in its first lane.
	laneEndpoints := make(map[string][]string)
	nodeIDByEndpoint := make(map[string]string)
	for _, flow := range snap.DataFlows {
		for _, endpoint := range []string{flow.Source, flow.Destination} {
			if _, seen := nodeIDByEndpoint[endpoint]; seen {
				continue
			}
			nodeIDByEndpoint[endpoint] = endpointID(endpoint)
			laneEndpoints[flow.FlowType] = append(laneEndpoints[flow.FlowType], endpoint)
		}
	}

	for _, lane := range flowLanes {
		endpoints := laneEndpoints[lane.flowType]
		if len(endpoints) == 0 {
			continue
		}

		group := graph.Group{
			ID:    "lane-" + strings.ReplaceAll(strings.ToLower(lane.title), " ", "-"),
			Label: lane.title,
			Type:  graph.GroupLogicalTier,
		}
		for _, endpoint := range endpoints {
			node := graph.Node{
				ID:    nodeIDByEndpoint[endpoint],
				Label: endpoint,
				Size:  graph.Size{Width: 140, Height: 60},
			}
			if r, ok := byName[strings.ToLower(endpoint)]; ok {
				enriched := newNode(node.ID, r, lib)
				enriched.Label = endpoint
				enriched.Size = node.Size
				enriched.SubLabel = SubLabel(r, nil, DefaultSubLabel)
				node = enriched
			}
			page.Nodes = append(page.Nodes, node)
			group.NodeIDs = append(group.NodeIDs, node.ID)
		}
		page.Groups = append(page.Groups, group)
	}

	for _, flow := range snap.DataFlows {
		src := nodeIDByEndpoint[flow.Source]
		dst := nodeIDByEndpoint[flow.Destination]
		if src == "" || dst == "" || src == dst {
			continue
		}

		edge := graph.Edge{
			SourceID: src,
			TargetID: dst,
			Type:     graph.EdgeDataFlow,
			Label:    flow.Label,
			Meta: map[string]any{
				"flow_type": flow.FlowType,
			},
		}
		if flow.Direction != "" {
			edge.Meta["direction"] = flow.Direction
		}
		if flow.IsDeny() {
			edge.Style = "dotted"
			edge.Meta["access"] = flow.Access
		} else if flow.FlowType == discovery.FlowDiagnostic {
			edge.Style = "dashed"
		}
		page.Edges = append(page.Edges, edge)
	}

	return page
}
