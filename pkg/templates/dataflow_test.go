package templates

import (
	"testing"

	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

func TestDataFlowPageLanes(t *testing.T) {
	page := DataFlowPage(fixtureSnapshot(), nil)

	network := findGroup(page, "lane-network-flows")
	if network == nil {
		t.Fatal("missing lane-network-flows group")
	}
	if network.Type != graph.GroupLogicalTier {
		t.Errorf("lane group type = %q, want %q", network.Type, graph.GroupLogicalTier)
	}
	if !contains(network.NodeIDs, endpointID("Internet")) {
		t.Errorf("network lane NodeIDs = %v, want Internet endpoint", network.NodeIDs)
	}

	pl := findGroup(page, "lane-private-link")
	if pl == nil {
		t.Fatal("missing lane-private-link group")
	}
	if !contains(pl.NodeIDs, endpointID("db")) || !contains(pl.NodeIDs, endpointID("sql-01")) {
		t.Errorf("private link lane NodeIDs = %v, want db and sql-01", pl.NodeIDs)
	}
}

func TestDataFlowPageNetworkEdge(t *testing.T) {
	page := DataFlowPage(fixtureSnapshot(), nil)

	src := endpointID("Internet")
	dst := endpointID("web-nsg (10.0.1.0/24)")
	if !hasEdge(page, src, dst) {
		t.Fatal("missing network flow edge from Internet to web-nsg")
	}
	for _, e := range page.Edges {
		if e.SourceID == src && e.TargetID == dst {
			if e.Type != graph.EdgeDataFlow {
				t.Errorf("flow edge type = %q, want %q", e.Type, graph.EdgeDataFlow)
			}
			if e.Label != "TCP 443" {
				t.Errorf("flow edge label = %q, want %q", e.Label, "TCP 443")
			}
			if e.Style != "" {
				t.Errorf("allow flow style = %q, want empty", e.Style)
			}
		}
	}
}

func TestDataFlowPagePrivateLinkEdge(t *testing.T) {
	page := DataFlowPage(fixtureSnapshot(), nil)

	src := endpointID("db")
	dst := endpointID("sql-01")
	if !hasEdge(page, src, dst) {
		t.Fatal("missing private link flow from db subnet to sql-01")
	}
	for _, e := range page.Edges {
		if e.SourceID == src && e.TargetID == dst {
			if e.Label != "Private Link -> sql-01" {
				t.Errorf("flow edge label = %q, want %q", e.Label, "Private Link -> sql-01")
			}
		}
	}
}

func TestDataFlowPageDenyStyledDotted(t *testing.T) {
	snap := fixtureSnapshot()
	for i := range snap.NSGRules {
		snap.NSGRules[i].Access = "Deny"
	}
	snap.Derive()

	page := DataFlowPage(snap, nil)
	var found bool
	for _, e := range page.Edges {
		if e.Meta["access"] == "Deny" {
			found = true
			if e.Style != "dotted" {
				t.Errorf("deny flow style = %q, want dotted", e.Style)
			}
		}
	}
	if !found {
		t.Error("expected a deny flow edge")
	}
}

func TestDataFlowPageEndpointEnrichedFromResource(t *testing.T) {
	page := DataFlowPage(fixtureSnapshot(), nil)

	sql := findNode(page, endpointID("sql-01"))
	if sql == nil {
		t.Fatal("missing sql-01 endpoint node")
	}
	if sql.Type != "microsoft.sql/servers" {
		t.Errorf("sql endpoint type = %q, want %q", sql.Type, "microsoft.sql/servers")
	}
	if sql.SubLabel != "westeurope" {
		t.Errorf("sql endpoint SubLabel = %q, want %q", sql.SubLabel, "westeurope")
	}
}

func TestDataFlowPageEmptySnapshot(t *testing.T) {
	page := DataFlowPage(&emptySnapshot, nil)

	if len(page.Nodes) != 0 || len(page.Edges) != 0 {
		t.Errorf("empty snapshot should yield an empty page, got %d nodes %d edges",
			len(page.Nodes), len(page.Edges))
	}
}
