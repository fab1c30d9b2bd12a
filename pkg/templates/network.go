package templates

import (
	"fmt"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// Resource types drawn as nodes on the network page, beyond VNets and
// subnets which become containers.
var networkNodeTypes = []string{
	azure.TypeLoadBalancer,
	azure.TypeAppGateway,
	azure.TypeFirewall,
	azure.TypePublicIP,
	azure.TypePrivateEndpoint,
	azure.TypeVNetGateway,
}

// NetworkPage builds the network topology page: VNets as containers with
// their subnets nested inside, network appliances placed into the subnet
// they attach to, route tables in their VNet with UDR edges, and VNet
// peering edges. Subnet-bound NSGs appear inline in the subnet label;
// subnet delegations become annotation nodes inside the subnet.
func NetworkPage(snap *discovery.Snapshot, lib *icons.Library) graph.Page {
	page := graph.Page{ID: "network", Title: "Network Topology"}

	vnets := snap.ResourcesOfType(azure.TypeVirtualNetwork)

	var groups []graph.Group
	vnetIdx := make(map[string]int) // VNet resource ID -> index in groups

	for _, vnet := range vnets {
		g := graph.Group{
			ID:    "vnet-" + vnet.Name(),
			Label: "VNet: " + vnet.Name(),
			Type:  graph.GroupVNet,
		}
		if prefixes := addressPrefixes(vnet); prefixes != "" {
			g.Label += " (" + prefixes + ")"
		}
		groups = append(groups, g)
		vnetIdx[vnet.ID()] = len(groups) - 1
	}

	// Subnet containers inside their VNet, keyed by subnet resource ID.
	// A subnet-bound NSG is folded into the container label instead of
	// drawing a node-to-group edge.
	subnetGroups := make(map[string]int)
	inlinedNSGs := make(map[string]bool)
	for _, vnet := range vnets {
		parent := vnetIdx[vnet.ID()]
		for _, raw := range azure.GetSlice(vnet.Properties(), "subnets") {
			subnet, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			subnetID := strings.ToLower(azure.GetString(subnet, "id"))
			subnetName := azure.GetString(subnet, "name")
			prefix := azure.GetString(subnet, "properties", "addressPrefix")

			label := "Subnet: " + subnetName
			if prefix != "" {
				label += " (" + prefix + ")"
			}
			if nsgID := strings.ToLower(azure.GetString(subnet, "properties", "networkSecurityGroup", "id")); nsgID != "" {
				label += " [NSG: " + azure.NameFromID(nsgID) + "]"
				inlinedNSGs[nsgID] = true
			}
			groups = append(groups, graph.Group{
				ID:       "subnet-" + vnet.Name() + "-" + subnetName,
				Label:    label,
				Type:     graph.GroupSubnet,
				ParentID: groups[parent].ID,
			})
			groups[parent].GroupIDs = append(groups[parent].GroupIDs, groups[len(groups)-1].ID)
			if subnetID != "" {
				subnetGroups[subnetID] = len(groups) - 1
			}

			// Azure allows at most one delegation per subnet.
			if svc := subnetDelegation(subnet); svc != "" {
				node := graph.Node{
					ID:    "delegation-" + vnet.Name() + "-" + subnetName,
					Label: "Delegated: " + svc,
					Type:  "delegation",
					Size:  graph.Size{Width: 160, Height: 40},
				}
				page.Nodes = append(page.Nodes, node)
				groups[len(groups)-1].NodeIDs = append(groups[len(groups)-1].NodeIDs, node.ID)
			}
		}
	}

	// Relationship index for subnet placement via NICs.
	nicToSubnet := make(map[string]string)
	for _, rel := range snap.Relationships {
		if rel.Type == discovery.RelInSubnet {
			nicToSubnet[rel.SourceID] = rel.TargetID
		}
	}

	// Network appliances as nodes, placed into their subnet when one is known.
	for _, rtype := range networkNodeTypes {
		for _, r := range snap.ResourcesOfType(rtype) {
			node := newNode(nodeID(r.ID()), r, lib)
			node.SubLabel = SubLabel(r, nil, DefaultSubLabel)
			page.Nodes = append(page.Nodes, node)

			if subnetID := subnetForResource(r.ID(), snap.Relationships, nicToSubnet); subnetID != "" {
				if gi, ok := subnetGroups[subnetID]; ok {
					groups[gi].NodeIDs = append(groups[gi].NodeIDs, node.ID)
				}
			}
		}
	}

	// NSGs already shown inline in a subnet label are done. The rest
	// (NIC-bound or unassociated) stay as nodes, with association edges
	// to any subnet group they protect.
	for _, nsg := range snap.ResourcesOfType(azure.TypeNSG) {
		if inlinedNSGs[strings.ToLower(nsg.ID())] {
			continue
		}
		node := newNode(nodeID(nsg.ID()), nsg, lib)
		node.Size = graph.Size{Width: 100, Height: 60}
		page.Nodes = append(page.Nodes, node)

		for _, rel := range snap.Relationships {
			if rel.SourceID != nsg.ID() || rel.Type != discovery.RelAppliedTo {
				continue
			}
			if gi, ok := subnetGroups[rel.TargetID]; ok {
				page.Edges = append(page.Edges, graph.Edge{
					SourceID: node.ID,
					TargetID: groups[gi].ID,
					Type:     graph.EdgeAssociation,
					Label:    "NSG",
					Style:    "dashed",
				})
			}
		}
	}

	// Route tables sit at VNet level, with a UDR edge per subnet they
	// route. Tables whose subnets are all off-page stay ungrouped.
	for _, rt := range snap.ResourcesOfType(azure.TypeRouteTable) {
		node := newNode(nodeID(rt.ID()), rt, lib)
		node.Size = graph.Size{Width: 100, Height: 60}
		page.Nodes = append(page.Nodes, node)

		placed := false
		for _, ref := range azure.GetSlice(rt.Properties(), "subnets") {
			subnetID := strings.ToLower(azure.RefID(ref))
			gi, ok := subnetGroups[subnetID]
			if !ok {
				continue
			}
			page.Edges = append(page.Edges, graph.Edge{
				SourceID: node.ID,
				TargetID: groups[gi].ID,
				Type:     graph.EdgeAssociation,
				Label:    "UDR",
				Style:    "dotted",
			})
			if !placed && groups[gi].ParentID != "" {
				for vi := range groups {
					if groups[vi].ID == groups[gi].ParentID {
						groups[vi].NodeIDs = append(groups[vi].NodeIDs, node.ID)
						placed = true
						break
					}
				}
			}
		}
	}

	// VNet peering edges between VNet containers.
	for _, p := range snap.Peerings {
		src, okSrc := vnetIdx[strings.ToLower(p.VNetID)]
		dst, okDst := vnetIdx[strings.ToLower(p.RemoteVNetID)]
		if !okSrc || !okDst {
			continue
		}
		page.Edges = append(page.Edges, graph.Edge{
			SourceID:      groups[src].ID,
			TargetID:      groups[dst].ID,
			Type:          graph.EdgePeering,
			Label:         fmt.Sprintf("Peering (%s)", p.PeeringState),
			Style:         "dashed",
			Bidirectional: true,
		})
	}

	page.Groups = groups
	return page
}

// subnetDelegation returns the delegated service name of a subnet record,
// or "" when the subnet carries no delegation.
func subnetDelegation(subnet map[string]any) string {
	for _, raw := range azure.GetSlice(subnet, "properties", "delegations") {
		d, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if svc := azure.GetString(d, "properties", "serviceName"); svc != "" {
			return svc
		}
	}
	return ""
}

// addressPrefixes joins a VNet's address space prefixes.
func addressPrefixes(vnet azure.Resource) string {
	var prefixes []string
	for _, raw := range azure.GetSlice(vnet.Properties(), "addressSpace", "addressPrefixes") {
		if s, ok := raw.(string); ok {
			prefixes = append(prefixes, s)
		}
	}
	return strings.Join(prefixes, ", ")
}

// subnetForResource finds the subnet a resource sits in, either through a
// direct in_subnet relationship or indirectly through one of its NICs.
func subnetForResource(resourceID string, rels []discovery.Relationship, nicToSubnet map[string]string) string {
	for _, rel := range rels {
		if rel.SourceID == resourceID && rel.Type == discovery.RelInSubnet {
			return rel.TargetID
		}
	}
	for _, rel := range rels {
		if rel.SourceID == resourceID && rel.Type == discovery.RelHasNIC {
			if subnet, ok := nicToSubnet[rel.TargetID]; ok {
				return subnet
			}
		}
	}
	return ""
}
