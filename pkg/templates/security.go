package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// Subnet risk levels for the security view.
const (
	RiskLow    = "low"    // NSG present, nothing public
	RiskMedium = "medium" // NSG plus public resources, or no NSG but nothing public
	RiskHigh   = "high"   // public-facing resources without an NSG
)

// Exposure labels for individual resources.
const (
	ExposurePublic    = "PUBLIC"
	ExposurePrivateEP = "PE-covered"
	ExposurePrivate   = "private"
)

// Infrastructure plumbing excluded from the security view's subnet contents.
var securitySkipTypes = map[string]bool{
	azure.TypeNetworkIface:    true,
	azure.TypeVirtualNetwork:  true,
	azure.TypeSubnet:          true,
	azure.TypeNSG:             true,
	azure.TypeRouteTable:      true,
	azure.TypePublicIP:        true,
	azure.TypePrivateEndpoint: true,
}

// SecurityPage builds the security posture page: subnets tagged with a
// risk level derived from NSG coverage and public exposure, resources
// labeled PUBLIC / PE-covered / private, and NSG nodes annotated with
// their open inbound ports.
func SecurityPage(snap *discovery.Snapshot, lib *icons.Library) graph.Page {
	page := graph.Page{ID: "security", Title: "Security Posture"}

	ips := discovery.NewIPIndex(snap.Resources)

	subnetNSG := subnetNSGIndex(snap)
	openPorts := openPortsIndex(snap.NSGRules)
	resourceSubnet := resourceSubnetIndex(snap.Relationships)
	peCovered := peCoveredSet(snap.Relationships)

	// Pre-compute which subnets contain public-facing resources.
	subnetHasPublic := make(map[string]bool)
	for _, r := range snap.Resources {
		if subnet, ok := resourceSubnet[r.ID()]; ok && ips.HasPublicIP(r) {
			subnetHasPublic[subnet] = true
		}
	}

	var groups []graph.Group

	for _, vnet := range snap.ResourcesOfType(azure.TypeVirtualNetwork) {
		groups = append(groups, graph.Group{
			ID:    "sec-vnet-" + vnet.Name(),
			Label: "VNet: " + vnet.Name(),
			Type:  graph.GroupVNet,
		})
		vnetIdx := len(groups) - 1

		for _, raw := range azure.GetSlice(vnet.Properties(), "subnets") {
			subnet, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			subnetID := strings.ToLower(azure.GetString(subnet, "id"))
			subnetName := azure.GetString(subnet, "name")
			prefix := azure.GetString(subnet, "properties", "addressPrefix")

			nsgID, hasNSG := subnetNSG[subnetID]
			risk := classifyRisk(hasNSG, subnetHasPublic[subnetID])

			label := "Subnet: " + subnetName
			if prefix != "" {
				label += " (" + prefix + ")"
			}
			subnetGroup := graph.Group{
				ID:       "sec-subnet-" + vnet.Name() + "-" + subnetName,
				Label:    label,
				Type:     graph.GroupSubnet,
				ParentID: groups[vnetIdx].ID,
			}

			if hasNSG {
				nsgNode := graph.Node{
					ID:       "sec-nsg-" + subnetName,
					Label:    azure.NameFromID(nsgID),
					Type:     azure.TypeNSG,
					Category: string(azure.CategorySecurity),
					SubLabel: "Open ports: " + openPortText(openPorts[nsgID]),
					Size:     graph.Size{Width: 120, Height: 50},
					Meta:     map[string]any{"risk": risk},
				}
				page.Nodes = append(page.Nodes, nsgNode)
				subnetGroup.NodeIDs = append(subnetGroup.NodeIDs, nsgNode.ID)

				page.Edges = append(page.Edges, graph.Edge{
					SourceID: nsgNode.ID,
					TargetID: subnetGroup.ID,
					Type:     graph.EdgeAssociation,
					Label:    "NSG",
					Style:    "dashed",
				})
			}

			// Workload resources in this subnet, labeled by exposure.
			for _, r := range snap.Resources {
				if securitySkipTypes[r.Type()] || resourceSubnet[r.ID()] != subnetID {
					continue
				}

				exposure := ExposurePrivate
				switch {
				case ips.HasPublicIP(r):
					exposure = ExposurePublic
					if ip := ips.IPDisplay(r); ip != "" {
						exposure += " | " + ip
					}
				case peCovered[r.ID()]:
					exposure = ExposurePrivateEP
				}

				node := newNode("sec-"+r.Name(), r, lib)
				node.SubLabel = exposure
				node.Size = graph.Size{Width: 130, Height: 55}
				node.Meta = map[string]any{"risk": risk}
				page.Nodes = append(page.Nodes, node)
				subnetGroup.NodeIDs = append(subnetGroup.NodeIDs, node.ID)
			}

			// Group carries no meta, so elevated risk rides on the label.
			if risk != RiskLow {
				subnetGroup.Label += " [" + strings.ToUpper(risk) + " RISK]"
			}
			groups = append(groups, subnetGroup)
			groups[vnetIdx].GroupIDs = append(groups[vnetIdx].GroupIDs, subnetGroup.ID)
		}
	}

	page.Groups = groups
	return page
}

// subnetNSGIndex maps subnet ID -> NSG ID, combining applied_to
// relationships with NSG references embedded in VNet subnet properties.
func subnetNSGIndex(snap *discovery.Snapshot) map[string]string {
	index := make(map[string]string)

	for _, rel := range snap.Relationships {
		if rel.Type == discovery.RelAppliedTo && strings.Contains(rel.SourceID, "/networksecuritygroups/") {
			index[rel.TargetID] = rel.SourceID
		}
	}

	for _, vnet := range snap.ResourcesOfType(azure.TypeVirtualNetwork) {
		for _, raw := range azure.GetSlice(vnet.Properties(), "subnets") {
			subnet, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			subnetID := strings.ToLower(azure.GetString(subnet, "id"))
			nsgID := strings.ToLower(azure.GetString(subnet, "properties", "networkSecurityGroup", "id"))
			if subnetID != "" && nsgID != "" {
				index[subnetID] = nsgID
			}
		}
	}

	return index
}

// openPortsIndex maps NSG ID -> sorted open inbound ports from allow rules.
// Wildcard port rules are skipped; "no open inbound" reads better than "*".
func openPortsIndex(rules []discovery.NSGRule) map[string][]string {
	ports := make(map[string]map[string]bool)
	for _, rule := range rules {
		if !strings.EqualFold(rule.Access, "Allow") || !strings.EqualFold(rule.Direction, "Inbound") {
			continue
		}
		port := rule.DestinationPortRange
		if port == "" || port == "*" {
			continue
		}
		nsgID := strings.ToLower(rule.NSGID)
		if ports[nsgID] == nil {
			ports[nsgID] = make(map[string]bool)
		}
		ports[nsgID][port] = true
	}

	index := make(map[string][]string, len(ports))
	for nsgID, set := range ports {
		list := make([]string, 0, len(set))
		for p := range set {
			list = append(list, p)
		}
		sort.Strings(list)
		index[nsgID] = list
	}
	return index
}

// openPortText renders up to five ports, with a count for the rest.
func openPortText(ports []string) string {
	if len(ports) == 0 {
		return "no open inbound"
	}
	shown := ports
	if len(shown) > 5 {
		shown = shown[:5]
	}
	text := strings.Join(shown, ", ")
	if extra := len(ports) - len(shown); extra > 0 {
		text += fmt.Sprintf(" (+%d)", extra)
	}
	return text
}

// resourceSubnetIndex maps resource ID -> subnet ID, directly for
// resources with in_subnet relationships and through NICs for the rest.
func resourceSubnetIndex(rels []discovery.Relationship) map[string]string {
	nicToSubnet := make(map[string]string)
	index := make(map[string]string)
	for _, rel := range rels {
		if rel.Type == discovery.RelInSubnet {
			nicToSubnet[rel.SourceID] = rel.TargetID
			index[rel.SourceID] = rel.TargetID
		}
	}
	for _, rel := range rels {
		if rel.Type == discovery.RelHasNIC {
			if subnet, ok := nicToSubnet[rel.TargetID]; ok {
				index[rel.SourceID] = subnet
			}
		}
	}
	return index
}

// peCoveredSet collects resources reachable through a private endpoint.
func peCoveredSet(rels []discovery.Relationship) map[string]bool {
	covered := make(map[string]bool)
	for _, rel := range rels {
		switch rel.Type {
		case discovery.RelPrivateLinkTo:
			covered[rel.TargetID] = true
		case discovery.RelHasPrivateEndpoint:
			covered[rel.SourceID] = true
		}
	}
	return covered
}

// classifyRisk derives the subnet risk level from NSG coverage and
// public exposure.
func classifyRisk(hasNSG, hasPublic bool) string {
	switch {
	case hasNSG && !hasPublic:
		return RiskLow
	case !hasNSG && hasPublic:
		return RiskHigh
	default:
		return RiskMedium
	}
}
