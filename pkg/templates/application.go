package templates

import (
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// Logical tiers for the application view, in lane order.
var tierOrder = []string{"Ingress", "Compute", "Integration", "Data"}

var categoryTier = map[azure.Category]string{
	azure.CategoryNetworking:  "Ingress",
	azure.CategoryCompute:     "Compute",
	azure.CategoryIntegration: "Integration",
	azure.CategoryData:        "Data",
	azure.CategoryStorage:     "Data",
	azure.CategorySecurity:    "Ingress",
	azure.CategoryMonitoring:  "Integration",
}

// Resource types that always land in the Ingress tier regardless of
// their registry category.
var ingressTypes = map[string]bool{
	azure.TypeAppGateway:   true,
	azure.TypeLoadBalancer: true,
	azure.TypeFirewall:     true,

	"microsoft.network/frontdoors":             true,
	"microsoft.network/trafficmanagerprofiles": true,
	"microsoft.apimanagement/service":          true,
}

// Plumbing types that clutter the application view and are left out.
// App Service Plans are excluded here because they render as container
// groups around the sites they host, not as nodes.
var appSkipTypes = map[string]bool{
	azure.TypeNetworkIface:   true,
	azure.TypeVirtualNetwork: true,
	azure.TypeSubnet:         true,
	azure.TypeNSG:            true,
	azure.TypeRouteTable:     true,
	azure.TypePublicIP:       true,
	azure.TypeAppServicePlan: true,
}

// ApplicationPage builds the application architecture page: resources
// grouped into Ingress, Compute, Integration, and Data tiers with
// dependency edges drawn from inferred relationships. App Service Plans
// become container groups inside the Compute tier holding the sites
// they host.
func ApplicationPage(snap *discovery.Snapshot, lib *icons.Library) graph.Page {
	page := graph.Page{ID: "application", Title: "Application Architecture"}

	// Sites hosted on a plan move out of their tier and into the
	// plan's container.
	hostedOn := make(map[string]string)
	for _, rel := range snap.Relationships {
		if rel.Type == discovery.RelHostedOn {
			hostedOn[rel.SourceID] = rel.TargetID
		}
	}
	plans := make(map[string]azure.Resource)
	for _, p := range snap.ResourcesOfType(azure.TypeAppServicePlan) {
		plans[p.ID()] = p
	}

	tierResources := make(map[string][]azure.Resource)
	planResources := make(map[string][]azure.Resource)
	var planOrder []string
	for _, r := range snap.Resources {
		rtype := r.Type()
		if appSkipTypes[rtype] {
			continue
		}

		if planID, ok := hostedOn[r.ID()]; ok {
			if _, known := plans[planID]; known {
				if len(planResources[planID]) == 0 {
					planOrder = append(planOrder, planID)
				}
				planResources[planID] = append(planResources[planID], r)
				continue
			}
		}

		tier := "Compute"
		if ingressTypes[rtype] {
			tier = "Ingress"
		} else if t, ok := categoryTier[azure.MetaFor(rtype).Category]; ok {
			tier = t
		}
		tierResources[tier] = append(tierResources[tier], r)
	}

	// One swim lane per non-empty tier, lanes in fixed order. Plans and
	// their sites always land in Compute.
	nodeByResource := make(map[string]string)
	for _, tier := range tierOrder {
		resources := tierResources[tier]
		if len(resources) == 0 && !(tier == "Compute" && len(planOrder) > 0) {
			continue
		}

		group := graph.Group{
			ID:    "tier-" + strings.ToLower(tier),
			Label: tier,
			Type:  graph.GroupLogicalTier,
		}
		for _, r := range resources {
			node := newNode("app-"+r.Name(), r, lib)
			node.SubLabel = SubLabel(r, nil, SubLabelOptions{ShowSKU: true})
			page.Nodes = append(page.Nodes, node)
			group.NodeIDs = append(group.NodeIDs, node.ID)
			nodeByResource[r.ID()] = node.ID
		}
		page.Groups = append(page.Groups, group)

		if tier != "Compute" {
			continue
		}
		tierIdx := len(page.Groups) - 1
		for _, planID := range planOrder {
			plan := plans[planID]
			planGroup := graph.Group{
				ID:       "asp-" + plan.Name(),
				Label:    planLabel(plan),
				Type:     graph.GroupAppServicePlan,
				ParentID: group.ID,
			}
			for _, r := range planResources[planID] {
				node := newNode("app-"+r.Name(), r, lib)
				node.SubLabel = SubLabel(r, nil, SubLabelOptions{ShowSKU: true})
				page.Nodes = append(page.Nodes, node)
				planGroup.NodeIDs = append(planGroup.NodeIDs, node.ID)
				nodeByResource[r.ID()] = node.ID
			}
			page.Groups = append(page.Groups, planGroup)
			page.Groups[tierIdx].GroupIDs = append(page.Groups[tierIdx].GroupIDs, planGroup.ID)
		}
	}

	// Dependency edges between placed resources.
	for _, rel := range snap.Relationships {
		src, okSrc := nodeByResource[rel.SourceID]
		dst, okDst := nodeByResource[rel.TargetID]
		if !okSrc || !okDst || src == dst {
			continue
		}

		edgeType := graph.EdgeDependency
		switch rel.Type {
		case discovery.RelPrivateLinkTo, discovery.RelVNetRule:
			edgeType = graph.EdgeDataFlow
		case discovery.RelLoadBalances, discovery.RelRoutesTo:
			edgeType = graph.EdgeNetwork
		}

		page.Edges = append(page.Edges, graph.Edge{
			SourceID: src,
			TargetID: dst,
			Type:     edgeType,
			Label:    rel.Label,
		})
	}

	return page
}

// planLabel renders an App Service Plan container title with its SKU.
func planLabel(plan azure.Resource) string {
	label := plan.Name()
	if sku := azure.GetString(plan.SKU(), "name"); sku != "" {
		label += " (" + sku + ")"
	}
	return label
}
