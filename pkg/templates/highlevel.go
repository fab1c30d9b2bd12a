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

// HighLevelPage builds the executive overview page: subscription containers
// holding resource group containers, each summarizing its contents as
// per-type count nodes ("3x VM", "Storage").
func HighLevelPage(snap *discovery.Snapshot, lib *icons.Library) graph.Page {
	page := graph.Page{ID: "high-level", Title: "High-Level Architecture Overview"}

	// Subscription display names.
	subNames := make(map[string]string)
	for _, sub := range snap.Subscriptions {
		id := azure.GetString(sub, "subscriptionId")
		name := azure.GetString(sub, "name")
		if name == "" {
			name = shortID(id)
		}
		subNames[id] = name
	}

	// Resources bucketed by subscription/resource-group.
	rgResources := make(map[string][]azure.Resource)
	for _, r := range snap.Resources {
		key := r.SubscriptionID() + "/" + r.ResourceGroup()
		rgResources[key] = append(rgResources[key], r)
	}

	var groups []graph.Group
	subIdx := make(map[string]int)

	for _, rg := range snap.ResourceGroups {
		subID := azure.GetString(rg, "subscriptionId")
		if subID == "" {
			continue
		}
		if _, ok := subIdx[subID]; ok {
			continue
		}
		name := subNames[subID]
		if name == "" {
			name = "Subscription " + shortID(subID)
		}
		groups = append(groups, graph.Group{
			ID:    "sub-" + shortID(subID),
			Label: name,
			Type:  graph.GroupSubscription,
		})
		subIdx[subID] = len(groups) - 1
	}

	for _, rg := range snap.ResourceGroups {
		subID := azure.GetString(rg, "subscriptionId")
		rgName := rg.Name()
		rgLocation := rg.Location()

		label := "RG: " + rgName
		if rgLocation != "" {
			label += " (" + rgLocation + ")"
		}
		rgGroup := graph.Group{
			ID:    "rg-" + rgName,
			Label: label,
			Type:  graph.GroupResourceGroup,
		}
		if si, ok := subIdx[subID]; ok {
			rgGroup.ParentID = groups[si].ID
		}

		// Summarize this RG's resources by short type name.
		key := subID + "/" + strings.ToLower(rgName)
		counts := make(map[string]int)
		for _, r := range rgResources[key] {
			counts[azure.MetaFor(r.Type()).ShortName]++
		}

		for _, shortName := range sortedByCount(counts) {
			count := counts[shortName]
			label := shortName
			if count > 1 {
				label = fmt.Sprintf("%dx %s", count, shortName)
			}
			node := graph.Node{
				ID:    "summary-" + rgName + "-" + shortName,
				Label: label,
				Size:  graph.Size{Width: 100, Height: 50},
			}
			page.Nodes = append(page.Nodes, node)
			rgGroup.NodeIDs = append(rgGroup.NodeIDs, node.ID)
		}

		groups = append(groups, rgGroup)
		if si, ok := subIdx[subID]; ok {
			groups[si].GroupIDs = append(groups[si].GroupIDs, rgGroup.ID)
		}
	}

	page.Groups = groups
	return page
}

// sortedByCount orders type names by descending count, then alphabetically
// for equal counts, so summary nodes render deterministically.
func sortedByCount(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// shortID returns the first 8 characters of an identifier.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
