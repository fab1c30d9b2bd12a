package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// SubLabelOptions controls which resource details go into a node's
// secondary label line.
type SubLabelOptions struct {
	ShowSKU      bool
	ShowLocation bool
	ShowIPs      bool
	ShowTags     bool
	MaxTags      int
}

// DefaultSubLabel shows SKU and location, the common case for most templates.
var DefaultSubLabel = SubLabelOptions{ShowSKU: true, ShowLocation: true, MaxTags: 3}

// SubLabel builds a concise secondary label for a resource, joining the
// selected details with " | ".
func SubLabel(r azure.Resource, ips *discovery.IPIndex, opts SubLabelOptions) string {
	var parts []string

	if opts.ShowSKU {
		if s := formatSKU(r); s != "" {
			parts = append(parts, s)
		}
	}
	if opts.ShowLocation {
		if loc := r.Location(); loc != "" {
			parts = append(parts, loc)
		}
	}
	if opts.ShowIPs && ips != nil {
		if ip := ips.IPDisplay(r); ip != "" {
			parts = append(parts, ip)
		}
	}
	if opts.ShowTags {
		if t := formatTags(r, opts.MaxTags); t != "" {
			parts = append(parts, t)
		}
	}

	return strings.Join(parts, " | ")
}

// formatSKU condenses SKU name, tier, capacity, and resource kind into
// one comma-separated string. Tier is dropped when it repeats the name.
func formatSKU(r azure.Resource) string {
	sku := r.SKU()
	if sku == nil {
		return ""
	}

	var parts []string
	name := azure.GetString(sku, "name")
	if name != "" {
		parts = append(parts, name)
	}
	tier := azure.GetString(sku, "tier")
	if tier != "" && !strings.EqualFold(tier, name) {
		parts = append(parts, tier)
	}
	if capacity, ok := sku["capacity"]; ok && capacity != nil {
		parts = append(parts, fmt.Sprintf("cap:%v", capacity))
	}

	if kind := r.Kind(); kind != "" {
		dup := false
		for _, p := range parts {
			if p == kind {
				dup = true
				break
			}
		}
		if !dup {
			parts = append(parts, kind)
		}
	}

	return strings.Join(parts, ", ")
}

// formatTags renders up to maxTags tags as "[k=v, k=v +N more]".
// Tags with empty values or "hidden-" prefixed keys are skipped.
func formatTags(r azure.Resource, maxTags int) string {
	tags := r.Tags()
	if len(tags) == 0 {
		return ""
	}
	if maxTags <= 0 {
		maxTags = 3
	}

	var keys []string
	for k, v := range tags {
		if v == nil || v == "" || strings.HasPrefix(strings.ToLower(k), "hidden-") {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	shown := keys
	if len(shown) > maxTags {
		shown = shown[:maxTags]
	}
	items := make([]string, 0, len(shown))
	for _, k := range shown {
		items = append(items, fmt.Sprintf("%s=%v", k, tags[k]))
	}
	text := strings.Join(items, ", ")
	if extra := len(keys) - len(shown); extra > 0 {
		text += fmt.Sprintf(" +%d more", extra)
	}
	return "[" + text + "]"
}

// newNode builds a graph node for a resource with type metadata applied:
// category, icon, and default size from the registry.
func newNode(id string, r azure.Resource, lib *icons.Library) graph.Node {
	rtype := strings.ToLower(r.Type())
	meta := azure.MetaFor(rtype)

	n := graph.Node{
		ID:         id,
		Label:      r.Name(),
		Type:       rtype,
		Category:   string(meta.Category),
		ResourceID: strings.ToLower(r.ID()),
		Size:       graph.Size{Width: meta.DefaultWidth, Height: meta.DefaultHeight},
	}
	if lib != nil {
		if _, ok := lib.Path(meta.IconFile); ok {
			n.IconFile = meta.IconFile
		}
	} else {
		n.IconFile = meta.IconFile
	}
	return n
}

// nodeID derives a short, stable node ID from a full Azure resource ID,
// using the last two path segments.
func nodeID(resourceID string) string {
	parts := strings.Split(strings.TrimRight(strings.ToLower(resourceID), "/"), "/")
	var id string
	switch {
	case len(parts) >= 2:
		id = "node-" + parts[len(parts)-2] + "-" + parts[len(parts)-1]
	case len(parts) == 1 && parts[0] != "":
		id = "node-" + parts[0]
	default:
		return "node-unknown"
	}
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// endpointID derives a safe node ID from a free-form endpoint label,
// e.g. "10.0.1.0/24" or "Internet".
func endpointID(endpoint string) string {
	id := "ep-" + unsafeIDChars.ReplaceAllString(endpoint, "_")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}
