// Package azure models discovered Azure resources as opaque property bags.
//
// Resource Graph returns resources as arbitrarily nested JSON documents whose
// shape varies per resource type and is frequently partial. This package
// provides typed accessors over those documents, safe nested-path navigation
// that never panics on missing or mistyped intermediates, and the resource
// type metadata registry used for rendering.
//
// Discovery data is read-only: nothing in this repository mutates a Resource.
package azure

import "strings"

// ResourceIDPrefix is the root path every Azure resource ID starts with.
const ResourceIDPrefix = "/subscriptions/"

// Resource is one discovered Azure resource as returned by Resource Graph.
// It is an opaque record; accessors below read the well-known top-level
// fields and the Properties document.
type Resource map[string]any

// ID returns the lower-cased resource ID, or "" if absent.
func (r Resource) ID() string {
	return strings.ToLower(GetString(r, "id"))
}

// Type returns the lower-cased resource type (e.g.
// "microsoft.compute/virtualmachines"), or "" if absent.
func (r Resource) Type() string {
	return strings.ToLower(GetString(r, "type"))
}

// Name returns the resource name, falling back to the last ID segment.
func (r Resource) Name() string {
	if name := GetString(r, "name"); name != "" {
		return name
	}
	return NameFromID(r.ID())
}

// Properties returns the type-specific property document, never nil.
func (r Resource) Properties() map[string]any {
	if props, ok := r["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}

// Location returns the resource's region, or "".
func (r Resource) Location() string { return GetString(r, "location") }

// ResourceGroup returns the lower-cased owning resource group, or "".
func (r Resource) ResourceGroup() string {
	return strings.ToLower(GetString(r, "resourceGroup"))
}

// SubscriptionID returns the owning subscription ID, or "".
func (r Resource) SubscriptionID() string { return GetString(r, "subscriptionId") }

// Kind returns the resource kind discriminator (e.g. "functionapp"), or "".
func (r Resource) Kind() string { return GetString(r, "kind") }

// SKU returns the sku document, or nil if absent or not a map.
func (r Resource) SKU() map[string]any {
	sku, _ := r["sku"].(map[string]any)
	return sku
}

// Tags returns the tag map, or nil if absent or not a map.
func (r Resource) Tags() map[string]any {
	tags, _ := r["tags"].(map[string]any)
	return tags
}

// =============================================================================
// Safe Path Navigation
// =============================================================================

// Get walks doc along keys and returns the value at the end of the path.
// The walk short-circuits to (nil, false) the moment any intermediate value
// is not a map. This is the universal degrade-gracefully accessor for
// partially populated discovery data.
func Get(doc map[string]any, keys ...string) (any, bool) {
	var current any = doc
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns the string at the given path, or "" if the path is
// absent or the value is not a string.
func GetString(doc map[string]any, keys ...string) string {
	v, ok := Get(doc, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetMap returns the map at the given path, or nil.
func GetMap(doc map[string]any, keys ...string) map[string]any {
	v, ok := Get(doc, keys...)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// GetSlice returns the list at the given path, or nil.
func GetSlice(doc map[string]any, keys ...string) []any {
	v, ok := Get(doc, keys...)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// =============================================================================
// Resource ID Helpers
// =============================================================================

// RefID extracts a resource ID from a property cross-reference. References
// appear either as a nested object with an "id" field or as a raw ID string
// starting with the subscription root path. Both forms normalize to the same
// lower-cased ID; anything else yields "".
func RefID(ref any) string {
	switch v := ref.(type) {
	case map[string]any:
		if id, ok := v["id"].(string); ok {
			return strings.ToLower(id)
		}
	case string:
		if strings.HasPrefix(strings.ToLower(v), ResourceIDPrefix) {
			return strings.ToLower(v)
		}
	}
	return ""
}

// NameFromID returns the last path segment of a resource ID, or "Unknown"
// for an empty ID. Used when a referenced resource is outside the discovered
// set and only its ID is known.
func NameFromID(resourceID string) string {
	if resourceID == "" {
		return "Unknown"
	}
	trimmed := strings.TrimRight(resourceID, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return trimmed
	}
	return trimmed[idx+1:]
}
