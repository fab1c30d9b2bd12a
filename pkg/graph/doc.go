// Package graph defines the architecture graph model shared by the
// discovery, layout, templates, and render packages.
//
// An ArchitectureGraph holds one or more Pages. Each Page is an
// independent diagram view over the same discovered resources: nodes,
// edges between them, and nested groups that model Azure containment
// (subscription, resource group, virtual network, subnet).
//
// # Design
//
// The model is intentionally permissive: no construction-time
// validation is performed. Edges may reference node IDs that were
// never added, and group children may be missing. Renderers drop
// dangling references instead of failing, which keeps partial
// discoveries usable. Layout writes positions and sizes in place;
// a page is laid out at most once before rendering.
//
// # Serialization
//
// Pages round-trip through JSON for storage, caching, and API
// responses. Field order and node order are preserved as written,
// so producers that want deterministic output sort before writing.
package graph
