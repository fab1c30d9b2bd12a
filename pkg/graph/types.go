package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Edge types distinguish why two nodes are connected.
const (
	EdgeNetwork     = "network"     // Traffic path (NSG rule, LB, gateway)
	EdgeDataFlow    = "data_flow"   // Derived data movement
	EdgeDependency  = "dependency"  // One resource requires another
	EdgeAssociation = "association" // Loose coupling (NSG applied to subnet)
	EdgeContainment = "containment" // Parent/child shown as an edge
	EdgePeering     = "peering"     // VNet peering
)

// Group types mirror Azure's containment hierarchy plus logical groupings
// used by diagram templates.
const (
	GroupSubscription   = "subscription"
	GroupResourceGroup  = "resource_group"
	GroupVNet           = "vnet"
	GroupSubnet         = "subnet"
	GroupRegion         = "region"
	GroupLogicalTier    = "logical_tier"
	GroupAppServicePlan = "app_service_plan"
)

// Default node dimensions, used when a node carries no explicit size.
const (
	DefaultNodeWidth  = 120.0
	DefaultNodeHeight = 80.0
)

// =============================================================================
// Geometry
// =============================================================================

// Position is an absolute coordinate on the diagram canvas.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// DefaultSize returns the standard node size.
func DefaultSize() Size {
	return Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
}

// BoundingBox is a positioned rectangle.
type BoundingBox struct {
	Position
	Size
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(p Position) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// =============================================================================
// Node - Diagram Element
// =============================================================================

// Node is a single diagram element, usually one Azure resource.
// Position and Size are zero until a layout strategy runs.
type Node struct {
	ID         string         `json:"id" bson:"id"`
	Label      string         `json:"label,omitempty" bson:"label,omitempty"`
	Type       string         `json:"type,omitempty" bson:"type,omitempty"`         // Azure resource type, lower-cased
	Category   string         `json:"category,omitempty" bson:"category,omitempty"` // Visual grouping: compute, networking, data, ...
	IconFile   string         `json:"icon,omitempty" bson:"icon,omitempty"`
	SubLabel   string         `json:"sub_label,omitempty" bson:"sub_label,omitempty"` // Secondary line, e.g. resolved IPs
	ResourceID string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Position   Position       `json:"position" bson:"position"`
	Size       Size           `json:"size" bson:"size"`
	Meta       map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// EffectiveSize returns the node's size, falling back to the default
// when it has not been sized yet.
func (n *Node) EffectiveSize() Size {
	if n.Size.Width <= 0 || n.Size.Height <= 0 {
		return DefaultSize()
	}
	return n.Size
}

// =============================================================================
// Edge - Directed Connection
// =============================================================================

// Edge connects two nodes by ID. Edges referencing unknown IDs are
// tolerated by the model and skipped by renderers.
type Edge struct {
	SourceID      string         `json:"source" bson:"source"`
	TargetID      string         `json:"target" bson:"target"`
	Type          string         `json:"type,omitempty" bson:"type,omitempty"`
	Label         string         `json:"label,omitempty" bson:"label,omitempty"`
	Style         string         `json:"style,omitempty" bson:"style,omitempty"` // Renderer hint: "dashed", "dotted", or empty
	Bidirectional bool           `json:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
	Meta          map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// =============================================================================
// Group - Nested Container
// =============================================================================

// Group is a labeled container around nodes and other groups.
// Containment is expressed by ID lists; a group's geometry is computed
// by layout from its children.
type Group struct {
	ID       string   `json:"id" bson:"id"`
	Label    string   `json:"label,omitempty" bson:"label,omitempty"`
	Type     string   `json:"type,omitempty" bson:"type,omitempty"`
	ParentID string   `json:"parent,omitempty" bson:"parent,omitempty"`
	NodeIDs  []string `json:"nodes,omitempty" bson:"nodes,omitempty"`
	GroupIDs []string `json:"groups,omitempty" bson:"groups,omitempty"`
	Position Position `json:"position" bson:"position"`
	Size     Size     `json:"size" bson:"size"`
}

// =============================================================================
// Page - One Diagram View
// =============================================================================

// Page is a single diagram: a set of nodes, the edges between them,
// and the group hierarchy that contains them.
type Page struct {
	ID     string  `json:"id" bson:"id"`
	Title  string  `json:"title,omitempty" bson:"title,omitempty"`
	Nodes  []Node  `json:"nodes" bson:"nodes"`
	Edges  []Edge  `json:"edges" bson:"edges"`
	Groups []Group `json:"groups,omitempty" bson:"groups,omitempty"`
}

// NodeMap returns a lookup from node ID to node pointer.
// Pointers reference the page's backing slice, so callers may mutate
// positions in place.
func (p *Page) NodeMap() map[string]*Node {
	m := make(map[string]*Node, len(p.Nodes))
	for i := range p.Nodes {
		m[p.Nodes[i].ID] = &p.Nodes[i]
	}
	return m
}

// GroupMap returns a lookup from group ID to group pointer.
func (p *Page) GroupMap() map[string]*Group {
	m := make(map[string]*Group, len(p.Groups))
	for i := range p.Groups {
		m[p.Groups[i].ID] = &p.Groups[i]
	}
	return m
}

// RootGroups returns groups with no parent, in page order.
func (p *Page) RootGroups() []*Group {
	var roots []*Group
	for i := range p.Groups {
		if p.Groups[i].ParentID == "" {
			roots = append(roots, &p.Groups[i])
		}
	}
	return roots
}

// GroupedNodeIDs returns the set of node IDs claimed by any group.
// Ungrouped nodes are laid out at the page's top level.
func (p *Page) GroupedNodeIDs() map[string]bool {
	claimed := make(map[string]bool)
	for i := range p.Groups {
		for _, id := range p.Groups[i].NodeIDs {
			claimed[id] = true
		}
	}
	return claimed
}

// =============================================================================
// ArchitectureGraph - Multi-Page Document
// =============================================================================

// ArchitectureGraph is the top-level document: an ordered list of
// pages produced by one or more diagram templates.
type ArchitectureGraph struct {
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	Pages []Page `json:"pages" bson:"pages"`
}

// New creates an empty graph with the given title.
func New(title string) *ArchitectureGraph {
	return &ArchitectureGraph{Title: title}
}

// AddPage appends a page and returns a pointer to the stored copy.
func (g *ArchitectureGraph) AddPage(p Page) *Page {
	g.Pages = append(g.Pages, p)
	return &g.Pages[len(g.Pages)-1]
}

// Page returns the page with the given ID, or nil if absent.
func (g *ArchitectureGraph) Page(id string) *Page {
	for i := range g.Pages {
		if g.Pages[i].ID == id {
			return &g.Pages[i]
		}
	}
	return nil
}

// AllNodes returns every node across all pages, in page order.
func (g *ArchitectureGraph) AllNodes() []Node {
	var out []Node
	for i := range g.Pages {
		out = append(out, g.Pages[i].Nodes...)
	}
	return out
}

// AllEdges returns every edge across all pages, in page order.
func (g *ArchitectureGraph) AllEdges() []Edge {
	var out []Edge
	for i := range g.Pages {
		out = append(out, g.Pages[i].Edges...)
	}
	return out
}
