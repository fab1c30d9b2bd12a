package layout

import (
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

// =============================================================================
// Strategies and Configuration
// =============================================================================

// Strategy selects a layout algorithm.
type Strategy string

const (
	StrategyHierarchical Strategy = "hierarchical"
	StrategyLeftToRight  Strategy = "left_to_right"
	StrategyGrid         Strategy = "grid"
)

// Config carries the spacing constants used by all strategies.
type Config struct {
	Padding           float64 // Outer page margin and gap between siblings
	GroupPadding      float64 // Inner margin inside a group
	NodeSpacingX      float64 // Horizontal gap between nodes in a row
	NodeSpacingY      float64 // Vertical gap between rows
	GroupHeaderHeight float64 // Space reserved for the group label
	MinGroupWidth     float64
	MinGroupHeight    float64
	GridCellWidth     float64 // Cell size for the grid strategy
	GridCellHeight    float64
	GridMaxColumns    int
}

// DefaultConfig returns the spacing used by all built-in templates.
func DefaultConfig() Config {
	return Config{
		Padding:           40,
		GroupPadding:      50,
		NodeSpacingX:      160,
		NodeSpacingY:      120,
		GroupHeaderHeight: 30,
		MinGroupWidth:     200,
		MinGroupHeight:    100,
		GridCellWidth:     350,
		GridCellHeight:    250,
		GridMaxColumns:    4,
	}
}

// nodesPerRow bounds row width to roughly 800 canvas units.
func (c Config) nodesPerRow() int {
	n := int(800 / c.NodeSpacingX)
	if n < 3 {
		return 3
	}
	return n
}

// =============================================================================
// Entry Points
// =============================================================================

// Apply positions all elements on the page using the given strategy.
// Unknown strategies fall back to hierarchical.
func Apply(page *graph.Page, strategy Strategy, cfg Config) {
	switch strategy {
	case StrategyLeftToRight:
		layoutLeftToRight(page, cfg)
	case StrategyGrid:
		layoutGrid(page, cfg)
	default:
		layoutHierarchical(page, cfg)
	}
}

// ApplyGraph lays out every page in the graph with the same strategy.
func ApplyGraph(g *graph.ArchitectureGraph, strategy Strategy, cfg Config) {
	for i := range g.Pages {
		Apply(&g.Pages[i], strategy, cfg)
	}
}

// =============================================================================
// Hierarchical Layout (top-down, used for network diagrams)
// =============================================================================

// layoutHierarchical arranges root groups side by side and nests their
// children recursively. Ungrouped nodes land in a row below all groups.
func layoutHierarchical(page *graph.Page, cfg Config) {
	nodes := page.NodeMap()
	groups := page.GroupMap()
	roots := page.RootGroups()

	x := cfg.Padding
	y := cfg.Padding
	for _, root := range roots {
		layoutGroupRecursive(root, groups, nodes, x, y, cfg)
		x += root.Size.Width + cfg.Padding
	}

	claimed := page.GroupedNodeIDs()
	var ungrouped []*graph.Node
	for i := range page.Nodes {
		if !claimed[page.Nodes[i].ID] {
			ungrouped = append(ungrouped, &page.Nodes[i])
		}
	}
	if len(ungrouped) == 0 {
		return
	}

	bottom := cfg.Padding
	for _, root := range roots {
		if b := root.Position.Y + root.Size.Height; b > bottom {
			bottom = b
		}
	}

	ux := cfg.Padding
	uy := bottom + cfg.Padding
	for _, node := range ungrouped {
		node.Size = node.EffectiveSize()
		node.Position = graph.Position{X: ux, Y: uy}
		ux += node.Size.Width + cfg.NodeSpacingX
	}
}

// layoutGroupRecursive positions one group at (startX, startY): child
// groups first, side by side, then child nodes in wrapped rows below
// them, and finally the group's own geometry from the content extent.
func layoutGroupRecursive(g *graph.Group, groups map[string]*graph.Group, nodes map[string]*graph.Node, startX, startY float64, cfg Config) {
	innerX := startX + cfg.GroupPadding
	innerY := startY + cfg.GroupPadding + cfg.GroupHeaderHeight

	var childGroups []*graph.Group
	for _, id := range g.GroupIDs {
		if cg, ok := groups[id]; ok {
			childGroups = append(childGroups, cg)
		}
	}
	var childNodes []*graph.Node
	for _, id := range g.NodeIDs {
		if n, ok := nodes[id]; ok {
			childNodes = append(childNodes, n)
		}
	}

	cx := innerX
	maxChildHeight := 0.0
	for _, cg := range childGroups {
		layoutGroupRecursive(cg, groups, nodes, cx, innerY, cfg)
		cx += cg.Size.Width + cfg.Padding
		if cg.Size.Height > maxChildHeight {
			maxChildHeight = cg.Size.Height
		}
	}

	nodeY := innerY
	if len(childGroups) > 0 {
		nodeY += maxChildHeight + cfg.Padding
	}
	nodeX := innerX
	rowHeight := 0.0
	maxRowWidth := 0.0
	perRow := cfg.nodesPerRow()
	col := 0

	for _, node := range childNodes {
		if col >= perRow {
			nodeY += rowHeight + cfg.NodeSpacingY
			nodeX = innerX
			rowHeight = 0
			col = 0
		}
		node.Size = node.EffectiveSize()
		node.Position = graph.Position{X: nodeX, Y: nodeY}
		nodeX += node.Size.Width + cfg.NodeSpacingX
		if node.Size.Height > rowHeight {
			rowHeight = node.Size.Height
		}
		if w := nodeX - innerX; w > maxRowWidth {
			maxRowWidth = w
		}
		col++
	}

	contentWidth := cx - innerX
	if maxRowWidth > contentWidth {
		contentWidth = maxRowWidth
	}
	if contentWidth < cfg.MinGroupWidth {
		contentWidth = cfg.MinGroupWidth
	}
	contentBottom := innerY + maxChildHeight
	if len(childNodes) > 0 {
		contentBottom = nodeY + rowHeight
	}
	contentHeight := contentBottom - startY + cfg.GroupPadding
	if contentHeight < cfg.MinGroupHeight {
		contentHeight = cfg.MinGroupHeight
	}

	g.Position = graph.Position{X: startX, Y: startY}
	g.Size = graph.Size{
		Width:  contentWidth + cfg.GroupPadding*2,
		Height: contentHeight,
	}
}

// =============================================================================
// Left-to-Right Flow Layout (used for application architecture)
// =============================================================================

// layoutLeftToRight arranges root groups as vertical swim lanes: nested
// groups sit at the top of their lane, the lane's own nodes stack below
// them, and lanes run left to right in page order.
func layoutLeftToRight(page *graph.Page, cfg Config) {
	nodes := page.NodeMap()
	groups := page.GroupMap()

	colX := cfg.Padding
	for _, g := range page.RootGroups() {
		innerX := colX + cfg.GroupPadding
		cursorY := cfg.Padding + cfg.GroupPadding + cfg.GroupHeaderHeight
		maxContentWidth := 0.0

		for _, id := range g.GroupIDs {
			child, ok := groups[id]
			if !ok {
				continue
			}
			layoutGroupRecursive(child, groups, nodes, innerX, cursorY, cfg)
			cursorY += child.Size.Height + cfg.NodeSpacingY
			if child.Size.Width > maxContentWidth {
				maxContentWidth = child.Size.Width
			}
		}

		for _, id := range g.NodeIDs {
			node, ok := nodes[id]
			if !ok {
				continue
			}
			node.Size = node.EffectiveSize()
			node.Position = graph.Position{X: innerX, Y: cursorY}
			cursorY += node.Size.Height + cfg.NodeSpacingY
			if node.Size.Width > maxContentWidth {
				maxContentWidth = node.Size.Width
			}
		}

		width := maxContentWidth + cfg.GroupPadding*2
		if width < cfg.MinGroupWidth {
			width = cfg.MinGroupWidth
		}
		height := cursorY - cfg.Padding + cfg.GroupPadding
		if height < 150 {
			height = 150
		}
		g.Position = graph.Position{X: colX, Y: cfg.Padding}
		g.Size = graph.Size{Width: width, Height: height}
		colX += width + cfg.Padding
	}

	claimed := page.GroupedNodeIDs()
	uy := cfg.Padding
	for i := range page.Nodes {
		node := &page.Nodes[i]
		if claimed[node.ID] {
			continue
		}
		node.Size = node.EffectiveSize()
		node.Position = graph.Position{X: colX, Y: uy}
		uy += node.Size.Height + cfg.NodeSpacingY
	}
}

// =============================================================================
// Grid Layout (used for high-level overviews)
// =============================================================================

// layoutGrid places root groups into fixed-size grid cells, wrapping
// after GridMaxColumns. Child nodes flow inside the cell; child groups
// reuse the hierarchical primitive below the nodes.
func layoutGrid(page *graph.Page, cfg Config) {
	nodes := page.NodeMap()
	groups := page.GroupMap()
	roots := page.RootGroups()

	cols := len(roots)
	if cols > cfg.GridMaxColumns {
		cols = cfg.GridMaxColumns
	}
	if cols < 1 {
		cols = 1
	}

	for idx, g := range roots {
		row := idx / cols
		col := idx % cols
		gx := cfg.Padding + float64(col)*(cfg.GridCellWidth+cfg.Padding)
		gy := cfg.Padding + float64(row)*(cfg.GridCellHeight+cfg.Padding)

		g.Position = graph.Position{X: gx, Y: gy}
		g.Size = graph.Size{Width: cfg.GridCellWidth, Height: cfg.GridCellHeight}

		nx := gx + cfg.GroupPadding
		ny := gy + cfg.GroupPadding + cfg.GroupHeaderHeight
		hasNodes := false
		for _, id := range g.NodeIDs {
			node, ok := nodes[id]
			if !ok {
				continue
			}
			hasNodes = true
			node.Size = node.EffectiveSize()
			node.Position = graph.Position{X: nx, Y: ny}
			nx += node.Size.Width + 20
			if nx > gx+cfg.GridCellWidth-cfg.GroupPadding {
				nx = gx + cfg.GroupPadding
				ny += node.Size.Height + 20
			}
		}

		cgx := gx + cfg.GroupPadding
		cgy := gy + cfg.GroupPadding + cfg.GroupHeaderHeight
		if hasNodes {
			cgy = ny + cfg.Padding
		}
		for _, id := range g.GroupIDs {
			cg, ok := groups[id]
			if !ok {
				continue
			}
			layoutGroupRecursive(cg, groups, nodes, cgx, cgy, cfg)
			cgx += cg.Size.Width + cfg.Padding
		}
	}
}
