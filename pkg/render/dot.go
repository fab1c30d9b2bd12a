package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

// =============================================================================
// Graphviz DOT
// =============================================================================

// DOTRenderer emits Graphviz DOT, one digraph per page. Graphviz lays
// the drawing out itself, so node positions in the graph are ignored.
type DOTRenderer struct{}

func (r *DOTRenderer) Extension() string { return "dot" }

func (r *DOTRenderer) Render(_ context.Context, g *graph.ArchitectureGraph) ([]byte, error) {
	var buf bytes.Buffer
	for i := range g.Pages {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(ToDOT(&g.Pages[i]))
	}
	return buf.Bytes(), nil
}

// ToDOT converts one page to Graphviz DOT. Groups become clusters;
// edges whose endpoint is a group anchor on the group's first node with
// lhead/ltail so the arrow stops at the cluster border. The resulting
// DOT string can be rendered with [RenderSVG] or the dot CLI.
func ToDOT(page *graph.Page) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", page.ID)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	groups := page.GroupMap()
	nodeParent := nodeParents(page)
	anchors := groupAnchors(page)

	for _, root := range page.RootGroups() {
		writeCluster(&buf, root, page, groups, 1)
	}

	for i := range page.Nodes {
		n := &page.Nodes[i]
		if nodeParent[n.ID] == "" {
			fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(dotNodeAttrs(n), ", "))
		}
	}

	buf.WriteString("\n")
	known := knownIDs(page)
	for i := range page.Edges {
		e := &page.Edges[i]
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		writeDOTEdge(&buf, e, groups, anchors)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, g *graph.Group, page *graph.Page,
	groups map[string]*graph.Group, depth int) {

	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", pad, g.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", pad, g.Label)
	fmt.Fprintf(buf, "%s  style=\"rounded,dashed\";\n", pad)
	fmt.Fprintf(buf, "%s  color=\"#6C8EBF\";\n", pad)

	for _, cid := range g.GroupIDs {
		if child, ok := groups[cid]; ok {
			writeCluster(buf, child, page, groups, depth+1)
		}
	}

	nodes := page.NodeMap()
	for _, nid := range g.NodeIDs {
		if n, ok := nodes[nid]; ok {
			fmt.Fprintf(buf, "%s  %q [%s];\n", pad, n.ID, strings.Join(dotNodeAttrs(n), ", "))
		}
	}

	fmt.Fprintf(buf, "%s}\n", pad)
}

func dotNodeAttrs(n *graph.Node) []string {
	label := n.DisplayLabel()
	if n.SubLabel != "" {
		label += "\n" + n.SubLabel
	}

	meta := azure.MetaFor(n.Type)
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Type != "" {
		attrs = append(attrs,
			fmt.Sprintf("fillcolor=%q", meta.FillColor),
			"fontcolor=white")
	} else {
		attrs = append(attrs, "fillcolor=white")
	}
	return attrs
}

func writeDOTEdge(buf *bytes.Buffer, e *graph.Edge,
	groups map[string]*graph.Group, anchors map[string]string) {

	src, tail := dotEndpoint(e.SourceID, groups, anchors)
	tgt, head := dotEndpoint(e.TargetID, groups, anchors)
	if src == "" || tgt == "" {
		return // group endpoint with no node to anchor on
	}

	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	switch e.Style {
	case "dashed", "dotted":
		attrs = append(attrs, "style="+e.Style)
	}
	if e.Bidirectional {
		attrs = append(attrs, "dir=both")
	}
	if tail != "" {
		attrs = append(attrs, fmt.Sprintf("ltail=%q", tail))
	}
	if head != "" {
		attrs = append(attrs, fmt.Sprintf("lhead=%q", head))
	}

	if len(attrs) == 0 {
		fmt.Fprintf(buf, "  %q -> %q;\n", src, tgt)
		return
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", src, tgt, strings.Join(attrs, ", "))
}

// dotEndpoint resolves an edge endpoint to a concrete node. Group
// endpoints return the anchor node plus the cluster name for lhead/ltail.
func dotEndpoint(id string, groups map[string]*graph.Group, anchors map[string]string) (node, cluster string) {
	if _, ok := groups[id]; !ok {
		return id, ""
	}
	anchor := anchors[id]
	if anchor == "" {
		return "", ""
	}
	return anchor, "cluster_" + id
}

// groupAnchors picks one representative node per group, descending into
// child groups when the group itself holds none.
func groupAnchors(page *graph.Page) map[string]string {
	groups := page.GroupMap()
	anchors := make(map[string]string, len(page.Groups))

	var anchor func(g *graph.Group, seen map[string]bool) string
	anchor = func(g *graph.Group, seen map[string]bool) string {
		if seen[g.ID] {
			return ""
		}
		seen[g.ID] = true
		if len(g.NodeIDs) > 0 {
			return g.NodeIDs[0]
		}
		for _, cid := range g.GroupIDs {
			if child, ok := groups[cid]; ok {
				if a := anchor(child, seen); a != "" {
					return a
				}
			}
		}
		return ""
	}

	for i := range page.Groups {
		g := &page.Groups[i]
		anchors[g.ID] = anchor(g, make(map[string]bool))
	}
	return anchors
}

// =============================================================================
// SVG via Graphviz
// =============================================================================

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root <svg> tag so the drawing starts at
// the origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
