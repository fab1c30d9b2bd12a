package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

// =============================================================================
// Mermaid Flowchart Markdown
// =============================================================================

// MermaidRenderer emits Mermaid flowchart definitions wrapped in a
// markdown document, one fenced block per page. The output embeds
// directly in READMEs and wikis.
type MermaidRenderer struct {
	// Direction is the Mermaid graph direction (TB, BT, LR, RL).
	// Empty defaults to TB.
	Direction string
}

func (r *MermaidRenderer) Extension() string { return "md" }

func (r *MermaidRenderer) Render(_ context.Context, g *graph.ArchitectureGraph) ([]byte, error) {
	dir := r.Direction
	if dir == "" {
		dir = "TB"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s - Azure Architecture\n\n", g.Title)

	for i := range g.Pages {
		page := &g.Pages[i]
		fmt.Fprintf(&buf, "## %s\n\n", page.Title)
		buf.WriteString("```mermaid\n")
		writeMermaidPage(&buf, page, dir)
		buf.WriteString("```\n\n")
	}
	return buf.Bytes(), nil
}

func writeMermaidPage(buf *bytes.Buffer, page *graph.Page, direction string) {
	fmt.Fprintf(buf, "graph %s\n", direction)

	nodes := page.NodeMap()
	groups := page.GroupMap()
	grouped := make(map[string]bool)

	for _, root := range page.RootGroups() {
		writeSubgraph(buf, root, groups, nodes, grouped, 2)
	}

	for i := range page.Nodes {
		n := &page.Nodes[i]
		if !grouped[n.ID] {
			fmt.Fprintf(buf, "  %s\n", mermaidNode(n))
		}
	}

	known := knownIDs(page)
	for i := range page.Edges {
		e := &page.Edges[i]
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		fmt.Fprintf(buf, "  %s\n", mermaidEdge(e))
	}

	writeMermaidStyles(buf, page)
}

func writeSubgraph(buf *bytes.Buffer, g *graph.Group, groups map[string]*graph.Group,
	nodes map[string]*graph.Node, grouped map[string]bool, indent int) {

	pad := strings.Repeat(" ", indent)
	fmt.Fprintf(buf, "%ssubgraph %s[%q]\n", pad, mermaidID(g.ID), escapeMermaid(g.Label))

	for _, cid := range g.GroupIDs {
		if child, ok := groups[cid]; ok {
			writeSubgraph(buf, child, groups, nodes, grouped, indent+2)
		}
	}
	for _, nid := range g.NodeIDs {
		if n, ok := nodes[nid]; ok {
			fmt.Fprintf(buf, "%s  %s\n", pad, mermaidNode(n))
			grouped[nid] = true
		}
	}

	fmt.Fprintf(buf, "%send\n", pad)
}

// mermaidNode renders one node definition, shaped by its category:
// cylinders for data/storage, hexagons for networking, double circles
// for security, rectangles otherwise.
func mermaidNode(n *graph.Node) string {
	id := mermaidID(n.ID)
	label := n.DisplayLabel()
	if n.SubLabel != "" {
		label += `\n` + n.SubLabel
	}
	label = escapeMermaid(label)

	switch nodeCategory(n) {
	case azure.CategoryData, azure.CategoryStorage:
		return fmt.Sprintf(`%s[("%s")]`, id, label)
	case azure.CategoryNetworking:
		return fmt.Sprintf(`%s{{"%s"}}`, id, label)
	case azure.CategorySecurity:
		return fmt.Sprintf(`%s(("%s"))`, id, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	}
}

func mermaidEdge(e *graph.Edge) string {
	src := mermaidID(e.SourceID)
	tgt := mermaidID(e.TargetID)

	var arrow string
	switch {
	case e.Bidirectional:
		arrow = "<-->"
	case e.Type == graph.EdgePeering:
		arrow = "<-.->"
	case e.Type == graph.EdgeDataFlow:
		arrow = "==>"
	default:
		arrow = "-->"
	}

	if e.Label != "" {
		return fmt.Sprintf(`%s %s|"%s"| %s`, src, arrow, escapeMermaid(e.Label), tgt)
	}
	return fmt.Sprintf("%s %s %s", src, arrow, tgt)
}

// categoryClassStyles are the classDef bodies keyed by category.
var categoryClassStyles = map[azure.Category]string{
	azure.CategoryCompute:     "fill:#0078D4,stroke:#005A9E,color:#fff",
	azure.CategoryNetworking:  "fill:#44B8B1,stroke:#2D8A85,color:#fff",
	azure.CategoryData:        "fill:#E8590C,stroke:#C44B0A,color:#fff",
	azure.CategoryStorage:     "fill:#0063B1,stroke:#004E8C,color:#fff",
	azure.CategorySecurity:    "fill:#E3008C,stroke:#B8006F,color:#fff",
	azure.CategoryIntegration: "fill:#8661C5,stroke:#6B4FA0,color:#fff",
	azure.CategoryMonitoring:  "fill:#00B7C3,stroke:#009AA3,color:#fff",
}

func writeMermaidStyles(buf *bytes.Buffer, page *graph.Page) {
	byCategory := make(map[azure.Category][]string)
	for i := range page.Nodes {
		n := &page.Nodes[i]
		cat := nodeCategory(n)
		byCategory[cat] = append(byCategory[cat], mermaidID(n.ID))
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		if _, ok := categoryClassStyles[cat]; ok {
			cats = append(cats, string(cat))
		}
	}
	sort.Strings(cats)

	for _, cat := range cats {
		ids := byCategory[azure.Category(cat)]
		fmt.Fprintf(buf, "  classDef %s %s\n", cat, categoryClassStyles[azure.Category(cat)])
		fmt.Fprintf(buf, "  class %s %s\n", strings.Join(ids, ","), cat)
	}
}

func nodeCategory(n *graph.Node) azure.Category {
	if n.Category != "" {
		return azure.Category(n.Category)
	}
	return azure.MetaFor(n.Type).Category
}

var mermaidIDRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func mermaidID(raw string) string {
	return mermaidIDRe.ReplaceAllString(raw, "_")
}

// escapeMermaid replaces characters that break Mermaid label syntax.
func escapeMermaid(text string) string {
	r := strings.NewReplacer(`"`, "'", "|", "/", "[", "(", "]", ")")
	return r.Replace(text)
}
