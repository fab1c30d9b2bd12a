package render

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

// =============================================================================
// Draw.io (diagrams.net) mxGraph XML
// =============================================================================

// stencilMap maps resource types to diagrams.net Azure stencil shapes.
// Types without an entry render as plain rounded rectangles.
var stencilMap = map[string]string{
	azure.TypeVirtualMachine:  "mxgraph.azure.virtual_machine",
	azure.TypeVMScaleSet:      "mxgraph.azure.virtual_machine_scale_set",
	azure.TypeAppService:      "mxgraph.azure.app_service",
	azure.TypeAppServicePlan:  "mxgraph.azure.app_service_plan",
	azure.TypeAKSCluster:      "mxgraph.azure.kubernetes_service",
	azure.TypeVirtualNetwork:  "mxgraph.azure.virtual_network",
	azure.TypeLoadBalancer:    "mxgraph.azure.load_balancer",
	azure.TypeAppGateway:      "mxgraph.azure.application_gateway",
	azure.TypeFirewall:        "mxgraph.azure.firewall",
	azure.TypeNSG:             "mxgraph.azure.network_security_group",
	azure.TypePublicIP:        "mxgraph.azure.public_ip_address",
	azure.TypePrivateEndpoint: "mxgraph.azure.private_endpoint",
	azure.TypeSQLServer:       "mxgraph.azure.sql_server",
	azure.TypeSQLDatabase:     "mxgraph.azure.sql_database",
	azure.TypeCosmosAccount:   "mxgraph.azure.cosmos_db",
	azure.TypeStorageAccount:  "mxgraph.azure.storage",
	azure.TypeKeyVault:        "mxgraph.azure.key_vault",
	azure.TypeRedisCache:      "mxgraph.azure.redis_cache",

	"microsoft.servicebus/namespaces": "mxgraph.azure.service_bus",
	"microsoft.eventhub/namespaces":   "mxgraph.azure.event_hub",
	"microsoft.apimanagement/service": "mxgraph.azure.api_management",
}

// DrawioRenderer emits mxGraph XML openable in the free diagrams.net
// editor, one <diagram> element per page.
type DrawioRenderer struct{}

func (r *DrawioRenderer) Extension() string { return "drawio" }

func (r *DrawioRenderer) Render(_ context.Context, g *graph.ArchitectureGraph) ([]byte, error) {
	file := mxFile{Host: "azure-diagram-generator", Type: "device"}
	for i := range g.Pages {
		file.Diagrams = append(file.Diagrams, buildDiagram(&g.Pages[i]))
	}

	data, err := xml.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "marshaling drawio XML")
	}
	return append([]byte(xml.Header), data...), nil
}

func buildDiagram(page *graph.Page) mxDiagram {
	model := mxGraphModel{
		Dx: "1200", Dy: "900",
		Grid: "1", GridSize: "10", Guides: "1", Tooltips: "1",
		Connect: "1", Arrows: "1", Fold: "1",
		Page: "1", PageScale: "1", Math: "0",
	}

	// Cells 0 and 1 are required by the mxGraph model.
	model.Root.Cells = []mxCell{
		{ID: "0"},
		{ID: "1", Parent: "0"},
	}

	groups := page.GroupMap()
	parentOf := nodeParents(page)

	for i := range page.Groups {
		model.Root.Cells = append(model.Root.Cells, groupCell(&page.Groups[i], groups))
	}
	for i := range page.Nodes {
		model.Root.Cells = append(model.Root.Cells, nodeCell(&page.Nodes[i], parentOf, groups))
	}

	known := knownIDs(page)
	for i, e := range page.Edges {
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		model.Root.Cells = append(model.Root.Cells, edgeCell(&page.Edges[i], i))
	}

	return mxDiagram{ID: page.ID, Name: page.Title, Model: model}
}

func groupCell(g *graph.Group, groups map[string]*graph.Group) mxCell {
	style := "rounded=1;whiteSpace=wrap;html=1;arcSize=4;" +
		"fillColor=#DAE8FC;strokeColor=#6C8EBF;" +
		"dashed=1;dashPattern=5 5;verticalAlign=top;" +
		"fontStyle=1;fontSize=13;fontColor=#333333;" +
		"container=1;collapsible=0;"

	parent := "1"
	x, y := g.Position.X, g.Position.Y
	if p, ok := groups[g.ParentID]; ok && g.ParentID != "" {
		parent = g.ParentID
		// mxGraph geometry is relative to the parent container.
		x -= p.Position.X
		y -= p.Position.Y
	}

	return mxCell{
		ID:          g.ID,
		Value:       g.Label,
		Style:       style,
		Vertex:      "1",
		Parent:      parent,
		Connectable: "0",
		Geometry:    geometry(x, y, g.Size.Width, g.Size.Height),
	}
}

func nodeCell(n *graph.Node, parentOf map[string]string, groups map[string]*graph.Group) mxCell {
	meta := azure.MetaFor(n.Type)
	size := n.EffectiveSize()

	var style string
	if stencil, ok := stencilMap[n.Type]; ok {
		style = fmt.Sprintf("shape=%s;whiteSpace=wrap;html=1;"+
			"fillColor=%s;strokeColor=%s;"+
			"fontColor=#FFFFFF;fontSize=11;rounded=1;arcSize=4;",
			stencil, meta.FillColor, meta.StrokeColor)
	} else {
		style = fmt.Sprintf("rounded=1;whiteSpace=wrap;html=1;"+
			"fillColor=%s;strokeColor=%s;"+
			"fontColor=#FFFFFF;fontSize=11;arcSize=4;",
			meta.FillColor, meta.StrokeColor)
	}

	label := n.DisplayLabel()
	if n.SubLabel != "" {
		label += "<br><font style='font-size:9px'>" + n.SubLabel + "</font>"
	}

	parent := "1"
	x, y := n.Position.X, n.Position.Y
	if gid := parentOf[n.ID]; gid != "" {
		if p, ok := groups[gid]; ok {
			parent = gid
			x -= p.Position.X
			y -= p.Position.Y
		}
	}

	return mxCell{
		ID:       n.ID,
		Value:    label,
		Style:    style,
		Vertex:   "1",
		Parent:   parent,
		Geometry: geometry(x, y, size.Width, size.Height),
	}
}

func edgeCell(e *graph.Edge, seq int) mxCell {
	startArrow := "none"
	if e.Bidirectional {
		startArrow = "classic"
	}
	dashed := "0"
	if e.Style == "dashed" || e.Style == "dotted" {
		dashed = "1"
	}

	style := fmt.Sprintf("edgeStyle=orthogonalEdgeStyle;rounded=1;"+
		"orthogonalLoop=1;jettySize=auto;html=1;"+
		"strokeColor=#666666;strokeWidth=1.5;"+
		"endArrow=classic;startArrow=%s;dashed=%s;",
		startArrow, dashed)

	return mxCell{
		ID:       fmt.Sprintf("edge-%d", seq),
		Value:    e.Label,
		Style:    style,
		Edge:     "1",
		Parent:   "1",
		Source:   e.SourceID,
		Target:   e.TargetID,
		Geometry: &mxGeometry{Relative: "1", As: "geometry"},
	}
}

// nodeParents maps node IDs to the ID of the group claiming them.
func nodeParents(page *graph.Page) map[string]string {
	m := make(map[string]string)
	for i := range page.Groups {
		for _, id := range page.Groups[i].NodeIDs {
			m[id] = page.Groups[i].ID
		}
	}
	return m
}

// knownIDs returns the set of IDs an edge may legally reference.
func knownIDs(page *graph.Page) map[string]bool {
	known := make(map[string]bool, len(page.Nodes)+len(page.Groups))
	for i := range page.Nodes {
		known[page.Nodes[i].ID] = true
	}
	for i := range page.Groups {
		known[page.Groups[i].ID] = true
	}
	return known
}

func geometry(x, y, w, h float64) *mxGeometry {
	return &mxGeometry{
		X:     coord(x),
		Y:     coord(y),
		Width: coord(w), Height: coord(h),
		As: "geometry",
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// mxGraph XML Schema
// =============================================================================

type mxFile struct {
	XMLName  xml.Name    `xml:"mxfile"`
	Host     string      `xml:"host,attr"`
	Type     string      `xml:"type,attr"`
	Diagrams []mxDiagram `xml:"diagram"`
}

type mxDiagram struct {
	ID    string       `xml:"id,attr"`
	Name  string       `xml:"name,attr"`
	Model mxGraphModel `xml:"mxGraphModel"`
}

type mxGraphModel struct {
	Dx        string `xml:"dx,attr"`
	Dy        string `xml:"dy,attr"`
	Grid      string `xml:"grid,attr"`
	GridSize  string `xml:"gridSize,attr"`
	Guides    string `xml:"guides,attr"`
	Tooltips  string `xml:"tooltips,attr"`
	Connect   string `xml:"connect,attr"`
	Arrows    string `xml:"arrows,attr"`
	Fold      string `xml:"fold,attr"`
	Page      string `xml:"page,attr"`
	PageScale string `xml:"pageScale,attr"`
	Math      string `xml:"math,attr"`
	Root      mxRoot `xml:"root"`
}

type mxRoot struct {
	Cells []mxCell `xml:"mxCell"`
}

type mxCell struct {
	ID          string      `xml:"id,attr"`
	Value       string      `xml:"value,attr,omitempty"`
	Style       string      `xml:"style,attr,omitempty"`
	Vertex      string      `xml:"vertex,attr,omitempty"`
	Edge        string      `xml:"edge,attr,omitempty"`
	Parent      string      `xml:"parent,attr,omitempty"`
	Source      string      `xml:"source,attr,omitempty"`
	Target      string      `xml:"target,attr,omitempty"`
	Connectable string      `xml:"connectable,attr,omitempty"`
	Geometry    *mxGeometry `xml:"mxGeometry,omitempty"`
}

type mxGeometry struct {
	X        string `xml:"x,attr,omitempty"`
	Y        string `xml:"y,attr,omitempty"`
	Width    string `xml:"width,attr,omitempty"`
	Height   string `xml:"height,attr,omitempty"`
	Relative string `xml:"relative,attr,omitempty"`
	As       string `xml:"as,attr"`
}
