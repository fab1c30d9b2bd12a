package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// =============================================================================
// Lucidchart Standard Import (.lucid ZIP)
// =============================================================================

// LucidRenderer builds .lucid files: ZIP archives holding document.json
// plus the icon images it references. The result uploads through the
// Lucidchart Standard Import API (see [Uploader]) or imports manually in
// the Lucidchart editor.
type LucidRenderer struct {
	icons *icons.Library
}

// NewLucidRenderer returns a renderer that resolves node icons through
// lib. A nil library renders every node as a plain rectangle.
func NewLucidRenderer(lib *icons.Library) *LucidRenderer {
	return &LucidRenderer{icons: lib}
}

func (r *LucidRenderer) Extension() string { return "lucid" }

func (r *LucidRenderer) Render(_ context.Context, g *graph.ArchitectureGraph) ([]byte, error) {
	doc := lucidDocument{Version: 1}
	iconFiles := make(map[string]string) // archive name -> source path

	for i := range g.Pages {
		doc.Pages = append(doc.Pages, r.buildPage(&g.Pages[i], iconFiles))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "marshaling lucid document")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("document.json")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "creating document.json")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "writing document.json")
	}
	if err := embedIcons(zw, iconFiles); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "closing lucid archive")
	}
	return buf.Bytes(), nil
}

func (r *LucidRenderer) buildPage(page *graph.Page, iconFiles map[string]string) lucidPage {
	ids := newLucidIDs(page.ID)
	for i := range page.Groups {
		ids.assign(page.Groups[i].ID)
	}
	for i := range page.Nodes {
		ids.assign(page.Nodes[i].ID)
	}

	var shapes []lucidShape
	parentOf := nodeParents(page)

	for i := range page.Groups {
		shapes = append(shapes, groupShape(&page.Groups[i], ids))
	}
	for i := range page.Nodes {
		shapes = append(shapes, r.nodeShapes(&page.Nodes[i], parentOf, ids, iconFiles)...)
	}

	var lines []lucidLine
	known := knownIDs(page)
	for i := range page.Edges {
		e := &page.Edges[i]
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		lines = append(lines, edgeLine(e, page.ID, i, ids))
	}

	return lucidPage{
		ID:     sanitizeLucidID(page.ID),
		Title:  page.Title,
		Shapes: shapes,
		Lines:  lines,
	}
}

// nodeShapes converts a node into Lucid shapes. Nodes with a resolvable
// icon become an image shape with a text label beneath it; everything
// else becomes a single rectangle.
func (r *LucidRenderer) nodeShapes(n *graph.Node, parentOf map[string]string,
	ids *lucidIDs, iconFiles map[string]string) []lucidShape {

	nodeID := ids.lookup(n.ID)
	size := n.EffectiveSize()

	text := n.DisplayLabel()
	if n.SubLabel != "" {
		text += "\n" + n.SubLabel
	}

	containedBy := ""
	if gid := parentOf[n.ID]; gid != "" {
		containedBy = ids.lookup(gid)
	}

	if path, ok := r.iconPath(n.IconFile); ok {
		iconFiles["images/"+n.IconFile] = path

		const iconW, iconH = 48.0, 48.0
		labelH := float64(16*strings.Count(text, "\n") + 20)
		if labelH < 30 {
			labelH = 30
		}

		iconShape := lucidShape{
			ID:   sanitizeLucidID(nodeID + "_icon"),
			Type: "rectangle",
			BoundingBox: lucidBox{
				X: n.Position.X + (size.Width-iconW)/2,
				Y: n.Position.Y,
				W: iconW, H: iconH,
			},
			Style:       &lucidStyle{},
			Fill:        &lucidFill{Type: "image", Ref: n.IconFile},
			ContainedBy: containedBy,
		}
		labelShape := lucidShape{
			ID:   nodeID,
			Type: "text",
			BoundingBox: lucidBox{
				X: n.Position.X,
				Y: n.Position.Y + iconH + 4,
				W: size.Width, H: labelH,
			},
			Text:        text,
			ContainedBy: containedBy,
			CustomData:  nodeCustomData(n),
		}
		return []lucidShape{iconShape, labelShape}
	}

	meta := azure.MetaFor(n.Type)
	return []lucidShape{{
		ID:   nodeID,
		Type: "rectangle",
		BoundingBox: lucidBox{
			X: n.Position.X, Y: n.Position.Y,
			W: size.Width, H: size.Height,
		},
		Text: text,
		Style: &lucidStyle{
			FillColor:   meta.FillColor,
			StrokeColor: meta.StrokeColor,
			StrokeWidth: 1,
		},
		ContainedBy: containedBy,
		CustomData:  nodeCustomData(n),
	}}
}

func groupShape(g *graph.Group, ids *lucidIDs) lucidShape {
	strokeWidth := 1.0
	if g.Type == graph.GroupVNet || g.Type == graph.GroupAppServicePlan {
		strokeWidth = 2
	}

	shape := lucidShape{
		ID:   ids.lookup(g.ID),
		Type: "roundedRectangleContainer",
		BoundingBox: lucidBox{
			X: g.Position.X, Y: g.Position.Y,
			W: g.Size.Width, H: g.Size.Height,
		},
		Text: g.Label,
		Style: &lucidStyle{
			FillColor:    "#F5F5F5",
			StrokeColor:  "#CCCCCC",
			StrokeWidth:  strokeWidth,
			CornerRadius: 8,
		},
		CustomData: []lucidData{{Key: "groupType", Value: g.Type}},
	}
	if g.ParentID != "" {
		shape.ContainedBy = ids.lookup(g.ParentID)
	}
	return shape
}

func edgeLine(e *graph.Edge, pageID string, seq int, ids *lucidIDs) lucidLine {
	startStyle := "none"
	if e.Bidirectional {
		startStyle = "arrow"
	}

	dash := "solid"
	switch e.Style {
	case "dashed", "dotted":
		dash = e.Style
	}
	width := 1.0
	if e.Type == graph.EdgePeering {
		width = 2
		dash = "dashed"
	}

	line := lucidLine{
		ID:       lineID(pageID, e, seq),
		LineType: "elbow",
		Endpoint1: lucidEndpoint{
			Type:     "shapeEndpoint",
			ShapeID:  ids.lookup(e.SourceID),
			Style:    startStyle,
			Position: lucidPoint{X: 1, Y: 0.5},
		},
		Endpoint2: lucidEndpoint{
			Type:     "shapeEndpoint",
			ShapeID:  ids.lookup(e.TargetID),
			Style:    "arrow",
			Position: lucidPoint{X: 0, Y: 0.5},
		},
		Stroke: lucidStroke{Color: "#666666", Width: width, Style: dash},
	}
	if e.Label != "" {
		line.Text = []lucidText{{Text: e.Label, Position: 0.5, Side: "top"}}
	}
	return line
}

func (r *LucidRenderer) iconPath(iconFile string) (string, bool) {
	if r.icons == nil || iconFile == "" {
		return "", false
	}
	return r.icons.Path(iconFile)
}

func nodeCustomData(n *graph.Node) []lucidData {
	return []lucidData{
		{Key: "resourceId", Value: n.ResourceID},
		{Key: "resourceType", Value: n.Type},
	}
}

func embedIcons(zw *zip.Writer, iconFiles map[string]string) error {
	for name, path := range iconFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue // missing icon files degrade to label-only shapes in the editor
		}
		w, err := zw.Create(name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "embedding icon %s", name)
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "embedding icon %s", name)
		}
	}
	return nil
}

// =============================================================================
// Shape IDs
// =============================================================================

// Lucid shape IDs allow alphanumerics plus -_.~ and cap at 36 chars.

var lucidIDReplacer = strings.NewReplacer("/", "_", " ", "_", ":", "_", "(", "", ")", "")

// sanitizeLucidID makes an ID valid for the Lucid import format. IDs
// over the limit keep a 28-char prefix plus a short UUID5 suffix so
// truncation cannot collide.
func sanitizeLucidID(raw string) string {
	clean := lucidIDReplacer.Replace(raw)
	if len(clean) <= 36 {
		return clean
	}
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(clean))
	return fmt.Sprintf("%s_%x", clean[:28], u[:4])[:36]
}

// lineID derives a stable per-edge UUID from the page and endpoints.
func lineID(pageID string, e *graph.Edge, seq int) string {
	seed := fmt.Sprintf("%s/%s/%s/%d", pageID, e.SourceID, e.TargetID, seq)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}

// lucidIDs maps page-element IDs to sanitized, page-prefixed unique IDs.
type lucidIDs struct {
	prefix string
	byRaw  map[string]string
	used   map[string]bool
}

func newLucidIDs(pageID string) *lucidIDs {
	return &lucidIDs{
		prefix: pageID + "_",
		byRaw:  make(map[string]string),
		used:   make(map[string]bool),
	}
}

func (l *lucidIDs) assign(raw string) string {
	if id, ok := l.byRaw[raw]; ok {
		return id
	}
	candidate := sanitizeLucidID(l.prefix + raw)
	for i := 2; l.used[candidate]; i++ {
		candidate = sanitizeLucidID(fmt.Sprintf("%s%s_%d", l.prefix, raw, i))
	}
	l.used[candidate] = true
	l.byRaw[raw] = candidate
	return candidate
}

func (l *lucidIDs) lookup(raw string) string {
	if id, ok := l.byRaw[raw]; ok {
		return id
	}
	return sanitizeLucidID(l.prefix + raw)
}

// =============================================================================
// document.json Schema
// =============================================================================

type lucidDocument struct {
	Version int         `json:"version"`
	Pages   []lucidPage `json:"pages"`
}

type lucidPage struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Shapes []lucidShape `json:"shapes"`
	Lines  []lucidLine  `json:"lines"`
}

type lucidShape struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	BoundingBox lucidBox    `json:"boundingBox"`
	Text        string      `json:"text,omitempty"`
	Style       *lucidStyle `json:"style,omitempty"`
	Fill        *lucidFill  `json:"fill,omitempty"`
	ContainedBy string      `json:"containedBy,omitempty"`
	CustomData  []lucidData `json:"customData,omitempty"`
}

type lucidBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type lucidStyle struct {
	FillColor    string  `json:"fillColor,omitempty"`
	StrokeColor  string  `json:"strokeColor,omitempty"`
	StrokeWidth  float64 `json:"strokeWidth"`
	CornerRadius int     `json:"cornerRadius,omitempty"`
}

type lucidFill struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
}

type lucidData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type lucidLine struct {
	ID        string        `json:"id"`
	LineType  string        `json:"lineType"`
	Endpoint1 lucidEndpoint `json:"endpoint1"`
	Endpoint2 lucidEndpoint `json:"endpoint2"`
	Stroke    lucidStroke   `json:"stroke"`
	Text      []lucidText   `json:"text,omitempty"`
}

type lucidEndpoint struct {
	Type     string     `json:"type"`
	ShapeID  string     `json:"shapeId"`
	Style    string     `json:"style"`
	Position lucidPoint `json:"position"`
}

type lucidPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type lucidStroke struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Style string  `json:"style"`
}

type lucidText struct {
	Text     string  `json:"text"`
	Position float64 `json:"position"`
	Side     string  `json:"side"`
}
