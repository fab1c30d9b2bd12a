package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *ArchitectureGraph
		wantPages int
		check     func(t *testing.T, g *ArchitectureGraph)
	}{
		{
			name:      "Empty",
			build:     func() *ArchitectureGraph { return New("empty") },
			wantPages: 0,
		},
		{
			name: "SinglePage",
			build: func() *ArchitectureGraph {
				g := New("demo")
				g.AddPage(Page{
					ID:    "network",
					Title: "Network Topology",
					Nodes: []Node{
						{ID: "vm1", Label: "web-01", Type: "microsoft.compute/virtualmachines"},
						{ID: "sql1", Label: "db-01", Type: "microsoft.sql/servers"},
					},
					Edges: []Edge{
						{SourceID: "vm1", TargetID: "sql1", Type: EdgeDataFlow, Label: "TCP 1433"},
					},
				})
				return g
			},
			wantPages: 1,
			check: func(t *testing.T, g *ArchitectureGraph) {
				p := g.Page("network")
				if p == nil {
					t.Fatal("page network not found")
				}
				if len(p.Nodes) != 2 {
					t.Errorf("nodes = %d, want 2", len(p.Nodes))
				}
				if p.Edges[0].Label != "TCP 1433" {
					t.Errorf("edge label = %q, want TCP 1433", p.Edges[0].Label)
				}
			},
		},
		{
			name: "NestedGroups",
			build: func() *ArchitectureGraph {
				g := New("grouped")
				g.AddPage(Page{
					ID:    "net",
					Nodes: []Node{{ID: "vm1"}},
					Groups: []Group{
						{ID: "vnet1", Type: GroupVNet, GroupIDs: []string{"snet1"}},
						{ID: "snet1", Type: GroupSubnet, ParentID: "vnet1", NodeIDs: []string{"vm1"}},
					},
				})
				return g
			},
			wantPages: 1,
			check: func(t *testing.T, g *ArchitectureGraph) {
				p := g.Page("net")
				groups := p.GroupMap()
				if groups["snet1"].ParentID != "vnet1" {
					t.Errorf("parent = %q, want vnet1", groups["snet1"].ParentID)
				}
				roots := p.RootGroups()
				if len(roots) != 1 || roots[0].ID != "vnet1" {
					t.Errorf("roots = %v, want [vnet1]", roots)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build()

			data, err := Marshal(g)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			result, err := Read(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Read: %v", err)
			}

			if got := len(result.Pages); got != tt.wantPages {
				t.Errorf("pages = %d, want %d", got, tt.wantPages)
			}

			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestReadInvalidJSON(t *testing.T) {
	_, err := Read(strings.NewReader(`{invalid json}`))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile("nonexistent.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	g := New("file-test")
	g.AddPage(Page{ID: "p1", Nodes: []Node{{ID: "a"}}})

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")

	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got.Title != "file-test" {
		t.Errorf("title = %q, want file-test", got.Title)
	}
	if len(got.Pages) != 1 {
		t.Errorf("pages = %d, want 1", len(got.Pages))
	}
}

func TestWriteProducesIndentedJSON(t *testing.T) {
	g := New("indent")
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Fatal("output is not valid JSON")
	}
	if !strings.Contains(buf.String(), "\n") {
		t.Error("expected indented output")
	}
}

func TestNodeMapAllowsInPlaceMutation(t *testing.T) {
	p := Page{Nodes: []Node{{ID: "a"}, {ID: "b"}}}
	nodes := p.NodeMap()
	nodes["a"].Position = Position{X: 40, Y: 50}

	if p.Nodes[0].Position.X != 40 {
		t.Errorf("X = %v, want 40", p.Nodes[0].Position.X)
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"LabelSet", Node{ID: "id1", Label: "Web VM"}, "Web VM"},
		{"LabelEmpty", Node{ID: "id1"}, "id1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveSize(t *testing.T) {
	n := Node{ID: "a"}
	if got := n.EffectiveSize(); got != DefaultSize() {
		t.Errorf("EffectiveSize() = %v, want default", got)
	}
	n.Size = Size{Width: 64, Height: 64}
	if got := n.EffectiveSize(); got.Width != 64 {
		t.Errorf("width = %v, want 64", got.Width)
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{Position{X: 10, Y: 10}, Size{Width: 100, Height: 50}}
	tests := []struct {
		name string
		p    Position
		want bool
	}{
		{"Inside", Position{X: 50, Y: 30}, true},
		{"OnEdge", Position{X: 110, Y: 60}, true},
		{"Outside", Position{X: 0, Y: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestGroupedNodeIDs(t *testing.T) {
	p := Page{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Groups: []Group{
			{ID: "g1", NodeIDs: []string{"a", "b"}},
		},
	}
	claimed := p.GroupedNodeIDs()
	if !claimed["a"] || !claimed["b"] {
		t.Error("a and b should be claimed")
	}
	if claimed["c"] {
		t.Error("c should be unclaimed")
	}
}

func TestWriteFileCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := WriteFile(New(""), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}
