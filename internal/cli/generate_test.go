package cli

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rime13-coder/azure-diagram-generator/pkg/config"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

func TestSplitSVG(t *testing.T) {
	tests := []struct {
		name     string
		formats  []string
		wantRest []string
		wantSVG  bool
	}{
		{
			name:     "no svg",
			formats:  []string{"mermaid", "drawio"},
			wantRest: []string{"mermaid", "drawio"},
			wantSVG:  false,
		},
		{
			name:     "svg mixed in",
			formats:  []string{"mermaid", "svg", "dot"},
			wantRest: []string{"mermaid", "dot"},
			wantSVG:  true,
		},
		{
			name:     "svg only",
			formats:  []string{"SVG"},
			wantRest: nil,
			wantSVG:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, svg := splitSVG(tt.formats)
			if !reflect.DeepEqual(rest, tt.wantRest) {
				t.Errorf("rest = %v, want %v", rest, tt.wantRest)
			}
			if svg != tt.wantSVG {
				t.Errorf("svg = %v, want %v", svg, tt.wantSVG)
			}
		})
	}
}

func TestFormatsOnlyFallsBackToDOT(t *testing.T) {
	got := formatsOnly([]string{"svg"})
	if !reflect.DeepEqual(got, []string{"dot"}) {
		t.Errorf("formatsOnly([svg]) = %v, want [dot]", got)
	}

	got = formatsOnly([]string{"mermaid", "svg"})
	if !reflect.DeepEqual(got, []string{"mermaid"}) {
		t.Errorf("formatsOnly([mermaid svg]) = %v, want [mermaid]", got)
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	g := graph.New("contoso")
	g.AddPage(graph.Page{
		ID:    "network",
		Title: "Network Topology",
		Nodes: []graph.Node{{ID: "n1", Label: "vm"}},
	})

	artifacts := map[string][]byte{
		"mermaid": []byte("# contoso\n"),
		"drawio":  []byte("<mxfile/>"),
	}

	if err := writeOutputs(context.Background(), g, artifacts, false, dir, "contoso"); err != nil {
		t.Fatalf("writeOutputs() error: %v", err)
	}

	for _, name := range []string{"contoso.md", "contoso.drawio"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

func TestApplyScopeFlags(t *testing.T) {
	cfg := config.Default()
	applyScopeFlags(cfg, []string{"sub-1"}, []string{"rg-prod"}, "env = production")

	if len(cfg.SubscriptionIDs) != 1 || cfg.SubscriptionIDs[0] != "sub-1" {
		t.Errorf("SubscriptionIDs = %v, want [sub-1]", cfg.SubscriptionIDs)
	}
	if len(cfg.Filter.IncludeResourceGroups) != 1 || cfg.Filter.IncludeResourceGroups[0] != "rg-prod" {
		t.Errorf("IncludeResourceGroups = %v, want [rg-prod]", cfg.Filter.IncludeResourceGroups)
	}
	if cfg.Filter.FilterTags["env"] != "production" {
		t.Errorf("FilterTags = %v, want env=production", cfg.Filter.FilterTags)
	}
}

func TestApplyScopeFlagsKeepsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SubscriptionIDs = []string{"sub-cfg"}
	applyScopeFlags(cfg, nil, nil, "")

	if len(cfg.SubscriptionIDs) != 1 || cfg.SubscriptionIDs[0] != "sub-cfg" {
		t.Errorf("SubscriptionIDs = %v, want config value preserved", cfg.SubscriptionIDs)
	}
	if cfg.Filter.FilterTags != nil {
		t.Errorf("FilterTags = %v, want nil", cfg.Filter.FilterTags)
	}
}
