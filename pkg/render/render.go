package render

import (
	"context"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// =============================================================================
// Renderer Interface and Format Registry
// =============================================================================

// Renderer produces one output artifact from an architecture graph.
type Renderer interface {
	// Render returns the bytes of the output file.
	Render(ctx context.Context, g *graph.ArchitectureGraph) ([]byte, error)
	// Extension is the output file extension without the dot.
	Extension() string
}

// FormatDrawio and friends are the format names accepted by ForFormat.
const (
	FormatDrawio     = "drawio"
	FormatMermaid    = "mermaid"
	FormatLucidchart = "lucidchart"
	FormatDOT        = "dot"
)

// Formats lists the supported format names in canonical form.
func Formats() []string {
	return []string{FormatDrawio, FormatLucidchart, FormatMermaid, FormatDOT}
}

// ForFormat returns the renderer for a format name. Aliases "lucid",
// "md" and "graphviz" resolve to their canonical formats. The icon
// library may be nil; only the Lucidchart renderer uses it, to embed
// icon images in its output.
func ForFormat(name string, lib *icons.Library) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatDrawio:
		return &DrawioRenderer{}, nil
	case FormatMermaid, "md":
		return &MermaidRenderer{}, nil
	case FormatLucidchart, "lucid":
		return NewLucidRenderer(lib), nil
	case FormatDOT, "graphviz":
		return &DOTRenderer{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format: %s", name)
	}
}
