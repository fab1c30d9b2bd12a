// Package render turns positioned architecture graphs into diagram files.
//
// # Overview
//
// Each renderer consumes a [graph.ArchitectureGraph] whose pages have
// already been positioned by the layout engine and produces the bytes of
// one output artifact:
//
//   - [DrawioRenderer]: mxGraph XML for the diagrams.net editor
//   - [MermaidRenderer]: Mermaid flowchart markdown for docs and wikis
//   - [LucidRenderer]: a .lucid ZIP (document.json plus embedded icons)
//     for the Lucidchart Standard Import API
//   - [DOTRenderer]: Graphviz DOT, one digraph per page
//
// Renderers are looked up by format name with [ForFormat]; [Formats] lists
// the supported names. Edges referencing IDs that exist on no node or
// group of the page are skipped rather than failing the render.
//
// # Usage
//
//	r, err := render.ForFormat("drawio", nil)
//	if err != nil {
//		return err
//	}
//	data, err := r.Render(ctx, g)
//	if err != nil {
//		return err
//	}
//	os.WriteFile("architecture."+r.Extension(), data, 0o644)
//
// # SVG
//
// SVG output goes through Graphviz rather than the stored positions:
// [ToDOT] converts one page, [RenderSVG] rasterizes the DOT. Because an
// SVG file holds a single drawing, multi-page graphs produce one SVG per
// page; the pipeline handles the per-page file naming.
//
// # Lucidchart upload
//
// [Uploader] posts a .lucid file to the Lucidchart Standard Import REST
// API and returns the document URL. It authenticates with an API key.
package render
