package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rime13-coder/azure-diagram-generator/pkg/config"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/pipeline"
	"github.com/rime13-coder/azure-diagram-generator/pkg/render"
	"github.com/rime13-coder/azure-diagram-generator/pkg/store"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	input        string   // snapshot JSON file
	snapshotName string   // snapshot name in the store (overrides input)
	diagramTypes []string // diagram types, or "all"
	formats      []string // output formats, or "all"; "svg" renders per page
	project      string   // project name for titles and file names
	output       string   // output directory
	upload       bool     // upload the lucid artifact to Lucidchart
	save         bool     // also save the built graph to the store
}

// snapshotSource adapts an already-loaded snapshot to pipeline.Discoverer.
type snapshotSource struct{ snap *discovery.Snapshot }

func (s snapshotSource) Discover(ctx context.Context, filter discovery.ResourceFilter) (*discovery.Snapshot, error) {
	return s.snap, nil
}

// newGenerateCmd creates the generate command for building and rendering
// diagrams from a previously discovered snapshot.
func newGenerateCmd(configPath *string) *cobra.Command {
	opts := generateOpts{
		input:   "./discovery.json",
		project: pipeline.DefaultProjectName,
		output:  "./output",
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate diagrams from a discovery snapshot",
		Long: `Generate builds the selected diagram pages from a snapshot and renders
them in the requested formats.

Formats: drawio, mermaid, lucidchart, dot, svg (per-page, via Graphviz).
Diagram types: high-level, network, application, data-flow, security, all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), *configPath, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", opts.input, "discovery snapshot JSON file")
	cmd.Flags().StringVar(&opts.snapshotName, "snapshot", "", "load the snapshot from the store instead of a file")
	cmd.Flags().StringSliceVarP(&opts.diagramTypes, "type", "t", []string{pipeline.All}, "diagram type(s) to generate")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", []string{pipeline.DefaultFormat}, "output format(s)")
	cmd.Flags().StringVarP(&opts.project, "project", "p", opts.project, "project name for the diagram")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload to Lucidchart (requires API key)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "also save the built graph to the store")

	return cmd
}

func runGenerate(ctx context.Context, configPath string, opts *generateOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	snap, st, err := loadSnapshot(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close(ctx)
	}

	formats, svg := splitSVG(opts.formats)
	runner := newRunner(snapshotSource{snap}, st, cfg, logger)

	popts := pipeline.Options{
		DiagramTypes: opts.diagramTypes,
		Formats:      formats,
		ProjectName:  opts.project,
		Upload:       opts.upload,
		Logger:       logger,
	}
	if len(formats) == 0 && svg {
		// Only per-page SVG was requested; build without rendering a
		// registry format.
		g, err := runner.BuildGraph(ctx, snap, popts)
		if err != nil {
			return err
		}
		return writeOutputs(ctx, g, nil, svg, opts.output, opts.project)
	}

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}

	if err := writeOutputs(ctx, result.Graph, result.Artifacts, svg, opts.output, opts.project); err != nil {
		return err
	}
	if result.DocumentURL != "" {
		printSuccess("Uploaded to Lucidchart: %s", StyleLink.Render(result.DocumentURL))
	}

	if opts.save && st != nil {
		rec := &store.GraphRecord{Name: opts.project, Graph: result.Graph}
		if err := st.SaveGraph(ctx, rec); err != nil {
			return err
		}
		printInfo("Graph stored as %q", opts.project)
	}
	return nil
}

// loadSnapshot reads the snapshot either from the configured store (when
// --snapshot is given) or from the input file. The returned store is
// non-nil only when it was opened, and must be closed by the caller.
func loadSnapshot(ctx context.Context, cfg *config.Config, opts *generateOpts) (*discovery.Snapshot, store.Store, error) {
	if opts.snapshotName != "" {
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		rec, err := st.LoadSnapshot(ctx, opts.snapshotName)
		if err != nil {
			st.Close(ctx)
			return nil, nil, err
		}
		return rec.Snapshot, st, nil
	}

	snap, err := discovery.ReadSnapshotFile(opts.input)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\n\nRun 'azurediagram discover' first.", err)
	}
	return snap, nil, nil
}

// splitSVG separates the pseudo-format "svg" from the registry formats.
func splitSVG(formats []string) (rest []string, svg bool) {
	for _, f := range formats {
		if strings.EqualFold(strings.TrimSpace(f), "svg") {
			svg = true
			continue
		}
		rest = append(rest, f)
	}
	return rest, svg
}

// writeOutputs writes each rendered artifact to <dir>/<project>.<ext> and,
// when svg is set, rasterizes every page through Graphviz to
// <dir>/<project>_<page>.svg.
func writeOutputs(ctx context.Context, g *graph.ArchitectureGraph, artifacts map[string][]byte, svg bool, dir, project string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, format := range render.Formats() {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		renderer, err := render.ForFormat(format, nil)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, project+"."+renderer.Extension())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
	}

	if svg {
		for i := range g.Pages {
			page := &g.Pages[i]
			data, err := render.RenderSVG(ctx, render.ToDOT(page))
			if err != nil {
				// One page failing to rasterize should not abort the rest.
				printError("SVG render failed for page %q: %v", page.ID, err)
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.svg", project, page.ID))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			printFile(path)
		}
	}
	return nil
}
