package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
	"github.com/rime13-coder/azure-diagram-generator/pkg/layout"
	"github.com/rime13-coder/azure-diagram-generator/pkg/observability"
	"github.com/rime13-coder/azure-diagram-generator/pkg/render"
	"github.com/rime13-coder/azure-diagram-generator/pkg/store"
	"github.com/rime13-coder/azure-diagram-generator/pkg/templates"
)

// Discoverer produces snapshots. *discovery.Client is the production
// implementation; tests substitute canned snapshots.
type Discoverer interface {
	Discover(ctx context.Context, filter discovery.ResourceFilter) (*discovery.Snapshot, error)
}

// Runner encapsulates pipeline execution. It is stateless apart from its
// collaborators, so multiple goroutines can share one Runner with
// different options.
type Runner struct {
	Source   Discoverer
	Store    store.Store      // Optional snapshot persistence
	Icons    *icons.Library   // Optional icon resolution
	Uploader *render.Uploader // Optional Lucidchart upload
	Logger   *log.Logger
}

// NewRunner creates a runner. The store, icon library and uploader may be
// nil, disabling persistence, icons, and upload respectively. A nil
// logger falls back to the default logger.
func NewRunner(source Discoverer, st store.Store, lib *icons.Library, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: source,
		Store:  st,
		Icons:  lib,
		Logger: logger,
	}
}

// Execute runs the complete discover → build → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Discover
	discoverStart := time.Now()
	snap, err := r.Discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap
	result.Stats.DiscoverTime = time.Since(discoverStart)
	result.Stats.ResourceCount = len(snap.Resources)

	opts.Logger.Info("discovered resources",
		"resources", len(snap.Resources),
		"relationships", len(snap.Relationships),
		"flows", len(snap.DataFlows),
		"duration", result.Stats.DiscoverTime)

	// Stage 2: Build
	buildStart := time.Now()
	g, err := r.BuildGraph(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = len(g.AllNodes())
	result.Stats.EdgeCount = len(g.AllEdges())

	opts.Logger.Info("built diagrams",
		"pages", len(g.Pages),
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.RenderGraph(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	if opts.Upload {
		url, err := r.upload(ctx, artifacts, opts)
		if err != nil {
			return nil, err
		}
		result.DocumentURL = url
	}

	return result, nil
}

// Discover produces the snapshot for a run. When a snapshot name is set
// and a store is wired, a stored snapshot is reused unless Refresh is
// set; fresh discoveries are persisted under that name.
func (r *Runner) Discover(ctx context.Context, opts Options) (*discovery.Snapshot, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	if opts.SnapshotName != "" && r.Store != nil && !opts.Refresh {
		rec, err := r.Store.LoadSnapshot(ctx, opts.SnapshotName)
		if err == nil {
			opts.Logger.Debug("reusing stored snapshot",
				"name", opts.SnapshotName, "taken_at", rec.Snapshot.TakenAt)
			return rec.Snapshot, nil
		}
		if !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
			return nil, err
		}
	}

	if r.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no discovery source configured and no stored snapshot %q", opts.SnapshotName)
	}

	scope := opts.Filter.IncludeResourceGroups
	hooks := observability.Pipeline()
	hooks.OnDiscoverStart(ctx, scope)

	start := time.Now()
	snap, err := r.Source.Discover(ctx, opts.Filter)
	if err != nil {
		hooks.OnDiscoverComplete(ctx, scope, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeDiscovery, err, "discovering resources")
	}
	hooks.OnDiscoverComplete(ctx, scope, len(snap.Resources), time.Since(start), nil)

	if opts.SnapshotName != "" && r.Store != nil {
		rec := &store.SnapshotRecord{Name: opts.SnapshotName, Snapshot: snap}
		if err := r.Store.SaveSnapshot(ctx, rec); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// BuildGraph runs the selected diagram templates over a snapshot and
// lays out each page with its template's strategy.
func (r *Runner) BuildGraph(ctx context.Context, snap *discovery.Snapshot, opts Options) (*graph.ArchitectureGraph, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateDiagramTypes(opts.DiagramTypes); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	g := graph.New(opts.ProjectName)
	cfg := layout.DefaultConfig()

	for _, name := range opts.DiagramTypes {
		tpl, _ := templates.ByName(name)

		hooks.OnBuildStart(ctx, tpl.Name)
		start := time.Now()

		page := tpl.Build(snap, r.Icons)
		layout.Apply(&page, tpl.Strategy, cfg)
		g.AddPage(page)

		hooks.OnBuildComplete(ctx, tpl.Name, len(page.Nodes), len(page.Edges), time.Since(start), nil)
		opts.Logger.Debug("built page",
			"diagram", tpl.Name, "nodes", len(page.Nodes), "edges", len(page.Edges))
	}
	return g, nil
}

// RenderGraph renders a positioned graph in every requested format. The
// returned artifacts are keyed by canonical format name.
func (r *Runner) RenderGraph(ctx context.Context, g *graph.ArchitectureGraph, opts Options) (map[string][]byte, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		renderer, err := render.ForFormat(format, r.Icons)
		if err != nil {
			return nil, err
		}
		data, err := renderer.Render(ctx, g)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, errors.Wrap(errors.ErrCodeRender, err, "rendering %s", format)
		}
		artifacts[format] = data
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, nil
}

// upload posts the lucid artifact to Lucidchart.
func (r *Runner) upload(ctx context.Context, artifacts map[string][]byte, opts Options) (string, error) {
	data, ok := artifacts[render.FormatLucidchart]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput,
			"upload requested but %q is not among the rendered formats", render.FormatLucidchart)
	}
	if r.Uploader == nil {
		return "", errors.New(errors.ErrCodeUnauthorized, "lucidchart uploader not configured")
	}

	url, err := r.Uploader.Upload(ctx, opts.ProjectName+".lucid", data, opts.ProjectName)
	if err != nil {
		return "", err
	}
	opts.Logger.Info("uploaded to lucidchart", "url", url)
	return url, nil
}

// Close releases resources held by the runner (currently the store).
func (r *Runner) Close(ctx context.Context) error {
	if r.Store != nil {
		return r.Store.Close(ctx)
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
