// Package pipeline provides the core diagram generation pipeline.
//
// This package implements the complete discover → build → render pipeline
// that can be used by CLI and serve-mode components. By centralizing this
// logic, we ensure consistent behavior across all entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Discover: Query the Azure Resource Graph and derive relationships
//     and data flows into a snapshot
//  2. Build: Run diagram templates over the snapshot and lay out the
//     resulting pages
//  3. Render: Generate output artifacts in the requested formats
//
// Each stage can be run independently or as part of the complete pipeline:
// serve mode, for example, accepts pre-discovered snapshots and runs only
// build and render.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, store, lib, logger)
//	opts := pipeline.Options{
//	    DiagramTypes: []string{"network"},
//	    Formats:      []string{"drawio"},
//	    ProjectName:  "contoso",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	xml := result.Artifacts["drawio"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
	"github.com/rime13-coder/azure-diagram-generator/pkg/render"
	"github.com/rime13-coder/azure-diagram-generator/pkg/templates"
)

// =============================================================================
// Defaults - Single Source of Truth for CLI and Serve Mode
// =============================================================================

const (
	// DefaultProjectName titles graphs when the caller provides none.
	DefaultProjectName = "azure-architecture"

	// DefaultFormat is the output format used when none is requested.
	DefaultFormat = render.FormatMermaid

	// All selects every diagram type or every output format.
	All = "all"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// The struct serializes to JSON for serve-mode requests.
type Options struct {
	// Discover options
	Filter       discovery.ResourceFilter `json:"filter,omitempty"`
	SnapshotName string                   `json:"snapshot_name,omitempty"` // Persist/load the snapshot under this name
	Refresh      bool                     `json:"refresh,omitempty"`       // Ignore a stored snapshot and re-discover

	// Build options
	DiagramTypes []string `json:"diagram_types,omitempty"` // Template names, or "all"
	ProjectName  string   `json:"project_name,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"` // Format names, or "all"
	Upload  bool     `json:"upload,omitempty"`  // Upload lucid output to Lucidchart

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the discovery result the diagrams were built from.
	Snapshot *discovery.Snapshot

	// Graph is the built multi-page diagram document, fully positioned.
	Graph *graph.ArchitectureGraph

	// Artifacts contains rendered outputs keyed by format name.
	Artifacts map[string][]byte

	// DocumentURL is the Lucidchart document URL when an upload ran.
	DocumentURL string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResourceCount int
	NodeCount     int
	EdgeCount     int
	DiscoverTime  time.Duration
	BuildTime     time.Duration
	RenderTime    time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// ValidateDiagramTypes checks that every name resolves to a template.
func ValidateDiagramTypes(names []string) error {
	for _, name := range names {
		if _, ok := templates.ByName(name); !ok {
			return errors.New(errors.ErrCodeInvalidDiagram,
				"unknown diagram type: %q (valid: %v)", name, templates.Names())
		}
	}
	return nil
}

// ValidateFormats checks that every name resolves to a renderer.
func ValidateFormats(names []string) error {
	for _, name := range names {
		if _, err := render.ForFormat(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. Idempotent: calling it repeatedly has the same effect as once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := ValidateDiagramTypes(o.DiagramTypes); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills empty fields and expands "all" selections.
func (o *Options) SetDefaults() {
	if o.ProjectName == "" {
		o.ProjectName = DefaultProjectName
	}
	o.DiagramTypes = expand(o.DiagramTypes, templates.Names())
	if len(o.DiagramTypes) == 0 {
		o.DiagramTypes = templates.Names()
	}
	o.Formats = expand(o.Formats, render.Formats())
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// expand replaces a list containing "all" with the full set.
func expand(names, full []string) []string {
	for _, n := range names {
		if n == All {
			return full
		}
	}
	return names
}
