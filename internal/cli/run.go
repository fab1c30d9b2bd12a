package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rime13-coder/azure-diagram-generator/pkg/pipeline"
	"github.com/rime13-coder/azure-diagram-generator/pkg/render"
	"github.com/rime13-coder/azure-diagram-generator/pkg/store"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	subscriptions  []string
	resourceGroups []string
	tag            string
	diagramTypes   []string
	formats        []string
	project        string
	output         string
	upload         bool
	snapshotName   string // reuse/persist the snapshot under this store name
	refresh        bool   // ignore a stored snapshot and discover fresh
}

// newRunCmd creates the run command: discover and generate in one step.
func newRunCmd(configPath *string) *cobra.Command {
	opts := runOpts{
		project: pipeline.DefaultProjectName,
		output:  "./output",
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover Azure resources and generate diagrams in one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), *configPath, &opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.subscriptions, "subscription", "s", nil, "subscription ID(s), or 'all'")
	cmd.Flags().StringSliceVarP(&opts.resourceGroups, "resource-group", "g", nil, "filter to specific resource group(s)")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "filter by tag (key=value)")
	cmd.Flags().StringSliceVarP(&opts.diagramTypes, "type", "t", []string{pipeline.All}, "diagram type(s) to generate")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", []string{pipeline.DefaultFormat}, "output format(s)")
	cmd.Flags().StringVarP(&opts.project, "project", "p", opts.project, "project name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload to Lucidchart")
	cmd.Flags().StringVar(&opts.snapshotName, "snapshot", "", "reuse/persist the snapshot under this store name")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "discover fresh even when a stored snapshot exists")

	return cmd
}

func runRun(ctx context.Context, configPath string, opts *runOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyScopeFlags(cfg, opts.subscriptions, opts.resourceGroups, opts.tag)

	client, err := newDiscoveryClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var st store.Store
	if opts.snapshotName != "" {
		st, err = openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
	}

	runner := newRunner(client, st, cfg, logger)

	popts := pipeline.Options{
		Filter:       cfg.Filter,
		SnapshotName: opts.snapshotName,
		Refresh:      opts.refresh,
		DiagramTypes: opts.diagramTypes,
		Formats:      formatsOnly(opts.formats),
		ProjectName:  opts.project,
		Upload:       opts.upload,
		Logger:       logger,
	}
	_, svg := splitSVG(opts.formats)

	var result *pipeline.Result
	err = runWithSpinner(ctx, "Discovering Azure resources and generating diagrams...", func(ctx context.Context) error {
		result, err = runner.Execute(ctx, popts)
		return err
	})
	if err != nil {
		return err
	}

	printSuccess("Generated %d pages from %d resources (%d nodes, %d edges)",
		len(result.Graph.Pages), result.Stats.ResourceCount,
		result.Stats.NodeCount, result.Stats.EdgeCount)

	if err := writeOutputs(ctx, result.Graph, result.Artifacts, svg, opts.output, opts.project); err != nil {
		return err
	}
	if result.DocumentURL != "" {
		printSuccess("Uploaded to Lucidchart: %s", StyleLink.Render(result.DocumentURL))
	}
	return nil
}

// formatsOnly drops the pseudo-format "svg", falling back to the default
// registry format when nothing else was requested.
func formatsOnly(formats []string) []string {
	rest, svg := splitSVG(formats)
	if len(rest) == 0 && svg {
		return []string{render.FormatDOT}
	}
	return rest
}
