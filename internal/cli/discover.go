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
	"github.com/rime13-coder/azure-diagram-generator/pkg/store"
)

// discoverOpts holds the command-line flags for the discover command.
type discoverOpts struct {
	subscriptions  []string // subscription IDs, or "all"
	resourceGroups []string // restrict discovery to these resource groups
	tag            string   // key=value tag filter
	output         string   // snapshot JSON output path
	name           string   // snapshot name in the configured store (optional)
}

// newDiscoverCmd creates the discover command. It queries the Azure
// Resource Graph, derives relationships and data flows, and writes the
// snapshot to a JSON file (and optionally to the configured store).
func newDiscoverCmd(configPath *string) *cobra.Command {
	opts := discoverOpts{output: "./discovery.json"}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover Azure resources and save a snapshot",
		Long: `Discover queries the Azure Resource Graph for resources, resource groups,
subscriptions, VNet peerings, and NSG rules, derives the relationships and
data flows between them, and saves everything as a snapshot JSON file.

The management token is read from the AZURE_ACCESS_TOKEN environment
variable. Acquire one with:

  export AZURE_ACCESS_TOKEN=$(az account get-access-token --query accessToken -o tsv)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd.Context(), *configPath, &opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.subscriptions, "subscription", "s", nil, "subscription ID(s), or 'all'")
	cmd.Flags().StringSliceVarP(&opts.resourceGroups, "resource-group", "g", nil, "filter to specific resource group(s)")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "filter by tag (key=value)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output path for the snapshot JSON")
	cmd.Flags().StringVar(&opts.name, "name", "", "also save the snapshot under this name in the store")

	return cmd
}

// applyScopeFlags overlays the scope flags onto the loaded configuration.
func applyScopeFlags(cfg *config.Config, subscriptions, resourceGroups []string, tag string) {
	if len(subscriptions) > 0 {
		cfg.SubscriptionIDs = subscriptions
	}
	if len(resourceGroups) > 0 {
		cfg.Filter.IncludeResourceGroups = resourceGroups
	}
	if key, value, ok := strings.Cut(tag, "="); ok && tag != "" {
		cfg.Filter.FilterTags = map[string]string{
			strings.TrimSpace(key): strings.TrimSpace(value),
		}
	}
}

func runDiscover(ctx context.Context, configPath string, opts *discoverOpts) error {
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

	prog := newProgress(logger)
	var snap *discovery.Snapshot
	err = runWithSpinner(ctx, "Discovering Azure resources...", func(ctx context.Context) error {
		snap, err = client.Discover(ctx, cfg.Filter)
		return err
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Discovered %d resources with %d relationships",
		len(snap.Resources), len(snap.Relationships)))

	if err := writeSnapshotFile(snap, opts.output); err != nil {
		return err
	}
	printSuccess("Discovery data saved to %s", opts.output)
	printKeyValue("Resources", fmt.Sprintf("%d", len(snap.Resources)))
	printKeyValue("Resource Groups", fmt.Sprintf("%d", len(snap.ResourceGroups)))
	printKeyValue("Relationships", fmt.Sprintf("%d", len(snap.Relationships)))
	printKeyValue("Data Flows", fmt.Sprintf("%d", len(snap.DataFlows)))

	if opts.name != "" {
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close(ctx)

		rec := &store.SnapshotRecord{Name: opts.name, Snapshot: snap}
		if err := st.SaveSnapshot(ctx, rec); err != nil {
			return err
		}
		printInfo("Snapshot stored as %q", opts.name)
	}
	return nil
}

// writeSnapshotFile writes the snapshot JSON, creating parent directories.
func writeSnapshotFile(snap *discovery.Snapshot, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return discovery.WriteSnapshotFile(snap, path)
}
