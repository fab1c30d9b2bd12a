package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
)

// newIconsCmd creates the icons command group.
func newIconsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "Manage the local Azure icon library",
	}

	cmd.AddCommand(newIconsDownloadCmd(configPath))
	cmd.AddCommand(newIconsPathCmd(configPath))

	return cmd
}

// newIconsDownloadCmd creates the "icons download" subcommand. It fetches
// the official Microsoft Azure Architecture Icons bundle and extracts the
// SVGs the type registry references.
func newIconsDownloadCmd(configPath *string) *cobra.Command {
	var (
		url    string
		bundle string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download official Microsoft Azure Architecture Icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIconsDownload(cmd.Context(), *configPath, url, bundle)
		},
	}

	cmd.Flags().StringVar(&url, "url", icons.DefaultURL, "icon bundle URL")
	cmd.Flags().StringVar(&bundle, "bundle", "", "extract from a local ZIP instead of downloading")

	return cmd
}

func runIconsDownload(ctx context.Context, configPath, url, bundle string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lib := icons.NewLibrary(cfg.IconsDir)

	var count int
	err = runWithSpinner(ctx, "Downloading Azure icons...", func(ctx context.Context) error {
		if bundle != "" {
			count, err = lib.ExtractBundle(bundle)
		} else {
			count, err = lib.Download(ctx, url)
		}
		return err
	})
	if err != nil {
		return err
	}

	printSuccess("Downloaded %d Azure icons to %s", count, lib.Dir())
	return nil
}

// newIconsPathCmd creates the "icons path" subcommand.
func newIconsPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the icon library directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			lib := icons.NewLibrary(cfg.IconsDir)
			fmt.Println(lib.Dir())
			if !lib.Available() {
				printWarning("No icons downloaded yet; run 'azurediagram icons download'")
			}
			return nil
		},
	}
}
