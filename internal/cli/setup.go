package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rime13-coder/azure-diagram-generator/pkg/cache"
	"github.com/rime13-coder/azure-diagram-generator/pkg/config"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/icons"
	"github.com/rime13-coder/azure-diagram-generator/pkg/pipeline"
	"github.com/rime13-coder/azure-diagram-generator/pkg/render"
	"github.com/rime13-coder/azure-diagram-generator/pkg/store"
)

// tokenEnvVar is where the CLI reads the Azure management bearer token.
// Acquire one with: az account get-access-token --query accessToken -o tsv
const tokenEnvVar = "AZURE_ACCESS_TOKEN"

// queryCacheTTL bounds how long Resource Graph responses are reused.
const queryCacheTTL = 15 * time.Minute

// loadConfig resolves the layered configuration: defaults, then the TOML
// file at path (if any), then environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.Load(path)
}

// newDiscoveryClient builds the Resource Graph client from configuration,
// wiring the selected query cache backend.
func newDiscoveryClient(ctx context.Context, cfg *config.Config, logger *log.Logger) (*discovery.Client, error) {
	qc, err := newQueryCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	tokens := discovery.EnvToken(tokenEnvVar)
	logger.Debug("discovery client configured",
		"subscriptions", cfg.SubscriptionIDs, "cache", cfg.Cache.Backend)

	return discovery.NewClient(tokens, cfg.SubscriptionIDs,
		discovery.WithCache(qc, queryCacheTTL)), nil
}

// newQueryCache creates the cache backend named by the configuration.
func newQueryCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "resolve cache dir")
			}
			dir = filepath.Join(base, "azure-diagram-generator", "queries")
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, "azurediagram")
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown cache backend: %s (must be 'file', 'redis', or 'none')", cfg.Backend)
	}
}

// openStore creates the snapshot store named by the configuration.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return store.NewFileStore(cfg.Dir)
	case "mongo":
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown store backend: %s (must be 'file' or 'mongo')", cfg.Backend)
	}
}

// iconLibrary returns the icon library for the configured directory,
// warning once when no icons have been downloaded yet.
func iconLibrary(cfg *config.Config, logger *log.Logger) *icons.Library {
	lib := icons.NewLibrary(cfg.IconsDir)
	if !lib.Available() {
		logger.Warn("Azure icons not found; run 'azurediagram icons download' for icon support",
			"dir", cfg.IconsDir)
	}
	return lib
}

// newRunner assembles a pipeline runner from configuration. The store is
// opened lazily by the caller when snapshot persistence is requested.
func newRunner(source pipeline.Discoverer, st store.Store, cfg *config.Config, logger *log.Logger) *pipeline.Runner {
	r := pipeline.NewRunner(source, st, iconLibrary(cfg, logger), logger)
	if cfg.Lucid.APIKey != "" {
		up := render.NewUploader(cfg.Lucid.APIKey)
		if cfg.Lucid.BaseURL != "" {
			up.BaseURL = cfg.Lucid.BaseURL
		}
		r.Uploader = up
	}
	return r
}
