// Package config loads application configuration from a TOML file and
// environment variables.
//
// Configuration is resolved in three layers, later layers overriding
// earlier ones:
//  1. Built-in defaults (Default)
//  2. An optional TOML config file (Load)
//  3. Environment variables (FromEnv / applyEnv)
//
// Environment variables use the same names as the comma-separated
// discovery settings, e.g.:
//
//	AZURE_SUBSCRIPTION_IDS=sub-1,sub-2
//	INCLUDE_RESOURCE_GROUPS=rg-prod,rg-shared
//	EXCLUDE_RESOURCE_TYPES=microsoft.insights/components
//	FILTER_TAG=env=production
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
)

// Config is the application configuration.
type Config struct {
	// Azure discovery scope.
	SubscriptionIDs []string `toml:"subscription_ids"`
	TenantID        string   `toml:"tenant_id"`

	// Lucidchart API access.
	Lucid LucidConfig `toml:"lucid"`

	// Output settings.
	OutputFormat string `toml:"output_format"`
	DiagramType  string `toml:"diagram_type"`
	OutputDir    string `toml:"output_dir"`
	ProjectName  string `toml:"project_name"`

	// IconsDir is the local Azure icon library directory.
	IconsDir string `toml:"icons_dir"`

	// Discovery filters.
	Filter discovery.ResourceFilter `toml:"filter"`

	// Query result cache.
	Cache CacheConfig `toml:"cache"`

	// Snapshot and graph persistence.
	Store StoreConfig `toml:"store"`
}

// LucidConfig holds Lucidchart API credentials.
type LucidConfig struct {
	APIKey       string `toml:"api_key"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
}

// CacheConfig selects and configures the query cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none". Defaults to "file".
	Backend string `toml:"backend"`

	// Dir is the cache directory for the file backend.
	// Empty means the platform cache dir.
	Dir string `toml:"dir"`

	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// RedisPassword authenticates against the redis backend.
	// Empty for unauthenticated instances.
	RedisPassword string `toml:"redis_password"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is "file" or "mongo". Defaults to "file".
	Backend string `toml:"backend"`

	// Dir is the base directory for the file backend.
	Dir string `toml:"dir"`

	// MongoURI is the connection string for the mongo backend.
	MongoURI string `toml:"mongo_uri"`

	// MongoDatabase is the database name for the mongo backend.
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		SubscriptionIDs: []string{"all"},
		Lucid: LucidConfig{
			BaseURL: "https://api.lucid.co",
		},
		OutputFormat: "lucidchart",
		DiagramType:  "all",
		OutputDir:    "./output",
		ProjectName:  "azure-project",
		IconsDir:     "./icons",
		Cache: CacheConfig{
			Backend: "file",
		},
		Store: StoreConfig{
			Backend: "file",
		},
	}
}

// Load reads a TOML config file over the defaults and then applies
// environment variable overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config file")
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config file")
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// FromEnv returns the defaults with environment variable overrides applied.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AZURE_SUBSCRIPTION_IDS"); v != "" {
		c.SubscriptionIDs = splitList(v)
	}
	if v := os.Getenv("AZURE_TENANT_ID"); v != "" {
		c.TenantID = v
	}

	if v := os.Getenv("LUCIDCHART_API_KEY"); v != "" {
		c.Lucid.APIKey = v
	}
	if v := os.Getenv("LUCIDCHART_CLIENT_ID"); v != "" {
		c.Lucid.ClientID = v
	}
	if v := os.Getenv("LUCIDCHART_CLIENT_SECRET"); v != "" {
		c.Lucid.ClientSecret = v
	}
	if v := os.Getenv("LUCIDCHART_BASE_URL"); v != "" {
		c.Lucid.BaseURL = v
	}

	if v := os.Getenv("DEFAULT_OUTPUT_FORMAT"); v != "" {
		c.OutputFormat = v
	}
	if v := os.Getenv("DEFAULT_DIAGRAM_TYPE"); v != "" {
		c.DiagramType = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("PROJECT_NAME"); v != "" {
		c.ProjectName = v
	}
	if v := os.Getenv("ICONS_DIR"); v != "" {
		c.IconsDir = v
	}

	if v := os.Getenv("INCLUDE_RESOURCE_GROUPS"); v != "" {
		c.Filter.IncludeResourceGroups = splitList(v)
	}
	if v := os.Getenv("EXCLUDE_RESOURCE_TYPES"); v != "" {
		c.Filter.ExcludeResourceTypes = splitList(v)
	}
	if v := os.Getenv("FILTER_TAG"); v != "" {
		if key, value, ok := strings.Cut(v, "="); ok {
			c.Filter.FilterTags = map[string]string{
				strings.TrimSpace(key): strings.TrimSpace(value),
			}
		}
	}

	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Store.Backend = "mongo"
		c.Store.MongoURI = v
	}
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
