package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.SubscriptionIDs) != 1 || cfg.SubscriptionIDs[0] != "all" {
		t.Errorf("SubscriptionIDs = %v, want [all]", cfg.SubscriptionIDs)
	}
	if cfg.OutputFormat != "lucidchart" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "lucidchart")
	}
	if cfg.DiagramType != "all" {
		t.Errorf("DiagramType = %q, want %q", cfg.DiagramType, "all")
	}
	if cfg.OutputDir != "./output" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "./output")
	}
	if cfg.ProjectName != "azure-project" {
		t.Errorf("ProjectName = %q, want %q", cfg.ProjectName, "azure-project")
	}
	if cfg.Lucid.BaseURL != "https://api.lucid.co" {
		t.Errorf("Lucid.BaseURL = %q, want %q", cfg.Lucid.BaseURL, "https://api.lucid.co")
	}
	if cfg.Cache.Backend != "file" || cfg.Store.Backend != "file" {
		t.Errorf("backends = %q/%q, want file/file", cfg.Cache.Backend, cfg.Store.Backend)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AZURE_SUBSCRIPTION_IDS", "sub-1, sub-2")
	t.Setenv("AZURE_TENANT_ID", "tenant-1")
	t.Setenv("INCLUDE_RESOURCE_GROUPS", "rg-prod,rg-shared")
	t.Setenv("EXCLUDE_RESOURCE_TYPES", "microsoft.insights/components")
	t.Setenv("FILTER_TAG", "env = production")
	t.Setenv("DEFAULT_OUTPUT_FORMAT", "drawio")
	t.Setenv("DEFAULT_DIAGRAM_TYPE", "network")
	t.Setenv("OUTPUT_DIR", "/tmp/diagrams")
	t.Setenv("PROJECT_NAME", "contoso")
	t.Setenv("LUCIDCHART_API_KEY", "key-123")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache.internal:6379")
	t.Setenv("REDIS_PASSWORD", "s3cret")

	cfg := FromEnv()

	if len(cfg.SubscriptionIDs) != 2 || cfg.SubscriptionIDs[0] != "sub-1" || cfg.SubscriptionIDs[1] != "sub-2" {
		t.Errorf("SubscriptionIDs = %v, want [sub-1 sub-2]", cfg.SubscriptionIDs)
	}
	if cfg.TenantID != "tenant-1" {
		t.Errorf("TenantID = %q, want %q", cfg.TenantID, "tenant-1")
	}
	if len(cfg.Filter.IncludeResourceGroups) != 2 {
		t.Errorf("IncludeResourceGroups = %v, want 2 entries", cfg.Filter.IncludeResourceGroups)
	}
	if len(cfg.Filter.ExcludeResourceTypes) != 1 {
		t.Errorf("ExcludeResourceTypes = %v, want 1 entry", cfg.Filter.ExcludeResourceTypes)
	}
	if got := cfg.Filter.FilterTags["env"]; got != "production" {
		t.Errorf("FilterTags[env] = %q, want %q", got, "production")
	}
	if cfg.OutputFormat != "drawio" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "drawio")
	}
	if cfg.DiagramType != "network" {
		t.Errorf("DiagramType = %q, want %q", cfg.DiagramType, "network")
	}
	if cfg.OutputDir != "/tmp/diagrams" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/tmp/diagrams")
	}
	if cfg.ProjectName != "contoso" {
		t.Errorf("ProjectName = %q, want %q", cfg.ProjectName, "contoso")
	}
	if cfg.Lucid.APIKey != "key-123" {
		t.Errorf("Lucid.APIKey = %q, want %q", cfg.Lucid.APIKey, "key-123")
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache.internal:6379" {
		t.Errorf("cache = %q@%q, want redis@cache.internal:6379", cfg.Cache.Backend, cfg.Cache.RedisAddr)
	}
	if cfg.Cache.RedisPassword != "s3cret" {
		t.Errorf("Cache.RedisPassword = %q, want %q", cfg.Cache.RedisPassword, "s3cret")
	}
}

func TestFilterTagWithoutEqualsIgnored(t *testing.T) {
	t.Setenv("FILTER_TAG", "production")

	cfg := FromEnv()
	if len(cfg.Filter.FilterTags) != 0 {
		t.Errorf("FilterTags = %v, want empty", cfg.Filter.FilterTags)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
subscription_ids = ["sub-a"]
output_format = "mermaid"
project_name = "fabrikam"

[lucid]
api_key = "toml-key"

[filter]
include_resource_groups = ["rg-core"]

[cache]
backend = "redis"
redis_addr = "localhost:6379"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.SubscriptionIDs) != 1 || cfg.SubscriptionIDs[0] != "sub-a" {
		t.Errorf("SubscriptionIDs = %v, want [sub-a]", cfg.SubscriptionIDs)
	}
	if cfg.OutputFormat != "mermaid" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "mermaid")
	}
	if cfg.ProjectName != "fabrikam" {
		t.Errorf("ProjectName = %q, want %q", cfg.ProjectName, "fabrikam")
	}
	if cfg.Lucid.APIKey != "toml-key" {
		t.Errorf("Lucid.APIKey = %q, want %q", cfg.Lucid.APIKey, "toml-key")
	}
	if len(cfg.Filter.IncludeResourceGroups) != 1 {
		t.Errorf("IncludeResourceGroups = %v, want 1 entry", cfg.Filter.IncludeResourceGroups)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v, want redis backend", cfg.Cache)
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "mongo")
	}

	// Unset fields keep defaults.
	if cfg.DiagramType != "all" {
		t.Errorf("DiagramType = %q, want default %q", cfg.DiagramType, "all")
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`project_name = "from-toml"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROJECT_NAME", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProjectName != "from-env" {
		t.Errorf("ProjectName = %q, want env override %q", cfg.ProjectName, "from-env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() on missing file should return an error")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace", " a , b ", []string{"a", "b"}},
		{"empty entries", "a,,b,", []string{"a", "b"}},
		{"single", "all", []string{"all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("splitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
