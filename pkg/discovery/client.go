package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/cache"
	"github.com/rime13-coder/azure-diagram-generator/pkg/httputil"
)

// =============================================================================
// Client Setup
// =============================================================================

const (
	defaultBaseURL   = "https://management.azure.com"
	resourceGraphAPI = "/providers/Microsoft.ResourceGraph/resources?api-version=2021-03-01"
	pageSize         = 1000
)

// TokenSource supplies bearer tokens for the Azure management API.
// Implementations wrap whatever credential flow the caller has: CLI
// token, client secret, managed identity.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token. Useful for tests
// and for short-lived CLI invocations where the caller already holds one.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// EnvToken reads the token from an environment variable on every call,
// so a token rotated mid-run is picked up without restarting.
type EnvToken string

func (t EnvToken) Token(ctx context.Context) (string, error) {
	v := os.Getenv(string(t))
	if v == "" {
		return "", fmt.Errorf("environment variable %s is not set", string(t))
	}
	return v, nil
}

// ResourceFilter narrows a discovery run. Zero value means no filtering.
type ResourceFilter struct {
	IncludeResourceGroups []string          `json:"include_resource_groups,omitempty" toml:"include_resource_groups"`
	ExcludeResourceTypes  []string          `json:"exclude_resource_types,omitempty" toml:"exclude_resource_types"`
	FilterTags            map[string]string `json:"filter_tags,omitempty" toml:"filter_tags"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at a different management endpoint
// (sovereign clouds, test servers).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithCache caches query result pages under the given TTL.
func WithCache(store cache.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// Client queries the Azure Resource Graph REST API. Subscriptions scope
// every query; an empty list queries everything the token can see.
type Client struct {
	http          *http.Client
	baseURL       string
	tokens        TokenSource
	subscriptions []string
	cache         cache.Cache
	cacheTTL      time.Duration
}

// NewClient creates a Resource Graph client scoped to the given
// subscriptions. The literal subscription "all" (or an empty list) widens
// the scope to every subscription the token can access.
func NewClient(tokens TokenSource, subscriptions []string, opts ...ClientOption) *Client {
	scoped := make([]string, 0, len(subscriptions))
	for _, s := range subscriptions {
		if strings.EqualFold(s, "all") {
			scoped = nil
			break
		}
		scoped = append(scoped, s)
	}

	c := &Client{
		http:          httputil.NewHTTPClient(),
		baseURL:       defaultBaseURL,
		tokens:        tokens,
		subscriptions: scoped,
		cache:         cache.NewNullCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Query Execution
// =============================================================================

type queryRequest struct {
	Subscriptions []string     `json:"subscriptions,omitempty"`
	Query         string       `json:"query"`
	Options       queryOptions `json:"options"`
}

type queryOptions struct {
	ResultFormat string `json:"resultFormat"`
	Top          int    `json:"$top"`
	SkipToken    string `json:"$skipToken,omitempty"`
}

type queryResponse struct {
	TotalRecords int64             `json:"totalRecords"`
	Count        int64             `json:"count"`
	Data         []json.RawMessage `json:"data"`
	SkipToken    string            `json:"$skipToken"`
}

// Query runs one KQL query with skip-token paging and returns all rows.
// Full result sets are cached by (query, scope) when a cache is configured.
func (c *Client) Query(ctx context.Context, kql string) ([]json.RawMessage, error) {
	key := cache.QueryKey(kql, c.subscriptions)
	if data, ok, _ := c.cache.Get(ctx, key); ok {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
	}

	var rows []json.RawMessage
	skipToken := ""
	for {
		req := queryRequest{
			Subscriptions: c.subscriptions,
			Query:         kql,
			Options: queryOptions{
				ResultFormat: "objectArray",
				Top:          pageSize,
				SkipToken:    skipToken,
			},
		}

		var resp queryResponse
		err := httputil.RetryWithBackoff(ctx, func() error {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return fmt.Errorf("acquire token: %w", err)
			}
			headers := map[string]string{"Authorization": "Bearer " + token}
			resp = queryResponse{}
			return httputil.PostJSON(ctx, c.http, c.baseURL+resourceGraphAPI, headers, req, &resp)
		})
		if err != nil {
			return nil, fmt.Errorf("resource graph query: %w", err)
		}

		rows = append(rows, resp.Data...)
		skipToken = resp.SkipToken
		if skipToken == "" {
			break
		}
	}

	if data, err := json.Marshal(rows); err == nil {
		_ = c.cache.Set(ctx, key, data, c.cacheTTL)
	}
	return rows, nil
}

// queryResources runs kql and decodes each row into a Resource.
func (c *Client) queryResources(ctx context.Context, kql string) ([]azure.Resource, error) {
	rows, err := c.Query(ctx, kql)
	if err != nil {
		return nil, err
	}
	resources := make([]azure.Resource, 0, len(rows))
	for _, row := range rows {
		var r azure.Resource
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// =============================================================================
// Discovery Queries
// =============================================================================

// Resources discovers all resources in scope, optionally filtered by
// resource group, type, and tags.
func (c *Client) Resources(ctx context.Context, filter ResourceFilter) ([]azure.Resource, error) {
	kql := "Resources"
	var where []string

	if len(filter.IncludeResourceGroups) > 0 {
		quoted := make([]string, len(filter.IncludeResourceGroups))
		for i, rg := range filter.IncludeResourceGroups {
			quoted[i] = "'" + rg + "'"
		}
		where = append(where, "resourceGroup in~ ("+strings.Join(quoted, ", ")+")")
	}
	for _, rtype := range filter.ExcludeResourceTypes {
		where = append(where, "type !~ '"+rtype+"'")
	}

	// Map iteration is unordered; sort tag keys so the KQL text (and
	// therefore the cache key) is stable.
	tagKeys := make([]string, 0, len(filter.FilterTags))
	for key := range filter.FilterTags {
		tagKeys = append(tagKeys, key)
	}
	sort.Strings(tagKeys)
	for _, key := range tagKeys {
		where = append(where, fmt.Sprintf("tags['%s'] == '%s'", key, filter.FilterTags[key]))
	}

	if len(where) > 0 {
		kql += " | where " + strings.Join(where, " and ")
	}
	kql += " | project id, name, type, location, resourceGroup, subscriptionId, tags, properties, sku, kind"

	return c.queryResources(ctx, kql)
}

// ResourceGroups discovers all resource groups in scope.
func (c *Client) ResourceGroups(ctx context.Context) ([]azure.Resource, error) {
	return c.queryResources(ctx,
		"ResourceContainers "+
			"| where type =~ 'microsoft.resources/subscriptions/resourcegroups' "+
			"| project id, name, location, subscriptionId, tags, properties")
}

// Subscriptions discovers subscription metadata in scope.
func (c *Client) Subscriptions(ctx context.Context) ([]azure.Resource, error) {
	return c.queryResources(ctx,
		"ResourceContainers "+
			"| where type =~ 'microsoft.resources/subscriptions' "+
			"| project id, name, subscriptionId, properties")
}

// resourcesByType runs one per-type query per entry and keys results by
// the entry's short name.
func (c *Client) resourcesByType(ctx context.Context, types map[string]string, extraColumns string) (map[string][]azure.Resource, error) {
	results := make(map[string][]azure.Resource, len(types))
	for key, rtype := range types {
		kql := "Resources | where type =~ '" + rtype + "' " +
			"| project id, name, type, location, resourceGroup, subscriptionId, properties" + extraColumns
		resources, err := c.queryResources(ctx, kql)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", key, err)
		}
		results[key] = resources
	}
	return results, nil
}

// NetworkResources discovers network resources keyed by short type name:
// vnets, subnets, nsgs, nics, public_ips, load_balancers, app_gateways,
// firewalls, private_endpoints, route_tables, vnet_gateways.
func (c *Client) NetworkResources(ctx context.Context) (map[string][]azure.Resource, error) {
	return c.resourcesByType(ctx, map[string]string{
		"vnets":             azure.TypeVirtualNetwork,
		"subnets":           azure.TypeSubnet,
		"nsgs":              azure.TypeNSG,
		"nics":              azure.TypeNetworkIface,
		"public_ips":        azure.TypePublicIP,
		"load_balancers":    azure.TypeLoadBalancer,
		"app_gateways":      azure.TypeAppGateway,
		"firewalls":         azure.TypeFirewall,
		"private_endpoints": azure.TypePrivateEndpoint,
		"route_tables":      azure.TypeRouteTable,
		"vnet_gateways":     azure.TypeVNetGateway,
	}, "")
}

// ComputeResources discovers compute resources keyed by short type name.
func (c *Client) ComputeResources(ctx context.Context) (map[string][]azure.Resource, error) {
	return c.resourcesByType(ctx, map[string]string{
		"vms":                  azure.TypeVirtualMachine,
		"vmss":                 azure.TypeVMScaleSet,
		"app_services":         azure.TypeAppService,
		"app_service_plans":    azure.TypeAppServicePlan,
		"aks_clusters":         azure.TypeAKSCluster,
		"container_instances":  azure.TypeContainerGroup,
		"container_registries": azure.TypeContainerRegistry,
	}, ", sku, kind")
}

// DataResources discovers data and database resources keyed by short
// type name.
func (c *Client) DataResources(ctx context.Context) (map[string][]azure.Resource, error) {
	return c.resourcesByType(ctx, map[string]string{
		"sql_servers":        azure.TypeSQLServer,
		"sql_databases":      azure.TypeSQLDatabase,
		"cosmos_accounts":    azure.TypeCosmosAccount,
		"redis_caches":       azure.TypeRedisCache,
		"storage_accounts":   azure.TypeStorageAccount,
		"mysql_servers":      azure.TypeMySQLServer,
		"postgresql_servers": azure.TypePostgresServer,
	}, ", sku, kind")
}

// VNetPeering is one expanded peering row from the peering query.
type VNetPeering struct {
	VNetID       string `json:"vnetId"`
	VNetName     string `json:"vnetName"`
	PeeringName  string `json:"peeringName"`
	RemoteVNetID string `json:"remoteVnetId"`
	PeeringState string `json:"peeringState"`
}

// VNetPeerings discovers all VNet peerings, one row per peering.
func (c *Client) VNetPeerings(ctx context.Context) ([]VNetPeering, error) {
	rows, err := c.Query(ctx,
		"Resources "+
			"| where type =~ 'microsoft.network/virtualnetworks' "+
			"| mv-expand peering = properties.virtualNetworkPeerings "+
			"| project vnetId=id, vnetName=name, peeringName=peering.name, "+
			"remoteVnetId=peering.properties.remoteVirtualNetwork.id, "+
			"peeringState=peering.properties.peeringState")
	if err != nil {
		return nil, err
	}
	peerings := make([]VNetPeering, 0, len(rows))
	for _, row := range rows {
		var p VNetPeering
		if err := json.Unmarshal(row, &p); err != nil {
			continue
		}
		peerings = append(peerings, p)
	}
	return peerings, nil
}

// NSGRules discovers flattened NSG security rules for data-flow analysis.
func (c *Client) NSGRules(ctx context.Context) ([]NSGRule, error) {
	rows, err := c.Query(ctx,
		"Resources "+
			"| where type =~ 'microsoft.network/networksecuritygroups' "+
			"| mv-expand rule = properties.securityRules "+
			"| project nsgId=id, nsgName=name, resourceGroup, "+
			"ruleName=rule.name, "+
			"direction=rule.properties.direction, "+
			"access=rule.properties.access, "+
			"protocol=rule.properties.protocol, "+
			"sourceAddressPrefix=rule.properties.sourceAddressPrefix, "+
			"sourcePortRange=rule.properties.sourcePortRange, "+
			"destinationAddressPrefix=rule.properties.destinationAddressPrefix, "+
			"destinationPortRange=rule.properties.destinationPortRange, "+
			"priority=rule.properties.priority")
	if err != nil {
		return nil, err
	}
	rules := make([]NSGRule, 0, len(rows))
	for _, row := range rows {
		var r NSGRule
		if err := json.Unmarshal(row, &r); err != nil {
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}
