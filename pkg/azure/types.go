package azure

import "strings"

// =============================================================================
// Resource Categories
// =============================================================================

// Category is the visual classification of a resource type.
type Category string

// Visual categories for Azure resources.
const (
	CategoryCompute     Category = "compute"
	CategoryNetworking  Category = "networking"
	CategoryData        Category = "data"
	CategoryStorage     Category = "storage"
	CategorySecurity    Category = "security"
	CategoryIntegration Category = "integration"
	CategoryMonitoring  Category = "monitoring"
	CategoryIdentity    Category = "identity"
	CategoryContainer   Category = "container"
	CategoryOther       Category = "other"
)

// Well-known resource type strings referenced throughout discovery and
// templates. Always compared lower-cased.
const (
	TypeVirtualMachine    = "microsoft.compute/virtualmachines"
	TypeVMScaleSet        = "microsoft.compute/virtualmachinescalesets"
	TypeAppService        = "microsoft.web/sites"
	TypeAppServicePlan    = "microsoft.web/serverfarms"
	TypeAKSCluster        = "microsoft.containerservice/managedclusters"
	TypeVirtualNetwork    = "microsoft.network/virtualnetworks"
	TypeSubnet            = "microsoft.network/virtualnetworks/subnets"
	TypeNetworkIface      = "microsoft.network/networkinterfaces"
	TypePublicIP          = "microsoft.network/publicipaddresses"
	TypeLoadBalancer      = "microsoft.network/loadbalancers"
	TypeAppGateway        = "microsoft.network/applicationgateways"
	TypeFirewall          = "microsoft.network/azurefirewalls"
	TypeNSG               = "microsoft.network/networksecuritygroups"
	TypePrivateEndpoint   = "microsoft.network/privateendpoints"
	TypeVNetGateway       = "microsoft.network/virtualnetworkgateways"
	TypeRouteTable        = "microsoft.network/routetables"
	TypeContainerGroup    = "microsoft.containerinstance/containergroups"
	TypeContainerRegistry = "microsoft.containerregistry/registries"
	TypeSQLServer         = "microsoft.sql/servers"
	TypeSQLDatabase       = "microsoft.sql/servers/databases"
	TypeCosmosAccount     = "microsoft.documentdb/databaseaccounts"
	TypeMySQLServer       = "microsoft.dbformysql/flexibleservers"
	TypePostgresServer    = "microsoft.dbforpostgresql/flexibleservers"
	TypeRedisCache        = "microsoft.cache/redis"
	TypeStorageAccount    = "microsoft.storage/storageaccounts"
	TypeKeyVault          = "microsoft.keyvault/vaults"
	TypeLogAnalytics      = "microsoft.operationalinsights/workspaces"
)

// =============================================================================
// Resource Metadata Registry
// =============================================================================

// Meta carries the visual and categorical metadata for a resource type.
type Meta struct {
	DisplayName   string
	ShortName     string
	Category      Category
	IconFile      string // Filename within the icon library directory
	FillColor     string
	StrokeColor   string
	IsContainer   bool // Rendered as a group rather than a node
	DefaultWidth  float64
	DefaultHeight float64
}

// DefaultMeta is used for resource types not present in the registry.
var DefaultMeta = Meta{
	DisplayName:   "Azure Resource",
	ShortName:     "Res",
	Category:      CategoryOther,
	IconFile:      "generic.svg",
	FillColor:     "#B4B4B4",
	StrokeColor:   "#808080",
	DefaultWidth:  120,
	DefaultHeight: 80,
}

// MetaFor returns the visual metadata for a resource type, falling back to
// DefaultMeta for unknown types. Lookup is case-insensitive via the
// lower-cased registry keys.
func MetaFor(resourceType string) Meta {
	if m, ok := registry[strings.ToLower(resourceType)]; ok {
		return m
	}
	return DefaultMeta
}

// IsContainerType reports whether a resource type renders as a container.
func IsContainerType(resourceType string) bool {
	return MetaFor(resourceType).IsContainer
}

func meta(display, short string, cat Category, icon string, opts ...func(*Meta)) Meta {
	fill, stroke := categoryColors(cat)
	m := Meta{
		DisplayName:   display,
		ShortName:     short,
		Category:      cat,
		IconFile:      icon,
		FillColor:     fill,
		StrokeColor:   stroke,
		DefaultWidth:  120,
		DefaultHeight: 80,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func container(w, h float64) func(*Meta) {
	return func(m *Meta) {
		m.IsContainer = true
		m.DefaultWidth = w
		m.DefaultHeight = h
	}
}

func sized(w, h float64) func(*Meta) {
	return func(m *Meta) {
		m.DefaultWidth = w
		m.DefaultHeight = h
	}
}

func colored(fill, stroke string) func(*Meta) {
	return func(m *Meta) {
		m.FillColor = fill
		m.StrokeColor = stroke
	}
}

// categoryColors returns the (fill, stroke) brand colors for a category.
func categoryColors(cat Category) (string, string) {
	switch cat {
	case CategoryCompute:
		return "#0078D4", "#005A9E"
	case CategoryNetworking:
		return "#44B8B1", "#2D8A85"
	case CategoryData:
		return "#E8590C", "#C44B0A"
	case CategoryStorage:
		return "#0063B1", "#004E8C"
	case CategorySecurity:
		return "#E3008C", "#B8006F"
	case CategoryIntegration:
		return "#8661C5", "#6B4FA0"
	case CategoryMonitoring:
		return "#00B7C3", "#009AA3"
	case CategoryIdentity:
		return "#FFB900", "#D69E00"
	case CategoryContainer:
		return "#E6E6E6", "#999999"
	default:
		return "#B4B4B4", "#808080"
	}
}

var registry = map[string]Meta{
	// Compute
	TypeVirtualMachine: meta("Virtual Machine", "VM", CategoryCompute, "vm.svg"),
	TypeVMScaleSet:     meta("VM Scale Set", "VMSS", CategoryCompute, "vmss.svg"),
	TypeAppService:     meta("App Service", "App", CategoryCompute, "app-service.svg"),
	TypeAppServicePlan: meta("App Service Plan", "ASP", CategoryCompute, "app-service-plan.svg", container(300, 200)),
	"microsoft.web/sites/functions": meta("Function App", "Func", CategoryCompute, "function-app.svg"),
	TypeAKSCluster:                  meta("AKS Cluster", "AKS", CategoryCompute, "aks.svg"),
	TypeContainerGroup:    meta("Container Instance", "ACI", CategoryCompute, "container-instance.svg"),
	TypeContainerRegistry: meta("Container Registry", "ACR", CategoryCompute, "container-registry.svg"),

	// Networking
	TypeVirtualNetwork: meta("Virtual Network", "VNet", CategoryNetworking, "vnet.svg", container(500, 400), colored("#CCEEFF", "#44B8B1")),
	TypeSubnet:         meta("Subnet", "Subnet", CategoryNetworking, "subnet.svg", container(300, 200), colored("#E8F5FF", "#44B8B1")),
	TypeNetworkIface:   meta("Network Interface", "NIC", CategoryNetworking, "nic.svg", sized(80, 60)),
	TypePublicIP:       meta("Public IP", "PIP", CategoryNetworking, "public-ip.svg"),
	TypeLoadBalancer:   meta("Load Balancer", "LB", CategoryNetworking, "load-balancer.svg"),
	TypeAppGateway:     meta("Application Gateway", "AppGW", CategoryNetworking, "app-gateway.svg"),
	TypeFirewall:       meta("Azure Firewall", "FW", CategoryNetworking, "firewall.svg"),
	TypeNSG:            meta("Network Security Group", "NSG", CategorySecurity, "nsg.svg"),
	TypePrivateEndpoint: meta("Private Endpoint", "PE", CategoryNetworking, "private-endpoint.svg"),
	TypeVNetGateway:     meta("VNet Gateway", "VPN GW", CategoryNetworking, "vpn-gateway.svg"),
	"microsoft.network/expressroutecircuits":   meta("ExpressRoute", "ER", CategoryNetworking, "expressroute.svg"),
	"microsoft.network/dnszones":               meta("DNS Zone", "DNS", CategoryNetworking, "dns-zone.svg"),
	"microsoft.network/trafficmanagerprofiles": meta("Traffic Manager", "TM", CategoryNetworking, "traffic-manager.svg"),
	"microsoft.network/frontdoors":             meta("Front Door", "AFD", CategoryNetworking, "front-door.svg"),
	TypeRouteTable:                             meta("Route Table", "UDR", CategoryNetworking, "route-table.svg"),

	// Data
	TypeSQLServer: meta("SQL Server", "SQL", CategoryData, "sql-server.svg"),
	TypeSQLDatabase:                              meta("SQL Database", "SQL DB", CategoryData, "sql-database.svg"),
	TypeCosmosAccount:                            meta("Cosmos DB", "Cosmos", CategoryData, "cosmos-db.svg"),
	TypeMySQLServer:                              meta("MySQL Flexible Server", "MySQL", CategoryData, "mysql.svg"),
	TypePostgresServer:                           meta("PostgreSQL Flexible Server", "PgSQL", CategoryData, "postgresql.svg"),
	TypeRedisCache:                               meta("Redis Cache", "Redis", CategoryData, "redis-cache.svg"),

	// Storage
	TypeStorageAccount: meta("Storage Account", "Storage", CategoryStorage, "storage-account.svg"),

	// Security
	TypeKeyVault: meta("Key Vault", "KV", CategorySecurity, "key-vault.svg"),
	"microsoft.network/applicationgatewaywebapplicationfirewallpolicies": meta("WAF Policy", "WAF", CategorySecurity, "waf.svg"),

	// Integration
	"microsoft.servicebus/namespaces":  meta("Service Bus", "SB", CategoryIntegration, "service-bus.svg"),
	"microsoft.eventhub/namespaces":    meta("Event Hub", "EH", CategoryIntegration, "event-hub.svg"),
	"microsoft.eventgrid/topics":       meta("Event Grid Topic", "EG", CategoryIntegration, "event-grid.svg"),
	"microsoft.apimanagement/service":  meta("API Management", "APIM", CategoryIntegration, "api-management.svg"),
	"microsoft.logic/workflows":        meta("Logic App", "Logic", CategoryIntegration, "logic-app.svg"),

	// Monitoring
	"microsoft.insights/components": meta("Application Insights", "AppIns", CategoryMonitoring, "app-insights.svg"),
	TypeLogAnalytics:                meta("Log Analytics", "LA", CategoryMonitoring, "log-analytics.svg"),

	// Identity
	"microsoft.managedidentity/userassignedidentities": meta("Managed Identity", "MI", CategoryIdentity, "managed-identity.svg"),
}
