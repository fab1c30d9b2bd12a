// Package discovery infers structure from raw Azure resource records.
//
// Three concerns live here:
//
//   - Relationship inference: pattern-matching known property shapes per
//     resource type to emit typed directed edges between resources.
//   - IP resolution: reverse lookup tables so any resource's displayable IP
//     set can be computed without re-scanning the full resource list.
//   - Data-flow derivation: synthesizing directional traffic edges from NSG
//     rules, private endpoints, service endpoints, and diagnostic sinks.
//
// All of it operates on noisy, partially populated data: a missing or
// malformed property tree never fails a call, it just produces no edge.
//
// The Client in this package fetches the raw records from the Azure Resource
// Graph REST API; everything else is pure computation over its output.
package discovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

// =============================================================================
// Relationship
// =============================================================================

// Relationship types emitted by the inference engine.
const (
	RelHasNIC             = "has_nic"
	RelSecuredBy          = "secured_by"
	RelInSubnet           = "in_subnet"
	RelHasPublicIP        = "has_public_ip"
	RelPeeredWith         = "peered_with"
	RelAppliedTo          = "applied_to"
	RelLoadBalances       = "load_balances"
	RelRoutesTo           = "routes_to"
	RelPrivateLinkTo      = "private_link_to"
	RelVNetIntegrated     = "vnet_integrated"
	RelHostedOn           = "hosted_on"
	RelHasPrivateEndpoint = "has_private_endpoint"
	RelVNetRule           = "vnet_rule"
)

// Relationship is an inferred directed link between two resources.
// Identity is the (SourceID, TargetID, Type) triple; Label is display
// metadata only and does not participate in equality.
type Relationship struct {
	SourceID string `json:"source_id" bson:"source_id"`
	TargetID string `json:"target_id" bson:"target_id"`
	Type     string `json:"type" bson:"type"`
	Label    string `json:"label,omitempty" bson:"label,omitempty"`
}

// relKey is the identity triple used for set deduplication.
type relKey struct {
	source, target, typ string
}

func (r Relationship) key() relKey {
	return relKey{r.SourceID, r.TargetID, r.Type}
}

// newRel lower-cases both endpoint IDs so case differences in source data
// never create spurious duplicates.
func newRel(source, target, typ, label string) Relationship {
	return Relationship{
		SourceID: strings.ToLower(source),
		TargetID: strings.ToLower(target),
		Type:     typ,
		Label:    label,
	}
}

// =============================================================================
// Inference Engine
// =============================================================================

// extractor reads well-known property paths for one resource type and emits
// relationships for every cross-reference found. Extractors are pure
// functions of (resource ID, properties) and never fail: a missing path
// simply contributes nothing.
type extractor func(id string, props map[string]any) []Relationship

// extractors dispatches on the lower-cased resource type.
var extractors = map[string]extractor{
	azure.TypeVirtualMachine:  vmRelationships,
	azure.TypeNetworkIface:    nicRelationships,
	azure.TypeVirtualNetwork:  vnetRelationships,
	azure.TypeNSG:             nsgRelationships,
	azure.TypeLoadBalancer:    lbRelationships,
	azure.TypeAppGateway:      appGWRelationships,
	azure.TypePrivateEndpoint: privateEndpointRelationships,
	azure.TypeAppService:      appServiceRelationships,
	azure.TypeSQLServer:       dataResourceRelationships,
	azure.TypeCosmosAccount:   dataResourceRelationships,
	azure.TypeRedisCache:      dataResourceRelationships,
}

// InferRelationships examines each resource's type-specific property shape
// and returns the deduplicated set of typed directed edges between
// resources. Output is sorted by (source, target, type) so repeated runs
// over the same input are byte-identical.
func InferRelationships(resources []azure.Resource) []Relationship {
	seen := make(map[relKey]Relationship)

	for _, resource := range resources {
		extract, ok := extractors[resource.Type()]
		if !ok {
			continue
		}
		for _, rel := range extract(resource.ID(), resource.Properties()) {
			seen[rel.key()] = rel
		}
	}

	rels := make([]Relationship, 0, len(seen))
	for _, rel := range seen {
		rels = append(rels, rel)
	}
	SortRelationships(rels)
	return rels
}

// SortRelationships orders rels by (source, target, type) in place.
func SortRelationships(rels []Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Type < b.Type
	})
}

// =============================================================================
// Per-Type Extractors
// =============================================================================

// vmRelationships: VM -> NIC via networkProfile.networkInterfaces.
func vmRelationships(vmID string, props map[string]any) []Relationship {
	var rels []Relationship
	for _, ref := range azure.GetSlice(props, "networkProfile", "networkInterfaces") {
		if nicID := azure.RefID(ref); nicID != "" {
			rels = append(rels, newRel(vmID, nicID, RelHasNIC, "NIC"))
		}
	}
	return rels
}

// nicRelationships: NIC -> NSG, and per IP configuration NIC -> Subnet and
// NIC -> Public IP.
func nicRelationships(nicID string, props map[string]any) []Relationship {
	var rels []Relationship

	if nsgID := azure.RefID(azure.GetMap(props, "networkSecurityGroup")); nsgID != "" {
		rels = append(rels, newRel(nicID, nsgID, RelSecuredBy, "NSG"))
	}

	for _, raw := range azure.GetSlice(props, "ipConfigurations") {
		ipConfig, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ipProps := azure.GetMap(ipConfig, "properties")

		if subnetID := azure.RefID(azure.GetMap(ipProps, "subnet")); subnetID != "" {
			rels = append(rels, newRel(nicID, subnetID, RelInSubnet, "Subnet"))
		}
		if pipID := azure.RefID(azure.GetMap(ipProps, "publicIPAddress")); pipID != "" {
			rels = append(rels, newRel(nicID, pipID, RelHasPublicIP, "Public IP"))
		}
	}
	return rels
}

// vnetRelationships: VNet -> peered VNets via virtualNetworkPeerings.
func vnetRelationships(vnetID string, props map[string]any) []Relationship {
	var rels []Relationship
	for _, raw := range azure.GetSlice(props, "virtualNetworkPeerings") {
		peering, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		remote := azure.GetMap(peering, "properties", "remoteVirtualNetwork")
		if remoteID := azure.RefID(remote); remoteID != "" {
			rels = append(rels, newRel(vnetID, remoteID, RelPeeredWith, "VNet Peering"))
		}
	}
	return rels
}

// nsgRelationships: NSG -> subnets and NICs it is associated with, from the
// NSG's own back-reference lists.
func nsgRelationships(nsgID string, props map[string]any) []Relationship {
	var rels []Relationship
	for _, ref := range azure.GetSlice(props, "subnets") {
		if subnetID := azure.RefID(ref); subnetID != "" {
			rels = append(rels, newRel(nsgID, subnetID, RelAppliedTo, "NSG -> Subnet"))
		}
	}
	for _, ref := range azure.GetSlice(props, "networkInterfaces") {
		if nicID := azure.RefID(ref); nicID != "" {
			rels = append(rels, newRel(nsgID, nicID, RelAppliedTo, "NSG -> NIC"))
		}
	}
	return rels
}

// nicFromIPConfig recovers the owning NIC's resource ID from a backend
// IP-configuration reference of the form
// .../microsoft.network/networkinterfaces/<nic>/ipConfigurations/<name>.
var nicFromIPConfig = regexp.MustCompile(`(?i)^(.*/microsoft\.network/networkinterfaces/[^/]+)`)

// lbRelationships: LB -> backend NICs via backendAddressPools.
func lbRelationships(lbID string, props map[string]any) []Relationship {
	var rels []Relationship
	for _, raw := range azure.GetSlice(props, "backendAddressPools") {
		pool, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, ref := range azure.GetSlice(pool, "properties", "backendIPConfigurations") {
			ipConfigID := azure.RefID(ref)
			if ipConfigID == "" {
				continue
			}
			if m := nicFromIPConfig.FindStringSubmatch(ipConfigID); m != nil {
				rels = append(rels, newRel(lbID, m[1], RelLoadBalances, "Backend"))
			}
		}
	}
	return rels
}

// appGWRelationships: AppGW -> backend FQDNs and AppGW -> gateway subnet.
func appGWRelationships(gwID string, props map[string]any) []Relationship {
	var rels []Relationship
	for _, raw := range azure.GetSlice(props, "backendAddressPools") {
		pool, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, addrRaw := range azure.GetSlice(pool, "properties", "backendAddresses") {
			addr, ok := addrRaw.(map[string]any)
			if !ok {
				continue
			}
			if fqdn := azure.GetString(addr, "fqdn"); fqdn != "" {
				rels = append(rels, newRel(gwID, fqdn, RelRoutesTo, "Backend: "+fqdn))
			}
		}
	}
	for _, raw := range azure.GetSlice(props, "gatewayIPConfigurations") {
		gwIP, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		subnet := azure.GetMap(gwIP, "properties", "subnet")
		if subnetID := azure.RefID(subnet); subnetID != "" {
			rels = append(rels, newRel(gwID, subnetID, RelInSubnet, "AppGW Subnet"))
		}
	}
	return rels
}

// privateEndpointRelationships: PE -> target service from both automatic and
// manual connection lists, plus PE -> subnet.
func privateEndpointRelationships(peID string, props map[string]any) []Relationship {
	var rels []Relationship

	connections := azure.GetSlice(props, "privateLinkServiceConnections")
	connections = append(connections, azure.GetSlice(props, "manualPrivateLinkServiceConnections")...)
	for _, raw := range connections {
		conn, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		serviceID := azure.GetString(conn, "properties", "privateLinkServiceId")
		if serviceID != "" {
			rels = append(rels, newRel(peID, serviceID, RelPrivateLinkTo, "Private Link"))
		}
	}

	if subnetID := azure.RefID(azure.GetMap(props, "subnet")); subnetID != "" {
		rels = append(rels, newRel(peID, subnetID, RelInSubnet, "PE Subnet"))
	}
	return rels
}

// appServiceRelationships: site -> VNet-integration subnet and hosting plan.
func appServiceRelationships(appID string, props map[string]any) []Relationship {
	var rels []Relationship
	if subnetID := azure.GetString(props, "virtualNetworkSubnetId"); subnetID != "" {
		rels = append(rels, newRel(appID, subnetID, RelVNetIntegrated, "VNet Integration"))
	}
	if planID := azure.GetString(props, "serverFarmId"); planID != "" {
		rels = append(rels, newRel(appID, planID, RelHostedOn, "App Service Plan"))
	}
	return rels
}

// dataResourceRelationships: SQL/Cosmos/Redis -> private endpoints and VNet
// rule subnets. A VNet rule only counts when its reference actually targets
// a subnet path.
func dataResourceRelationships(resourceID string, props map[string]any) []Relationship {
	var rels []Relationship

	for _, raw := range azure.GetSlice(props, "privateEndpointConnections") {
		conn, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pe := azure.GetMap(conn, "properties", "privateEndpoint")
		if peID := azure.RefID(pe); peID != "" {
			rels = append(rels, newRel(resourceID, peID, RelHasPrivateEndpoint, "Private Endpoint"))
		}
	}

	for _, raw := range azure.GetSlice(props, "virtualNetworkRules") {
		rule, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		subnetID := azure.GetString(rule, "properties", "virtualNetworkSubnetId")
		if subnetID == "" {
			subnetID = azure.GetString(rule, "id")
		}
		if subnetID != "" && strings.Contains(strings.ToLower(subnetID), "/subnets/") {
			rels = append(rels, newRel(resourceID, subnetID, RelVNetRule, "VNet Service Endpoint"))
		}
	}
	return rels
}
