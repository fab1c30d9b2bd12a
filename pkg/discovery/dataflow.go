package discovery

import (
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

// =============================================================================
// DataFlow
// =============================================================================

// Flow types classifying how a data flow was derived.
const (
	FlowNetwork         = "network"
	FlowPrivateLink     = "private_link"
	FlowServiceEndpoint = "service_endpoint"
	FlowDiagnostic      = "diagnostic"
)

// DataFlow is a directed traffic or connectivity path between two endpoints.
// Endpoints are display strings (resource names or subnet paths), not
// resource IDs: flows are derived for human consumption.
type DataFlow struct {
	Source        string `json:"source" bson:"source"`
	Destination   string `json:"destination" bson:"destination"`
	Protocol      string `json:"protocol,omitempty" bson:"protocol,omitempty"`
	Port          string `json:"port,omitempty" bson:"port,omitempty"`
	Label         string `json:"label,omitempty" bson:"label,omitempty"`
	FlowType      string `json:"flow_type" bson:"flow_type"`
	Direction     string `json:"direction,omitempty" bson:"direction,omitempty"`
	Access        string `json:"access,omitempty" bson:"access,omitempty"`
	Priority      int    `json:"priority,omitempty" bson:"priority,omitempty"`
	SourceIP      string `json:"source_ip,omitempty" bson:"source_ip,omitempty"`
	DestinationIP string `json:"destination_ip,omitempty" bson:"destination_ip,omitempty"`
}

// IsDeny reports whether this flow came from a deny rule.
func (f DataFlow) IsDeny() bool {
	return strings.EqualFold(f.Access, "deny")
}

// FlowLabel derives a display label from protocol and port: uppercase
// protocol then port, space-joined, with wildcard "*" values omitted. Both
// wildcard or absent yields "".
func FlowLabel(protocol, port string) string {
	var parts []string
	if protocol != "" && protocol != "*" {
		parts = append(parts, strings.ToUpper(protocol))
	}
	if port != "" && port != "*" {
		parts = append(parts, port)
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// NSGRule
// =============================================================================

// NSGRule is one flattened security rule as returned by the NSG rule query.
type NSGRule struct {
	NSGID                    string `json:"nsgId"`
	NSGName                  string `json:"nsgName"`
	RuleName                 string `json:"ruleName"`
	Direction                string `json:"direction"`
	Access                   string `json:"access"`
	Protocol                 string `json:"protocol"`
	SourceAddressPrefix      string `json:"sourceAddressPrefix"`
	SourcePortRange          string `json:"sourcePortRange"`
	DestinationAddressPrefix string `json:"destinationAddressPrefix"`
	DestinationPortRange     string `json:"destinationPortRange"`
	Priority                 int    `json:"priority"`
}

// =============================================================================
// Derivation
// =============================================================================

// DeriveDataFlows synthesizes directional data flows from four independent
// sources: NSG rules, private-link connections, VNet service endpoints, and
// diagnostic-setting sinks. All four run unconditionally; results are
// concatenated in that order. The ordering is deterministic for a given
// input but is not a semantic contract.
func DeriveDataFlows(resources []azure.Resource, relationships []Relationship, rules []NSGRule) []DataFlow {
	var flows []DataFlow
	flows = append(flows, flowsFromNSGRules(rules)...)
	flows = append(flows, flowsFromPrivateEndpoints(resources, relationships)...)
	flows = append(flows, flowsFromServiceEndpoints(resources)...)
	flows = append(flows, flowsFromDiagnosticSettings(resources)...)
	return flows
}

// flowsFromNSGRules turns security rules into network flows. Rules whose
// source AND destination are both the wildcard "*" are dropped as too broad
// to be informative. Deny rules are kept as distinguishable flows (Access
// carries the verdict); renderers style them differently.
func flowsFromNSGRules(rules []NSGRule) []DataFlow {
	var flows []DataFlow

	for _, rule := range rules {
		source := orWildcard(rule.SourceAddressPrefix)
		destination := orWildcard(rule.DestinationAddressPrefix)
		if source == "*" && destination == "*" {
			continue
		}

		access := strings.ToLower(rule.Access)
		if access != "allow" && access != "deny" {
			continue
		}

		protocol := orWildcard(rule.Protocol)
		port := orWildcard(rule.DestinationPortRange)

		flow := DataFlow{
			Protocol:      protocol,
			Port:          port,
			Label:         FlowLabel(protocol, port),
			FlowType:      FlowNetwork,
			Direction:     rule.Direction,
			Access:        rule.Access,
			Priority:      rule.Priority,
			SourceIP:      source,
			DestinationIP: destination,
		}

		switch strings.ToLower(rule.Direction) {
		case "inbound":
			flow.Source = source
			flow.Destination = rule.NSGName + " (" + destination + ")"
		case "outbound":
			flow.Source = rule.NSGName + " (" + source + ")"
			flow.Destination = destination
		default:
			continue
		}
		flows = append(flows, flow)
	}
	return flows
}

// flowsFromPrivateEndpoints emits one TCP/443 flow per private endpoint with
// a resolved target service, from the endpoint's subnet (or "VNet" when the
// subnet is unknown) to the target service's display name.
func flowsFromPrivateEndpoints(resources []azure.Resource, relationships []Relationship) []DataFlow {
	peToSubnet := make(map[string]string)
	names := make(map[string]string)
	for _, r := range resources {
		if id := r.ID(); id != "" {
			names[id] = r.Name()
		}
	}

	// Collect the two relationship views first; emission follows the
	// private_link_to relationship order so output stays deterministic.
	var links []Relationship
	for _, rel := range relationships {
		switch {
		case rel.Type == RelPrivateLinkTo:
			links = append(links, rel)
		case rel.Type == RelInSubnet && strings.Contains(rel.SourceID, "/privateendpoints/"):
			peToSubnet[rel.SourceID] = rel.TargetID
		}
	}

	var flows []DataFlow
	for _, link := range links {
		source := "VNet"
		if subnetID := peToSubnet[link.SourceID]; subnetID != "" {
			source = azure.NameFromID(subnetID)
		}
		target := names[link.TargetID]
		if target == "" {
			target = azure.NameFromID(link.TargetID)
		}
		flows = append(flows, DataFlow{
			Source:      source,
			Destination: target,
			Protocol:    "TCP",
			Port:        "443",
			Label:       "Private Link -> " + target,
			FlowType:    FlowPrivateLink,
		})
	}
	return flows
}

// flowsFromServiceEndpoints emits one flow per serviceEndpoints entry on
// each VNet subnet, from "<vnet>/<subnet>" to the service name.
func flowsFromServiceEndpoints(resources []azure.Resource) []DataFlow {
	var flows []DataFlow

	for _, resource := range resources {
		if resource.Type() != azure.TypeVirtualNetwork {
			continue
		}
		vnetName := resource.Name()

		for _, raw := range azure.GetSlice(resource.Properties(), "subnets") {
			subnet, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			subnetName := azure.GetString(subnet, "name")

			for _, epRaw := range azure.GetSlice(subnet, "properties", "serviceEndpoints") {
				ep, ok := epRaw.(map[string]any)
				if !ok {
					continue
				}
				service := azure.GetString(ep, "service")
				if service == "" {
					continue
				}
				flows = append(flows, DataFlow{
					Source:      vnetName + "/" + subnetName,
					Destination: service,
					Protocol:    "TCP",
					Label:       "Service Endpoint: " + service,
					FlowType:    FlowServiceEndpoint,
				})
			}
		}
	}
	return flows
}

// diagnosticSinks maps the sink reference key inside a diagnostic setting to
// its fixed flow label.
var diagnosticSinks = []struct {
	key   string
	label string
}{
	{"workspaceId", "Diagnostics -> Log Analytics"},
	{"storageAccountId", "Diagnostics -> Storage"},
	{"eventHubAuthorizationRuleId", "Diagnostics -> Event Hub"},
}

// flowsFromDiagnosticSettings emits one flow per diagnostic sink reference
// embedded in a resource's properties. Diagnostic settings are often absent
// from Resource Graph output; this only covers resources that inline them.
func flowsFromDiagnosticSettings(resources []azure.Resource) []DataFlow {
	var flows []DataFlow

	for _, resource := range resources {
		for _, raw := range azure.GetSlice(resource.Properties(), "diagnosticSettings") {
			setting, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			props := azure.GetMap(setting, "properties")
			for _, sink := range diagnosticSinks {
				sinkID := azure.GetString(props, sink.key)
				if sinkID == "" {
					continue
				}
				flows = append(flows, DataFlow{
					Source:      resource.Name(),
					Destination: azure.NameFromID(sinkID),
					Label:       sink.label,
					FlowType:    FlowDiagnostic,
				})
			}
		}
	}
	return flows
}

func orWildcard(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
