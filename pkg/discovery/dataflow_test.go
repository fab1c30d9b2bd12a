package discovery

import (
	"testing"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

func TestFlowLabel(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		port     string
		want     string
	}{
		{"ProtocolAndPort", "Tcp", "443", "TCP 443"},
		{"PortOnly", "*", "8080", "8080"},
		{"ProtocolOnly", "udp", "*", "UDP"},
		{"BothWildcard", "*", "*", ""},
		{"BothEmpty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlowLabel(tt.protocol, tt.port); got != tt.want {
				t.Errorf("FlowLabel(%q, %q) = %q, want %q", tt.protocol, tt.port, got, tt.want)
			}
		})
	}
}

func TestFlowsFromNSGRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  NSGRule
		want  int
		check func(t *testing.T, f DataFlow)
	}{
		{
			name: "InboundAllow",
			rule: NSGRule{
				NSGName:                  "web-nsg",
				RuleName:                 "allow-http",
				Direction:                "Inbound",
				Access:                   "Allow",
				Protocol:                 "Tcp",
				SourceAddressPrefix:      "Internet",
				DestinationAddressPrefix: "10.0.1.0/24",
				DestinationPortRange:     "80",
				Priority:                 100,
			},
			want: 1,
			check: func(t *testing.T, f DataFlow) {
				if f.Source != "Internet" {
					t.Errorf("source = %q, want Internet", f.Source)
				}
				if f.Destination != "web-nsg (10.0.1.0/24)" {
					t.Errorf("destination = %q, want web-nsg (10.0.1.0/24)", f.Destination)
				}
				if f.Label != "TCP 80" {
					t.Errorf("label = %q, want TCP 80", f.Label)
				}
				if f.IsDeny() {
					t.Error("allow rule flagged as deny")
				}
			},
		},
		{
			name: "OutboundAllow",
			rule: NSGRule{
				NSGName:                  "app-nsg",
				Direction:                "Outbound",
				Access:                   "Allow",
				Protocol:                 "Tcp",
				SourceAddressPrefix:      "10.0.2.0/24",
				DestinationAddressPrefix: "Sql",
				DestinationPortRange:     "1433",
			},
			want: 1,
			check: func(t *testing.T, f DataFlow) {
				if f.Source != "app-nsg (10.0.2.0/24)" {
					t.Errorf("source = %q, want app-nsg (10.0.2.0/24)", f.Source)
				}
				if f.Destination != "Sql" {
					t.Errorf("destination = %q, want Sql", f.Destination)
				}
			},
		},
		{
			name: "DenyIsKept",
			rule: NSGRule{
				NSGName:                  "web-nsg",
				Direction:                "Inbound",
				Access:                   "Deny",
				Protocol:                 "*",
				SourceAddressPrefix:      "Internet",
				DestinationAddressPrefix: "10.0.1.0/24",
				DestinationPortRange:     "22",
			},
			want: 1,
			check: func(t *testing.T, f DataFlow) {
				if !f.IsDeny() {
					t.Error("deny rule not flagged as deny")
				}
			},
		},
		{
			name: "WildcardBothDropped",
			rule: NSGRule{
				NSGName:                  "web-nsg",
				Direction:                "Inbound",
				Access:                   "Allow",
				SourceAddressPrefix:      "*",
				DestinationAddressPrefix: "*",
				DestinationPortRange:     "443",
			},
			want: 0,
		},
		{
			name: "WildcardBothDroppedEvenWhenDeny",
			rule: NSGRule{
				NSGName:                  "web-nsg",
				Direction:                "Outbound",
				Access:                   "Deny",
				SourceAddressPrefix:      "",
				DestinationAddressPrefix: "",
			},
			want: 0,
		},
		{
			name: "UnknownDirectionDropped",
			rule: NSGRule{
				NSGName:                  "web-nsg",
				Direction:                "Sideways",
				Access:                   "Allow",
				SourceAddressPrefix:      "Internet",
				DestinationAddressPrefix: "10.0.1.0/24",
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flows := flowsFromNSGRules([]NSGRule{tt.rule})
			if len(flows) != tt.want {
				t.Fatalf("flows = %d, want %d", len(flows), tt.want)
			}
			if tt.check != nil {
				tt.check(t, flows[0])
			}
		})
	}
}

func TestFlowsFromPrivateEndpoints(t *testing.T) {
	peID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/privateendpoints/sql-pe"
	sqlID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.sql/servers/db-01"

	resources := []azure.Resource{
		{"id": sqlID, "type": "Microsoft.Sql/servers", "name": "db-01"},
	}
	relationships := []Relationship{
		{SourceID: peID, TargetID: sqlID, Type: RelPrivateLinkTo},
		{SourceID: peID, TargetID: subnetID, Type: RelInSubnet},
	}

	flows := flowsFromPrivateEndpoints(resources, relationships)
	if len(flows) != 1 {
		t.Fatalf("flows = %d, want 1", len(flows))
	}
	f := flows[0]
	if f.Source != "web" {
		t.Errorf("source = %q, want subnet name web", f.Source)
	}
	if f.Destination != "db-01" {
		t.Errorf("destination = %q, want db-01", f.Destination)
	}
	if f.Protocol != "TCP" || f.Port != "443" {
		t.Errorf("protocol/port = %q/%q, want TCP/443", f.Protocol, f.Port)
	}
	if f.Label != "Private Link -> db-01" {
		t.Errorf("label = %q", f.Label)
	}
	if f.FlowType != FlowPrivateLink {
		t.Errorf("flow type = %q, want %q", f.FlowType, FlowPrivateLink)
	}
}

func TestFlowsFromPrivateEndpointsUnknownSubnet(t *testing.T) {
	peID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/privateendpoints/sql-pe"
	sqlID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.sql/servers/db-01"

	flows := flowsFromPrivateEndpoints(nil, []Relationship{
		{SourceID: peID, TargetID: sqlID, Type: RelPrivateLinkTo},
	})
	if len(flows) != 1 {
		t.Fatalf("flows = %d, want 1", len(flows))
	}
	if flows[0].Source != "VNet" {
		t.Errorf("source = %q, want VNet fallback", flows[0].Source)
	}
	if flows[0].Destination != "db-01" {
		t.Errorf("destination = %q, want name from ID", flows[0].Destination)
	}
}

func TestFlowsFromServiceEndpoints(t *testing.T) {
	vnet := azure.Resource{
		"id":   vnetID,
		"type": "Microsoft.Network/virtualNetworks",
		"name": "vnet1",
		"properties": map[string]any{
			"subnets": []any{
				map[string]any{
					"name": "web",
					"properties": map[string]any{
						"serviceEndpoints": []any{
							map[string]any{"service": "Microsoft.Sql"},
							map[string]any{"service": "Microsoft.Storage"},
							map[string]any{}, // no service name: skipped
						},
					},
				},
			},
		},
	}

	flows := flowsFromServiceEndpoints([]azure.Resource{vnet})
	if len(flows) != 2 {
		t.Fatalf("flows = %d, want 2", len(flows))
	}
	if flows[0].Source != "vnet1/web" {
		t.Errorf("source = %q, want vnet1/web", flows[0].Source)
	}
	if flows[0].Destination != "Microsoft.Sql" {
		t.Errorf("destination = %q, want Microsoft.Sql", flows[0].Destination)
	}
	if flows[0].Label != "Service Endpoint: Microsoft.Sql" {
		t.Errorf("label = %q", flows[0].Label)
	}
	if flows[1].Destination != "Microsoft.Storage" {
		t.Errorf("destination = %q, want Microsoft.Storage", flows[1].Destination)
	}
}

func TestFlowsFromDiagnosticSettings(t *testing.T) {
	workspaceID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.operationalinsights/workspaces/logs-01"
	storageID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.storage/storageaccounts/diag01"

	vm := azure.Resource{
		"id":   vmID,
		"type": "Microsoft.Compute/virtualMachines",
		"name": "web-01",
		"properties": map[string]any{
			"diagnosticSettings": []any{
				map[string]any{
					"properties": map[string]any{
						"workspaceId":      workspaceID,
						"storageAccountId": storageID,
					},
				},
			},
		},
	}

	flows := flowsFromDiagnosticSettings([]azure.Resource{vm})
	if len(flows) != 2 {
		t.Fatalf("flows = %d, want 2", len(flows))
	}
	if flows[0].Label != "Diagnostics -> Log Analytics" || flows[0].Destination != "logs-01" {
		t.Errorf("flow[0] = %+v", flows[0])
	}
	if flows[1].Label != "Diagnostics -> Storage" || flows[1].Destination != "diag01" {
		t.Errorf("flow[1] = %+v", flows[1])
	}
	for _, f := range flows {
		if f.Source != "web-01" {
			t.Errorf("source = %q, want web-01", f.Source)
		}
		if f.FlowType != FlowDiagnostic {
			t.Errorf("flow type = %q, want %q", f.FlowType, FlowDiagnostic)
		}
	}
}

func TestDeriveDataFlowsOrderAndEmptyInputs(t *testing.T) {
	if flows := DeriveDataFlows(nil, nil, nil); len(flows) != 0 {
		t.Errorf("flows = %d, want 0", len(flows))
	}

	peID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/privateendpoints/sql-pe"
	sqlID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.sql/servers/db-01"

	rules := []NSGRule{{
		NSGName:                  "web-nsg",
		Direction:                "Inbound",
		Access:                   "Allow",
		SourceAddressPrefix:      "Internet",
		DestinationAddressPrefix: "10.0.1.0/24",
	}}
	relationships := []Relationship{{SourceID: peID, TargetID: sqlID, Type: RelPrivateLinkTo}}

	flows := DeriveDataFlows(nil, relationships, rules)
	if len(flows) != 2 {
		t.Fatalf("flows = %d, want 2", len(flows))
	}
	if flows[0].FlowType != FlowNetwork {
		t.Errorf("flows[0] type = %q, want network first", flows[0].FlowType)
	}
	if flows[1].FlowType != FlowPrivateLink {
		t.Errorf("flows[1] type = %q, want private_link second", flows[1].FlowType)
	}
}
