package templates

// Shared fixtures: a small production-like estate with one VNet holding a
// web subnet (NSG-protected, public VM) and a db subnet (private endpoint
// to a SQL server), plus a hub VNet peered with it.

import (
	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

const (
	fixSubID = "11111111-aaaa-bbbb-cccc-222222222222"

	fixVNetID    = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/virtualnetworks/vnet-prod"
	fixHubVNetID = "/subscriptions/" + fixSubID + "/resourcegroups/rg-hub/providers/microsoft.network/virtualnetworks/vnet-hub"
	fixSubnetWeb = fixVNetID + "/subnets/web"
	fixSubnetDB  = fixVNetID + "/subnets/db"
	fixVMID      = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.compute/virtualmachines/vm-web"
	fixNICID     = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/networkinterfaces/nic-web"
	fixPIPID     = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/publicipaddresses/pip-web"
	fixNSGID     = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/networksecuritygroups/web-nsg"
	fixPEID      = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/privateendpoints/pe-db"
	fixSQLID     = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.sql/servers/sql-01"
	fixASPID     = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.web/serverfarms/plan-prod"
	fixAppFront  = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.web/sites/frontend-app"
	fixAppAPI    = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.web/sites/api-app"
	fixRTID      = "/subscriptions/" + fixSubID + "/resourcegroups/rg-web/providers/microsoft.network/routetables/rt-web"
)

func fixtureSnapshot() *discovery.Snapshot {
	snap := &discovery.Snapshot{
		Subscriptions: []azure.Resource{
			{"subscriptionId": fixSubID, "name": "Production"},
		},
		ResourceGroups: []azure.Resource{
			{"name": "rg-web", "location": "westeurope", "subscriptionId": fixSubID},
			{"name": "rg-hub", "location": "westeurope", "subscriptionId": fixSubID},
		},
		Resources: []azure.Resource{
			{
				"id":   fixVNetID,
				"name": "vnet-prod",
				"type": "microsoft.network/virtualnetworks",
				"properties": map[string]any{
					"addressSpace": map[string]any{
						"addressPrefixes": []any{"10.0.0.0/16"},
					},
					"subnets": []any{
						map[string]any{
							"id":   fixSubnetWeb,
							"name": "web",
							"properties": map[string]any{
								"addressPrefix":        "10.0.1.0/24",
								"networkSecurityGroup": map[string]any{"id": fixNSGID},
							},
						},
						map[string]any{
							"id":   fixSubnetDB,
							"name": "db",
							"properties": map[string]any{
								"addressPrefix": "10.0.2.0/24",
								"delegations": []any{
									map[string]any{
										"name": "del-pgsql",
										"properties": map[string]any{
											"serviceName": "Microsoft.DBforPostgreSQL/flexibleServers",
										},
									},
								},
							},
						},
					},
				},
			},
			{
				"id":         fixHubVNetID,
				"name":       "vnet-hub",
				"type":       "microsoft.network/virtualnetworks",
				"properties": map[string]any{},
			},
			{
				"id":   fixVMID,
				"name": "vm-web",
				"type": "microsoft.compute/virtualmachines",
				"sku":  map[string]any{"name": "Standard_D2s_v3"},
				"properties": map[string]any{
					"networkProfile": map[string]any{
						"networkInterfaces": []any{
							map[string]any{"id": fixNICID},
						},
					},
				},
				"location": "westeurope",
			},
			{
				"id":   fixNICID,
				"name": "nic-web",
				"type": "microsoft.network/networkinterfaces",
				"properties": map[string]any{
					"ipConfigurations": []any{
						map[string]any{
							"properties": map[string]any{
								"privateIPAddress": "10.0.1.4",
								"subnet":           map[string]any{"id": fixSubnetWeb},
								"publicIPAddress":  map[string]any{"id": fixPIPID},
							},
						},
					},
				},
			},
			{
				"id":         fixPIPID,
				"name":       "pip-web",
				"type":       "microsoft.network/publicipaddresses",
				"properties": map[string]any{"ipAddress": "20.13.7.2"},
			},
			{
				"id":   fixNSGID,
				"name": "web-nsg",
				"type": "microsoft.network/networksecuritygroups",
				"properties": map[string]any{
					"subnets": []any{
						map[string]any{"id": fixSubnetWeb},
					},
				},
			},
			{
				"id":   fixPEID,
				"name": "pe-db",
				"type": "microsoft.network/privateendpoints",
				"properties": map[string]any{
					"subnet": map[string]any{"id": fixSubnetDB},
					"privateLinkServiceConnections": []any{
						map[string]any{
							"properties": map[string]any{
								"privateLinkServiceId": fixSQLID,
							},
						},
					},
				},
			},
			{
				"id":       fixSQLID,
				"name":     "sql-01",
				"type":     "microsoft.sql/servers",
				"location": "westeurope",
			},
			{
				"id":         fixASPID,
				"name":       "plan-prod",
				"type":       "microsoft.web/serverfarms",
				"sku":        map[string]any{"name": "P1v3", "tier": "PremiumV3"},
				"properties": map[string]any{},
			},
			{
				"id":   fixAppFront,
				"name": "frontend-app",
				"type": "microsoft.web/sites",
				"properties": map[string]any{
					"serverFarmId": fixASPID,
				},
			},
			{
				"id":   fixAppAPI,
				"name": "api-app",
				"type": "microsoft.web/sites",
				"properties": map[string]any{
					"serverFarmId": fixASPID,
				},
			},
			{
				"id":   fixRTID,
				"name": "rt-web",
				"type": "microsoft.network/routetables",
				"properties": map[string]any{
					"subnets": []any{
						map[string]any{"id": fixSubnetWeb},
					},
					"routes": []any{
						map[string]any{
							"name": "to-firewall",
							"properties": map[string]any{
								"addressPrefix": "0.0.0.0/0",
								"nextHopType":   "VirtualAppliance",
							},
						},
					},
				},
			},
		},
		NSGRules: []discovery.NSGRule{
			{
				NSGID: fixNSGID, NSGName: "web-nsg", RuleName: "allow-https",
				Direction: "Inbound", Access: "Allow", Protocol: "Tcp",
				SourceAddressPrefix: "Internet", DestinationAddressPrefix: "10.0.1.0/24",
				DestinationPortRange: "443", Priority: 100,
			},
		},
		Peerings: []discovery.VNetPeering{
			{
				VNetID: fixVNetID, VNetName: "vnet-prod", PeeringName: "to-hub",
				RemoteVNetID: fixHubVNetID, PeeringState: "Connected",
			},
		},
	}

	// Resource Graph rows always carry these columns.
	for i := range snap.Resources {
		r := snap.Resources[i]
		r["subscriptionId"] = fixSubID
		if r["name"] == "vnet-hub" {
			r["resourceGroup"] = "rg-hub"
		} else {
			r["resourceGroup"] = "rg-web"
		}
	}

	snap.Derive()
	return snap
}

var emptySnapshot = discovery.Snapshot{}

// findGroup returns the group with the given ID, or nil.
func findGroup(page graph.Page, id string) *graph.Group {
	for i := range page.Groups {
		if page.Groups[i].ID == id {
			return &page.Groups[i]
		}
	}
	return nil
}

// findNode returns the node with the given ID, or nil.
func findNode(page graph.Page, id string) *graph.Node {
	for i := range page.Nodes {
		if page.Nodes[i].ID == id {
			return &page.Nodes[i]
		}
	}
	return nil
}

// hasEdge reports whether an edge with the given endpoints exists.
func hasEdge(page graph.Page, source, target string) bool {
	for _, e := range page.Edges {
		if e.SourceID == source && e.TargetID == target {
			return true
		}
	}
	return false
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
