package discovery

import (
	"reflect"
	"testing"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

func testPublicIP(id, addr string) azure.Resource {
	r := azure.Resource{
		"id":         id,
		"type":       "Microsoft.Network/publicIPAddresses",
		"name":       "pip",
		"properties": map[string]any{},
	}
	if addr != "" {
		r["properties"] = map[string]any{"ipAddress": addr}
	}
	return r
}

func TestVMIPsResolveThroughNIC(t *testing.T) {
	resources := []azure.Resource{
		testNIC(nicID),
		testPublicIP(pipID, "20.1.2.3"),
	}
	idx := NewIPIndex(resources)

	got := idx.VMIPs(testVM(vmID, nicID))
	want := []string{"priv: 10.0.1.4", "pub: 20.1.2.3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VMIPs = %v, want %v", got, want)
	}
}

func TestVMIPsNoPublicWithoutResolvedAddress(t *testing.T) {
	// NIC references a public IP, but the public IP resource either lacks
	// an allocated address or is missing entirely. No "pub:" entry.
	tests := []struct {
		name      string
		resources []azure.Resource
	}{
		{"PublicIPNotAllocated", []azure.Resource{testNIC(nicID), testPublicIP(pipID, "")}},
		{"PublicIPMissing", []azure.Resource{testNIC(nicID)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIPIndex(tt.resources)
			got := idx.VMIPs(testVM(vmID, nicID))
			want := []string{"priv: 10.0.1.4"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("VMIPs = %v, want %v", got, want)
			}
		})
	}
}

func TestFrontendIPs(t *testing.T) {
	lbID := "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/loadbalancers/lb1"
	lb := azure.Resource{
		"id":   lbID,
		"type": "Microsoft.Network/loadBalancers",
		"properties": map[string]any{
			"frontendIPConfigurations": []any{
				map[string]any{
					"properties": map[string]any{"privateIPAddress": "10.0.2.10"},
				},
				map[string]any{
					"properties": map[string]any{"publicIPAddress": map[string]any{"id": pipID}},
				},
			},
		},
	}
	idx := NewIPIndex([]azure.Resource{lb, testPublicIP(pipID, "52.10.20.30")})

	got := idx.FrontendIPs(lb)
	want := []string{"fe: 10.0.2.10", "fe: 52.10.20.30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FrontendIPs = %v, want %v", got, want)
	}
}

func TestResourceIPs(t *testing.T) {
	pip := testPublicIP(pipID, "20.1.2.3")
	idx := NewIPIndex([]azure.Resource{testNIC(nicID), pip})

	tests := []struct {
		name     string
		resource azure.Resource
		want     []string
	}{
		{"VM", testVM(vmID, nicID), []string{"priv: 10.0.1.4", "pub: 20.1.2.3"}},
		{"PublicIPLiteral", pip, []string{"20.1.2.3"}},
		{"NoIPSemantics", azure.Resource{"id": "x", "type": "microsoft.sql/servers"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.ResourceIPs(tt.resource)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResourceIPs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIPDisplayJoins(t *testing.T) {
	idx := NewIPIndex([]azure.Resource{testNIC(nicID), testPublicIP(pipID, "20.1.2.3")})
	got := idx.IPDisplay(testVM(vmID, nicID))
	want := "priv: 10.0.1.4 | pub: 20.1.2.3"
	if got != want {
		t.Errorf("IPDisplay = %q, want %q", got, want)
	}
}

func TestHasPublicIP(t *testing.T) {
	privateLB := azure.Resource{
		"id":   "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/loadbalancers/internal-lb",
		"type": "Microsoft.Network/loadBalancers",
		"properties": map[string]any{
			"frontendIPConfigurations": []any{
				map[string]any{"properties": map[string]any{"privateIPAddress": "10.0.2.10"}},
			},
		},
	}
	publicLB := azure.Resource{
		"id":   "/subscriptions/s1/resourcegroups/rg1/providers/microsoft.network/loadbalancers/public-lb",
		"type": "Microsoft.Network/loadBalancers",
		"properties": map[string]any{
			"frontendIPConfigurations": []any{
				map[string]any{"properties": map[string]any{"publicIPAddress": map[string]any{"id": pipID}}},
			},
		},
	}

	idx := NewIPIndex([]azure.Resource{testNIC(nicID), testPublicIP(pipID, "52.10.20.30"), privateLB, publicLB})

	tests := []struct {
		name     string
		resource azure.Resource
		want     bool
	}{
		{"PublicIPResource", testPublicIP(pipID, "52.10.20.30"), true},
		{"VMWithPublicIP", testVM(vmID, nicID), true},
		{"PrivateOnlyLB", privateLB, false},
		{"PublicLB", publicLB, true},
		{"TypeWithoutIPs", azure.Resource{"id": "x", "type": "microsoft.sql/servers"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.HasPublicIP(tt.resource); got != tt.want {
				t.Errorf("HasPublicIP = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasPublicIPVMWithoutPublicAddress(t *testing.T) {
	idx := NewIPIndex([]azure.Resource{testNIC(nicID)})
	if idx.HasPublicIP(testVM(vmID, nicID)) {
		t.Error("VM with only a private address reported as public")
	}
}

func TestIsPrivateFrontendRFC1918(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"fe: 10.0.0.1", true},
		{"fe: 172.16.0.1", true},
		{"fe: 192.168.1.1", true},
		{"fe: 52.10.20.30", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isPrivateFrontend(tt.ip); got != tt.want {
				t.Errorf("isPrivateFrontend(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}
