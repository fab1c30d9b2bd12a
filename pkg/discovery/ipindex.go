package discovery

import (
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

// IP display tags. Resolved addresses are rendered as "<tag> <address>".
const (
	ipTagPrivate  = "priv:"
	ipTagPublic   = "pub:"
	ipTagFrontend = "fe:"
)

// IPIndex resolves displayable IP addresses for resources. It is built once
// from the full resource set in a single pass; lookups never re-scan
// resources.
type IPIndex struct {
	nicPrivateIPs  map[string][]string // NIC ID -> private addresses
	nicPublicIPIDs map[string][]string // NIC ID -> referenced public-IP resource IDs
	publicIPAddrs  map[string]string   // public-IP resource ID -> literal address
}

// NewIPIndex builds the reverse lookup tables from a resource set.
func NewIPIndex(resources []azure.Resource) *IPIndex {
	idx := &IPIndex{
		nicPrivateIPs:  make(map[string][]string),
		nicPublicIPIDs: make(map[string][]string),
		publicIPAddrs:  make(map[string]string),
	}

	for _, resource := range resources {
		rid := resource.ID()
		props := resource.Properties()

		switch resource.Type() {
		case azure.TypePublicIP:
			if addr := azure.GetString(props, "ipAddress"); addr != "" {
				idx.publicIPAddrs[rid] = addr
			}

		case azure.TypeNetworkIface:
			for _, raw := range azure.GetSlice(props, "ipConfigurations") {
				ipConfig, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				ipProps := azure.GetMap(ipConfig, "properties")
				if priv := azure.GetString(ipProps, "privateIPAddress"); priv != "" {
					idx.nicPrivateIPs[rid] = append(idx.nicPrivateIPs[rid], priv)
				}
				if pipID := azure.RefID(azure.GetMap(ipProps, "publicIPAddress")); pipID != "" {
					idx.nicPublicIPIDs[rid] = append(idx.nicPublicIPIDs[rid], pipID)
				}
			}
		}
	}
	return idx
}

// VMIPs returns tagged IP strings for a VM by following its NIC references
// through the index: "priv: <addr>" per private address and "pub: <addr>"
// per linked public IP that resolved to a literal address.
func (idx *IPIndex) VMIPs(vm azure.Resource) []string {
	var ips []string
	for _, ref := range azure.GetSlice(vm.Properties(), "networkProfile", "networkInterfaces") {
		nicID := azure.RefID(ref)
		if nicID == "" {
			continue
		}
		for _, priv := range idx.nicPrivateIPs[nicID] {
			ips = append(ips, ipTagPrivate+" "+priv)
		}
		for _, pipID := range idx.nicPublicIPIDs[nicID] {
			if addr := idx.publicIPAddrs[pipID]; addr != "" {
				ips = append(ips, ipTagPublic+" "+addr)
			}
		}
	}
	return ips
}

// FrontendIPs returns tagged frontend addresses for a load balancer or
// application gateway (both use the same frontendIPConfigurations shape).
func (idx *IPIndex) FrontendIPs(resource azure.Resource) []string {
	var ips []string
	for _, raw := range azure.GetSlice(resource.Properties(), "frontendIPConfigurations") {
		feConfig, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		feProps := azure.GetMap(feConfig, "properties")
		if priv := azure.GetString(feProps, "privateIPAddress"); priv != "" {
			ips = append(ips, ipTagFrontend+" "+priv)
		}
		if pipID := azure.RefID(azure.GetMap(feProps, "publicIPAddress")); pipID != "" {
			if addr := idx.publicIPAddrs[pipID]; addr != "" {
				ips = append(ips, ipTagFrontend+" "+addr)
			}
		}
	}
	return ips
}

// ResourceIPs returns the tagged IP set appropriate to the resource's type.
// Types without IP semantics yield nil.
func (idx *IPIndex) ResourceIPs(resource azure.Resource) []string {
	switch resource.Type() {
	case azure.TypeVirtualMachine:
		return idx.VMIPs(resource)
	case azure.TypeLoadBalancer, azure.TypeAppGateway:
		return idx.FrontendIPs(resource)
	case azure.TypePublicIP:
		if addr := azure.GetString(resource.Properties(), "ipAddress"); addr != "" {
			return []string{addr}
		}
	}
	return nil
}

// IPDisplay joins the resource's resolved IPs into one display string.
func (idx *IPIndex) IPDisplay(resource azure.Resource) string {
	return strings.Join(idx.ResourceIPs(resource), " | ")
}

// HasPublicIP reports whether a resource is reachable on a public address.
// For load balancers and gateways a frontend address only counts as public
// when it falls outside the RFC1918 ranges (heuristic, not authoritative).
func (idx *IPIndex) HasPublicIP(resource azure.Resource) bool {
	switch resource.Type() {
	case azure.TypePublicIP:
		return true
	case azure.TypeVirtualMachine:
		for _, ip := range idx.VMIPs(resource) {
			if strings.HasPrefix(ip, ipTagPublic) {
				return true
			}
		}
	case azure.TypeLoadBalancer, azure.TypeAppGateway:
		for _, ip := range idx.FrontendIPs(resource) {
			if !isPrivateFrontend(ip) {
				return true
			}
		}
	}
	return false
}

func isPrivateFrontend(taggedIP string) bool {
	return strings.HasPrefix(taggedIP, ipTagFrontend+" 10.") ||
		strings.HasPrefix(taggedIP, ipTagFrontend+" 172.") ||
		strings.HasPrefix(taggedIP, ipTagFrontend+" 192.168.")
}
