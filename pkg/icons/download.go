package icons

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rime13-coder/azure-diagram-generator/pkg/httputil"
)

// searchMap maps each icon filename the type registry references to the
// name fragments that identify it inside the Microsoft bundle. The bundle
// lays icons out as
// Azure_Public_Service_Icons/Icons/<category>/<id>-icon-service-<Name>.svg;
// matching runs against the base filename, first pattern wins.
var searchMap = map[string][]string{
	"vm.svg":                 {"Virtual-Machine", "Virtual Machine"},
	"vmss.svg":               {"VM-Scale-Set", "Virtual Machine Scale Set"},
	"app-service.svg":        {"App-Service", "App Service"},
	"app-service-plan.svg":   {"App-Service-Plan", "App Service Plan"},
	"function-app.svg":       {"Function-App", "Function App"},
	"aks.svg":                {"Kubernetes", "AKS"},
	"container-instance.svg": {"Container-Instance", "Container Instance"},
	"container-registry.svg": {"Container-Registr", "Container Registry"},
	"vnet.svg":               {"Virtual-Network", "Virtual Network"},
	"subnet.svg":             {"Subnet"},
	"nic.svg":                {"Network-Interface", "NIC"},
	"public-ip.svg":          {"Public-IP", "Public IP"},
	"load-balancer.svg":      {"Load-Balancer", "Load Balancer"},
	"app-gateway.svg":        {"Application-Gateway", "App Gateway"},
	"firewall.svg":           {"Firewall"},
	"nsg.svg":                {"Network-Security-Group", "NSG"},
	"private-endpoint.svg":   {"Private-Endpoint", "Private Endpoint"},
	"vpn-gateway.svg":        {"VPN-Gateway", "VPN Gateway", "Virtual-Network-Gateway"},
	"expressroute.svg":       {"ExpressRoute"},
	"dns-zone.svg":           {"DNS"},
	"traffic-manager.svg":    {"Traffic-Manager", "Traffic Manager"},
	"front-door.svg":         {"Front-Door", "Front Door"},
	"route-table.svg":        {"Route-Table", "Route Table"},
	"sql-server.svg":         {"SQL-Server", "SQL Server"},
	"sql-database.svg":       {"SQL-Database", "SQL Database"},
	"cosmos-db.svg":          {"Cosmos", "Azure Cosmos"},
	"mysql.svg":              {"MySQL"},
	"postgresql.svg":         {"PostgreSQL"},
	"redis-cache.svg":        {"Redis", "Cache for Redis"},
	"storage-account.svg":    {"Storage-Account", "Storage Account"},
	"key-vault.svg":          {"Key-Vault", "Key Vault"},
	"waf.svg":                {"WAF", "Web-Application-Firewall"},
	"service-bus.svg":        {"Service-Bus", "Service Bus"},
	"event-hub.svg":          {"Event-Hub", "Event Hub"},
	"event-grid.svg":         {"Event-Grid", "Event Grid"},
	"api-management.svg":     {"API-Management", "API Management"},
	"logic-app.svg":          {"Logic-App", "Logic App"},
	"app-insights.svg":       {"Application-Insights", "App Insights"},
	"log-analytics.svg":      {"Log-Analytics", "Log Analytics"},
	"managed-identity.svg":   {"Managed-Identit", "Managed Identity"},
}

// genericSVG is the placeholder icon for resource types without a match.
const genericSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">
  <rect x="4" y="4" width="56" height="56" rx="8" ry="8"
        fill="#B4B4B4" stroke="#808080" stroke-width="2"/>
  <text x="32" y="38" text-anchor="middle" font-family="Segoe UI, sans-serif"
        font-size="18" fill="#FFFFFF" font-weight="bold">Az</text>
</svg>`

// Download fetches the icon bundle from url and extracts every mapped icon
// into the library directory under its registry filename. It returns the
// number of icons written (including the generated generic placeholder).
func (l *Library) Download(ctx context.Context, url string) (int, error) {
	if url == "" {
		url = DefaultURL
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp("", "azure-icons-*.zip")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	client := httputil.NewHTTPClient()
	client.Timeout = 0 // The bundle is ~50MB; let ctx govern the deadline.
	err = httputil.RetryWithBackoff(ctx, func() error {
		if _, err := tmp.Seek(0, 0); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}
		return httputil.Download(ctx, client, url, tmp)
	})
	if err != nil {
		return 0, fmt.Errorf("download icon bundle: %w", err)
	}

	count, err := l.extractZip(tmp.Name())
	if err != nil {
		return count, err
	}

	if err := os.WriteFile(filepath.Join(l.dir, "generic.svg"), []byte(genericSVG), 0644); err != nil {
		return count, err
	}
	return count + 1, nil
}

// ExtractBundle extracts mapped icons from an already-downloaded bundle,
// then writes the generic placeholder.
func (l *Library) ExtractBundle(zipPath string) (int, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return 0, err
	}
	count, err := l.extractZip(zipPath)
	if err != nil {
		return count, err
	}
	if err := os.WriteFile(filepath.Join(l.dir, "generic.svg"), []byte(genericSVG), 0644); err != nil {
		return count, err
	}
	return count + 1, nil
}

func (l *Library) extractZip(zipPath string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open icon bundle: %w", err)
	}
	defer zr.Close()

	var svgs []*zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".svg") {
			svgs = append(svgs, f)
		}
	}

	count := 0
	for target, patterns := range searchMap {
		match := findMatch(svgs, patterns)
		if match == nil {
			continue
		}
		if err := extractFile(match, filepath.Join(l.dir, target)); err != nil {
			return count, fmt.Errorf("extract %s: %w", target, err)
		}
		count++
	}
	return count, nil
}

// findMatch returns the first SVG whose base filename contains any pattern,
// checked in pattern order.
func findMatch(svgs []*zip.File, patterns []string) *zip.File {
	for _, pattern := range patterns {
		p := strings.ToLower(pattern)
		for _, f := range svgs {
			base := strings.ToLower(filepath.Base(f.Name))
			if strings.Contains(base, p) {
				return f
			}
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.ReadFrom(rc)
	return err
}
