// Package templates builds diagram pages from discovery snapshots.
//
// Each template turns one view of the discovered estate into a graph.Page:
//
//   - network: VNets and subnets as nested containers with the resources
//     placed inside them, NSG associations, and VNet peering edges
//   - application: resources grouped into logical tiers (Ingress, Compute,
//     Integration, Data) in a left-to-right flow
//   - high-level: subscription and resource group containers with
//     per-type resource counts, for executive overviews
//   - data-flow: directional flows derived from NSG rules, private
//     endpoints, service endpoints, and diagnostic settings
//   - security: subnets color-coded by risk from NSG coverage and
//     public exposure
//
// Templates produce unpositioned pages; each carries the layout strategy
// the pipeline should apply before rendering.
package templates
