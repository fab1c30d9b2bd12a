// Package layout positions diagram elements on a page.
//
// Three strategies are provided, each suited to one diagram style:
//
//   - StrategyHierarchical: top-down nesting for network topology,
//     groups side by side with nodes wrapped into rows.
//   - StrategyLeftToRight: vertical swim lanes for application
//     architecture, flow runs from ingress to data stores.
//   - StrategyGrid: fixed-size cells for high-level overviews.
//
// Layout mutates the page in place, writing node positions and group
// geometry. Child IDs that resolve to neither a node nor a group on
// the page are skipped. Unknown strategies fall back to hierarchical.
package layout
